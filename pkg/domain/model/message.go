package model

import (
	"time"

	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// ChatMessage represents one entry of the report assistant conversation
type ChatMessage struct {
	Role      types.ChatRole `json:"role"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
}

// FlightInfo is the flight data filled in from an airline and flight number
type FlightInfo struct {
	DepartureAirport string `json:"departureAirport"`
	ArrivingAirport  string `json:"arrivingAirport"`
	Registration     string `json:"registration"`
	BaseIATA         string `json:"baseIATA"`
}

// ChangeKind identifies what a store mutation did
type ChangeKind string

const (
	ChangeCreated           ChangeKind = "created"
	ChangeStatusChanged     ChangeKind = "status_changed"
	ChangeReportUpdated     ChangeKind = "report_updated"
	ChangeAttachmentRemoved ChangeKind = "attachment_removed"
	ChangeDeleted           ChangeKind = "deleted"
)

// Change is delivered to store observers after each effective mutation
type Change struct {
	Kind       ChangeKind
	IncidentID types.IncidentID
	Incident   *Incident // State after the change, nil when deleted
	Previous   *Incident // State before the change, nil when created
}

// ReportRevision is a revised investigation text with the answer shown to the user
type ReportRevision struct {
	Reply         string `json:"reply"`
	Investigation string `json:"investigation"`
}

// RevisionRequest carries what a reviser needs to rewrite a report
type RevisionRequest struct {
	Incident *Incident
	Manuals  []Manual
	History  []ChatMessage
	Feedback string
}
