package model

import (
	"slices"
	"time"

	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// Incident represents one reported aviation event
type Incident struct {
	ID               types.IncidentID     `json:"id"`
	Date             string               `json:"date"` // Date of occurrence, ISO 8601 (e.g. "2025-04-08")
	Airline          string               `json:"airline"`
	DepartureAirport string               `json:"departureAirport"`
	ArrivingAirport  string               `json:"arrivingAirport"`
	Incident         string               `json:"incident"`      // Description, also used as root causes
	Investigation    string               `json:"investigation"` // Investigation notes, edited by the assistant
	Attachments      []Attachment         `json:"attachments"`
	Status           types.IncidentStatus `json:"status"`
	CreatedAt        time.Time            `json:"createdAt"`

	EventNumber     string           `json:"eventNumber,omitempty"`
	BaseIATA        string           `json:"baseIATA,omitempty"`
	Registration    string           `json:"registration,omitempty"`
	FlightNumber    string           `json:"flightNumber,omitempty"`
	ReportType      types.ReportType `json:"reportType,omitempty"`
	SelectedManuals []types.ManualID `json:"selectedManuals,omitempty"`
}

// Clone returns a deep copy so that callers never alias stored records
func (i *Incident) Clone() *Incident {
	if i == nil {
		return nil
	}
	c := *i
	c.Attachments = slices.Clone(i.Attachments)
	c.SelectedManuals = slices.Clone(i.SelectedManuals)
	return &c
}

// FindAttachment returns the index of the attachment with the given ID, or -1
func (i *Incident) FindAttachment(id types.AttachmentID) int {
	return slices.IndexFunc(i.Attachments, func(a Attachment) bool {
		return a.ID == id
	})
}

// IncidentDraft is the caller-supplied input for creating an incident.
// It carries no ID, status or creation time; those are assigned by the store.
type IncidentDraft struct {
	Date             string           `json:"date"`
	Airline          string           `json:"airline"`
	DepartureAirport string           `json:"departureAirport"`
	ArrivingAirport  string           `json:"arrivingAirport"`
	Incident         string           `json:"incident"`
	Investigation    string           `json:"investigation"`
	EventNumber      string           `json:"eventNumber,omitempty"`
	BaseIATA         string           `json:"baseIATA,omitempty"`
	Registration     string           `json:"registration,omitempty"`
	FlightNumber     string           `json:"flightNumber,omitempty"`
	ReportType       types.ReportType `json:"reportType,omitempty"`
	SelectedManuals  []types.ManualID `json:"selectedManuals,omitempty"`

	Attachments []AttachmentFile `json:"-"`
}

// NewIncident builds a draft-status incident from the draft. Attachments are
// materialized separately because their URLs come from the blob store.
func NewIncident(id types.IncidentID, draft *IncidentDraft, now time.Time) *Incident {
	return &Incident{
		ID:               id,
		Date:             draft.Date,
		Airline:          draft.Airline,
		DepartureAirport: draft.DepartureAirport,
		ArrivingAirport:  draft.ArrivingAirport,
		Incident:         draft.Incident,
		Investigation:    draft.Investigation,
		Attachments:      []Attachment{},
		Status:           types.IncidentStatusDraft,
		CreatedAt:        now,
		EventNumber:      draft.EventNumber,
		BaseIATA:         draft.BaseIATA,
		Registration:     draft.Registration,
		FlightNumber:     draft.FlightNumber,
		ReportType:       draft.ReportType,
		SelectedManuals:  dedupManuals(draft.SelectedManuals),
	}
}

func dedupManuals(ids []types.ManualID) []types.ManualID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[types.ManualID]bool, len(ids))
	result := make([]types.ManualID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
