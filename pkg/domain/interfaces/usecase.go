package interfaces

import (
	"context"

	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// Incident defines the incident report operations exposed to controllers
type Incident interface {
	Create(ctx context.Context, draft *model.IncidentDraft) (types.IncidentID, error)
	GetByID(ctx context.Context, id types.IncidentID) (*model.Incident, error)
	List(ctx context.Context, statuses ...types.IncidentStatus) ([]*model.Incident, error)
	UpdateStatus(ctx context.Context, id types.IncidentID, status types.IncidentStatus) error
	UpdateReport(ctx context.Context, id types.IncidentID, investigation string) error
	RemoveAttachment(ctx context.Context, id types.IncidentID, attachmentID types.AttachmentID) error
	Delete(ctx context.Context, id types.IncidentID) error
}

// Assistant defines the report assistant chat
type Assistant interface {
	// Ask sends feedback about the incident report and waits for the reply
	Ask(ctx context.Context, id types.IncidentID, feedback string) (*model.ChatMessage, error)
	History(ctx context.Context, id types.IncidentID) ([]model.ChatMessage, error)
}

// FlightLookup fills in flight data from an airline and flight number
type FlightLookup interface {
	Lookup(ctx context.Context, airline, flightNumber string) (*model.FlightInfo, error)
}
