package interfaces

import (
	"context"

	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// Repository defines the interface for incident persistence
type Repository interface {
	// PutIncident inserts a new incident at the front of the collection, or
	// replaces the existing record with the same ID in place
	PutIncident(ctx context.Context, incident *model.Incident) error
	// GetIncident returns model.ErrIncidentNotFound (wrapped) for unknown IDs
	GetIncident(ctx context.Context, id types.IncidentID) (*model.Incident, error)
	// ListIncidents returns all incidents, most recently created first
	ListIncidents(ctx context.Context) ([]*model.Incident, error)
	// DeleteIncident returns model.ErrIncidentNotFound (wrapped) for unknown IDs
	DeleteIncident(ctx context.Context, id types.IncidentID) error

	// Close closes the repository connection
	Close() error
}
