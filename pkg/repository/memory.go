package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// Memory implements Repository interface with in-memory storage.
// Incidents are kept in collection order, most recently inserted first.
type Memory struct {
	mu        sync.RWMutex
	incidents []*model.Incident
}

// NewMemory creates a new memory repository
func NewMemory() interfaces.Repository {
	return &Memory{
		incidents: make([]*model.Incident, 0),
	}
}

func (m *Memory) indexOf(id types.IncidentID) int {
	return slices.IndexFunc(m.incidents, func(i *model.Incident) bool {
		return i.ID == id
	})
}

// PutIncident inserts or replaces an incident
func (m *Memory) PutIncident(ctx context.Context, incident *model.Incident) error {
	if incident == nil {
		return goerr.New("incident is nil")
	}
	if err := incident.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incident")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Deep copy to prevent external modifications
	incidentCopy := incident.Clone()
	if idx := m.indexOf(incident.ID); idx >= 0 {
		m.incidents[idx] = incidentCopy
		return nil
	}

	m.incidents = slices.Insert(m.incidents, 0, incidentCopy)
	return nil
}

// GetIncident retrieves an incident by ID
func (m *Memory) GetIncident(ctx context.Context, id types.IncidentID) (*model.Incident, error) {
	// No record is ever stored under an invalid ID
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(model.ErrIncidentNotFound, "invalid incident ID", goerr.V("id", id), goerr.V("reason", err.Error()))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return nil, goerr.Wrap(model.ErrIncidentNotFound, "failed to get incident", goerr.V("id", id))
	}

	// Return a copy to prevent external modification
	return m.incidents[idx].Clone(), nil
}

// ListIncidents retrieves all incidents in collection order
func (m *Memory) ListIncidents(ctx context.Context) ([]*model.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	incidents := make([]*model.Incident, 0, len(m.incidents))
	for _, incident := range m.incidents {
		incidents = append(incidents, incident.Clone())
	}

	return incidents, nil
}

// DeleteIncident removes an incident by ID
func (m *Memory) DeleteIncident(ctx context.Context, id types.IncidentID) error {
	if err := id.Validate(); err != nil {
		return goerr.Wrap(model.ErrIncidentNotFound, "invalid incident ID", goerr.V("id", id), goerr.V("reason", err.Error()))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return goerr.Wrap(model.ErrIncidentNotFound, "failed to delete incident", goerr.V("id", id))
	}

	m.incidents = slices.Delete(m.incidents, idx, idx+1)
	return nil
}

// Close does nothing for memory repository
func (m *Memory) Close() error {
	return nil
}

var _ interfaces.Repository = (*Memory)(nil) // Compile-time interface check
