package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
	"github.com/secmon-lab/vigia/pkg/utils/apperr"
)

// maxIDAttempts bounds regeneration when a generated ID is already taken
const maxIDAttempts = 3

// IncidentStoreOption is a functional option for configuring IncidentStore
type IncidentStoreOption func(*IncidentStore)

// WithClock overrides the time source used for createdAt stamps
func WithClock(clock func() time.Time) IncidentStoreOption {
	return func(s *IncidentStore) {
		s.now = clock
	}
}

// WithIDGenerator overrides incident ID generation
func WithIDGenerator(gen func() (types.IncidentID, error)) IncidentStoreOption {
	return func(s *IncidentStore) {
		s.newID = gen
	}
}

// Observer receives every effective change applied to the store
type Observer func(ctx context.Context, change model.Change)

// IncidentStore is the authoritative incident collection and the only
// sanctioned place to mutate incidents. It is constructed and closed
// explicitly by its owner; every call after Close fails with
// model.ErrStoreClosed.
//
// Mutations on unknown IDs are no-ops, while GetByID reports not found.
// Observers are called synchronously while the mutation lock is held, so
// they must not call mutators.
type IncidentStore struct {
	repo  interfaces.Repository
	blobs interfaces.BlobStore
	now   func() time.Time
	newID func() (types.IncidentID, error)

	mu        sync.Mutex
	closed    atomic.Bool
	observers map[int]Observer
	nextObsID int
}

// NewIncidentStore creates a new IncidentStore
func NewIncidentStore(repo interfaces.Repository, blobs interfaces.BlobStore, opts ...IncidentStoreOption) *IncidentStore {
	s := &IncidentStore{
		repo:      repo,
		blobs:     blobs,
		now:       time.Now,
		newID:     types.NewIncidentID,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *IncidentStore) checkLifetime() error {
	if s.closed.Load() {
		return goerr.Wrap(model.ErrStoreClosed, "incident store is closed")
	}
	return nil
}

// Close ends the store lifetime. The repository and blob store are owned by
// the caller and left open.
func (s *IncidentStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed.Store(true)
	clear(s.observers)
}

// Subscribe registers an observer and returns a function removing it
func (s *IncidentStore) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// notify must be called with mu held
func (s *IncidentStore) notify(ctx context.Context, change model.Change) {
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		s.observers[id](ctx, change)
	}
}

// Seed loads records in the given list order (first element ends up first)
func (s *IncidentStore) Seed(ctx context.Context, incidents []*model.Incident) error {
	if err := s.checkLifetime(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(incidents) - 1; i >= 0; i-- {
		if err := s.repo.PutIncident(ctx, incidents[i]); err != nil {
			return goerr.Wrap(err, "failed to seed incident", goerr.V("id", incidents[i].ID))
		}
	}

	ctxlog.From(ctx).Info("Seeded incident store", "count", len(incidents))
	return nil
}

// Create adds a new draft incident at the front of the collection and
// returns its ID
func (s *IncidentStore) Create(ctx context.Context, draft *model.IncidentDraft) (types.IncidentID, error) {
	if err := s.checkLifetime(); err != nil {
		return "", err
	}
	if draft == nil {
		return "", goerr.New("incident draft is nil", goerr.T(model.ErrTagInvalidInput))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.generateID(ctx)
	if err != nil {
		return "", err
	}

	incident := model.NewIncident(id, draft, s.now())

	attachments, err := s.materializeAttachments(ctx, id, draft.Attachments)
	if err != nil {
		return "", err
	}
	incident.Attachments = attachments

	if err := s.repo.PutIncident(ctx, incident); err != nil {
		s.releaseAttachments(ctx, attachments)
		return "", goerr.Wrap(err, "failed to save incident", goerr.V("id", id))
	}

	ctxlog.From(ctx).Info("Incident created",
		"id", id,
		"airline", incident.Airline,
		"attachments", len(attachments),
	)

	s.notify(ctx, model.Change{
		Kind:       model.ChangeCreated,
		IncidentID: id,
		Incident:   incident.Clone(),
	})

	return id, nil
}

func (s *IncidentStore) generateID(ctx context.Context) (types.IncidentID, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", goerr.Wrap(err, "failed to generate incident ID")
		}

		_, err = s.repo.GetIncident(ctx, id)
		if errors.Is(err, model.ErrIncidentNotFound) {
			return id, nil
		}
		if err != nil {
			return "", goerr.Wrap(err, "failed to check incident ID", goerr.V("id", id))
		}
	}

	return "", goerr.New("failed to generate unique incident ID", goerr.V("attempts", maxIDAttempts))
}

func (s *IncidentStore) materializeAttachments(ctx context.Context, id types.IncidentID, files []model.AttachmentFile) ([]model.Attachment, error) {
	attachments := make([]model.Attachment, 0, len(files))
	for i, file := range files {
		attachmentID := types.NewAttachmentID(id, i)
		url, err := s.blobs.Put(ctx, attachmentID.String(), file.MediaType, file.Data)
		if err != nil {
			s.releaseAttachments(ctx, attachments)
			return nil, goerr.Wrap(err, "failed to store attachment",
				goerr.V("incidentID", id),
				goerr.V("name", file.Name),
			)
		}

		attachments = append(attachments, model.Attachment{
			ID:   attachmentID,
			Name: file.Name,
			URL:  url,
			Type: model.ClassifyMediaType(file.MediaType),
		})
	}
	return attachments, nil
}

// releaseAttachments frees blobs; failures are logged since the records are already gone
func (s *IncidentStore) releaseAttachments(ctx context.Context, attachments []model.Attachment) {
	for _, a := range attachments {
		if err := s.blobs.Release(ctx, a.ID.String()); err != nil {
			apperr.Handle(ctx, goerr.Wrap(err, "failed to release attachment", goerr.V("attachmentID", a.ID)))
		}
	}
}

// GetByID returns the incident or an error wrapping model.ErrIncidentNotFound
func (s *IncidentStore) GetByID(ctx context.Context, id types.IncidentID) (*model.Incident, error) {
	if err := s.checkLifetime(); err != nil {
		return nil, err
	}

	incident, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get incident", goerr.V("id", id))
	}
	return incident, nil
}

// List returns the collection, most recently created first. When statuses
// are given, only incidents in one of them are returned.
func (s *IncidentStore) List(ctx context.Context, statuses ...types.IncidentStatus) ([]*model.Incident, error) {
	if err := s.checkLifetime(); err != nil {
		return nil, err
	}

	incidents, err := s.repo.ListIncidents(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list incidents")
	}

	if len(statuses) == 0 {
		return incidents, nil
	}

	return slices.DeleteFunc(incidents, func(i *model.Incident) bool {
		return !slices.Contains(statuses, i.Status)
	}), nil
}

// update applies fn to the stored record and saves the result. It returns
// the changed record, or nil when the incident does not exist.
// Must be called with mu held.
func (s *IncidentStore) update(ctx context.Context, id types.IncidentID, kind model.ChangeKind, fn func(*model.Incident)) (*model.Incident, error) {
	current, err := s.repo.GetIncident(ctx, id)
	if errors.Is(err, model.ErrIncidentNotFound) {
		ctxlog.From(ctx).Debug("Ignoring update of unknown incident", "id", id, "kind", kind)
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get incident", goerr.V("id", id))
	}

	updated := current.Clone()
	fn(updated)

	if err := s.repo.PutIncident(ctx, updated); err != nil {
		return nil, goerr.Wrap(err, "failed to save incident", goerr.V("id", id))
	}

	s.notify(ctx, model.Change{
		Kind:       kind,
		IncidentID: id,
		Incident:   updated.Clone(),
		Previous:   current,
	})

	return updated, nil
}

// UpdateStatus sets the workflow status. Any status may follow any other.
func (s *IncidentStore) UpdateStatus(ctx context.Context, id types.IncidentID, status types.IncidentStatus) error {
	if err := s.checkLifetime(); err != nil {
		return err
	}
	if !status.IsValid() {
		return goerr.New("invalid status",
			goerr.V("status", status),
			goerr.T(model.ErrTagInvalidStatus))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.update(ctx, id, model.ChangeStatusChanged, func(i *model.Incident) {
		i.Status = status
	})
	if err != nil {
		return err
	}
	if updated != nil {
		ctxlog.From(ctx).Info("Incident status updated", "id", id, "status", status)
	}
	return nil
}

// UpdateReport replaces the investigation text, leaving every other field unchanged
func (s *IncidentStore) UpdateReport(ctx context.Context, id types.IncidentID, investigation string) error {
	if err := s.checkLifetime(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.update(ctx, id, model.ChangeReportUpdated, func(i *model.Incident) {
		i.Investigation = investigation
	})
	return err
}

// ReviseReport replaces the investigation only if it still reads base. An
// edit applied after base was read fails with model.ErrReportConflict and
// wins over the revision. ctx is checked after the lock is taken.
func (s *IncidentStore) ReviseReport(ctx context.Context, id types.IncidentID, base, investigation string) error {
	if err := s.checkLifetime(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return goerr.Wrap(err, "report revision cancelled", goerr.V("id", id))
	}

	current, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to get incident", goerr.V("id", id))
	}
	if current.Investigation != base {
		return goerr.Wrap(model.ErrReportConflict, "investigation was edited during revision", goerr.V("id", id))
	}

	_, err = s.update(ctx, id, model.ChangeReportUpdated, func(i *model.Incident) {
		i.Investigation = investigation
	})
	return err
}

// RemoveAttachment drops one attachment, keeping the order of the rest, and
// releases its blob
func (s *IncidentStore) RemoveAttachment(ctx context.Context, id types.IncidentID, attachmentID types.AttachmentID) error {
	if err := s.checkLifetime(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.GetIncident(ctx, id)
	if errors.Is(err, model.ErrIncidentNotFound) {
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to get incident", goerr.V("id", id))
	}

	idx := current.FindAttachment(attachmentID)
	if idx < 0 {
		return nil
	}
	removed := current.Attachments[idx]

	if _, err := s.update(ctx, id, model.ChangeAttachmentRemoved, func(i *model.Incident) {
		i.Attachments = slices.Delete(i.Attachments, idx, idx+1)
	}); err != nil {
		return err
	}

	s.releaseAttachments(ctx, []model.Attachment{removed})
	return nil
}

// Delete removes the incident irreversibly and releases its attachment blobs
func (s *IncidentStore) Delete(ctx context.Context, id types.IncidentID) error {
	if err := s.checkLifetime(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.GetIncident(ctx, id)
	if errors.Is(err, model.ErrIncidentNotFound) {
		ctxlog.From(ctx).Debug("Ignoring delete of unknown incident", "id", id)
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to get incident", goerr.V("id", id))
	}

	if err := s.repo.DeleteIncident(ctx, id); err != nil {
		if errors.Is(err, model.ErrIncidentNotFound) {
			return nil
		}
		return goerr.Wrap(err, "failed to delete incident", goerr.V("id", id))
	}

	s.releaseAttachments(ctx, current.Attachments)

	ctxlog.From(ctx).Info("Incident deleted", "id", id, "attachments", len(current.Attachments))

	s.notify(ctx, model.Change{
		Kind:       model.ChangeDeleted,
		IncidentID: id,
		Previous:   current,
	})

	return nil
}

var _ interfaces.Incident = (*IncidentStore)(nil)
