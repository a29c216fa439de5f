package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// Collection names
	incidentsCollection = "incidents"

	// Field names (Firestore field names match Go struct field names)
	fieldCreatedAt = "CreatedAt"
)

// Firestore implements Repository interface with Firestore
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	// Create client with database ID
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	// Fail fast on invalid project or missing permissions
	_, err = client.Collection(incidentsCollection).Limit(1).Documents(ctx).Next()
	if err != nil && err != iterator.Done {
		if status.Code(err) == codes.PermissionDenied || status.Code(err) == codes.Unauthenticated {
			_ = client.Close()
			return nil, goerr.Wrap(err, "failed to connect to firestore project",
				goerr.V("firestore error code", status.Code(err).String()),
			)
		}
		logger.Debug("Firestore connection test returned error (may be empty collection)",
			"error", err,
			"errorCode", status.Code(err).String(),
		)
	}

	logger.Info("Firestore repository initialized successfully",
		"projectID", projectID,
		"databaseID", databaseID,
	)

	return &Firestore{
		client: client,
	}, nil
}

// PutIncident saves an incident to Firestore. Collection order is derived
// from CreatedAt, so inserting at the front means having the newest timestamp.
func (f *Firestore) PutIncident(ctx context.Context, incident *model.Incident) error {
	if incident == nil {
		return goerr.New("incident is nil")
	}
	if err := incident.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incident")
	}

	_, err := f.client.Collection(incidentsCollection).Doc(incident.ID.String()).Set(ctx, incident)
	if err != nil {
		return goerr.Wrap(err, "failed to save incident to firestore", goerr.V("id", incident.ID))
	}

	return nil
}

// GetIncident retrieves an incident by ID
func (f *Firestore) GetIncident(ctx context.Context, id types.IncidentID) (*model.Incident, error) {
	// No record is ever stored under an invalid ID
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(model.ErrIncidentNotFound, "invalid incident ID", goerr.V("id", id), goerr.V("reason", err.Error()))
	}

	doc, err := f.client.Collection(incidentsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrIncidentNotFound, "failed to get incident", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get incident from firestore", goerr.V("id", id))
	}

	var incident model.Incident
	if err := doc.DataTo(&incident); err != nil {
		return nil, goerr.Wrap(err, "failed to decode incident", goerr.V("id", id))
	}
	if incident.Attachments == nil {
		incident.Attachments = []model.Attachment{}
	}

	return &incident, nil
}

// ListIncidents retrieves all incidents, newest first
func (f *Firestore) ListIncidents(ctx context.Context) ([]*model.Incident, error) {
	iter := f.client.Collection(incidentsCollection).
		OrderBy(fieldCreatedAt, firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	incidents := make([]*model.Incident, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate incidents")
		}

		var incident model.Incident
		if err := doc.DataTo(&incident); err != nil {
			return nil, goerr.Wrap(err, "failed to decode incident", goerr.V("docID", doc.Ref.ID))
		}
		if incident.Attachments == nil {
			incident.Attachments = []model.Attachment{}
		}
		incidents = append(incidents, &incident)
	}

	return incidents, nil
}

// DeleteIncident deletes an incident from Firestore
func (f *Firestore) DeleteIncident(ctx context.Context, id types.IncidentID) error {
	if err := id.Validate(); err != nil {
		return goerr.Wrap(model.ErrIncidentNotFound, "invalid incident ID", goerr.V("id", id), goerr.V("reason", err.Error()))
	}

	doc := f.client.Collection(incidentsCollection).Doc(id.String())
	// Firestore deletes succeed for missing documents, so check existence first
	if _, err := doc.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrIncidentNotFound, "failed to delete incident", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check incident existence", goerr.V("id", id))
	}

	if _, err := doc.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete incident from firestore", goerr.V("id", id))
	}

	return nil
}

// Close closes the Firestore client
func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

var _ interfaces.Repository = (*Firestore)(nil) // Compile-time interface check
