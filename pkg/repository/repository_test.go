package repository_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
	"github.com/secmon-lab/vigia/pkg/repository"
)

func newTestIncident(suffix string, createdAt time.Time) *model.Incident {
	id := types.IncidentID(fmt.Sprintf("inc-%d-%s", time.Now().UnixNano(), suffix))
	return &model.Incident{
		ID:               id,
		Date:             "2025-05-01",
		Airline:          "Test Air",
		DepartureAirport: "BOG",
		ArrivingAirport:  "MDE",
		Incident:         "Bird strike on approach",
		Investigation:    "Pending",
		Attachments: []model.Attachment{
			{ID: types.NewAttachmentID(id, 0), Name: "photo.png", URL: "/a", Type: types.AttachmentTypeImage},
			{ID: types.NewAttachmentID(id, 1), Name: "log.pdf", URL: "/b", Type: types.AttachmentTypePDF},
		},
		Status:          types.IncidentStatusDraft,
		CreatedAt:       createdAt,
		SelectedManuals: []types.ManualID{"manual1"},
	}
}

func positionOf(incidents []*model.Incident, id types.IncidentID) int {
	return slices.IndexFunc(incidents, func(i *model.Incident) bool { return i.ID == id })
}

func testRepository(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Run("PutIncident and GetIncident", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		incident := newTestIncident("put", time.Now())
		gt.NoError(t, repo.PutIncident(ctx, incident))

		retrieved, err := repo.GetIncident(ctx, incident.ID)
		gt.NoError(t, err).Required()
		gt.Equal(t, retrieved.ID, incident.ID)
		gt.Equal(t, retrieved.Airline, incident.Airline)
		gt.Equal(t, retrieved.Investigation, incident.Investigation)
		gt.Equal(t, retrieved.Status, incident.Status)
		gt.A(t, retrieved.Attachments).Length(2)
		gt.Equal(t, retrieved.Attachments[0].Name, "photo.png")
		gt.Equal(t, retrieved.Attachments[1].Name, "log.pdf")
		gt.True(t, incident.CreatedAt.Sub(retrieved.CreatedAt).Abs() < time.Second)
	})

	t.Run("GetIncident returns copies", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		incident := newTestIncident("copy", time.Now())
		gt.NoError(t, repo.PutIncident(ctx, incident))

		// Mutating the caller's value must not leak into the stored record
		incident.Investigation = "mutated"

		retrieved, err := repo.GetIncident(ctx, incident.ID)
		gt.NoError(t, err).Required()
		gt.Equal(t, retrieved.Investigation, "Pending")

		retrieved.Attachments[0].Name = "mutated.png"
		again, err := repo.GetIncident(ctx, incident.ID)
		gt.NoError(t, err).Required()
		gt.Equal(t, again.Attachments[0].Name, "photo.png")
	})

	t.Run("GetIncident not found", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		_, err := repo.GetIncident(context.Background(), types.IncidentID(fmt.Sprintf("missing-%d", time.Now().UnixNano())))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrIncidentNotFound))
	})

	t.Run("PutIncident replaces in place", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		base := time.Now()
		older := newTestIncident("older", base)
		newer := newTestIncident("newer", base.Add(time.Second))
		gt.NoError(t, repo.PutIncident(ctx, older))
		gt.NoError(t, repo.PutIncident(ctx, newer))

		updated := older.Clone()
		updated.Status = types.IncidentStatusDone
		gt.NoError(t, repo.PutIncident(ctx, updated))

		incidents, err := repo.ListIncidents(ctx)
		gt.NoError(t, err).Required()
		newerPos := positionOf(incidents, newer.ID)
		olderPos := positionOf(incidents, older.ID)
		gt.True(t, newerPos >= 0)
		gt.True(t, olderPos > newerPos)
		gt.Equal(t, incidents[olderPos].Status, types.IncidentStatusDone)
	})

	t.Run("ListIncidents is newest first", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		base := time.Now()
		var ids []types.IncidentID
		for i := 0; i < 3; i++ {
			incident := newTestIncident(fmt.Sprintf("list-%d", i), base.Add(time.Duration(i)*time.Second))
			gt.NoError(t, repo.PutIncident(ctx, incident))
			ids = append(ids, incident.ID)
		}

		incidents, err := repo.ListIncidents(ctx)
		gt.NoError(t, err).Required()
		p0 := positionOf(incidents, ids[0])
		p1 := positionOf(incidents, ids[1])
		p2 := positionOf(incidents, ids[2])
		gt.True(t, p2 >= 0)
		gt.True(t, p2 < p1)
		gt.True(t, p1 < p0)
	})

	t.Run("DeleteIncident", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		incident := newTestIncident("delete", time.Now())
		gt.NoError(t, repo.PutIncident(ctx, incident))
		gt.NoError(t, repo.DeleteIncident(ctx, incident.ID))

		_, err := repo.GetIncident(ctx, incident.ID)
		gt.True(t, errors.Is(err, model.ErrIncidentNotFound))

		err = repo.DeleteIncident(ctx, incident.ID)
		gt.True(t, errors.Is(err, model.ErrIncidentNotFound))
	})

	t.Run("Empty ID is rejected", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		gt.Error(t, repo.PutIncident(ctx, &model.Incident{}))
		gt.Error(t, repo.PutIncident(ctx, nil))
	})

	t.Run("Empty ID is not found", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		_, err := repo.GetIncident(ctx, "")
		gt.True(t, errors.Is(err, model.ErrIncidentNotFound))
		gt.True(t, errors.Is(repo.DeleteIncident(ctx, ""), model.ErrIncidentNotFound))
	})
}

func TestMemoryRepository(t *testing.T) {
	testRepository(t, func(t *testing.T) interfaces.Repository {
		return repository.NewMemory()
	})
}

func TestMemoryRepositoryInsertOrder(t *testing.T) {
	// Memory keeps insertion order even when timestamps disagree
	ctx := context.Background()
	repo := repository.NewMemory()

	now := time.Now()
	first := newTestIncident("first", now)
	second := newTestIncident("second", now.Add(-time.Hour))
	gt.NoError(t, repo.PutIncident(ctx, first))
	gt.NoError(t, repo.PutIncident(ctx, second))

	incidents, err := repo.ListIncidents(ctx)
	gt.NoError(t, err).Required()
	gt.A(t, incidents).Length(2)
	gt.Equal(t, incidents[0].ID, second.ID)
	gt.Equal(t, incidents[1].ID, first.ID)
}

func TestFirestoreRepository(t *testing.T) {
	// Skip test if Firestore test environment variables are not set
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE")

	if projectID == "" || databaseID == "" {
		t.Skip("Skipping Firestore test: TEST_FIRESTORE_PROJECT and TEST_FIRESTORE_DATABASE must be set")
	}

	testRepository(t, func(t *testing.T) interfaces.Repository {
		ctx := context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		ctx = ctxlog.With(ctx, logger)

		repo, err := repository.NewFirestore(ctx, projectID, databaseID)
		gt.NoError(t, err).Required()
		return repo
	})
}
