package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
	"github.com/secmon-lab/vigia/pkg/service/llm"
	"github.com/secmon-lab/vigia/pkg/usecase"
)

func TestAssistantCannedReply(t *testing.T) {
	ctx := context.Background()
	store, _ := newSeededStore(t)
	fixed := time.Date(2025, 4, 8, 14, 5, 9, 0, time.UTC)
	assistant := usecase.NewAssistant(store,
		usecase.WithReplyDelay(10*time.Millisecond),
		usecase.WithAssistantClock(func() time.Time { return fixed }),
	)
	defer assistant.Close()

	reply, err := assistant.SendFeedback(ctx, "1", "Mention the fuel pump")
	gt.NoError(t, err).Required()

	msg, err := reply.Wait(ctx)
	gt.NoError(t, err).Required()
	gt.Equal(t, msg.Role, types.ChatRoleAssistant)
	gt.Equal(t, msg.Content, `I have updated the report per your request: "Mention the fuel pump"`)

	incident, err := store.GetByID(ctx, "1")
	gt.NoError(t, err).Required()
	gt.Equal(t, incident.Investigation,
		"Initial inspection revealed fuel system problem\n\nUpdate (14:05:09): Mention the fuel pump")
	gt.Equal(t, incident.Status, types.IncidentStatusPreliminary)

	history, err := assistant.History(ctx, "1")
	gt.NoError(t, err).Required()
	gt.A(t, history).Length(2)
	gt.Equal(t, history[0].Role, types.ChatRoleUser)
	gt.Equal(t, history[0].Content, "Mention the fuel pump")
	gt.Equal(t, history[1].Role, types.ChatRoleAssistant)
}

func TestAssistantReadsReportAtFireTime(t *testing.T) {
	ctx := context.Background()
	store, _ := newSeededStore(t)
	assistant := usecase.NewAssistant(store, usecase.WithReplyDelay(50*time.Millisecond))
	defer assistant.Close()

	reply, err := assistant.SendFeedback(ctx, "2", "Add weather")
	gt.NoError(t, err).Required()

	// Edited while the reply is pending
	gt.NoError(t, store.UpdateReport(ctx, "2", "Edited text"))

	_, err = reply.Wait(ctx)
	gt.NoError(t, err).Required()

	incident, err := store.GetByID(ctx, "2")
	gt.NoError(t, err).Required()
	gt.True(t, strings.HasPrefix(incident.Investigation, "Edited text\n\nUpdate ("))
	gt.True(t, strings.HasSuffix(incident.Investigation, "): Add weather"))
}

func TestAssistantCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Reply.Cancel leaves the report untouched", func(t *testing.T) {
		store, _ := newSeededStore(t)
		assistant := usecase.NewAssistant(store, usecase.WithReplyDelay(time.Hour))
		defer assistant.Close()

		reply, err := assistant.SendFeedback(ctx, "1", "Never applied")
		gt.NoError(t, err).Required()
		reply.Cancel()

		_, err = reply.Wait(ctx)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, context.Canceled))

		incident, err := store.GetByID(ctx, "1")
		gt.NoError(t, err).Required()
		gt.Equal(t, incident.Investigation, "Initial inspection revealed fuel system problem")
	})

	t.Run("Caller context ending cancels the reply", func(t *testing.T) {
		store, _ := newSeededStore(t)
		assistant := usecase.NewAssistant(store, usecase.WithReplyDelay(time.Hour))
		defer assistant.Close()

		cctx, cancel := context.WithCancel(ctx)
		reply, err := assistant.SendFeedback(cctx, "1", "Never applied")
		gt.NoError(t, err).Required()
		cancel()

		select {
		case <-reply.Done():
		case <-time.After(time.Second):
			t.Fatal("reply was not resolved after cancellation")
		}

		_, err = reply.Wait(ctx)
		gt.True(t, errors.Is(err, context.Canceled))

		incident, err := store.GetByID(ctx, "1")
		gt.NoError(t, err).Required()
		gt.Equal(t, incident.Investigation, "Initial inspection revealed fuel system problem")

		history, err := assistant.History(ctx, "1")
		gt.NoError(t, err).Required()
		gt.A(t, history).Length(1)
	})
}

func TestAssistantDeletedBeforeFiring(t *testing.T) {
	ctx := context.Background()
	store, _ := newSeededStore(t)
	assistant := usecase.NewAssistant(store, usecase.WithReplyDelay(50*time.Millisecond))
	defer assistant.Close()

	reply, err := assistant.SendFeedback(ctx, "3", "Too late")
	gt.NoError(t, err).Required()
	gt.NoError(t, store.Delete(ctx, "3"))

	_, err = reply.Wait(ctx)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrIncidentNotFound))

	_, err = store.GetByID(ctx, "3")
	gt.True(t, errors.Is(err, model.ErrIncidentNotFound))

	// History went with the incident
	_, err = assistant.History(ctx, "3")
	gt.True(t, errors.Is(err, model.ErrIncidentNotFound))
}

func TestAssistantRejectsInvalidFeedback(t *testing.T) {
	ctx := context.Background()
	store, _ := newSeededStore(t)
	assistant := usecase.NewAssistant(store, usecase.WithReplyDelay(0))
	defer assistant.Close()

	_, err := assistant.SendFeedback(ctx, "1", "   ")
	gt.Error(t, err)
	gt.B(t, goerr.HasTag(err, model.ErrTagEmptyFeedback)).True()

	_, err = assistant.SendFeedback(ctx, "missing", "text")
	gt.True(t, errors.Is(err, model.ErrIncidentNotFound))

	history, err := assistant.History(ctx, "1")
	gt.NoError(t, err).Required()
	gt.A(t, history).Length(0)
}

func TestAssistantWithLLM(t *testing.T) {
	ctx := context.Background()

	newAssistant := func(t *testing.T, response string, prompts *[]string) (*usecase.IncidentStore, *usecase.Assistant) {
		t.Helper()
		client := &mock.LLMClientMock{
			NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return &mock.SessionMock{
					GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						if txt, ok := input[0].(gollem.Text); ok {
							*prompts = append(*prompts, string(txt))
						}
						return &gollem.Response{Texts: []string{response}}, nil
					},
				}, nil
			},
		}

		store, _ := newSeededStore(t)
		assistant := usecase.NewAssistant(store,
			usecase.WithReplyDelay(0),
			usecase.WithReviser(llm.NewLLMService(client)),
			usecase.WithManualCatalog(model.GetDefaultManuals()),
		)
		t.Cleanup(assistant.Close)
		return store, assistant
	}

	t.Run("Applies the revised investigation", func(t *testing.T) {
		var prompts []string
		store, assistant := newAssistant(t,
			`{"reply": "Cited the operations manual.", "investigation": "Fuel system problem per Operations Manual (MO)."}`,
			&prompts)

		draft := testDraft()
		draft.SelectedManuals = []types.ManualID{"manual1"}
		id, err := store.Create(ctx, draft)
		gt.NoError(t, err).Required()

		reply, err := assistant.SendFeedback(ctx, id, "Cite the manual")
		gt.NoError(t, err).Required()
		msg, err := reply.Wait(ctx)
		gt.NoError(t, err).Required()
		gt.Equal(t, msg.Content, "Cited the operations manual.")

		incident, err := store.GetByID(ctx, id)
		gt.NoError(t, err).Required()
		gt.Equal(t, incident.Investigation, "Fuel system problem per Operations Manual (MO).")

		gt.A(t, prompts).Length(1)
		gt.True(t, strings.Contains(prompts[0], "Operations Manual (MO)"))
		gt.True(t, strings.Contains(prompts[0], "Cite the manual"))
	})

	t.Run("Invalid response applies nothing", func(t *testing.T) {
		var prompts []string
		store, assistant := newAssistant(t, "not json", &prompts)

		reply, err := assistant.SendFeedback(ctx, "2", "Anything")
		gt.NoError(t, err).Required()
		_, err = reply.Wait(ctx)
		gt.Error(t, err)
		gt.B(t, goerr.HasTag(err, llm.ErrTagInvalidJSON)).True()

		incident, err := store.GetByID(ctx, "2")
		gt.NoError(t, err).Required()
		gt.Equal(t, incident.Investigation, "Weight distribution error in loading manifest")
	})
}

type blockingReviser struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingReviser() *blockingReviser {
	return &blockingReviser{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (r *blockingReviser) ReviseReport(ctx context.Context, req *model.RevisionRequest) (*model.ReportRevision, error) {
	close(r.started)
	<-r.release
	return &model.ReportRevision{
		Reply:         "Revised.",
		Investigation: req.Incident.Investigation + " [llm]",
	}, nil
}

func (r *blockingReviser) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-r.started:
	case <-time.After(time.Second):
		t.Fatal("reviser was not called")
	}
}

func TestAssistantSlowRevision(t *testing.T) {
	ctx := context.Background()
	const original = "Weight distribution error in loading manifest"

	newAssistant := func(t *testing.T) (*usecase.IncidentStore, *usecase.Assistant, *blockingReviser) {
		t.Helper()
		store, _ := newSeededStore(t)
		reviser := newBlockingReviser()
		assistant := usecase.NewAssistant(store,
			usecase.WithReplyDelay(0),
			usecase.WithReviser(reviser),
		)
		t.Cleanup(assistant.Close)
		return store, assistant, reviser
	}

	t.Run("Edit made during revision is kept", func(t *testing.T) {
		store, assistant, reviser := newAssistant(t)

		reply, err := assistant.SendFeedback(ctx, "2", "Add weather")
		gt.NoError(t, err).Required()
		reviser.waitStarted(t)

		gt.NoError(t, store.UpdateReport(ctx, "2", "USER EDIT"))
		close(reviser.release)

		_, err = reply.Wait(ctx)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrReportConflict))

		incident, err := store.GetByID(ctx, "2")
		gt.NoError(t, err).Required()
		gt.Equal(t, incident.Investigation, "USER EDIT")

		history, err := assistant.History(ctx, "2")
		gt.NoError(t, err).Required()
		gt.A(t, history).Length(1)
	})

	t.Run("Unchanged report takes the revision", func(t *testing.T) {
		store, assistant, reviser := newAssistant(t)

		reply, err := assistant.SendFeedback(ctx, "2", "Add weather")
		gt.NoError(t, err).Required()
		close(reviser.release)

		msg, err := reply.Wait(ctx)
		gt.NoError(t, err).Required()
		gt.Equal(t, msg.Content, "Revised.")

		incident, err := store.GetByID(ctx, "2")
		gt.NoError(t, err).Required()
		gt.Equal(t, incident.Investigation, original+" [llm]")
	})

	t.Run("Cancel during revision applies nothing", func(t *testing.T) {
		store, assistant, reviser := newAssistant(t)

		reply, err := assistant.SendFeedback(ctx, "2", "Add weather")
		gt.NoError(t, err).Required()
		reviser.waitStarted(t)

		reply.Cancel()
		close(reviser.release)

		_, err = reply.Wait(ctx)
		gt.True(t, errors.Is(err, context.Canceled))

		incident, err := store.GetByID(ctx, "2")
		gt.NoError(t, err).Required()
		gt.Equal(t, incident.Investigation, original)
	})

	t.Run("Delete during revision leaves no history", func(t *testing.T) {
		store, assistant, reviser := newAssistant(t)

		reply, err := assistant.SendFeedback(ctx, "2", "Add weather")
		gt.NoError(t, err).Required()
		reviser.waitStarted(t)

		gt.NoError(t, store.Delete(ctx, "2"))
		close(reviser.release)

		_, err = reply.Wait(ctx)
		gt.True(t, errors.Is(err, model.ErrIncidentNotFound))
		gt.Equal(t, assistant.HistoryCount(), 0)
	})
}

func TestAssistantHistoryOfDeletedIncident(t *testing.T) {
	ctx := context.Background()
	store, _ := newSeededStore(t)
	assistant := usecase.NewAssistant(store, usecase.WithReplyDelay(time.Hour))
	defer assistant.Close()

	gt.NoError(t, store.Delete(ctx, "3"))

	err := assistant.AppendMessage(ctx, "3", model.ChatMessage{
		Role:    types.ChatRoleAssistant,
		Content: "late",
	})
	gt.True(t, errors.Is(err, model.ErrIncidentNotFound))
	gt.Equal(t, assistant.HistoryCount(), 0)

	_, err = assistant.SendFeedback(ctx, "3", "late")
	gt.True(t, errors.Is(err, model.ErrIncidentNotFound))
	gt.Equal(t, assistant.HistoryCount(), 0)
}
