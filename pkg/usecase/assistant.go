package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// DefaultReplyDelay is how long the assistant waits before answering
const DefaultReplyDelay = time.Second

// AssistantOption is a functional option for configuring Assistant
type AssistantOption func(*Assistant)

// WithReplyDelay sets the delay before a reply is applied
func WithReplyDelay(d time.Duration) AssistantOption {
	return func(a *Assistant) {
		a.delay = d
	}
}

// WithReviser makes the assistant rewrite reports with an LLM instead of
// appending the feedback verbatim
func WithReviser(r interfaces.ReportReviser) AssistantOption {
	return func(a *Assistant) {
		a.reviser = r
	}
}

// WithManualCatalog provides manual names for revision prompts
func WithManualCatalog(catalog *model.ManualCatalog) AssistantOption {
	return func(a *Assistant) {
		a.catalog = catalog
	}
}

// WithAssistantClock overrides the time source for message timestamps
func WithAssistantClock(clock func() time.Time) AssistantOption {
	return func(a *Assistant) {
		a.now = clock
	}
}

// Reply is a pending assistant answer
type Reply struct {
	done    chan struct{}
	cancel  context.CancelFunc
	message *model.ChatMessage
	err     error
}

// Done is closed once the reply has been applied or abandoned
func (r *Reply) Done() <-chan struct{} {
	return r.done
}

// Cancel abandons the reply. The report is left untouched if the reply has
// not fired yet.
func (r *Reply) Cancel() {
	r.cancel()
}

// Wait blocks until the reply resolves or ctx ends
func (r *Reply) Wait(ctx context.Context) (*model.ChatMessage, error) {
	select {
	case <-r.done:
		return r.message, r.err
	case <-ctx.Done():
		return nil, goerr.Wrap(ctx.Err(), "stopped waiting for assistant reply")
	}
}

func (r *Reply) resolve(msg *model.ChatMessage, err error) {
	r.message = msg
	r.err = err
	close(r.done)
}

// Assistant revises investigation reports from user feedback. Each incident
// has its own chat history, kept only in memory and dropped when the
// incident is deleted.
type Assistant struct {
	store   *IncidentStore
	reviser interfaces.ReportReviser
	catalog *model.ManualCatalog
	delay   time.Duration
	now     func() time.Time

	mu          sync.Mutex
	history     map[types.IncidentID][]model.ChatMessage
	unsubscribe func()
}

// NewAssistant creates a new Assistant bound to store
func NewAssistant(store *IncidentStore, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		store:   store,
		delay:   DefaultReplyDelay,
		now:     time.Now,
		history: make(map[types.IncidentID][]model.ChatMessage),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.unsubscribe = store.Subscribe(a.onChange)
	return a
}

// Close detaches the assistant from the store
func (a *Assistant) Close() {
	a.unsubscribe()
}

// onChange runs under the store lock, so it must not call back into the store
func (a *Assistant) onChange(ctx context.Context, change model.Change) {
	if change.Kind != model.ChangeDeleted {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.history, change.IncidentID)
}

// History returns the chat messages exchanged about the incident, oldest first
func (a *Assistant) History(ctx context.Context, id types.IncidentID) ([]model.ChatMessage, error) {
	if _, err := a.store.GetByID(ctx, id); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	messages := make([]model.ChatMessage, len(a.history[id]))
	copy(messages, a.history[id])
	return messages, nil
}

// appendMessage drops msg if the incident is gone. The existence check runs
// under mu so it cannot interleave with the delete observer.
func (a *Assistant) appendMessage(ctx context.Context, id types.IncidentID, msg model.ChatMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.store.GetByID(ctx, id); err != nil {
		return err
	}
	a.history[id] = append(a.history[id], msg)
	return nil
}

// SendFeedback records the user's feedback and schedules the assistant's
// reply. The reply is bound to ctx: if ctx ends, or Reply.Cancel is called,
// before the delay elapses, nothing is applied.
func (a *Assistant) SendFeedback(ctx context.Context, id types.IncidentID, feedback string) (*Reply, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, goerr.New("feedback is empty",
			goerr.V("id", id),
			goerr.T(model.ErrTagEmptyFeedback))
	}

	if err := a.appendMessage(ctx, id, model.ChatMessage{
		Role:      types.ChatRoleUser,
		Content:   feedback,
		CreatedAt: a.now(),
	}); err != nil {
		return nil, err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	reply := &Reply{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer cancel()

		timer := time.NewTimer(a.delay)
		defer timer.Stop()

		select {
		case <-taskCtx.Done():
			ctxlog.From(taskCtx).Debug("Assistant reply cancelled", "id", id)
			reply.resolve(nil, goerr.Wrap(taskCtx.Err(), "assistant reply cancelled", goerr.V("id", id)))
			return
		case <-timer.C:
		}

		msg, err := a.respond(taskCtx, id, feedback)
		reply.resolve(msg, err)
	}()

	return reply, nil
}

// respond reads the investigation as it is now and applies the revision
// unless the report was edited in the meantime
func (a *Assistant) respond(ctx context.Context, id types.IncidentID, feedback string) (*model.ChatMessage, error) {
	incident, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	revision, err := a.revise(ctx, incident, feedback)
	if err != nil {
		return nil, err
	}

	if err := a.store.ReviseReport(ctx, id, incident.Investigation, revision.Investigation); err != nil {
		return nil, goerr.Wrap(err, "failed to apply revised report", goerr.V("id", id))
	}

	msg := model.ChatMessage{
		Role:      types.ChatRoleAssistant,
		Content:   revision.Reply,
		CreatedAt: a.now(),
	}
	if err := a.appendMessage(ctx, id, msg); err != nil {
		return nil, err
	}

	ctxlog.From(ctx).Info("Assistant revised report", "id", id)
	return &msg, nil
}

func (a *Assistant) revise(ctx context.Context, incident *model.Incident, feedback string) (*model.ReportRevision, error) {
	if a.reviser == nil {
		return &model.ReportRevision{
			Reply:         fmt.Sprintf("I have updated the report per your request: %q", feedback),
			Investigation: fmt.Sprintf("%s\n\nUpdate (%s): %s", incident.Investigation, a.now().Format(time.TimeOnly), feedback),
		}, nil
	}

	a.mu.Lock()
	history := make([]model.ChatMessage, len(a.history[incident.ID]))
	copy(history, a.history[incident.ID])
	a.mu.Unlock()

	revision, err := a.reviser.ReviseReport(ctx, &model.RevisionRequest{
		Incident: incident,
		Manuals:  a.selectedManuals(incident),
		History:  history,
		Feedback: feedback,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to revise report", goerr.V("id", incident.ID))
	}
	return revision, nil
}

func (a *Assistant) selectedManuals(incident *model.Incident) []model.Manual {
	if a.catalog == nil {
		return nil
	}

	manuals := make([]model.Manual, 0, len(incident.SelectedManuals))
	for _, id := range incident.SelectedManuals {
		if m := a.catalog.FindManualByID(id); m != nil {
			manuals = append(manuals, *m)
		}
	}
	return manuals
}

// Ask sends the feedback and waits for the reply. The reply is abandoned if
// ctx ends first.
func (a *Assistant) Ask(ctx context.Context, id types.IncidentID, feedback string) (*model.ChatMessage, error) {
	reply, err := a.SendFeedback(ctx, id, feedback)
	if err != nil {
		return nil, err
	}
	defer reply.Cancel()

	return reply.Wait(ctx)
}

var _ interfaces.Assistant = (*Assistant)(nil)
