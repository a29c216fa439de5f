package usecase

import (
	"context"

	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
)

func (a *Assistant) AppendMessage(ctx context.Context, id types.IncidentID, msg model.ChatMessage) error {
	return a.appendMessage(ctx, id, msg)
}

// HistoryCount reports how many incidents hold chat history
func (a *Assistant) HistoryCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history)
}
