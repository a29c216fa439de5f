package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
	"github.com/secmon-lab/vigia/pkg/utils/async"
	"github.com/slack-go/slack"
)

// Notifier posts to a Slack channel when an incident report is sent to the
// client. It is registered as an incident store observer.
type Notifier struct {
	client    interfaces.SlackClient
	channelID string
	blocks    *BlockBuilder
}

// NewNotifier creates a new Notifier
func NewNotifier(client interfaces.SlackClient, channelID string, blocks *BlockBuilder) *Notifier {
	if blocks == nil {
		blocks = NewBlockBuilder("")
	}
	return &Notifier{
		client:    client,
		channelID: channelID,
		blocks:    blocks,
	}
}

// OnChange handles a store change. Posting happens asynchronously so the
// store mutation is never held up by Slack.
func (n *Notifier) OnChange(ctx context.Context, change model.Change) {
	if change.Kind != model.ChangeStatusChanged || change.Incident == nil {
		return
	}
	if change.Incident.Status != types.IncidentStatusSentToClient {
		return
	}
	var previous types.IncidentStatus
	if change.Previous != nil {
		previous = change.Previous.Status
	}
	if previous == types.IncidentStatusSentToClient {
		return
	}

	incident := change.Incident
	async.Dispatch(ctx, func(ctx context.Context) error {
		return n.post(ctx, incident, previous)
	})
}

func (n *Notifier) post(ctx context.Context, incident *model.Incident, previous types.IncidentStatus) error {
	fallback := fmt.Sprintf("Incident report for %s (%s) was sent to the client", incident.Airline, incident.Date)

	_, ts, err := n.client.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(n.blocks.BuildStatusChangeBlocks(incident, previous)...),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to notify status change",
			goerr.V("incidentID", incident.ID),
			goerr.V("channel", n.channelID),
		)
	}

	ctxlog.From(ctx).Info("Status change notified",
		"incidentID", incident.ID,
		"channel", n.channelID,
		"ts", ts,
	)
	return nil
}
