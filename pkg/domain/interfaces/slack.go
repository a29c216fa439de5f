package interfaces

import (
	"context"

	"github.com/slack-go/slack"
)

// SlackClient is the subset of github.com/slack-go/slack used by the notifier
type SlackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}
