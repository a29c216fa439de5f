package config

import (
	"log/slog"

	slackSvc "github.com/secmon-lab/vigia/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds Slack notification configuration
type Slack struct {
	OAuthToken string
	ChannelID  string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-oauth-token",
			Usage:       "Slack OAuth token for posting notifications",
			Category:    "Slack",
			Sources:     cli.EnvVars("VIGIA_SLACK_OAUTH_TOKEN"),
			Destination: &s.OAuthToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel notified when a report is sent to the client",
			Category:    "Slack",
			Sources:     cli.EnvVars("VIGIA_SLACK_CHANNEL_ID"),
			Destination: &s.ChannelID,
		},
	}
}

// ConfigureOptional creates the status change notifier if Slack is
// configured, returns nil if not
func (s *Slack) ConfigureOptional(logger *slog.Logger, frontendURL string) *slackSvc.Notifier {
	if !s.IsConfigured() {
		logger.Info("Slack not configured, status changes are not notified")
		return nil
	}

	logger.Info("Configuring Slack notifier", slog.String("channel", s.ChannelID))
	return slackSvc.NewNotifier(slackSvc.New(s.OAuthToken), s.ChannelID, slackSvc.NewBlockBuilder(frontendURL))
}

// IsConfigured checks if both the token and the channel are set
func (s *Slack) IsConfigured() bool {
	return s.OAuthToken != "" && s.ChannelID != ""
}

// LogValue returns structured log value. The token is never logged.
func (s Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("tokenSet", s.OAuthToken != ""),
		slog.String("channel", s.ChannelID),
	)
}
