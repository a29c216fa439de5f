package slack

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
	"github.com/slack-go/slack"
)

// maxSummaryLength keeps section text well under Slack's 3000 character limit
const maxSummaryLength = 500

// BlockBuilder provides methods to build Slack message blocks
type BlockBuilder struct {
	baseURL string
}

// NewBlockBuilder creates a new BlockBuilder. baseURL, when set, is used to
// link back to the incident in the web UI.
func NewBlockBuilder(baseURL string) *BlockBuilder {
	return &BlockBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// getStatusEmoji returns emoji based on incident status
func getStatusEmoji(status types.IncidentStatus) string {
	switch status {
	case types.IncidentStatusDraft:
		return "📝"
	case types.IncidentStatusPreliminary:
		return "🟡"
	case types.IncidentStatusDone:
		return "🟢"
	case types.IncidentStatusSentToClient:
		return "📨"
	default:
		return "⚪"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// BuildStatusChangeBlocks builds the message posted when an incident moves
// to a new status
func (b *BlockBuilder) BuildStatusChangeBlocks(incident *model.Incident, previous types.IncidentStatus) []slack.Block {
	title := fmt.Sprintf("%s: %s → %s", incident.Airline, incident.DepartureAirport, incident.ArrivingAirport)

	fields := []*slack.TextBlockObject{
		{
			Type: slack.MarkdownType,
			Text: "*Status:*\n" + getStatusEmoji(incident.Status) + " " + incident.Status.String(),
		},
		{
			Type: slack.MarkdownType,
			Text: "*Previous:*\n" + getStatusEmoji(previous) + " " + previous.String(),
		},
		{
			Type: slack.MarkdownType,
			Text: "*Date:*\n" + incident.Date,
		},
	}
	if incident.FlightNumber != "" {
		fields = append(fields, &slack.TextBlockObject{
			Type: slack.MarkdownType,
			Text: "*Flight:*\n" + incident.FlightNumber,
		})
	}
	if incident.ReportType != "" {
		fields = append(fields, &slack.TextBlockObject{
			Type: slack.MarkdownType,
			Text: "*Report type:*\n" + string(incident.ReportType),
		})
	}

	blocks := []slack.Block{
		&slack.HeaderBlock{
			Type: slack.MBTHeader,
			Text: &slack.TextBlockObject{
				Type: slack.PlainTextType,
				Text: title,
			},
		},
		&slack.DividerBlock{
			Type: slack.MBTDivider,
		},
		&slack.SectionBlock{
			Type:   slack.MBTSection,
			Fields: fields,
		},
		&slack.SectionBlock{
			Type: slack.MBTSection,
			Text: &slack.TextBlockObject{
				Type: slack.MarkdownType,
				Text: "*Incident:*\n" + truncate(strings.ReplaceAll(incident.Incident, "\n", " "), maxSummaryLength),
			},
		},
	}

	if incident.Investigation != "" {
		blocks = append(blocks, &slack.SectionBlock{
			Type: slack.MBTSection,
			Text: &slack.TextBlockObject{
				Type: slack.MarkdownType,
				Text: "*Investigation:*\n" + truncate(incident.Investigation, maxSummaryLength),
			},
		})
	}

	if b.baseURL != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("<%s/incidents/%s|Open report>", b.baseURL, incident.ID),
				false, false),
		))
	}

	return blocks
}
