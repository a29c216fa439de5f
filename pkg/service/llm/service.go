package llm

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// Error tags for categorization
var (
	ErrTagInvalidJSON     = goerr.NewTag("invalid_json")
	ErrTagMissingField    = goerr.NewTag("missing_field")
	ErrTagEmptyResponse   = goerr.NewTag("empty_response")
	ErrTagTemplateFailure = goerr.NewTag("template_failure")
)

//go:embed templates/*.md
var templateFS embed.FS

// LLMService handles LLM operations for report writing
type LLMService struct {
	llmClient gollem.LLMClient
}

// TemplateMessage represents a chat message for template rendering
type TemplateMessage struct {
	Timestamp string
	Role      types.ChatRole
	Content   string
}

// ReportRevisionTemplateData contains data for the report revision template
type ReportRevisionTemplateData struct {
	Incident *model.Incident
	Manuals  []model.Manual
	History  []TemplateMessage
	Feedback string
}

// NewLLMService creates a new LLMService instance
func NewLLMService(llmClient gollem.LLMClient) *LLMService {
	return &LLMService{
		llmClient: llmClient,
	}
}

// ReviseReport asks the LLM to rewrite the investigation text of the
// incident according to the feedback
func (s *LLMService) ReviseReport(ctx context.Context, req *model.RevisionRequest) (*model.ReportRevision, error) {
	if req == nil || req.Incident == nil {
		return nil, goerr.New("no incident provided for report revision")
	}

	prompt, err := s.renderReportRevisionTemplate(ReportRevisionTemplateData{
		Incident: req.Incident,
		Manuals:  req.Manuals,
		History:  buildTemplateMessages(req.History),
		Feedback: req.Feedback,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render report revision template",
			goerr.T(ErrTagTemplateFailure))
	}

	session, err := s.llmClient.NewSession(ctx, gollem.WithSessionContentType(gollem.ContentTypeJSON))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	response, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate LLM response")
	}

	if len(response.Texts) == 0 || response.Texts[0] == "" {
		return nil, goerr.New("empty response from LLM",
			goerr.T(ErrTagEmptyResponse))
	}

	var revision model.ReportRevision
	if err := json.Unmarshal([]byte(response.Texts[0]), &revision); err != nil {
		return nil, goerr.Wrap(err, "failed to parse LLM response as JSON",
			goerr.V("response", response.Texts[0]),
			goerr.T(ErrTagInvalidJSON))
	}

	if revision.Investigation == "" {
		return nil, goerr.New("LLM response missing investigation",
			goerr.T(ErrTagMissingField),
			goerr.V("field", "investigation"))
	}
	if revision.Reply == "" {
		return nil, goerr.New("LLM response missing reply",
			goerr.T(ErrTagMissingField),
			goerr.V("field", "reply"))
	}

	return &revision, nil
}

func buildTemplateMessages(history []model.ChatMessage) []TemplateMessage {
	messages := make([]TemplateMessage, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		messages = append(messages, TemplateMessage{
			Timestamp: msg.CreatedAt.Format("15:04"),
			Role:      msg.Role,
			Content:   msg.Content,
		})
	}
	return messages
}

// renderReportRevisionTemplate renders the report revision prompt
func (s *LLMService) renderReportRevisionTemplate(data ReportRevisionTemplateData) (string, error) {
	templateContent, err := templateFS.ReadFile("templates/report_revision.md")
	if err != nil {
		return "", goerr.Wrap(err, "failed to read report revision template")
	}

	tmpl, err := template.New("report_revision").Parse(string(templateContent))
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse report revision template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute report revision template")
	}

	return buf.String(), nil
}

var _ interfaces.ReportReviser = (*LLMService)(nil)
