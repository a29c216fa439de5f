package llm_test

import (
	"context"
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
)

// newMockClient returns a client answering every prompt with text, and
// records the prompts it received
func newMockClient(text string, prompts *[]string) *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					if prompts != nil {
						for _, in := range input {
							if txt, ok := in.(gollem.Text); ok {
								*prompts = append(*prompts, string(txt))
							}
						}
					}
					return &gollem.Response{Texts: []string{text}}, nil
				},
			}, nil
		},
	}
}

func testRequest() *model.RevisionRequest {
	return &model.RevisionRequest{
		Incident: &model.Incident{
			ID:               "1",
			Date:             "2025-04-08",
			Airline:          "Example Airlines",
			DepartureAirport: "JFK",
			ArrivingAirport:  "LAX",
			Incident:         "Flight delay due to mechanical issues",
			Investigation:    "Initial inspection revealed fuel system problem",
			Status:           types.IncidentStatusPreliminary,
			FlightNumber:     "EA100",
		},
		Manuals: []model.Manual{{ID: "manual1", Name: "Safety Procedures Manual"}},
		History: []model.ChatMessage{
			{Role: types.ChatRoleUser, Content: "Mention the fuel pump", CreatedAt: time.Date(2025, 4, 8, 9, 30, 0, 0, time.UTC)},
		},
		Feedback: "Add the maintenance log reference",
	}
}

func TestLLMService_ReviseReport_Success(t *testing.T) {
	ctx := context.Background()
	var prompts []string
	service := llm.NewLLMService(newMockClient(`{
		"reply": "Added the maintenance log reference.",
		"investigation": "Initial inspection revealed fuel system problem. See maintenance log ML-12."
	}`, &prompts))

	revision, err := service.ReviseReport(ctx, testRequest())
	gt.NoError(t, err).Required()
	gt.Equal(t, revision.Reply, "Added the maintenance log reference.")
	gt.Equal(t, revision.Investigation, "Initial inspection revealed fuel system problem. See maintenance log ML-12.")

	gt.A(t, prompts).Length(1)
	prompt := prompts[0]
	gt.True(t, strings.Contains(prompt, "Example Airlines"))
	gt.True(t, strings.Contains(prompt, "EA100"))
	gt.True(t, strings.Contains(prompt, "JFK -> LAX"))
	gt.True(t, strings.Contains(prompt, "Initial inspection revealed fuel system problem"))
	gt.True(t, strings.Contains(prompt, "Safety Procedures Manual"))
	gt.True(t, strings.Contains(prompt, "[09:30] user: Mention the fuel pump"))
	gt.True(t, strings.Contains(prompt, "Add the maintenance log reference"))
}

func TestLLMService_ReviseReport_OptionalSectionsOmitted(t *testing.T) {
	ctx := context.Background()
	var prompts []string
	service := llm.NewLLMService(newMockClient(`{"reply": "ok", "investigation": "text"}`, &prompts))

	req := testRequest()
	req.Manuals = nil
	req.History = nil
	req.Incident.Investigation = ""

	_, err := service.ReviseReport(ctx, req)
	gt.NoError(t, err).Required()
	gt.A(t, prompts).Length(1)
	gt.False(t, strings.Contains(prompts[0], "Reference manuals"))
	gt.False(t, strings.Contains(prompts[0], "Conversation so far"))
	gt.True(t, strings.Contains(prompts[0], "(empty)"))
}

func TestLLMService_ReviseReport_InvalidJSON(t *testing.T) {
	service := llm.NewLLMService(newMockClient("not valid json", nil))

	revision, err := service.ReviseReport(context.Background(), testRequest())
	gt.Error(t, err)
	gt.B(t, goerr.HasTag(err, llm.ErrTagInvalidJSON)).True()
	gt.Nil(t, revision)
}

func TestLLMService_ReviseReport_EmptyResponse(t *testing.T) {
	service := llm.NewLLMService(newMockClient("", nil))

	revision, err := service.ReviseReport(context.Background(), testRequest())
	gt.Error(t, err)
	gt.B(t, goerr.HasTag(err, llm.ErrTagEmptyResponse)).True()
	gt.Nil(t, revision)
}

func TestLLMService_ReviseReport_MissingField(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing investigation", `{"reply": "done"}`},
		{"missing reply", `{"investigation": "text"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := llm.NewLLMService(newMockClient(tt.text, nil))
			revision, err := service.ReviseReport(context.Background(), testRequest())
			gt.Error(t, err)
			gt.B(t, goerr.HasTag(err, llm.ErrTagMissingField)).True()
			gt.Nil(t, revision)
		})
	}
}

func TestLLMService_ReviseReport_SessionError(t *testing.T) {
	client := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return nil, goerr.New("quota exceeded")
		},
	}
	service := llm.NewLLMService(client)

	_, err := service.ReviseReport(context.Background(), testRequest())
	gt.Error(t, err)
}

func TestLLMService_ReviseReport_NoIncident(t *testing.T) {
	service := llm.NewLLMService(newMockClient(`{}`, nil))
	_, err := service.ReviseReport(context.Background(), &model.RevisionRequest{})
	gt.Error(t, err)
}
