package surveysync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/forms/v1"
	"google.golang.org/api/option"
)

// FormQuestion is one entry of the ordered question map built from a
// form definition.
type FormQuestion struct {
	QuestionID string
	Label      string
}

// FormDefinition is the provider-agnostic view of a form: its id, title
// and questions in definition order.
type FormDefinition struct {
	FormID    string
	Title     string
	Questions []FormQuestion
}

// FormResponse is one submitted response. Answers maps questionId to
// the selected values; multi-select questions carry several values.
type FormResponse struct {
	ID          string
	SubmittedAt *time.Time
	Answers     map[string][]string
}

// ResponsePage is one page of responses plus the token for the next.
type ResponsePage struct {
	Responses     []FormResponse
	NextPageToken string
}

// FormsAPI is the boundary to the external forms provider. Raw provider
// types never leak past implementations of this interface.
type FormsAPI interface {
	GetForm(ctx context.Context, formID string) (*FormDefinition, error)
	ListResponses(ctx context.Context, formID string, pageSize int64, pageToken string) (*ResponsePage, error)
}

type googleFormsClient struct {
	svc *forms.Service
}

// NewGoogleFormsClient builds a FormsAPI over the Google Forms API using
// Application Default Credentials.
func NewGoogleFormsClient(ctx context.Context) (FormsAPI, error) {
	svc, err := forms.NewService(ctx, option.WithScopes(
		forms.FormsBodyReadonlyScope,
		forms.FormsResponsesReadonlyScope,
	))
	if err != nil {
		return nil, fmt.Errorf("init forms service: %w", err)
	}
	return &googleFormsClient{svc: svc}, nil
}

func (c *googleFormsClient) GetForm(ctx context.Context, formID string) (*FormDefinition, error) {
	form, err := c.svc.Forms.Get(formID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get form %s: %w", formID, err)
	}

	def := FormDefinition{FormID: formID}
	if form.Info != nil {
		def.Title = form.Info.Title
	}
	for _, item := range form.Items {
		if item == nil || item.QuestionItem == nil || item.QuestionItem.Question == nil {
			// section headers, images etc carry no question
			continue
		}
		def.Questions = append(def.Questions, FormQuestion{
			QuestionID: item.QuestionItem.Question.QuestionId,
			Label:      item.Title,
		})
	}
	return &def, nil
}

func (c *googleFormsClient) ListResponses(ctx context.Context, formID string, pageSize int64, pageToken string) (*ResponsePage, error) {
	call := c.svc.Forms.Responses.List(formID).PageSize(pageSize).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list responses for form %s: %w", formID, err)
	}

	page := ResponsePage{NextPageToken: resp.NextPageToken}
	for _, raw := range resp.Responses {
		if raw == nil {
			continue
		}
		fr := FormResponse{
			ID:      raw.ResponseId,
			Answers: make(map[string][]string, len(raw.Answers)),
		}
		if ts := parseResponseTime(raw.LastSubmittedTime, raw.CreateTime); ts != nil {
			fr.SubmittedAt = ts
		}
		for questionID, answer := range raw.Answers {
			if answer.TextAnswers == nil {
				continue
			}
			var values []string
			for _, ta := range answer.TextAnswers.Answers {
				if ta != nil {
					values = append(values, ta.Value)
				}
			}
			fr.Answers[questionID] = values
		}
		page.Responses = append(page.Responses, fr)
	}
	return &page, nil
}

func parseResponseTime(candidates ...string) *time.Time {
	for _, value := range candidates {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return &t
		}
	}
	return nil
}
