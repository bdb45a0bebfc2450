package surveysync

import "strings"

// AnswerEntry pairs a question label with its answered text.
type AnswerEntry struct {
	Label string
	Value string
}

// ExtractAnswers projects a response onto the form's question order.
// The provider may return answers in arbitrary order; iterating the
// definition keeps extraction deterministic. Multi-value answers join
// with ", "; blank answers are omitted.
func ExtractAnswers(def *FormDefinition, response FormResponse) []AnswerEntry {
	var entries []AnswerEntry
	for _, question := range def.Questions {
		values, ok := response.Answers[question.QuestionID]
		if !ok {
			continue
		}
		var nonBlank []string
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				nonBlank = append(nonBlank, strings.TrimSpace(v))
			}
		}
		if len(nonBlank) == 0 {
			continue
		}
		entries = append(entries, AnswerEntry{
			Label: question.Label,
			Value: strings.Join(nonBlank, ", "),
		})
	}
	return entries
}
