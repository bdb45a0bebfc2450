package surveysync

import (
	"reflect"
	"testing"
)

func TestExtractAnswersFollowsFormOrder(t *testing.T) {
	def := &FormDefinition{
		FormID: "f1",
		Questions: []FormQuestion{
			{QuestionID: "q1", Label: "Họ và tên"},
			{QuestionID: "q2", Label: "Số điện thoại"},
			{QuestionID: "q3", Label: "Triệu chứng"},
		},
	}
	// answers arrive keyed by question id, in no particular order
	response := FormResponse{
		ID: "r1",
		Answers: map[string][]string{
			"q3": {"đau đầu"},
			"q1": {"Nguyễn A"},
			"q2": {"0901234567"},
		},
	}

	got := ExtractAnswers(def, response)
	want := []AnswerEntry{
		{Label: "Họ và tên", Value: "Nguyễn A"},
		{Label: "Số điện thoại", Value: "0901234567"},
		{Label: "Triệu chứng", Value: "đau đầu"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractAnswersJoinsMultiValue(t *testing.T) {
	def := &FormDefinition{
		Questions: []FormQuestion{{QuestionID: "q1", Label: "Triệu chứng"}},
	}
	response := FormResponse{Answers: map[string][]string{"q1": {"ho", "sốt"}}}

	got := ExtractAnswers(def, response)
	if len(got) != 1 || got[0].Value != "ho, sốt" {
		t.Errorf("got %v, want single entry joined with comma", got)
	}
}

func TestExtractAnswersOmitsBlank(t *testing.T) {
	def := &FormDefinition{
		Questions: []FormQuestion{
			{QuestionID: "q1", Label: "A"},
			{QuestionID: "q2", Label: "B"},
			{QuestionID: "q3", Label: "C"},
		},
	}
	response := FormResponse{Answers: map[string][]string{
		"q1": {"  "},
		"q2": {""},
		"q3": {"value"},
	}}

	got := ExtractAnswers(def, response)
	if len(got) != 1 || got[0].Label != "C" {
		t.Errorf("got %v, want only the non-blank answer", got)
	}
}

func TestExtractAnswersUnansweredQuestion(t *testing.T) {
	def := &FormDefinition{
		Questions: []FormQuestion{
			{QuestionID: "q1", Label: "A"},
			{QuestionID: "q2", Label: "B"},
		},
	}
	response := FormResponse{Answers: map[string][]string{"q2": {"x"}}}

	got := ExtractAnswers(def, response)
	if len(got) != 1 || got[0].Label != "B" {
		t.Errorf("got %v, want only answered question", got)
	}
}
