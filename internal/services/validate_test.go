package services

import (
	"reflect"
	"testing"
)

func ptrFloat(f float64) *float64 { return &f }
func ptrInt(i int) *int           { return &i }

func screeningAssessment() *Assessment {
	return &Assessment{
		JobID:   1,
		Version: 1,
		Sections: []Section{{
			ID:    "s1",
			Title: "Basics",
			Questions: []Question{
				{ID: "q1", Type: QuestionShort, Title: "Name", Required: true, MaxLength: ptrInt(5)},
				{ID: "q6", Type: QuestionNumber, Title: "Years", Required: true, Min: ptrFloat(0), Max: ptrFloat(20)},
				{ID: "q7", Type: QuestionSingle, Title: "Relocate?", Options: []string{"Yes", "No"}},
				{ID: "q8", Type: QuestionLong, Title: "Where to?", Required: true,
					Condition: &Condition{QuestionID: "q7", EqualsValue: "Yes"}},
				{ID: "q9", Type: QuestionMulti, Title: "Stack", Required: true, Options: []string{"Go", "Rust"}},
			},
		}},
	}
}

func TestValidateConditionalVisibility(t *testing.T) {
	a := screeningAssessment()
	base := Answers{"q1": "Ada", "q6": float64(3), "q9": []any{"Go"}}

	for _, v := range []any{nil, "No", "yes", []any{"Yes"}, true} {
		answers := Answers{}
		for k, val := range base {
			answers[k] = val
		}
		if v != nil {
			answers["q7"] = v
		}
		errs := Validate(a, answers)
		if _, ok := errs["q8"]; ok {
			t.Fatalf("hidden q8 validated for q7=%v: %v", v, errs)
		}
	}

	answers := Answers{"q1": "Ada", "q6": float64(3), "q7": "Yes", "q9": []any{"Go"}}
	errs := Validate(a, answers)
	if errs["q8"] != "Required" {
		t.Fatalf("visible q8 should be required, got %v", errs)
	}
}

func TestValidateNumberBounds(t *testing.T) {
	a := screeningAssessment()
	cases := []struct {
		value any
		want  string
	}{
		{"25", "Max 20"},
		{"abc", "Must be a number"},
		{"-1", "Min 0"},
		{" 7 ", ""},
		{float64(20), ""},
		{true, ""},
		{map[string]any{}, "Must be a number"},
		{"0x1A", "Max 20"},
		{"0b101", ""},
		{"1_0", "Must be a number"},
		{"-0x1", "Must be a number"},
	}
	for _, tc := range cases {
		errs := Validate(a, Answers{"q1": "Ada", "q6": tc.value, "q9": []any{"Go"}})
		if errs["q6"] != tc.want {
			t.Fatalf("q6=%v: got %q want %q", tc.value, errs["q6"], tc.want)
		}
	}

	// empty value only reports required, never a numeric error
	errs := Validate(a, Answers{"q1": "Ada", "q6": "", "q9": []any{"Go"}})
	if errs["q6"] != "Required" {
		t.Fatalf("empty required number: %v", errs)
	}
	a.Sections[0].Questions[1].Required = false
	errs = Validate(a, Answers{"q1": "Ada", "q6": "", "q9": []any{"Go"}})
	if _, ok := errs["q6"]; ok {
		t.Fatalf("empty optional number should pass: %v", errs)
	}
}

func TestValidateTextAndRequired(t *testing.T) {
	a := screeningAssessment()
	errs := Validate(a, Answers{"q1": "Adalovelace", "q6": "1", "q9": []any{}})
	if errs["q1"] != "Max 5 chars" {
		t.Fatalf("q1: %v", errs)
	}
	if errs["q9"] != "Required" {
		t.Fatalf("empty multi should be required: %v", errs)
	}
	errs = Validate(a, Answers{"q1": "Zoë", "q6": "1", "q9": []any{"Go"}})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	// each emoji is two UTF-16 units
	errs = Validate(a, Answers{"q1": "ab😀😀", "q6": "1", "q9": []any{"Go"}})
	if errs["q1"] != "Max 5 chars" {
		t.Fatalf("emoji length: %v", errs)
	}
}

func TestValidateZeroMaxLengthIsUnlimited(t *testing.T) {
	zero := 0
	a := &Assessment{Sections: []Section{{ID: "s", Questions: []Question{
		{ID: "q1", Type: QuestionShort, MaxLength: &zero},
	}}}}
	if errs := Validate(a, Answers{"q1": "hi"}); len(errs) != 0 {
		t.Fatalf("zero maxLength should not limit answers: %v", errs)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	a := screeningAssessment()
	answers := Answers{"q6": "abc", "q7": "Yes"}
	first := Validate(a, answers)
	second := Validate(a, answers)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("validate not idempotent: %v vs %v", first, second)
	}
	if len(answers) != 2 {
		t.Fatalf("validate mutated answers")
	}
}

func TestValidateDanglingConditionHidesQuestion(t *testing.T) {
	a := &Assessment{Sections: []Section{{Questions: []Question{
		{ID: "q1", Type: QuestionShort, Required: true, Condition: &Condition{QuestionID: "ghost", EqualsValue: nil}},
	}}}}
	if errs := Validate(a, Answers{}); len(errs) != 0 {
		t.Fatalf("dangling condition should hide question: %v", errs)
	}
}

func TestValidateStrictOptions(t *testing.T) {
	a := screeningAssessment()
	answers := Answers{"q1": "Ada", "q6": 2.0, "q7": "Maybe", "q9": []any{"Go", "Zig"}}
	if errs := Validate(a, answers); len(errs) != 0 {
		t.Fatalf("lenient validate should ignore options: %v", errs)
	}
	errs := ValidateStrict(a, answers)
	if errs["q7"] != "Not a valid option" || errs["q9"] != "Not a valid option" {
		t.Fatalf("strict validate: %v", errs)
	}
}
