package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// FieldErrors maps question ids to a human readable validation message.
type FieldErrors map[string]string

const (
	msgRequired    = "Required"
	msgNotANumber  = "Must be a number"
	msgOptionValid = "Not a valid option"
)

// Validate checks answers against every currently visible question of a. It is pure: identical
// inputs always yield identical maps.
func Validate(a *Assessment, answers Answers) FieldErrors {
	errs := FieldErrors{}
	if a == nil {
		return errs
	}
	known := questionIDs(a)
	for _, sec := range a.Sections {
		for i := range sec.Questions {
			q := &sec.Questions[i]
			if !IsVisible(q, answers, known) {
				continue
			}
			if msg := validateAnswer(q, answers[q.ID]); msg != "" {
				errs[q.ID] = msg
			}
		}
	}
	return errs
}

// ValidateStrict is Validate plus option membership for single and multi questions.
func ValidateStrict(a *Assessment, answers Answers) FieldErrors {
	errs := Validate(a, answers)
	if a == nil {
		return errs
	}
	known := questionIDs(a)
	for _, sec := range a.Sections {
		for i := range sec.Questions {
			q := &sec.Questions[i]
			if _, failed := errs[q.ID]; failed || !IsVisible(q, answers, known) {
				continue
			}
			if !optionsAllowed(q, answers[q.ID]) {
				errs[q.ID] = msgOptionValid
			}
		}
	}
	return errs
}

// IsVisible reports whether q is shown for answers. A condition pointing at a question that
// does not exist in the assessment keeps q hidden.
func IsVisible(q *Question, answers Answers, known map[string]bool) bool {
	c := q.Condition
	if c == nil || c.QuestionID == "" {
		return true
	}
	if known != nil && !known[c.QuestionID] {
		return false
	}
	return strictEqual(answers[c.QuestionID], c.EqualsValue)
}

func validateAnswer(q *Question, v any) string {
	if q.Required && isEmpty(v) {
		return msgRequired
	}
	switch q.Type {
	case QuestionNumber:
		if v == nil || v == "" {
			return ""
		}
		n := toNumber(v)
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return msgNotANumber
		}
		if q.Min != nil && n < *q.Min {
			return "Min " + formatNumber(*q.Min)
		}
		if q.Max != nil && n > *q.Max {
			return "Max " + formatNumber(*q.Max)
		}
	case QuestionShort, QuestionLong:
		s, ok := v.(string)
		if ok && q.MaxLength != nil && *q.MaxLength > 0 && textLength(s) > *q.MaxLength {
			return fmt.Sprintf("Max %d chars", *q.MaxLength)
		}
	}
	return ""
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

// toNumber coerces an answer the way a browser's Number() would for the shapes JSON can carry.
func toNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		return parseNumber(s)
	}
	return math.NaN()
}

// parseNumber accepts decimal literals plus unsigned 0x, 0o and 0b integers, as Number() does.
func parseNumber(s string) float64 {
	if strings.Contains(s, "_") {
		return math.NaN()
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// textLength counts UTF-16 code units, so characters outside the BMP count twice like in a browser.
func textLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// strictEqual compares scalars by type and value. Arrays and objects never compare equal.
func strictEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case int:
			return x == float64(y)
		}
	case int:
		return strictEqual(float64(x), b)
	}
	return false
}

func optionsAllowed(q *Question, v any) bool {
	if v == nil || len(q.Options) == 0 {
		return true
	}
	allowed := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		allowed[o] = true
	}
	switch q.Type {
	case QuestionSingle:
		s, ok := v.(string)
		return ok && (s == "" || allowed[s])
	case QuestionMulti:
		items, ok := v.([]any)
		if !ok {
			return false
		}
		for _, it := range items {
			s, ok := it.(string)
			if !ok || !allowed[s] {
				return false
			}
		}
	}
	return true
}

func questionIDs(a *Assessment) map[string]bool {
	ids := map[string]bool{}
	for _, sec := range a.Sections {
		for _, q := range sec.Questions {
			ids[q.ID] = true
		}
	}
	return ids
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
