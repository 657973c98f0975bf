package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	ExportLong = "long"
	ExportWide = "wide"
)

// ExportSubmissionsCSV renders submissions in the long format (one row per answer) or the wide
// format (one row per submission, one column per question). Question columns follow the
// assessment's order; answers to questions no longer in the assessment are appended sorted by id.
func ExportSubmissionsCSV(a *Assessment, subs []*Submission, format string) ([]byte, error) {
	switch format {
	case "", ExportLong:
		return exportLongCSV(a, subs)
	case ExportWide:
		return exportWideCSV(a, subs)
	default:
		return nil, NewInvalidError(fmt.Sprintf("unsupported format %q", format))
	}
}

func exportLongCSV(a *Assessment, subs []*Submission) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"submission_id", "candidate_id", "question_id", "answer", "submitted_at"})
	for _, sub := range subs {
		for _, qid := range questionColumns(a, []*Submission{sub}) {
			v, ok := sub.Answers[qid]
			if !ok {
				continue
			}
			rec := []string{
				strconv.FormatInt(sub.ID, 10),
				candidateCell(sub.CandidateID),
				qid,
				answerCell(v),
				sub.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportWideCSV(a *Assessment, subs []*Submission) ([]byte, error) {
	cols := questionColumns(a, subs)
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := append([]string{"submission_id", "candidate_id", "submitted_at"}, cols...)
	_ = w.Write(header)
	for _, sub := range subs {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatInt(sub.ID, 10), candidateCell(sub.CandidateID), sub.CreatedAt.UTC().Format(time.RFC3339))
		for _, qid := range cols {
			v, ok := sub.Answers[qid]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, answerCell(v))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func questionColumns(a *Assessment, subs []*Submission) []string {
	seen := map[string]bool{}
	cols := []string{}
	if a != nil {
		for _, s := range a.Sections {
			for _, q := range s.Questions {
				if !seen[q.ID] {
					seen[q.ID] = true
					cols = append(cols, q.ID)
				}
			}
		}
	}
	var extra []string
	for _, sub := range subs {
		for qid := range sub.Answers {
			if !seen[qid] {
				seen[qid] = true
				extra = append(extra, qid)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

func candidateCell(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// answerCell flattens an answer: multi-choice values are joined with " | ", numbers keep
// their shortest form and anything structured (file descriptors) is written as JSON.
func answerCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, answerCell(item))
		}
		return strings.Join(parts, " | ")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
