package services

import "time"

type Stage string

const (
	StageApplied  Stage = "applied"
	StageScreen   Stage = "screen"
	StageTech     Stage = "tech"
	StageOffer    Stage = "offer"
	StageHired    Stage = "hired"
	StageRejected Stage = "rejected"
)

// Stages lists the pipeline in board order.
var Stages = []Stage{StageApplied, StageScreen, StageTech, StageOffer, StageHired, StageRejected}

type JobStatus string

const (
	JobActive   JobStatus = "active"
	JobArchived JobStatus = "archived"
)

type Job struct {
	ID     int64     `json:"id"`
	Title  string    `json:"title"`
	Slug   string    `json:"slug"`
	Status JobStatus `json:"status"`
	Tags   []string  `json:"tags"`
	Order  int       `json:"order"`
}

type Candidate struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	JobID int64  `json:"jobId"`
	Stage Stage  `json:"stage"`
}

// CandidateView is a candidate enriched with the title of the job it applied to.
type CandidateView struct {
	Candidate
	JobTitle string `json:"jobTitle"`
}

type TimelineEvent struct {
	ID          int64     `json:"id"`
	CandidateID int64     `json:"candidateId"`
	At          time.Time `json:"at"`
	FromStage   Stage     `json:"fromStage"`
	ToStage     Stage     `json:"toStage"`
	Note        string    `json:"note"`
}

type QuestionType string

const (
	QuestionSingle QuestionType = "single"
	QuestionMulti  QuestionType = "multi"
	QuestionShort  QuestionType = "short"
	QuestionLong   QuestionType = "long"
	QuestionNumber QuestionType = "number"
	QuestionFile   QuestionType = "file"
)

// Condition gates a question on another question's answer being exactly EqualsValue.
type Condition struct {
	QuestionID  string `json:"questionId"`
	EqualsValue any    `json:"equalsValue"`
}

type Question struct {
	ID        string       `json:"id"`
	Type      QuestionType `json:"type"`
	Title     string       `json:"title"`
	Required  bool         `json:"required"`
	Options   []string     `json:"options"`
	Min       *float64     `json:"min"`
	Max       *float64     `json:"max"`
	MaxLength *int         `json:"maxLength,omitempty"`
	Condition *Condition   `json:"condition"`
}

type Section struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

type Assessment struct {
	JobID     int64     `json:"jobId"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
	Sections  []Section `json:"sections"`
}

// Answers maps question ids to raw answer values as decoded from JSON:
// string, []any of strings, float64, bool, a file descriptor object, or nil.
type Answers map[string]any

type Submission struct {
	ID          int64     `json:"id"`
	JobID       int64     `json:"jobId"`
	CandidateID *int64    `json:"candidateId"`
	Answers     Answers   `json:"answers"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Note struct {
	ID          int64     `json:"id"`
	CandidateID int64     `json:"candidateId"`
	Text        string    `json:"text"`
	Mentions    []string  `json:"mentions"`
	CreatedAt   time.Time `json:"createdAt"`
}
