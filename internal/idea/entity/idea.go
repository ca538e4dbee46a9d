package entity

import "time"

// Idea is a captured unit of text content owned by a user. The enrichment
// fields (Project, Theme, Emotion) stay nil until the enrichment pipeline or
// an explicit update sets them; TransformedOutput is overwritten by each
// transformation run.
type Idea struct {
	ID                int64     `json:"id" db:"id"`
	UserID            string    `json:"-" db:"user_id"`
	Content           string    `json:"content" db:"content"`
	Source            string    `json:"source" db:"source"`
	Timestamp         time.Time `json:"timestamp" db:"timestamp"`
	Project           *string   `json:"project" db:"project"`
	Theme             *string   `json:"theme" db:"theme"`
	Emotion           *string   `json:"emotion" db:"emotion"`
	TransformedOutput *string   `json:"transformed_output" db:"transformed_output"`
}

// ListFilter holds optional conjunctive equality filters plus pagination.
type ListFilter struct {
	Project string
	Theme   string
	Emotion string
	Skip    int
	Limit   int
}

// Patch is a partial update; nil fields are untouched.
type Patch struct {
	Content           *string
	Project           *string
	Theme             *string
	Emotion           *string
	TransformedOutput *string
}

// IsEmpty reports whether the patch sets no fields.
func (p Patch) IsEmpty() bool {
	return p.Content == nil && p.Project == nil && p.Theme == nil &&
		p.Emotion == nil && p.TransformedOutput == nil
}

// Stats summarizes one owner's ideas. IdeasThisMonth counts from the first
// instant of the current calendar month, server time zone.
type Stats struct {
	TotalIdeas     int `json:"total_ideas"`
	IdeasThisMonth int `json:"ideas_this_month"`
	ProjectsCount  int `json:"projects_count"`
	ThemesCount    int `json:"themes_count"`
	EmotionsCount  int `json:"emotions_count"`
}

// Analysis is the enrichment view of an idea.
type Analysis struct {
	ID      int64   `json:"id"`
	Content string  `json:"content"`
	Project *string `json:"project"`
	Theme   *string `json:"theme"`
	Emotion *string `json:"emotion"`
}
