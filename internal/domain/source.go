package domain

import "time"

// Source — источник контента или вакансий.
type Source struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	SourceType  string         `json:"source_type"`
	URL         *string        `json:"url"`
	TrustManual int            `json:"trust_manual"`
	JobKeywords []string       `json:"job_keywords,omitempty"`
	JobRegex    *string        `json:"job_regex,omitempty"`
	State       map[string]any `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"-"`
}

// Значения по умолчанию для нового источника.
const (
	DefaultSourceType  = "content"
	DefaultTrustManual = 50
)
