package rest

import (
	"strings"
	"time"

	"todocli/internal/apiclient"
	"todocli/internal/service"
)

// wireTask is a task as the backend sends it. Both snake_case and camelCase
// timestamp names are accepted.
type wireTask struct {
	ID          apiclient.FlexID `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Completed   bool             `json:"completed"`

	CreatedAt      *string `json:"created_at"`
	CreatedAtCamel *string `json:"createdAt"`
	UpdatedAt      *string `json:"updated_at"`
	UpdatedAtCamel *string `json:"updatedAt"`
}

func (w wireTask) normalize() service.Task {
	t := service.Task{
		ID:        w.ID.String(),
		Title:     w.Title,
		Completed: w.Completed,
		CreatedAt: parseTime(firstNonEmpty(w.CreatedAt, w.CreatedAtCamel)),
	}
	if w.Description != nil {
		t.Description = *w.Description
	}
	if s := firstNonEmpty(w.UpdatedAt, w.UpdatedAtCamel); s != "" {
		u := parseTime(s)
		t.UpdatedAt = &u
	}
	return t
}

func firstNonEmpty(vals ...*string) string {
	for _, v := range vals {
		if v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v)
		}
	}
	return ""
}

// timeLayouts are tried in order. Layouts without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTime returns the zero time for empty or unparseable input.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
