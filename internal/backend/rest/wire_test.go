package rest

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestWireTask_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantID      string
		wantCreated time.Time
		wantUpdated *time.Time
		wantDesc    string
	}{
		{
			name:        "numeric id, snake case, naive timestamps",
			in:          `{"id":7,"title":"a","description":null,"completed":false,"created_at":"2024-03-01T10:20:30.123456","updated_at":"2024-03-02T08:00:00"}`,
			wantID:      "7",
			wantCreated: time.Date(2024, 3, 1, 10, 20, 30, 123456000, time.UTC),
			wantUpdated: ptrTime(time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)),
		},
		{
			name:        "string id, camel case, RFC 3339",
			in:          `{"id":"abc","title":"b","description":"d","completed":true,"createdAt":"2024-03-01T10:20:30Z"}`,
			wantID:      "abc",
			wantCreated: time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC),
			wantDesc:    "d",
		},
		{
			name:        "snake case wins over camel case",
			in:          `{"id":1,"created_at":"2024-01-01 00:00:00","createdAt":"1999-01-01T00:00:00Z","updated_at":null}`,
			wantID:      "1",
			wantCreated: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "unparseable timestamp",
			in:     `{"id":2,"created_at":"yesterday"}`,
			wantID: "2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w wireTask
			if err := json.Unmarshal([]byte(tt.in), &w); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got := w.normalize()
			if got.ID != tt.wantID {
				t.Errorf("expected id %q, got %q", tt.wantID, got.ID)
			}
			if !got.CreatedAt.Equal(tt.wantCreated) {
				t.Errorf("expected created %v, got %v", tt.wantCreated, got.CreatedAt)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("expected description %q, got %q", tt.wantDesc, got.Description)
			}
			switch {
			case tt.wantUpdated == nil && got.UpdatedAt != nil:
				t.Errorf("expected no updated time, got %v", *got.UpdatedAt)
			case tt.wantUpdated != nil && (got.UpdatedAt == nil || !got.UpdatedAt.Equal(*tt.wantUpdated)):
				t.Errorf("expected updated %v, got %v", *tt.wantUpdated, got.UpdatedAt)
			}
		})
	}
}

func TestParseTime_Offset(t *testing.T) {
	got := parseTime("2024-03-01T12:00:00+02:00")
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
