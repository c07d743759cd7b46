// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"todocli/internal/service"
	"todocli/internal/todolist"
)

// NoTasks is printed when the filtered listing is empty.
const NoTasks = "no tasks found"

// FormatTask formats one numbered task line.
// Format: "{N:>4}  [x] {TITLE}\n", with "[ ]" for open tasks.
func FormatTask(w io.Writer, num int, task service.Task) {
	mark := "[ ]"
	if task.Completed {
		mark = "[x]"
	}
	fmt.Fprintf(w, "%4d  %s %s\n", num, mark, normalizeTitle(task.Title))
}

// FormatDescription formats a task description below its task line.
func FormatDescription(w io.Writer, desc string) {
	desc = strings.TrimSpace(normalizeText(desc))
	if desc == "" {
		return
	}
	fmt.Fprintf(w, "          %s\n", desc)
}

// FormatRemaining formats the footer counting incomplete tasks.
func FormatRemaining(w io.Writer, n int) {
	if n == 1 {
		fmt.Fprintln(w, "1 item remaining")
		return
	}
	fmt.Fprintf(w, "%d items remaining\n", n)
}

// FormatList writes the visible tasks of s numbered from 1, then the footer.
// An empty listing prints NoTasks and no footer.
func FormatList(w io.Writer, s todolist.State, withDescriptions bool) {
	visible := s.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(w, NoTasks)
		return
	}
	for i, task := range visible {
		FormatTask(w, i+1, task)
		if withDescriptions {
			FormatDescription(w, task.Description)
		}
	}
	FormatRemaining(w, s.Remaining())
}

// FormatTime formats a timestamp for status lines in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
