package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dohr-michael/jarvis/internal/tasks"
)

type extractEnvelope struct {
	Tasks []draftRecord `json:"tasks"`
}

type draftRecord struct {
	Title   string `json:"title"`
	DueDate string `json:"dueDate"`
	Label   string `json:"label"`
}

// parseExtractResponse decodes the model output into drafts. Validation is
// strict: a missing tasks array, an empty title, an unparseable date or a
// label outside the closed set rejects the whole response.
func parseExtractResponse(content string, loc *time.Location) ([]Draft, error) {
	content = stripCodeFences(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response body", ErrMalformedResponse)
	}

	var envelope extractEnvelope
	dec := json.NewDecoder(strings.NewReader(content))
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.Tasks == nil {
		return nil, fmt.Errorf("%w: missing tasks array", ErrMalformedResponse)
	}

	drafts := make([]Draft, 0, len(envelope.Tasks))
	for i, rec := range envelope.Tasks {
		title, err := tasks.ValidateTitle(rec.Title)
		if err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrMalformedResponse, i, err)
		}
		due, err := parseDueDate(rec.DueDate, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrMalformedResponse, i, err)
		}
		if !tasks.KnownLabel(rec.Label) {
			return nil, fmt.Errorf("%w: task %d: unknown label %q", ErrMalformedResponse, i, rec.Label)
		}
		drafts = append(drafts, Draft{Title: title, DueDate: due, Label: rec.Label})
	}
	return drafts, nil
}

// parseDueDate resolves an ISO date to noon local time so that day-level
// due dates never drift across midnight under timezone conversion.
func parseDueDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("missing dueDate")
	}
	day, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		// Some models answer with a full timestamp despite the contract.
		ts, tsErr := time.Parse(time.RFC3339, value)
		if tsErr != nil {
			return time.Time{}, fmt.Errorf("invalid dueDate %q", value)
		}
		day = ts.In(loc)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc), nil
}

// stripCodeFences removes markdown code fences around a JSON payload.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	lines := strings.Split(content, "\n")
	var jsonLines []string
	inBlock := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inBlock = !inBlock
			continue
		}
		if inBlock {
			jsonLines = append(jsonLines, line)
		}
	}
	return strings.TrimSpace(strings.Join(jsonLines, "\n"))
}
