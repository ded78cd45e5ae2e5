package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/jarvis/internal/models"
	"github.com/dohr-michael/jarvis/internal/tasks"
)

// Draft is a task candidate extracted from a transcript, not yet persisted.
type Draft struct {
	Title   string
	DueDate time.Time
	Label   string
}

// Extractor turns free-form transcripts into task drafts using an LLM.
type Extractor struct {
	models *models.Registry
}

// NewExtractor creates a new Extractor.
func NewExtractor(registry *models.Registry) *Extractor {
	return &Extractor{models: registry}
}

// Extract asks the default model to pull actionable tasks out of the
// transcript. referenceDate anchors relative dates ("tomorrow", "next
// Friday") and loc is the timezone due times are resolved in. On any
// provider or decoding failure no drafts are returned.
func (e *Extractor) Extract(ctx context.Context, transcript string, referenceDate time.Time, loc *time.Location) ([]Draft, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, nil
	}

	chatModel, err := e.models.Default(ctx)
	if err != nil {
		return nil, &ErrRequestFailed{Provider: e.models.DefaultName(), Cause: err}
	}

	msgs := []*schema.Message{
		{Role: schema.System, Content: buildExtractPrompt(referenceDate)},
		{Role: schema.User, Content: transcript},
	}

	result, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, &ErrRequestFailed{Provider: e.models.DefaultName(), Cause: models.HandleError(err)}
	}

	drafts, err := parseExtractResponse(result.Content, loc)
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

func buildExtractPrompt(referenceDate time.Time) string {
	var sb strings.Builder

	sb.WriteString("You are a task extraction assistant. Extract actionable tasks from the user's spoken input.\n\n")
	sb.WriteString(fmt.Sprintf("Today's date is %s.\n", referenceDate.Format("2006-01-02")))
	sb.WriteString("Resolve relative dates (\"tomorrow\", \"next Friday\") against today's date.\n")
	sb.WriteString("If no due date is mentioned, use today's date.\n\n")
	sb.WriteString("For each task determine:\n")
	sb.WriteString("- title: a short imperative summary\n")
	sb.WriteString("- dueDate: the due date in ISO format (YYYY-MM-DD)\n")
	names := make([]string, 0, len(tasks.Labels))
	for _, l := range tasks.Labels {
		names = append(names, l.Name)
	}
	sb.WriteString(fmt.Sprintf("- label: exactly one of %s\n\n", strings.Join(names, ", ")))
	sb.WriteString("Respond with a JSON object:\n")
	sb.WriteString("```json\n")
	sb.WriteString(`{"tasks": [{"title": "...", "dueDate": "YYYY-MM-DD", "label": "Work"}]}`)
	sb.WriteString("\n```\n")
	sb.WriteString("If the input contains no actionable tasks, respond with {\"tasks\": []}.\n")
	sb.WriteString("Only output the JSON, no other text.")

	return sb.String()
}
