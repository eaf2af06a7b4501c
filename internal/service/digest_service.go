package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"todo-keeper/internal/model"
)

// DigestService builds the periodic summary sent to every chat.
type DigestService struct{}

func NewDigestService() *DigestService {
	return &DigestService{}
}

// Summary lists the open tasks of the active category and a count per category.
// ok is false when there is nothing open, in which case no digest should be sent.
func (s *DigestService) Summary(store *TodoStore, now time.Time) (text string, ok bool) {
	active := store.ActiveCategory()

	var pending []model.Task
	for _, task := range store.VisibleTasks(active) {
		if !task.IsDone {
			pending = append(pending, task)
		}
	}

	openTotal := 0
	var builder strings.Builder
	builder.WriteString("📋 <b>Digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	builder.WriteString(fmt.Sprintf("%s <b>%s</b>\n", categoryIcon(active), active))
	if len(pending) == 0 {
		builder.WriteString("— nothing open\n")
	}
	for _, task := range pending {
		builder.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(strings.TrimSpace(task.Text))))
	}

	builder.WriteString("\n")
	for _, category := range model.Categories {
		total, done := store.Counts(category)
		openTotal += total - done
		builder.WriteString(fmt.Sprintf("%s %s: %d open, %d done\n", categoryIcon(category), category, total-done, done))
	}

	if openTotal == 0 {
		return "", false
	}
	return strings.TrimSpace(builder.String()), true
}

func categoryIcon(category model.Category) string {
	if category == model.CategoryTravel {
		return "✈️"
	}
	return "💼"
}
