package bot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-keeper/internal/model"
)

const (
	cbDonePrefix   = "done:"
	cbEditPrefix   = "edit:"
	cbDeletePrefix = "delete:"
)

const (
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	menuLabelWork   = "💼 Work"
	menuLabelTravel = "✈️ Travel"
	menuLabelList   = "📋 List"
	menuLabelClear  = "🧹 Clear all"
	iconOpen        = "⬜"
	iconDone        = "✅"
	iconEditing     = "✏️"
)

// renderList formats the visible tasks of the active category as HTML.
func renderList(active model.Category, tasks []model.Task) string {
	var b strings.Builder
	b.WriteString(categoryHeader(model.CategoryWork, active))
	b.WriteString(" · ")
	b.WriteString(categoryHeader(model.CategoryTravel, active))
	b.WriteString("\n\n")

	if len(tasks) == 0 {
		b.WriteString(fmt.Sprintf("<i>Nothing here yet. %s</i>", escape(active.Prompt())))
		return b.String()
	}

	for i, task := range tasks {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, formatTask(task)))
	}
	b.WriteString(fmt.Sprintf("\n<i>%s</i>", escape(active.Prompt())))
	return b.String()
}

func categoryHeader(category, active model.Category) string {
	if category == active {
		return fmt.Sprintf("<b>%s</b>", category)
	}
	return string(category)
}

func formatTask(task model.Task) string {
	text := escape(task.Text)
	switch {
	case task.IsEditing:
		return fmt.Sprintf("%s <i>%s</i> (send the new text, then tap save)", iconEditing, text)
	case task.IsDone:
		return fmt.Sprintf("%s <s>%s</s>", iconDone, text)
	default:
		return fmt.Sprintf("%s %s", iconOpen, text)
	}
}

// listKeyboard has one row per task: toggle done, edit/save, delete.
func listKeyboard(tasks []model.Task) *tgbotapi.InlineKeyboardMarkup {
	if len(tasks) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for i, task := range tasks {
		doneLabel := fmt.Sprintf("%s %d", iconOpen, i+1)
		if task.IsDone {
			doneLabel = fmt.Sprintf("%s %d", iconDone, i+1)
		}
		editLabel := "✏️ Edit"
		if task.IsEditing {
			editLabel = "💾 Save"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(doneLabel, cbDonePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData(editLabel, cbEditPrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func helpText() string {
	return "ℹ️ <b>Todo keeper</b>\n" +
		"Send any text to add it to the active list.\n\n" +
		"• /work, /travel — switch lists\n" +
		"• /list — show the active list\n" +
		"• /add &lt;text&gt; — add a task\n" +
		"• /delete &lt;n&gt; — delete task number n\n" +
		"• /clear — erase everything\n" +
		"• /help — this message\n\n" +
		"Under the list: ⬜ toggles done, ✏️ edits (send the new text, then 💾 saves), 🗑 deletes."
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelWork),
			tgbotapi.NewKeyboardButton(menuLabelTravel),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelList),
			tgbotapi.NewKeyboardButton(menuLabelClear),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func shortText(text string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
