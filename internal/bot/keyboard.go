package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/eventbot/internal/domain"
)

// Main menu keyboard
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить событие", "add"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Список событий", "list"),
		),
	)
}

// Recurrence selection keyboard
func recurrenceKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1️⃣ Один раз", "rec:"+string(domain.RecurrenceNone)),
			tgbotapi.NewInlineKeyboardButtonData("📆 Каждый день", "rec:"+string(domain.RecurrenceDaily)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗓 Каждую неделю", "rec:"+string(domain.RecurrenceWeekly)),
			tgbotapi.NewInlineKeyboardButtonData("🌙 Каждые 30 дней", "rec:"+string(domain.RecurrenceMonthly)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Отмена", "cancel"),
		),
	)
}

// Lead-time presets; free-form CSV text is also accepted at this stage.
func leadPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("В момент события", "leads:0"),
			tgbotapi.NewInlineKeyboardButtonData("За 15 мин", "leads:15"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("За час", "leads:60"),
			tgbotapi.NewInlineKeyboardButtonData("За час, 15 мин и в момент", "leads:60,15,0"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Отмена", "cancel"),
		),
	)
}

// Event list keyboard with per-event delete buttons
func eventListKeyboard(events []*domain.Event) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for i, e := range events {
		if i >= 10 {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 %s", truncate(e.Title, 30)),
				"del:"+e.ID,
			),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Добавить", "add"),
		tgbotapi.NewInlineKeyboardButtonData("🔄 Обновить", "list"),
	))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

// Confirm delete keyboard
func confirmDeleteKeyboard(eventID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Да, удалить", "confirm_del:"+eventID),
			tgbotapi.NewInlineKeyboardButtonData("◀️ Отмена", "list"),
		),
	)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
