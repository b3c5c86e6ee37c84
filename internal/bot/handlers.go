package bot

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/eventbot/internal/domain"
	"github.com/tazhate/eventbot/internal/schedule"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	sess := b.events.Session(chatID)
	if sess == nil {
		b.SendMessageWithKeyboard(chatID, "Выбери действие:", mainMenuKeyboard())
		return
	}

	b.handleDialogInput(chatID, sess, text)
}

// handleDialogInput feeds free text into the creation state machine.
// Rejected input re-prompts the same stage with an explicit error, never
// silently.
func (b *Bot) handleDialogInput(chatID int64, sess *domain.Session, text string) {
	switch sess.Stage {
	case domain.StageTitle:
		if err := b.events.SubmitTitle(chatID, text); err != nil {
			b.SendMessage(chatID, "❌ Название не может быть пустым. Введите название события:")
			return
		}
		b.SendMessage(chatID, "Дата и время (YYYY-MM-DD HH:MM):")

	case domain.StageDateTime:
		if err := b.events.SubmitDateTime(chatID, text); err != nil {
			var perr *domain.ParseError
			if errors.As(err, &perr) && perr.Reason == "instant is in the past" {
				b.SendMessage(chatID, "❌ Это время уже прошло. Введите будущую дату (YYYY-MM-DD HH:MM):")
			} else {
				b.SendMessage(chatID, "❌ Неверный формат. Попробуйте снова (YYYY-MM-DD HH:MM):")
			}
			return
		}
		b.SendMessageWithKeyboard(chatID, "Как повторять событие?", recurrenceKeyboard())

	case domain.StageRecurrence:
		// Recurrence is picked with a button, not text.
		b.SendMessageWithKeyboard(chatID, "Выбери повторение кнопкой ниже:", recurrenceKeyboard())

	case domain.StageLeadTimes:
		b.commitLeadTimes(chatID, text)
	}
}

func (b *Bot) commitLeadTimes(chatID int64, text string) {
	event, err := b.events.SubmitLeadTimes(chatID, text)
	if err != nil {
		var perr *domain.ParseError
		if errors.As(err, &perr) {
			b.SendMessage(chatID, "❌ Неверный формат минут. Например: 60,15,0")
			return
		}
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Commit event")
		b.SendMessage(chatID, "❌ Не удалось сохранить событие, попробуйте ещё раз")
		return
	}

	b.SendMessage(chatID, fmt.Sprintf(
		"✅ Событие добавлено\n\n<b>%s</b>\n📅 %s\n🔁 %s\n🔔 за %s мин.",
		event.Title,
		event.StartAt.In(b.cfg.Timezone).Format("02.01.2006 15:04"),
		event.Recurrence.Label(),
		joinInts(event.LeadMinutes),
	))
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID

	data := callback.Data
	parts := strings.Split(data, ":")

	switch parts[0] {
	case "add":
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.events.StartCreation(chatID)
		b.SendMessage(chatID, "Введите название события:")

	case "list":
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.sendEventList(chatID)

	case "rec":
		if len(parts) < 2 {
			return
		}
		if err := b.events.SubmitRecurrence(chatID, domain.Recurrence(parts[1])); err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Сессия не найдена, начните заново: /add"))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.SendMessageWithKeyboard(chatID,
			"Когда напомнить? Выбери вариант или введи минуты через запятую.\nНапример: 60,15,0",
			leadPresetsKeyboard())

	case "leads":
		if len(parts) < 2 {
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.commitLeadTimes(chatID, parts[1])

	case "del":
		if len(parts) < 2 {
			return
		}
		event, err := b.events.Get(parts[1], chatID)
		if err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Событие не найдено"))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.SendMessageWithKeyboard(chatID,
			fmt.Sprintf("🗑 Удалить событие?\n\n<b>%s</b>", event.Title),
			confirmDeleteKeyboard(event.ID))

	case "confirm_del":
		if len(parts) < 2 {
			return
		}
		if err := b.events.Delete(parts[1], chatID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				b.api.Request(tgbotapi.NewCallback(callback.ID, "Событие не найдено"))
			} else {
				b.log.Error().Err(err).Str("event_id", parts[1]).Msg("Delete event")
				b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ Ошибка, попробуйте позже"))
			}
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, "🗑 Удалено!"))
		b.sendEventList(chatID)

	case "cancel":
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		if b.events.Cancel(chatID) {
			b.SendMessage(chatID, "✖️ Создание отменено")
		}
		b.SendMessageWithKeyboard(chatID, "Выбери действие:", mainMenuKeyboard())

	default:
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
	}
}

func (b *Bot) sendEventList(chatID int64) {
	events, err := b.events.List(chatID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("List events")
		b.SendMessage(chatID, "❌ Не удалось загрузить события, попробуйте позже")
		return
	}

	if len(events) == 0 {
		b.SendMessageWithKeyboard(chatID, "Событий пока нет.", mainMenuKeyboard())
		return
	}

	now := b.events.Now()
	text := "📋 <b>Список событий:</b>\n"
	for _, e := range events {
		next, ok := schedule.Next(e.StartAt, e.Recurrence, now)
		when := "уже прошло"
		if ok {
			when = next.In(b.cfg.Timezone).Format("02.01.2006 15:04")
		}
		text += fmt.Sprintf("\n• <b>%s</b> — %s (%s, 🔔 %s мин.)\n  <code>%s</code>",
			e.Title, when, e.Recurrence.Label(), joinInts(e.LeadMinutes), e.ID)
	}

	kb := eventListKeyboard(events)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = kb
	b.api.Send(msg)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
