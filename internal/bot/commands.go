package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/eventbot/internal/domain"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.SendMessageWithKeyboard(chatID,
			"👋 Привет! Я напомню о твоих событиях.\n\nВыбери действие:",
			mainMenuKeyboard())
	case "help":
		b.cmdHelp(chatID)
	case "add":
		b.events.StartCreation(chatID)
		b.SendMessage(chatID, "Введите название события:")
	case "list":
		b.sendEventList(chatID)
	case "delete":
		b.cmdDelete(chatID, args)
	case "cancel":
		if b.events.Cancel(chatID) {
			b.SendMessage(chatID, "✖️ Создание отменено")
		} else {
			b.SendMessage(chatID, "Нечего отменять")
		}
	case "export":
		b.cmdExport(chatID)
	default:
		b.SendMessage(chatID, "Неизвестная команда. /help для списка команд")
	}
}

func (b *Bot) cmdHelp(chatID int64) {
	text := `<b>Команды:</b>

/add — добавить событие (название → дата → повтор → напоминания)
/list — список событий
/delete ID — удалить событие
/cancel — отменить создание
/export — выгрузить события файлом .ics

Напоминания приходят за указанное число минут до события.`
	b.SendMessage(chatID, text)
}

func (b *Bot) cmdDelete(chatID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Укажи ID: /delete ID\n\nID видно в /list")
		return
	}

	if err := b.events.Delete(args, chatID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			b.SendMessage(chatID, "Событие не найдено")
		} else {
			b.log.Error().Err(err).Str("event_id", args).Msg("Delete event")
			b.SendMessage(chatID, "❌ Ошибка, попробуйте позже")
		}
		return
	}
	b.SendMessage(chatID, "🗑 Событие удалено")
}

func (b *Bot) cmdExport(chatID int64) {
	data, err := b.export.BuildICS(chatID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Build ICS")
		b.SendMessage(chatID, "❌ Не удалось собрать календарь")
		return
	}

	if err := b.SendDocument(chatID, "events.ics", data); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Send ICS")
		return
	}

	if b.export.CanUpload() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := b.export.Upload(ctx, chatID); err != nil {
			b.log.Error().Err(err).Int64("chat_id", chatID).Msg("CalDAV upload")
			b.SendMessage(chatID, "⚠️ Файл отправлен, но выгрузка в CalDAV не удалась")
			return
		}
		b.SendMessage(chatID, "📤 Календарь выгружен в CalDAV")
	}
}
