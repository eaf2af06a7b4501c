package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-keeper/internal/model"
	"todo-keeper/internal/repository"
	"todo-keeper/internal/service"
)

type confirmationAction int

const (
	actionDelete confirmationAction = iota
	actionClear
)

type confirmationRequest struct {
	taskID string
	action confirmationAction
}

// sender is the part of the Telegram API the handlers talk to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the chat front end: it turns Telegram updates into TodoStore calls and
// renders the active list back. Every chat owns its own store.
type Bot struct {
	api           *tgbotapi.BotAPI
	client        sender
	chats         *repository.ChatRepository
	stores        *service.StoreRegistry
	digest        *service.DigestService
	logger        *log.Logger
	confirmations map[int64]confirmationRequest
	renaming      map[int64]string
	mu            sync.Mutex
}

func New(token string, chats *repository.ChatRepository, stores *service.StoreRegistry, digest *service.DigestService, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Info("bot authorized", "account", api.Self.UserName)

	b := newBot(api, chats, stores, digest, logger)
	b.api = api
	return b, nil
}

func newBot(client sender, chats *repository.ChatRepository, stores *service.StoreRegistry, digest *service.DigestService, logger *log.Logger) *Bot {
	return &Bot{
		client:        client,
		chats:         chats,
		stores:        stores,
		digest:        digest,
		logger:        logger,
		confirmations: make(map[int64]confirmationRequest),
		renaming:      make(map[int64]string),
	}
}

// Namespace is the key-value namespace holding one chat's list.
func Namespace(chatID int64) string {
	return fmt.Sprintf("chat:%d", chatID)
}

// Start handles updates one at a time until ctx is cancelled, so each
// chat's mutations complete in order.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.logger.Error("handle callback", "err", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.logger.Error("handle message", "err", err)
			}
		}
	}

	if err := b.stores.FlushAll(context.Background()); err != nil {
		b.logger.Warn("flush pending renames", "err", err)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	store, err := b.storeFor(ctx, chatID, msg.From)
	if err != nil {
		return b.reportError(chatID, err)
	}

	if msg.IsCommand() {
		b.logger.Debug("command", "chat", chatID, "cmd", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg, store)
	}

	if pending, ok := b.getConfirmation(chatID); ok {
		return b.handleConfirmationResponse(ctx, msg, store, pending)
	}

	if handled, err := b.handleMenuAlias(ctx, msg, store); handled {
		return err
	}

	if taskID, ok := b.getRenaming(chatID); ok {
		return b.renameTask(chatID, store, taskID, msg.Text)
	}
	// Editing flags survive restarts, the renaming map does not.
	if task, ok := editingTask(store); ok {
		b.setRenaming(chatID, task.ID)
		return b.renameTask(chatID, store, task.ID, msg.Text)
	}

	return b.addTask(ctx, chatID, store, msg.Text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, store *service.TodoStore) error {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		return b.sendText(chatID, helpText())
	case "work":
		return b.switchCategory(ctx, chatID, store, model.CategoryWork)
	case "travel":
		return b.switchCategory(ctx, chatID, store, model.CategoryTravel)
	case "list":
		return b.sendList(chatID, store)
	case "add":
		return b.addTask(ctx, chatID, store, msg.CommandArguments())
	case "delete":
		return b.handleDelete(chatID, store, msg.CommandArguments())
	case "clear":
		return b.askClearConfirmation(chatID)
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message, store *service.TodoStore) (bool, error) {
	chatID := msg.Chat.ID
	switch strings.TrimSpace(msg.Text) {
	case menuLabelWork:
		return true, b.switchCategory(ctx, chatID, store, model.CategoryWork)
	case menuLabelTravel:
		return true, b.switchCategory(ctx, chatID, store, model.CategoryTravel)
	case menuLabelList:
		return true, b.sendList(chatID, store)
	case menuLabelClear:
		return true, b.askClearConfirmation(chatID)
	default:
		return false, nil
	}
}

func (b *Bot) switchCategory(ctx context.Context, chatID int64, store *service.TodoStore, category model.Category) error {
	if _, err := store.SetActiveCategory(ctx, category); err != nil {
		return b.reportError(chatID, err)
	}
	b.logger.Info("category switched", "chat", chatID, "category", category)
	return b.sendList(chatID, store)
}

func (b *Bot) addTask(ctx context.Context, chatID int64, store *service.TodoStore, text string) error {
	if text == "" {
		return b.sendText(chatID, escape(store.ActiveCategory().Prompt()))
	}
	category := store.ActiveCategory()
	if _, err := store.AddTask(ctx, text, category); err != nil {
		return b.reportError(chatID, err)
	}
	b.logger.Info("task added", "chat", chatID, "category", category)
	return b.sendList(chatID, store)
}

func (b *Bot) renameTask(chatID int64, store *service.TodoStore, taskID, text string) error {
	if _, err := store.RenameTask(taskID, text); err != nil {
		b.clearRenaming(chatID)
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "That task is gone.")
		}
		return b.reportError(chatID, err)
	}
	return b.sendList(chatID, store)
}

// editingTask returns the first task of the active list in edit mode.
func editingTask(store *service.TodoStore) (model.Task, bool) {
	for _, task := range store.VisibleTasks(store.ActiveCategory()) {
		if task.IsEditing {
			return task, true
		}
	}
	return model.Task{}, false
}

func (b *Bot) handleDelete(chatID int64, store *service.TodoStore, args string) error {
	args = strings.TrimSpace(args)
	if args == "" {
		return b.sendText(chatID, "Give the task number from the list: /delete 2")
	}
	position, err := strconv.Atoi(args)
	tasks := store.VisibleTasks(store.ActiveCategory())
	if err != nil || position < 1 || position > len(tasks) {
		return b.sendText(chatID, "No task with that number in the active list.")
	}
	return b.askDeleteConfirmation(chatID, store, tasks[position-1].ID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.client.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", "err", err)
	}

	chatID := cb.Message.Chat.ID
	store, err := b.storeFor(ctx, chatID, cb.From)
	if err != nil {
		return b.reportError(chatID, err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		id := strings.TrimPrefix(data, cbDonePrefix)
		if _, err := store.ToggleDone(ctx, id); err != nil {
			return b.reportTaskError(chatID, err)
		}
		return b.refreshList(chatID, cb.Message.MessageID, store)
	case strings.HasPrefix(data, cbEditPrefix):
		id := strings.TrimPrefix(data, cbEditPrefix)
		tasks, err := store.ToggleEditing(ctx, id)
		if err != nil {
			return b.reportTaskError(chatID, err)
		}
		task, _ := tasks.Get(id)
		if task.IsEditing {
			b.setRenaming(chatID, id)
		} else {
			b.clearRenaming(chatID)
			b.logger.Info("task saved", "chat", chatID)
		}
		return b.refreshList(chatID, cb.Message.MessageID, store)
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(chatID, store, strings.TrimPrefix(data, cbDeletePrefix))
	default:
		return nil
	}
}

func (b *Bot) askDeleteConfirmation(chatID int64, store *service.TodoStore, taskID string) error {
	task, ok := store.Task(taskID)
	if !ok {
		return b.sendText(chatID, "That task is gone.")
	}
	b.setConfirmation(chatID, confirmationRequest{taskID: taskID, action: actionDelete})
	text := fmt.Sprintf("Delete «%s»? Are you sure?", escape(shortText(task.Text, 40)))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askClearConfirmation(chatID int64) error {
	b.setConfirmation(chatID, confirmationRequest{action: actionClear})
	return b.sendWithReplyMarkup(chatID, "Clear all tasks in both lists? Are you sure?", confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, store *service.TodoStore, req confirmationRequest) error {
	chatID := msg.Chat.ID
	switch {
	case isConfirmInput(msg.Text):
		b.clearConfirmation(chatID)
		if req.action == actionClear {
			if _, _, err := store.ClearAll(ctx); err != nil {
				return b.reportError(chatID, err)
			}
			b.clearRenaming(chatID)
			b.logger.Info("all tasks cleared", "chat", chatID)
			return b.sendList(chatID, store)
		}
		if _, err := store.DeleteTask(ctx, req.taskID); err != nil {
			return b.reportError(chatID, err)
		}
		if id, ok := b.getRenaming(chatID); ok && id == req.taskID {
			b.clearRenaming(chatID)
		}
		b.logger.Info("task deleted", "chat", chatID)
		return b.sendList(chatID, store)
	case isCancelInput(msg.Text):
		b.clearConfirmation(chatID)
		return b.sendList(chatID, store)
	default:
		return b.sendWithReplyMarkup(chatID, "Confirm or cancel first.", confirmKeyboard())
	}
}

// SendDigests sends the open-task summary to every known chat.
func (b *Bot) SendDigests(ctx context.Context) error {
	chats, err := b.chats.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, chat := range chats {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		store, err := b.stores.Get(ctx, Namespace(chat.TelegramID))
		if err != nil {
			b.logger.Warn("load store for digest", "chat", chat.TelegramID, "err", err)
			continue
		}
		text, ok := b.digest.Summary(store, now)
		if !ok {
			continue
		}
		if err := b.sendText(chat.TelegramID, text); err != nil {
			b.logger.Warn("send digest", "chat", chat.TelegramID, "err", err)
		}
	}
	return nil
}

func (b *Bot) storeFor(ctx context.Context, chatID int64, from *tgbotapi.User) (*service.TodoStore, error) {
	if _, err := b.chats.Upsert(ctx, chatID, from.FirstName, from.UserName); err != nil {
		return nil, err
	}
	return b.stores.Get(ctx, Namespace(chatID))
}

func (b *Bot) sendList(chatID int64, store *service.TodoStore) error {
	active := store.ActiveCategory()
	tasks := store.VisibleTasks(active)
	msg := tgbotapi.NewMessage(chatID, renderList(active, tasks))
	msg.ParseMode = tgbotapi.ModeHTML
	if kb := listKeyboard(tasks); kb != nil {
		msg.ReplyMarkup = kb
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err := b.client.Send(msg)
	return err
}

func (b *Bot) refreshList(chatID int64, messageID int, store *service.TodoStore) error {
	active := store.ActiveCategory()
	tasks := store.VisibleTasks(active)
	kb := listKeyboard(tasks)
	if kb == nil {
		return b.sendList(chatID, store)
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, renderList(active, tasks), *kb)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.client.Send(edit)
	return err
}

func (b *Bot) reportTaskError(chatID int64, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return b.sendText(chatID, "That task is gone.")
	}
	return b.reportError(chatID, err)
}

func (b *Bot) reportError(chatID int64, err error) error {
	b.logger.Error("store operation failed", "chat", chatID, "err", err)
	if service.IsPersistence(err) {
		return b.sendText(chatID, "Could not save your list right now. Please try again.")
	}
	return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.client.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.client.Send(msg)
	return err
}

func (b *Bot) getConfirmation(chatID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[chatID]
	return req, ok
}

func (b *Bot) setConfirmation(chatID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chatID] = req
}

func (b *Bot) clearConfirmation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, chatID)
}

func (b *Bot) getRenaming(chatID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.renaming[chatID]
	return id, ok
}

func (b *Bot) setRenaming(chatID int64, taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.renaming[chatID] = taskID
}

func (b *Bot) clearRenaming(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.renaming, chatID)
}
