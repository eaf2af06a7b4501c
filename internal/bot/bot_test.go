package bot

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todo-keeper/internal/model"
	"todo-keeper/internal/repository"
	"todo-keeper/internal/service"
)

const testChatID int64 = 1001

type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	switch m := f.sent[len(f.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return m.Text
	case tgbotapi.EditMessageTextConfig:
		return m.Text
	default:
		return ""
	}
}

type botHarness struct {
	t      *testing.T
	db     *gorm.DB
	out    *fakeSender
	stores *service.StoreRegistry
	bot    *Bot
}

func openBotDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(repository.DriverSQLite, filepath.Join(t.TempDir(), "bot.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// newBotHarness wires a bot to db as a freshly started process would.
func newBotHarness(t *testing.T, db *gorm.DB) *botHarness {
	t.Helper()
	out := &fakeSender{}
	stores := service.NewStoreRegistry(func(namespace string) service.KeyValueStore {
		return repository.NewKVRepository(db, namespace)
	}, service.WithIDGenerator(&service.SequenceGenerator{}))
	logger := log.New(io.Discard)
	return &botHarness{
		t:      t,
		db:     db,
		out:    out,
		stores: stores,
		bot:    newBot(out, repository.NewChatRepository(db), stores, service.NewDigestService(), logger),
	}
}

func (h *botHarness) message(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: len(h.out.sent) + 1,
		From:      &tgbotapi.User{ID: testChatID, FirstName: "Ann", UserName: "ann"},
		Chat:      &tgbotapi.Chat{ID: testChatID, Type: "private"},
		Text:      text,
	}
}

func (h *botHarness) say(text string) {
	h.t.Helper()
	require.NoError(h.t, h.bot.handleMessage(context.Background(), h.message(text)))
}

func (h *botHarness) command(name string) {
	h.t.Helper()
	msg := h.message("/" + name)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name) + 1}}
	require.NoError(h.t, h.bot.handleMessage(context.Background(), msg))
}

func (h *botHarness) tap(data string) {
	h.t.Helper()
	cb := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: testChatID, FirstName: "Ann"},
		Message: &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: testChatID, Type: "private"}},
		Data:    data,
	}
	require.NoError(h.t, h.bot.handleCallback(context.Background(), cb))
}

func (h *botHarness) store() *service.TodoStore {
	h.t.Helper()
	store, err := h.stores.Get(context.Background(), Namespace(testChatID))
	require.NoError(h.t, err)
	return store
}

// reload reads the chat's list back from the database.
func (h *botHarness) reload() (*model.TaskList, model.Category) {
	h.t.Helper()
	store := service.NewTodoStore(repository.NewKVRepository(h.db, Namespace(testChatID)))
	tasks, active, err := store.Initialize(context.Background())
	require.NoError(h.t, err)
	return tasks, active
}

func TestBot_AddTaskFromPlainText(t *testing.T) {
	h := newBotHarness(t, openBotDB(t))
	h.say("Buy milk")

	task, ok := h.store().Task("task-1")
	require.True(t, ok)
	assert.Equal(t, model.CategoryWork, task.Category)
	assert.Contains(t, h.out.lastText(), "Buy milk")

	tasks, _ := h.reload()
	assert.Equal(t, 1, tasks.Len())
}

func TestBot_DeleteCancelKeepsTask(t *testing.T) {
	h := newBotHarness(t, openBotDB(t))
	h.say("Buy milk")

	h.tap(cbDeletePrefix + "task-1")
	assert.Equal(t, "Delete «Buy milk»? Are you sure?", h.out.lastText())
	assert.Equal(t, 1, h.out.requests)

	h.say("What?")
	assert.Equal(t, "Confirm or cancel first.", h.out.lastText())
	assert.Equal(t, 1, h.store().Tasks().Len())

	h.say(btnCancel)
	_, ok := h.store().Task("task-1")
	assert.True(t, ok)
	tasks, _ := h.reload()
	assert.Equal(t, 1, tasks.Len())
}

func TestBot_DeleteConfirmRemovesTask(t *testing.T) {
	h := newBotHarness(t, openBotDB(t))
	h.say("Buy milk")
	h.say("Call Bob")

	h.tap(cbDeletePrefix + "task-1")
	h.say(btnConfirm)

	_, ok := h.store().Task("task-1")
	assert.False(t, ok)
	tasks, _ := h.reload()
	assert.Equal(t, []string{"task-2"}, tasks.IDs())
	assert.NotContains(t, h.out.lastText(), "Buy milk")
}

func TestBot_ClearAllResetsToWork(t *testing.T) {
	h := newBotHarness(t, openBotDB(t))
	h.command("travel")
	h.say("Lisbon")
	require.Equal(t, model.CategoryTravel, h.store().ActiveCategory())

	h.command("clear")
	assert.Equal(t, "Clear all tasks in both lists? Are you sure?", h.out.lastText())
	h.say("yes")

	assert.Equal(t, model.CategoryWork, h.store().ActiveCategory())
	assert.Equal(t, 0, h.store().Tasks().Len())
	tasks, active := h.reload()
	assert.Equal(t, 0, tasks.Len())
	assert.Equal(t, model.CategoryWork, active)
}

func TestBot_RenameSavedByEditCallback(t *testing.T) {
	h := newBotHarness(t, openBotDB(t))
	h.say("Buy milk")

	h.tap(cbEditPrefix + "task-1")
	task, _ := h.store().Task("task-1")
	require.True(t, task.IsEditing)

	h.say("Buy oat milk")
	assert.Equal(t, 1, h.store().Tasks().Len())
	assert.True(t, h.store().Dirty())

	h.tap(cbEditPrefix + "task-1")
	assert.False(t, h.store().Dirty())

	tasks, _ := h.reload()
	saved, ok := tasks.Get("task-1")
	require.True(t, ok)
	assert.Equal(t, "Buy oat milk", saved.Text)
	assert.False(t, saved.IsEditing)

	h.say("Call Bob")
	assert.Equal(t, 2, h.store().Tasks().Len())
}

func TestBot_RenameResumesAfterRestart(t *testing.T) {
	db := openBotDB(t)
	first := newBotHarness(t, db)
	first.say("Buy milk")
	first.tap(cbEditPrefix + "task-1")

	second := newBotHarness(t, db)
	second.say("Buy oat milk")
	assert.Equal(t, 1, second.store().Tasks().Len())

	second.tap(cbEditPrefix + "task-1")
	tasks, _ := second.reload()
	require.Equal(t, 1, tasks.Len())
	saved, _ := tasks.Get("task-1")
	assert.Equal(t, "Buy oat milk", saved.Text)
	assert.False(t, saved.IsEditing)
}

func TestBot_CallbackOnUnknownTask(t *testing.T) {
	h := newBotHarness(t, openBotDB(t))

	h.tap(cbDonePrefix + "missing")
	assert.Equal(t, "That task is gone.", h.out.lastText())

	h.tap(cbEditPrefix + "missing")
	assert.Equal(t, "That task is gone.", h.out.lastText())

	h.tap(cbDeletePrefix + "missing")
	assert.Equal(t, "That task is gone.", h.out.lastText())
	_, pending := h.bot.getConfirmation(testChatID)
	assert.False(t, pending)
}

func TestBot_ToggleDoneRefreshesList(t *testing.T) {
	h := newBotHarness(t, openBotDB(t))
	h.say("Buy milk")

	h.tap(cbDonePrefix + "task-1")
	edit, ok := h.out.sent[len(h.out.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 10, edit.MessageID)
	assert.Contains(t, edit.Text, "<s>Buy milk</s>")

	tasks, _ := h.reload()
	task, _ := tasks.Get("task-1")
	assert.True(t, task.IsDone)
}

func TestBot_SendDigests(t *testing.T) {
	h := newBotHarness(t, openBotDB(t))
	h.command("list")
	sent := len(h.out.sent)

	require.NoError(t, h.bot.SendDigests(context.Background()))
	assert.Len(t, h.out.sent, sent, "nothing open, no digest")

	h.say("Buy milk")
	sent = len(h.out.sent)
	require.NoError(t, h.bot.SendDigests(context.Background()))
	require.Len(t, h.out.sent, sent+1)

	msg, ok := h.out.sent[sent].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, testChatID, msg.ChatID)
	assert.Contains(t, msg.Text, "<b>Digest</b>")
	assert.Contains(t, msg.Text, "• Buy milk")
}
