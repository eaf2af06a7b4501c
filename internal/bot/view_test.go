package bot

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-keeper/internal/model"
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "task-1", Text: "Buy milk", Category: model.CategoryWork},
		{ID: "task-2", Text: "Send <report>", Category: model.CategoryWork, IsDone: true},
		{ID: "task-3", Text: "Call Bob", Category: model.CategoryWork, IsEditing: true},
	}
}

func TestRenderList_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	g.Assert(t, "work_list", []byte(renderList(model.CategoryWork, sampleTasks())))
	g.Assert(t, "empty_travel_list", []byte(renderList(model.CategoryTravel, nil)))
}

func TestListKeyboard(t *testing.T) {
	assert.Nil(t, listKeyboard(nil))

	kb := listKeyboard(sampleTasks())
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 3)

	first := kb.InlineKeyboard[0]
	require.Len(t, first, 3)
	assert.Equal(t, "⬜ 1", first[0].Text)
	require.NotNil(t, first[0].CallbackData)
	assert.Equal(t, "done:task-1", *first[0].CallbackData)
	assert.Equal(t, "edit:task-1", *first[1].CallbackData)
	assert.Equal(t, "delete:task-1", *first[2].CallbackData)

	assert.Equal(t, "✅ 2", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "💾 Save", kb.InlineKeyboard[2][1].Text)
	assert.Equal(t, "✏️ Edit", kb.InlineKeyboard[0][1].Text)
}

func TestCallbackDataFitsTelegramLimit(t *testing.T) {
	id := "0190f5a2-7b3c-7d4e-8f90-123456789abc"
	kb := listKeyboard([]model.Task{{ID: id, Text: "x", Category: model.CategoryWork}})
	for _, button := range kb.InlineKeyboard[0] {
		assert.LessOrEqual(t, len(*button.CallbackData), 64)
	}
}

func TestConfirmationInputs(t *testing.T) {
	assert.True(t, isConfirmInput(btnConfirm))
	assert.True(t, isConfirmInput(" Yes "))
	assert.False(t, isConfirmInput("maybe"))
	assert.True(t, isCancelInput(btnCancel))
	assert.True(t, isCancelInput("no"))
	assert.False(t, isCancelInput(btnConfirm))
}

func TestShortText(t *testing.T) {
	assert.Equal(t, "Buy milk", shortText("  Buy milk ", 10))
	assert.Equal(t, "Buy mi…", shortText("Buy milk today", 7))
	assert.Equal(t, "line one line two", shortText("line one\nline two", 40))
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "chat:42", Namespace(42))
	assert.Equal(t, "chat:-100", Namespace(-100))
}
