package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-keeper/internal/service"
)

type harness struct {
	t   *testing.T
	db  string
	ids *service.SequenceGenerator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, key := range []string{
		"TODO_CONFIG", "DATABASE_DRIVER", "DATABASE_URL", "DIGEST_TIME",
		"DIGEST_INTERVAL_HOURS", "LOG_LEVEL", "LOG_FORMAT", "TODO_NAMESPACE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")
	return &harness{
		t:   t,
		db:  filepath.Join(t.TempDir(), "todo.db"),
		ids: &service.SequenceGenerator{},
	}
}

// run executes one command as a fresh process would: new root, new store.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCommand(&RootOptions{ids: h.ids})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", h.db}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err)
	return out
}

func TestList_Golden(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Buy", "milk")
	h.mustRun("add", "-c", "travel", "Pack bags")
	h.mustRun("add", "Send report")
	h.mustRun("done", "2")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "list_work", []byte(h.mustRun("list")))
	g.Assert(t, "list_travel", []byte(h.mustRun("list", "--category", "travel")))
}

func TestList_EmptyShowsPrompt(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("list")
	assert.Equal(t, "Work * (0 open, 0 done)\n  What do you need to do?\n", out)
}

func TestCategory_SwitchPersists(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Work\n", h.mustRun("category"))

	h.mustRun("category", "travel")
	assert.Equal(t, "Travel\n", h.mustRun("category"))

	h.mustRun("add", "Lisbon")
	out := h.mustRun("list", "-c", "travel")
	assert.Contains(t, out, "Lisbon")
	assert.NotContains(t, h.mustRun("list", "-c", "work"), "Lisbon")
}

func TestCategory_Invalid(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "category", "home")
	require.ErrorIs(t, err, service.ErrInvalidCategory)
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "category", ve.Field)

	_, err = h.run("", "add", "-c", "home", "Lisbon")
	require.ErrorIs(t, err, service.ErrInvalidCategory)
	assert.Equal(t, "Work * (0 open, 0 done)\n  What do you need to do?\n", h.mustRun("list"))
}

func TestRename_IsWrittenBeforeExit(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Buy milk")
	h.mustRun("rename", "1", "Buy", "oat", "milk")

	out := h.mustRun("list")
	assert.Contains(t, out, "Buy oat milk")
	assert.NotContains(t, out, "Buy milk ")
}

func TestEdit_TogglesFlag(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Draft memo")

	assert.Contains(t, h.mustRun("edit", "1"), "Draft memo (editing)")
	assert.NotContains(t, h.mustRun("edit", "task-1"), "(editing)")
}

func TestDelete_AsksForConfirmation(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Buy milk")

	out, err := h.run("n\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Delete "Buy milk"? Are you sure? [y/N]`)
	assert.Contains(t, out, "Cancelled.")
	assert.Contains(t, h.mustRun("list"), "Buy milk")

	_, err = h.run("y\n", "delete", "1")
	require.NoError(t, err)
	assert.NotContains(t, h.mustRun("list"), "Buy milk")
}

func TestClear_WithYesFlag(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Buy milk")
	h.mustRun("category", "travel")

	out, err := h.run("", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	assert.Equal(t, "All tasks cleared.\n", h.mustRun("clear", "--yes"))
	assert.Equal(t, "Work\n", h.mustRun("category"))
	assert.Equal(t, "Work * (0 open, 0 done)\n  What do you need to do?\n", h.mustRun("list"))
}

func TestDone_UnknownTask(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Buy milk")

	_, err := h.run("", "done", "7")
	require.ErrorIs(t, err, service.ErrNotFound)

	_, err = h.run("", "done", "no-such-id")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestNamespaceFlag_IsolatesLists(t *testing.T) {
	h := newHarness(t)
	h.mustRun("--namespace", "alice", "add", "Alice task")
	h.mustRun("--namespace", "bob", "add", "Bob task")

	alice := h.mustRun("--namespace", "alice", "list")
	assert.Contains(t, alice, "Alice task")
	assert.NotContains(t, alice, "Bob task")

	h.mustRun("--namespace", "bob", "clear", "-y")
	assert.Contains(t, h.mustRun("--namespace", "alice", "list"), "Alice task")
}

func TestNamespaceFlag_RejectsNestedName(t *testing.T) {
	h := newHarness(t)
	h.mustRun("--namespace", "work", "add", "Keep me")

	_, err := h.run("", "--namespace", "work/team", "add", "Nested")
	require.Error(t, err)

	assert.Contains(t, h.mustRun("--namespace", "work", "list"), "Keep me")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "y\n", want: true},
		{in: "YES\n", want: true},
		{in: "yes", want: true},
		{in: "n\n", want: false},
		{in: "\n", want: false},
		{in: "", want: false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		assert.Equal(t, tt.want, confirm(strings.NewReader(tt.in), &out, "Sure?"), "input %q", tt.in)
		assert.True(t, strings.HasPrefix(out.String(), "Sure? [y/N] "))
	}
}
