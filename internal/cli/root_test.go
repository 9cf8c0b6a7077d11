package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/credential"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/ordering"
	"github.com/nhle/todosync/internal/session"
	"github.com/nhle/todosync/tests/testserver"
)

func TestRootCommand_CommandPresence(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{
		"login", "register", "logout", "whoami",
		"lists", "list", "items", "item",
		"tui", "serve", "config",
	} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, path := range [][]string{
		{"list", "create"}, {"list", "rename"}, {"list", "delete"},
		{"item", "add"}, {"item", "edit"}, {"item", "done"}, {"item", "undone"},
		{"item", "rm"}, {"item", "move"}, {"item", "up"}, {"item", "down"},
		{"config", "path"}, {"config", "show"}, {"config", "init"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"config", "api-url", "verbose", "format"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"--format", "xml", "config", "path"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

// cliHarness runs commands against a test backend with an in-memory
// credential store shared across invocations.
type cliHarness struct {
	t      *testing.T
	creds  credential.Store
	config string
	apiURL string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	t.Setenv(session.TokenEnv, "")
	srv := testserver.New(t)
	return &cliHarness{
		t:      t,
		creds:  credential.NewMemoryStore(),
		config: filepath.Join(t.TempDir(), "config.yaml"),
		apiURL: srv.URL,
	}
}

func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()
	root := newRootCommand(&RootOptions{credentials: h.creds})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", h.config, "--api-url", h.apiURL}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *cliHarness) mustJSON(v any, args ...string) {
	h.t.Helper()
	out, err := h.run(append([]string{"--format", "json"}, args...)...)
	require.NoError(h.t, err, args)
	require.NoError(h.t, json.Unmarshal([]byte(out), v), out)
}

func TestCLI_RequiresLogin(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("lists")
	assert.ErrorIs(t, err, errNotLoggedIn)

	_, err = h.run("whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_ListAndItemWorkflow(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run("register", "--email", "ana@example.com", "-u", "ana", "-p", "password1")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered and logged in as ana.")

	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana <ana@example.com>")

	var list model.TodoList
	h.mustJSON(&list, "list", "create", "Chores", "-d", "weekly")
	assert.Equal(t, "weekly", list.DescriptionText())

	var ids []string
	for _, title := range []string{"Sweep", "Mop", "Dust"} {
		var item model.TodoItem
		h.mustJSON(&item, "item", "add", list.ID, title)
		ids = append(ids, item.ID)
	}

	var plan ordering.Plan
	h.mustJSON(&plan, "item", "move", list.ID, ids[2], "0")
	assert.True(t, plan.Changed)
	assert.Equal(t, map[string]int{ids[2]: 0, ids[0]: 1, ids[1]: 2}, plan.Orders)

	plan = ordering.Plan{}
	h.mustJSON(&plan, "item", "up", list.ID, ids[2])
	assert.False(t, plan.Changed)

	var done model.TodoItem
	h.mustJSON(&done, "item", "done", list.ID, ids[0])
	assert.True(t, done.IsCompleted)

	var items []model.TodoItem
	h.mustJSON(&items, "items", list.ID)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"Dust", "Sweep", "Mop"}, []string{items[0].Title, items[1].Title, items[2].Title})

	out, err = h.run("items", list.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Sweep")
	assert.Contains(t, out, "[x]")

	_, err = h.run("list", "rename", list.ID, "Housework")
	require.NoError(t, err)
	var lists []model.TodoList
	h.mustJSON(&lists, "lists")
	require.Len(t, lists, 1)
	assert.Equal(t, "Housework", lists[0].Name)
	assert.Equal(t, "weekly", lists[0].DescriptionText())
	assert.Equal(t, 3, lists[0].ItemCount)

	_, err = h.run("item", "rm", list.ID, ids[1])
	require.NoError(t, err)
	_, err = h.run("list", "delete", list.ID)
	require.NoError(t, err)

	out, err = h.run("lists")
	require.NoError(t, err)
	assert.Contains(t, out, "No lists yet.")

	_, err = h.run("logout")
	require.NoError(t, err)
	_, err = h.run("lists")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_ValidationErrorsAreFriendly(t *testing.T) {
	h := newCLIHarness(t)
	_, err := h.run("register", "--email", "bob@example.com", "-u", "bob", "-p", "password1")
	require.NoError(t, err)

	_, err = h.run("list", "create", "   ")
	require.Error(t, err)
	assert.Equal(t, "Name is required.", err.Error())

	_, err = h.run("item", "add", "some-list", "Title", "--due", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")

	_, err = h.run("items", "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, "Not found.", err.Error())
}

func TestCLI_LoginWithWrongPassword(t *testing.T) {
	h := newCLIHarness(t)
	_, err := h.run("register", "--email", "cy@example.com", "-u", "cy", "-p", "password1")
	require.NoError(t, err)
	_, err = h.run("logout")
	require.NoError(t, err)

	_, err = h.run("login", "-u", "cy", "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials.", err.Error())

	out, err := h.run("login", "-u", "cy", "-p", "password1")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as cy.")
}

func TestCLI_ConfigInitAndShow(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run("config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, h.config)

	_, err = h.run("config", "init")
	require.NoError(t, err)
	_, err = h.run("config", "init")
	assert.Error(t, err)
	_, err = h.run("config", "init", "--force")
	require.NoError(t, err)

	var cfg model.AppConfig
	h.mustJSON(&cfg, "config", "show")
	assert.Equal(t, h.apiURL, cfg.API.BaseURL)
	assert.Equal(t, 10, cfg.API.TimeoutSec)
}
