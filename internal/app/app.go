package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/cache"
	"github.com/nhle/todosync/internal/gateway"
	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/mutation"
	"github.com/nhle/todosync/internal/ordering"
	"github.com/nhle/todosync/internal/session"
	appsync "github.com/nhle/todosync/internal/sync"
	"github.com/nhle/todosync/internal/theme"
	"github.com/nhle/todosync/internal/ui"
	"github.com/nhle/todosync/internal/ui/command"
	"github.com/nhle/todosync/internal/ui/detail"
	"github.com/nhle/todosync/internal/ui/forms"
	helpview "github.com/nhle/todosync/internal/ui/help"
	"github.com/nhle/todosync/internal/ui/itemlist"
	"github.com/nhle/todosync/internal/ui/listview"
	"github.com/nhle/todosync/internal/ui/timefmt"
)

// overlay is a view drawn in place of the routed screen.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayListForm
	overlayItemForm
	overlayConfirm
	overlayDetail
	overlayCommand
)

// Deps are the services the TUI drives.
type Deps struct {
	Session   *session.Session
	Mutations *mutation.Coordinator
	Watcher   *appsync.Watcher
	Logger    *log.Logger

	// OpTimeout bounds each read or write started from the UI.
	OpTimeout time.Duration
}

// Model is the root Bubble Tea model that manages routing, layout and
// the commands that talk to the cache and the mutation coordinator.
type Model struct {
	session   *session.Session
	mutations *mutation.Coordinator
	cache     *cache.Store
	watcher   *appsync.Watcher
	log       *log.Logger
	opTimeout time.Duration
	keys      *keys.KeyMap

	route    session.Route
	overlay  overlay
	openList model.TodoList

	layout  ui.Layout
	ready   bool
	spinner spinner.Model

	lists    listview.Model
	items    itemlist.Model
	auth     forms.AuthForm
	listForm forms.ListForm
	itemForm forms.ItemForm
	confirm  forms.Confirm
	help     helpview.Model
	detail   detail.Model
	palette  command.Model

	// detailOpen keeps the item detail under forms started from it.
	detailOpen bool

	banner      string
	lastRefresh time.Time
}

// New creates the root model. The session is checked in Init.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.OpTimeout <= 0 {
		d.OpTimeout = defaultOpTimeout
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	return Model{
		session:   d.Session,
		mutations: d.Mutations,
		cache:     d.Mutations.Cache(),
		watcher:   d.Watcher,
		log:       d.Logger,
		opTimeout: d.OpTimeout,
		keys:      k,
		route:     session.RouteLists,
		spinner:   sp,
		lists:     listview.New(k, 80, 24),
		items:     itemlist.New(k, 80, 24),
		auth:      forms.NewAuthForm(80, 24),
		listForm:  forms.NewListForm(80, 24),
		itemForm:  forms.NewItemForm(80, 24),
		confirm:   forms.NewConfirm(80, 24),
		help:      helpview.New(k, 80, 24),
		detail:    detail.New(k, 80, 24),
		palette:   command.New(80, 24),
	}
}

// Init checks the stored session and starts watching the cache.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadSession(),
		m.waitForLoginRequired(),
		m.watcher.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to the active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case spinner.TickMsg:
		if m.session.State() != session.StateUnknown {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionLoadedMsg:
		if msg.err != nil {
			m.log.Warn("reading stored session", "err", msg.err)
		}
		return m, m.navigate(m.route)

	case loginRequiredMsg:
		m.resetData()
		m.setBanner(gateway.UserMessage(&gateway.Error{Kind: gateway.KindAuth}))
		return m, tea.Batch(m.navigate(m.route), m.waitForLoginRequired())

	case forms.LoginSubmittedMsg:
		return m, m.login(msg.EmailOrUsername, msg.Password)

	case forms.RegisterSubmittedMsg:
		return m, m.register(msg.Email, msg.Username, msg.Password)

	case forms.SwitchModeMsg:
		m.route = session.RouteLogin
		if msg.Register {
			m.route = session.RouteRegister
		}
		return m, nil

	case authResultMsg:
		if msg.err != nil {
			m.auth.SetError(gateway.UserMessage(msg.err))
			if m.auth.Registering() {
				return m, m.auth.StartRegister()
			}
			return m, m.auth.StartLogin()
		}
		m.auth.SetError("")
		m.setBanner("")
		return m, m.navigate(session.RouteLists)

	case listsLoadedMsg:
		if msg.err != nil {
			return m, m.readFailed(msg.err, func(text string) { m.lists.SetLoadError(text) })
		}
		return m, m.lists.SetLists(msg.lists)

	case itemsLoadedMsg:
		if msg.listID != m.openList.ID {
			return m, nil
		}
		if msg.err != nil {
			if gateway.IsKind(msg.err, gateway.KindNotFound) && m.route == session.RouteItems {
				m.setBanner("That list no longer exists.")
				return m, m.navigate(session.RouteLists)
			}
			return m, m.readFailed(msg.err, func(text string) { m.items.SetLoadError(text) })
		}
		cmd := m.items.SetItems(msg.items)
		m.syncDetail()
		return m, cmd

	case mutationDoneMsg:
		return m, m.mutationDone(msg)

	case appsync.CacheChangedMsg:
		return m, tea.Batch(m.cacheChanged(msg), m.watcher.WaitForChange())

	case appsync.RefreshedMsg:
		m.lastRefresh = msg.At
		return m, m.watcher.WaitForChange()

	case listview.OpenListMsg:
		m.openList = msg.List
		m.items.Open(msg.List)
		return m, m.navigate(session.RouteItems)

	case listview.NewListMsg:
		m.overlay = overlayListForm
		return m, m.listForm.StartCreate()

	case listview.EditListMsg:
		m.overlay = overlayListForm
		return m, m.listForm.StartEdit(msg.List)

	case listview.DeleteListMsg:
		m.overlay = overlayConfirm
		return m, m.confirm.Start(
			"Delete list",
			fmt.Sprintf("Delete %q and all of its items?", msg.List.Name),
			msg.List,
		)

	case forms.ListSubmittedMsg:
		m.closeOverlay()
		if msg.ListID == "" {
			return m, m.createList(msg.Input)
		}
		return m, m.updateList(msg.ListID, msg.Input)

	case itemlist.BackMsg:
		return m, m.navigate(session.RouteLists)

	case itemlist.NewItemMsg:
		m.overlay = overlayItemForm
		return m, m.itemForm.StartCreate(msg.ListID)

	case itemlist.OpenItemMsg:
		m.openDetail(msg.Item)
		return m, nil

	case itemlist.EditItemMsg:
		m.overlay = overlayItemForm
		return m, m.itemForm.StartEdit(msg.Item)

	case detail.BackMsg:
		m.detailOpen = false
		m.overlay = overlayNone
		return m, nil

	case detail.EditMsg:
		m.overlay = overlayItemForm
		return m, m.itemForm.StartEdit(msg.Item)

	case detail.ToggleMsg:
		return m, m.toggleItem(msg.Item.ListID, msg.Item.ID)

	case detail.DeleteMsg:
		m.overlay = overlayConfirm
		return m, m.confirm.Start(
			"Delete item",
			fmt.Sprintf("Delete %q?", msg.Item.Title),
			msg.Item,
		)

	case itemlist.DeleteItemMsg:
		m.overlay = overlayConfirm
		return m, m.confirm.Start(
			"Delete item",
			fmt.Sprintf("Delete %q?", msg.Item.Title),
			msg.Item,
		)

	case itemlist.ToggleItemMsg:
		return m, m.toggleItem(msg.Item.ListID, msg.Item.ID)

	case itemlist.MoveItemMsg:
		return m, m.moveItem(msg.ListID, msg.ItemID, msg.ToIndex)

	case itemlist.StepItemMsg:
		return m, m.stepItem(msg.ListID, msg.ItemID, msg.Up)

	case forms.ItemSubmittedMsg:
		m.closeOverlay()
		if msg.ItemID == "" {
			return m, m.createItem(msg.ListID, msg.Input)
		}
		return m, m.updateItem(msg.ListID, msg.ItemID, msg.Input)

	case forms.ConfirmedMsg:
		m.closeOverlay()
		switch p := msg.Payload.(type) {
		case model.TodoList:
			return m, m.deleteList(p.ID)
		case model.TodoItem:
			return m, m.deleteItem(p.ListID, p.ID)
		}
		return m, nil

	case forms.CancelMsg:
		if m.overlay != overlayNone {
			m.closeOverlay()
			return m, nil
		}
		// Aborting the login form leaves the program.
		m.watcher.Stop()
		return m, tea.Quit

	case helpview.CloseMsg:
		m.overlay = overlayNone
		return m, nil

	case command.CancelMsg:
		m.overlay = overlayNone
		return m, nil

	case command.ErrorMsg:
		m.overlay = overlayNone
		m.setBanner(msg.Err.Error())
		return m, nil

	case command.CommandMsg:
		m.overlay = overlayNone
		return m.runCommand(msg.Command)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.watcher.Stop()
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Dismiss) && m.banner != "" {
			m.setBanner("")
			return m, nil
		}
		if m.overlay == overlayHelp && key.Matches(msg, m.keys.Help) {
			m.overlay = overlayNone
			return m, nil
		}
		if m.acceptsGlobalKeys() {
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.watcher.Stop()
				return m, tea.Quit

			case key.Matches(msg, m.keys.Help):
				m.showHelp()
				return m, nil

			case key.Matches(msg, m.keys.Command):
				m.overlay = overlayCommand
				return m, m.palette.Focus()

			case key.Matches(msg, m.keys.Refresh):
				return m, m.refresh()

			case key.Matches(msg, m.keys.Logout):
				return m, m.logout()
			}
		}
	}

	return m.updateActiveView(msg)
}

// acceptsGlobalKeys is false while a form has focus or an item is carried.
func (m Model) acceptsGlobalKeys() bool {
	if m.overlay != overlayNone || m.route.IsAuthRoute() {
		return false
	}
	if m.session.State() != session.StateAuthenticated {
		return false
	}
	return !(m.route == session.RouteItems && m.items.Moving())
}

// updateActiveView dispatches the message to the view that has focus.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.overlay {
	case overlayHelp:
		m.help, cmd = m.help.Update(msg)
		return m, cmd
	case overlayListForm:
		m.listForm, cmd = m.listForm.Update(msg)
		return m, cmd
	case overlayItemForm:
		m.itemForm, cmd = m.itemForm.Update(msg)
		return m, cmd
	case overlayConfirm:
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	case overlayDetail:
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	case overlayCommand:
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	if m.session.State() == session.StateUnknown {
		return m, nil
	}
	switch m.route {
	case session.RouteLogin, session.RouteRegister:
		m.auth, cmd = m.auth.Update(msg)
	case session.RouteLists:
		m.lists, cmd = m.lists.Update(msg)
	case session.RouteItems:
		m.items, cmd = m.items.Update(msg)
	}
	return m, cmd
}

// navigate resolves route against the session state and enters the
// resulting screen.
func (m *Model) navigate(route session.Route) tea.Cmd {
	target, decision := session.Resolve(m.session.State(), route)
	m.route = target
	if target != session.RouteItems && m.detailOpen {
		m.detailOpen = false
		m.overlay = overlayNone
	}
	if decision == session.Wait {
		return nil
	}
	if decision != session.Allow {
		m.log.Debug("route redirected", "from", route, "to", target, "decision", decision)
	}

	switch target {
	case session.RouteLogin:
		m.watcher.Focus()
		return m.auth.StartLogin()

	case session.RouteRegister:
		m.watcher.Focus()
		return m.auth.StartRegister()

	case session.RouteItems:
		if m.openList.ID == "" {
			return m.navigate(session.RouteLists)
		}
		id := m.openList.ID
		m.watcher.Focus(cache.Items(id))
		var show tea.Cmd
		if items, ok := m.cache.PeekItems(id); ok {
			show = m.items.SetItems(items)
		}
		return tea.Batch(show, m.loadItems(id))

	default:
		m.watcher.Focus(cache.Lists())
		var show tea.Cmd
		if lists, ok := m.cache.PeekLists(); ok {
			show = m.lists.SetLists(lists)
		}
		return tea.Batch(show, m.loadLists())
	}
}

// cacheChanged re-renders the screen that shows key, fetching again when
// the entry went stale or disappeared.
func (m *Model) cacheChanged(msg appsync.CacheChangedMsg) tea.Cmd {
	switch {
	case m.route == session.RouteLists && msg.Key == cache.Lists():
		if !msg.Present || msg.Stale {
			return m.loadLists()
		}
		if lists, ok := m.cache.PeekLists(); ok {
			return m.lists.SetLists(lists)
		}

	case m.route == session.RouteItems && msg.Key == cache.Items(m.openList.ID):
		if !msg.Present || msg.Stale {
			return m.loadItems(m.openList.ID)
		}
		if items, ok := m.cache.PeekItems(m.openList.ID); ok {
			cmd := m.items.SetItems(items)
			m.syncDetail()
			return cmd
		}
	}
	return nil
}

// runCommand executes a palette command. Item moves apply to the focused
// item of the open list.
func (m Model) runCommand(c command.Command) (tea.Model, tea.Cmd) {
	switch c.Name {
	case command.Quit:
		m.watcher.Stop()
		return m, tea.Quit
	case command.Help:
		m.showHelp()
		return m, nil
	case command.Refresh:
		return m, m.refresh()
	case command.Logout:
		return m, m.logout()
	}

	it, ok := m.items.Selected()
	if m.route != session.RouteItems || !ok {
		m.setBanner("Open a list and select an item to move.")
		return m, nil
	}
	last := len(m.items.Items()) - 1
	var to int
	switch c.Name {
	case command.Top:
		to = 0
	case command.Bottom:
		to = last
	default:
		to = min(c.Position-1, last)
	}
	return m, m.moveItem(it.ListID, it.ID, to)
}

func (m *Model) showHelp() {
	screen := helpview.ScreenLists
	if m.route == session.RouteItems {
		screen = helpview.ScreenItems
	}
	m.help.SetScreen(screen)
	m.overlay = overlayHelp
}

// openDetail shows item over the items screen.
func (m *Model) openDetail(item model.TodoItem) {
	shown := m.items.Items()
	m.detail.Show(item, ordering.IndexOf(shown, item.ID), len(shown))
	m.detailOpen = true
	m.overlay = overlayDetail
}

// syncDetail refreshes the open detail from the items screen and closes it
// when the item was deleted.
func (m *Model) syncDetail() {
	if !m.detailOpen {
		return
	}
	if m.detail.Sync(m.items.Items()) {
		return
	}
	m.detailOpen = false
	if m.overlay == overlayDetail {
		m.overlay = overlayNone
	}
}

// closeOverlay ends a form, returning to the item detail when the form was
// started from it.
func (m *Model) closeOverlay() {
	if m.detailOpen {
		m.overlay = overlayDetail
		return
	}
	m.overlay = overlayNone
}

// readFailed shows a failed read. Auth failures are left to the session,
// which routes to login.
func (m *Model) readFailed(err error, show func(string)) tea.Cmd {
	if gateway.IsAuthError(err) {
		return nil
	}
	text := gateway.UserMessage(err)
	show(text)
	m.setBanner(text)
	return nil
}

func (m *Model) mutationDone(msg mutationDoneMsg) tea.Cmd {
	if msg.err == nil {
		if msg.op == "delete list" && msg.listID == m.openList.ID {
			m.openList = model.TodoList{}
			if m.route == session.RouteItems {
				return m.navigate(session.RouteLists)
			}
		}
		return nil
	}
	if gateway.IsAuthError(msg.err) {
		return nil
	}
	m.log.Debug("mutation failed", "op", msg.op, "kind", gateway.KindOf(msg.err))
	m.setBanner(gateway.UserMessage(msg.err))
	return m.redrawItems(msg.listID)
}

// redrawItems shows the cached items of listID again. A write rejected
// before it touched the cache sends no change notification, so a move
// preview would otherwise stay on screen.
func (m *Model) redrawItems(listID string) tea.Cmd {
	if m.route != session.RouteItems || listID != m.openList.ID {
		return nil
	}
	items, ok := m.cache.PeekItems(listID)
	if !ok {
		return nil
	}
	cmd := m.items.SetItems(items)
	m.syncDetail()
	return cmd
}

// refresh marks the visible data stale. Screens with nothing cached are
// read directly since invalidating a missing entry notifies nobody.
func (m *Model) refresh() tea.Cmd {
	m.watcher.RefreshNow()
	switch m.route {
	case session.RouteLists:
		if _, ok := m.cache.PeekLists(); !ok {
			return m.loadLists()
		}
	case session.RouteItems:
		if _, ok := m.cache.PeekItems(m.openList.ID); !ok {
			return m.loadItems(m.openList.ID)
		}
	}
	return nil
}

func (m *Model) logout() tea.Cmd {
	if err := m.session.Logout(); err != nil {
		m.log.Warn("clearing stored token", "err", err)
	}
	m.resetData()
	m.setBanner("")
	return m.navigate(session.RouteLists)
}

// resetData drops everything cached for the previous user.
func (m *Model) resetData() {
	m.watcher.Focus()
	m.detailOpen = false
	m.overlay = overlayNone
	m.cache.Clear()
	m.lists.Reset()
	m.openList = model.TodoList{}
}

func (m *Model) setBanner(text string) {
	m.banner = text
	m.resize()
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.layout = m.layout.WithBanner(m.banner != "")
	w := m.layout.ContentWidth()
	h := m.layout.ContentHeight()
	m.lists.SetSize(w, h)
	m.items.SetSize(w, h)
	m.auth.SetSize(w, h)
	m.listForm.SetSize(w, h)
	m.itemForm.SetSize(w, h)
	m.confirm.SetSize(w, h)
	m.help.SetSize(w, h)
	m.detail.SetSize(w, h)
	m.palette.SetSize(w, h)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.accountStatus())
	banner := ""
	if m.banner != "" {
		banner = m.layout.RenderBanner("⚠ "+m.banner, theme.ErrorBannerStyle)
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, banner, m.renderContent(), statusBar)
}

func (m Model) renderContent() string {
	switch m.overlay {
	case overlayHelp:
		return m.help.View()
	case overlayListForm:
		return m.listForm.View()
	case overlayItemForm:
		return m.itemForm.View()
	case overlayConfirm:
		return m.confirm.View()
	case overlayDetail:
		return m.detail.View()
	case overlayCommand:
		return m.palette.View()
	}

	if m.session.State() == session.StateUnknown {
		return lipgloss.NewStyle().
			Width(m.layout.ContentWidth()).
			Height(m.layout.ContentHeight()).
			Align(lipgloss.Center, lipgloss.Center).
			Render(m.spinner.View() + " Checking session...")
	}

	switch m.route {
	case session.RouteLogin, session.RouteRegister:
		return m.auth.View()
	case session.RouteItems:
		return m.items.View()
	default:
		return m.lists.View()
	}
}

func (m Model) title() string {
	if m.route == session.RouteItems && m.openList.Name != "" {
		return "todosync › " + m.openList.Name
	}
	return "todosync"
}

// accountStatus returns the right-hand side of the header.
func (m Model) accountStatus() string {
	if m.session.State() != session.StateAuthenticated {
		return "not logged in"
	}
	status := m.session.User().Username
	if status == "" {
		status = "logged in"
	}
	if !m.lastRefresh.IsZero() {
		status += " · refreshed " + timefmt.Relative(m.lastRefresh)
	}
	return status
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.overlay {
	case overlayHelp:
		return "? close help"
	case overlayListForm, overlayItemForm:
		return "enter submit | esc cancel"
	case overlayConfirm:
		return "←/→ choose | enter confirm | esc cancel"
	case overlayDetail:
		return "esc back | e edit | space done | d delete | j/k scroll"
	case overlayCommand:
		return "enter run | esc cancel"
	}

	switch m.route {
	case session.RouteLogin, session.RouteRegister:
		return "enter submit | ctrl+r switch login/register | ctrl+c quit"
	case session.RouteItems:
		if m.items.Moving() {
			return "j/k move | enter drop | esc cancel"
		}
		return "esc back | enter details | n new | e edit | d delete | space done | J/K move | m move mode | ? help"
	default:
		return "q quit | enter open | n new | e edit | d delete | r refresh | L logout | ? help"
	}
}
