package forms

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/todosync/internal/model"
)

// ItemSubmittedMsg carries the values of a completed item form. ItemID is
// empty when creating.
type ItemSubmittedMsg struct {
	ListID string
	ItemID string
	Input  model.ItemInput
}

// itemBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type itemBindings struct {
	title       string
	description string
	dueDate     string
}

// ItemForm creates or edits a todo item.
type ItemForm struct {
	form   *huh.Form
	fb     *itemBindings
	listID string
	itemID string
	frame
}

// NewItemForm creates an item form model.
func NewItemForm(width, height int) ItemForm {
	return ItemForm{fb: &itemBindings{}, frame: frame{width, height}}
}

// StartCreate prepares the form for a new item in listID.
func (m *ItemForm) StartCreate(listID string) tea.Cmd {
	m.listID = listID
	m.itemID = ""
	*m.fb = itemBindings{}
	m.form = m.build()
	return m.form.Init()
}

// StartEdit prepares the form for editing item.
func (m *ItemForm) StartEdit(item model.TodoItem) tea.Cmd {
	m.listID = item.ListID
	m.itemID = item.ID
	m.fb.title = item.Title
	m.fb.description = item.DescriptionText()
	m.fb.dueDate = ""
	if item.DueDate != nil {
		m.fb.dueDate = item.DueDate.Format(dateLayout)
	}
	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the item form.
func (m ItemForm) Update(msg tea.Msg) (ItemForm, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.submit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the item form.
func (m ItemForm) View() string {
	if m.form == nil {
		return ""
	}
	title := "New Item"
	if m.itemID != "" {
		title = "Edit Item"
	}
	return render(title, m.form.View(), "")
}

// SetSize updates the form dimensions.
func (m *ItemForm) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *ItemForm) build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&m.fb.title).
				Validate(validateRequired("Title", model.MaxNameLength)),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&m.fb.description).
				Validate(validateMaxLength("Description", model.MaxDescriptionLength)),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.dueDate).
				Validate(validateOptionalDate),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m ItemForm) submit() tea.Cmd {
	msg := ItemSubmittedMsg{
		ListID: m.listID,
		ItemID: m.itemID,
		Input: model.ItemInput{
			Title:       strings.TrimSpace(m.fb.title),
			Description: optional(m.fb.description),
			DueDate:     parseDate(m.fb.dueDate),
		},
	}
	return func() tea.Msg { return msg }
}
