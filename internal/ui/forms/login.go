package forms

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// LoginSubmittedMsg carries credentials from the login form.
type LoginSubmittedMsg struct {
	EmailOrUsername string
	Password        string
}

// RegisterSubmittedMsg carries account details from the register form.
type RegisterSubmittedMsg struct {
	Email    string
	Username string
	Password string
}

// SwitchModeMsg is dispatched when the user flips between login and
// register. Register reports the mode now shown.
type SwitchModeMsg struct{ Register bool }

const minPasswordLength = 6

var switchKey = key.NewBinding(
	key.WithKeys("ctrl+r"),
	key.WithHelp("ctrl+r", "switch login/register"),
)

type authBindings struct {
	login    string
	email    string
	username string
	password string
	confirm  string
}

// AuthForm is the login and registration screen.
type AuthForm struct {
	form     *huh.Form
	fb       *authBindings
	register bool
	errText  string
	frame
}

// NewAuthForm creates an auth form model.
func NewAuthForm(width, height int) AuthForm {
	return AuthForm{fb: &authBindings{}, frame: frame{width, height}}
}

// StartLogin shows the login form.
func (m *AuthForm) StartLogin() tea.Cmd {
	m.register = false
	m.fb.password = ""
	m.fb.confirm = ""
	m.form = m.build()
	return m.form.Init()
}

// StartRegister shows the registration form.
func (m *AuthForm) StartRegister() tea.Cmd {
	m.register = true
	m.fb.password = ""
	m.fb.confirm = ""
	m.form = m.build()
	return m.form.Init()
}

// Registering reports whether the registration form is shown.
func (m AuthForm) Registering() bool { return m.register }

// Active reports whether a form is waiting for input.
func (m AuthForm) Active() bool { return m.form != nil }

// SetError shows message above the form; "" clears it.
func (m *AuthForm) SetError(message string) {
	m.errText = message
}

// Update handles messages for the auth form.
func (m AuthForm) Update(msg tea.Msg) (AuthForm, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, switchKey) {
		m.errText = ""
		register := !m.register
		var cmd tea.Cmd
		if register {
			cmd = m.StartRegister()
		} else {
			cmd = m.StartLogin()
		}
		return m, tea.Batch(cmd, func() tea.Msg { return SwitchModeMsg{Register: register} })
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

// View renders the auth form.
func (m AuthForm) View() string {
	if m.form == nil {
		return ""
	}
	title := "Log in"
	hint := "No account? Press " + switchKey.Help().Key + " to register."
	if m.register {
		title = "Create an account"
		hint = "Have an account? Press " + switchKey.Help().Key + " to log in."
	}
	return render(title, m.form.View()+"\n"+hint, m.errText)
}

// SetSize updates the form dimensions.
func (m *AuthForm) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *AuthForm) build() *huh.Form {
	password := huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&m.fb.password).
		Validate(m.validatePassword)

	if !m.register {
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Email or username").
					Value(&m.fb.login).
					Validate(validateRequired("Email or username", 254)),
				password,
			),
		).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username).
				Validate(validateRequired("Username", 50)),
			password,
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.confirm).
				Validate(func(s string) error {
					if s != m.fb.password {
						return fmt.Errorf("passwords do not match")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *AuthForm) validatePassword(s string) error {
	if s == "" {
		return fmt.Errorf("Password is required")
	}
	if m.register && len(s) < minPasswordLength {
		return fmt.Errorf("Password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Email is required")
	}
	if !strings.Contains(s, "@") {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

func (m AuthForm) submit() tea.Cmd {
	fb := *m.fb
	if m.register {
		return func() tea.Msg {
			return RegisterSubmittedMsg{
				Email:    strings.TrimSpace(fb.email),
				Username: strings.TrimSpace(fb.username),
				Password: fb.password,
			}
		}
	}
	return func() tea.Msg {
		return LoginSubmittedMsg{
			EmailOrUsername: strings.TrimSpace(fb.login),
			Password:        fb.password,
		}
	}
}
