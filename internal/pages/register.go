package pages

import (
	"time"

	"github.com/kuitang/quiz-uitest/internal/datagen"
)

const (
	// RegisterTitle is the heading of the registration page.
	RegisterTitle = "Sign-Up"

	nameInput         = "#name"
	emailInput        = "#InputEmail"
	rePasswordInput   = "#InputRePassword"
	validationMessage = ".text-danger"
	loginLink         = "a[href='login.php']"
)

// RegisterPage drives register.php.
type RegisterPage struct {
	base
}

// NewRegisterPage binds a registration page object to a browser session.
func NewRegisterPage(s Session, baseURL string, softWait time.Duration) *RegisterPage {
	return &RegisterPage{base: newBase(s, baseURL, "register.php", RegisterTitle, softWait)}
}

func (p *RegisterPage) EnterName(name string) error {
	return p.enter(nameInput, "name", name)
}

func (p *RegisterPage) EnterEmail(email string) error {
	return p.enter(emailInput, "email", email)
}

func (p *RegisterPage) EnterUsername(username string) error {
	return p.enter(usernameInput, "username", username)
}

func (p *RegisterPage) EnterPassword(password string) error {
	return p.enter(passwordInput, "password", password)
}

func (p *RegisterPage) EnterRePassword(password string) error {
	return p.enter(rePasswordInput, "password confirmation", password)
}

// Register fills the form in tab order and submits.
func (p *RegisterPage) Register(name, email, username, password, confirm string) error {
	steps := []func() error{
		func() error { return p.EnterName(name) },
		func() error { return p.EnterEmail(email) },
		func() error { return p.EnterUsername(username) },
		func() error { return p.EnterPassword(password) },
		func() error { return p.EnterRePassword(confirm) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return p.Submit()
}

// RegisterBundle submits a scenario bundle.
func (p *RegisterPage) RegisterBundle(b datagen.Bundle) error {
	p.logger.Debug("registering", "bundle", b)
	return p.Register(b.Name, b.Email, b.Username, b.Password, b.RePassword)
}

// ValidationMessage returns the first inline validation text, if one
// appears within the soft wait. Absence is not an error.
func (p *RegisterPage) ValidationMessage() (string, bool, error) {
	text, ok, err := p.softText(validationMessage, p.softWait)
	if ok {
		p.state = ValidationShown
	}
	return text, ok, err
}

// GoToLogin follows the link to the login page.
func (p *RegisterPage) GoToLogin() error {
	return p.click(loginLink, "login link")
}

// FormVisible checks that every registration form element is displayed.
func (p *RegisterPage) FormVisible() error {
	return p.visible(map[string]string{
		"name":                  nameInput,
		"email":                 emailInput,
		"username":              usernameInput,
		"password":              passwordInput,
		"password confirmation": rePasswordInput,
		"submit":                submitButton,
		"login link":            loginLink,
	})
}

// Outcome classifies the result of the last submit.
func (p *RegisterPage) Outcome() (State, error) {
	return p.outcome(validationMessage)
}
