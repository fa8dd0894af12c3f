package pages

import (
	"time"
)

const (
	// LoginTitle is the heading of the login page.
	LoginTitle = "Sign-In"

	registerLink = "a[href='register.php']"
)

// LoginPage drives login.php.
type LoginPage struct {
	base
}

// NewLoginPage binds a login page object to a browser session.
func NewLoginPage(s Session, baseURL string, softWait time.Duration) *LoginPage {
	return &LoginPage{base: newBase(s, baseURL, "login.php", LoginTitle, softWait)}
}

// EnterUsername types into the username field.
func (p *LoginPage) EnterUsername(username string) error {
	return p.enter(usernameInput, "username", username)
}

// EnterPassword types into the password field.
func (p *LoginPage) EnterPassword(password string) error {
	return p.enter(passwordInput, "password", password)
}

// Login fills username then password and submits.
func (p *LoginPage) Login(username, password string) error {
	if err := p.EnterUsername(username); err != nil {
		return err
	}
	if err := p.EnterPassword(password); err != nil {
		return err
	}
	return p.Submit()
}

// GoToRegister follows the link to the registration page.
func (p *LoginPage) GoToRegister() error {
	return p.click(registerLink, "register link")
}

// UsernameValue reads back the username field.
func (p *LoginPage) UsernameValue() (string, error) {
	return p.inputValue(usernameInput, "username")
}

// PasswordValue reads back the password field.
func (p *LoginPage) PasswordValue() (string, error) {
	return p.inputValue(passwordInput, "password")
}

// FormVisible checks that every login form element is displayed.
func (p *LoginPage) FormVisible() error {
	return p.visible(map[string]string{
		"username":      usernameInput,
		"password":      passwordInput,
		"submit":        submitButton,
		"register link": registerLink,
	})
}

// Outcome classifies the result of the last submit.
func (p *LoginPage) Outcome() (State, error) {
	return p.outcome("")
}
