package auth

import (
	"regexp"
	"strings"

	"github.com/idilsaglam/kanban/internal/model"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLen = 6
	minUsernameLen = 3
)

// Registration is the body of the register call.
type Registration struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateLogin checks the login form before anything goes over the wire.
func ValidateLogin(email, password string) error {
	errs := model.FieldErrors{}
	checkEmail(errs, email)
	checkPassword(errs, password)
	return errs.Err()
}

// ValidateRegistration checks the register form.
func ValidateRegistration(r Registration) error {
	errs := model.FieldErrors{}
	switch u := strings.TrimSpace(r.Username); {
	case u == "":
		errs.Add("username", "Username is required")
	case len([]rune(u)) < minUsernameLen:
		errs.Add("username", "Min 3 characters")
	}
	if strings.TrimSpace(r.FullName) == "" {
		errs.Add("full_name", "Full name is required")
	}
	checkEmail(errs, r.Email)
	checkPassword(errs, r.Password)
	return errs.Err()
}

func checkEmail(errs model.FieldErrors, email string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		errs.Add("email", "Email is required")
	case !emailPattern.MatchString(email):
		errs.Add("email", "Invalid email format")
	}
}

func checkPassword(errs model.FieldErrors, password string) {
	switch {
	case password == "":
		errs.Add("password", "Password is required")
	case len([]rune(password)) < minPasswordLen:
		errs.Add("password", "Password must be at least 6 characters")
	}
}
