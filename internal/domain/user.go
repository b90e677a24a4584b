package domain

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,31}$`)

type User struct {
	ID        string
	Username  string
	Email     string
	Name      string
	Phone     string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Validate checks username format, email syntax and role.
func (u *User) Validate() error {
	if !usernamePattern.MatchString(u.Username) {
		return Validationf("username %q must be 3-32 lowercase letters, digits, '.', '_' or '-'", u.Username)
	}
	if err := validateEmail(u.Email); err != nil {
		return err
	}
	if strings.TrimSpace(u.Name) == "" {
		return Validationf("name is required")
	}
	if !ValidRoles[u.Role] {
		return Validationf("invalid role %q", u.Role)
	}
	return nil
}

type Customer struct {
	ID      string
	UserID  *string
	Name    string
	Email   string
	Phone   string
	Address string
	Notes   string
	Status  CustomerStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validationf("customer name is required")
	}
	if err := validateEmail(c.Email); err != nil {
		return err
	}
	if c.Status != CustomerActive && c.Status != CustomerInactive {
		return Validationf("invalid customer status %q", c.Status)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return Validationf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Validationf("email %q is not a valid address", email)
	}
	return nil
}
