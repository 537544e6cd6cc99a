package domain

import "strings"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayNameFor falls back to the local part of the email address.
func DisplayNameFor(name, email string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	if email != "" {
		return email
	}
	return "User"
}
