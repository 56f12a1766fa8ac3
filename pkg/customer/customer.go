// Package customer holds the customer record.
package customer

import (
	"net/mail"
	"strings"
	"time"

	"github.com/printshop-service/pkg/apperr"
)

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.Required("name")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return apperr.Invalid("email", "is not a valid address")
		}
	}
	return nil
}

// Matches is the case-insensitive search used by customer listings.
func (c Customer) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Company, c.Email} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
