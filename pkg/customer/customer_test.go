package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Customer{Name: "Acme Signs"}.Validate())
	assert.EqualError(t, Customer{}.Validate(), "name: is required")
	assert.EqualError(t, Customer{Name: "Acme", Email: "not-an-address"}.Validate(), "email: is not a valid address")
}

func TestMatches(t *testing.T) {
	c := Customer{Name: "Acme Signs", Company: "Acme Signs Ltd", Email: "orders@acme.test"}
	assert.True(t, c.Matches(""))
	assert.True(t, c.Matches("SIGNS"))
	assert.True(t, c.Matches("orders@"))
	assert.False(t, c.Matches("harbour"))
}
