package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop-service/pkg/apperr"
)

func TestParseClass(t *testing.T) {
	c, err := ParseClass("wide_format")
	require.NoError(t, err)
	assert.Equal(t, ClassWideFormat, c)
	assert.True(t, c.AreaBased())
	assert.False(t, ClassSignage.AreaBased())

	_, err = ParseClass("POSTERS")
	assert.True(t, apperr.IsInvalid(err))
}

func TestProductValidate(t *testing.T) {
	p := Product{Name: "Banner", Class: ClassWideFormat, UnitPrice: decimal.NewFromInt(12)}
	require.NoError(t, p.Validate())

	p.UnitPrice = decimal.NewFromInt(-1)
	assert.EqualError(t, p.Validate(), "unitPrice: must not be negative")

	p.UnitPrice = decimal.Zero
	p.Class = "POSTERS"
	assert.True(t, apperr.IsInvalid(p.Validate()))
}

func TestFilterMatch(t *testing.T) {
	visible := Product{Class: ClassSmallFormat, Active: true, PortalVisible: true}
	hidden := Product{Class: ClassSmallFormat, Active: true}
	retired := Product{Class: ClassSmallFormat, PortalVisible: true}

	portal := Filter{PortalOnly: true}
	assert.True(t, portal.Match(visible))
	assert.False(t, portal.Match(hidden))
	assert.False(t, portal.Match(retired))

	assert.False(t, Filter{ActiveOnly: true}.Match(retired))
	assert.False(t, Filter{Class: ClassWideFormat}.Match(visible))
}
