package job

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop-service/pkg/apperr"
)

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" in_progress ")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, st)

	_, err = ParseStatus("SHIPPED")
	assert.True(t, apperr.IsInvalid(err))
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusInProgress, StatusOnHold, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusOnHold, StatusInProgress, true},
		{StatusOnHold, StatusCompleted, false},
		{StatusCompleted, StatusDelivered, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusOnHold.Terminal())
}

func TestValidate(t *testing.T) {
	ok := Job{CustomerID: "c1", Title: "Banners", Products: []Product{{ProductID: "p1", Quantity: 2}}}
	require.NoError(t, ok.Validate())

	noTitle := ok
	noTitle.Title = "  "
	assert.EqualError(t, noTitle.Validate(), "title: is required")

	zeroQty := ok.Clone()
	zeroQty.Products[0].Quantity = 0
	assert.True(t, apperr.IsInvalid(zeroQty.Validate()))

	negative := ok.Clone()
	negative.Products[0].Width = decimal.NewFromInt(-1)
	assert.True(t, apperr.IsInvalid(negative.Validate()))
}

func TestCloneIsDeep(t *testing.T) {
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	j := Job{Products: []Product{{ProductID: "p1", Quantity: 1}}, DueDate: &due}
	c := j.Clone()
	c.Products[0].Quantity = 9
	*c.DueDate = due.AddDate(0, 0, 1)

	assert.Equal(t, 1, j.Products[0].Quantity)
	assert.Equal(t, due, *j.DueDate)
}

func TestFilter(t *testing.T) {
	j := Job{CustomerID: "c1", Status: StatusPending}
	assert.True(t, Filter{}.Match(j))
	assert.True(t, Filter{Status: StatusPending, CustomerID: "c1"}.Match(j))
	assert.False(t, Filter{Status: StatusInProgress}.Match(j))
	assert.False(t, Filter{CustomerID: "c2"}.Match(j))
}
