package btp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelator_AwaitThenResolveDeliversFrame(t *testing.T) {
	c := NewCorrelator()
	id := c.NextRequestID()
	ch, err := c.Await(id)
	require.NoError(t, err)

	ok := c.Resolve(Frame{Type: TypeResponse, RequestID: id})
	assert.True(t, ok)

	frame := <-ch
	assert.Equal(t, id, frame.RequestID)
}

func TestCorrelator_DuplicateOutstandingIDErrors(t *testing.T) {
	c := NewCorrelator()
	_, err := c.Await(5)
	require.NoError(t, err)

	_, err = c.Await(5)
	assert.Error(t, err)
}

func TestCorrelator_ResolveWithNoWaiterReturnsFalse(t *testing.T) {
	c := NewCorrelator()
	assert.False(t, c.Resolve(Frame{RequestID: 123}))
}

func TestCorrelator_CancelRemovesWaiter(t *testing.T) {
	c := NewCorrelator()
	_, err := c.Await(9)
	require.NoError(t, err)
	c.Cancel(9)
	assert.Equal(t, 0, c.Outstanding())
	assert.False(t, c.Resolve(Frame{RequestID: 9}))
}

func TestCorrelator_NextRequestIDIsMonotonic(t *testing.T) {
	c := NewCorrelator()
	a := c.NextRequestID()
	b := c.NextRequestID()
	assert.Less(t, a, b)
}
