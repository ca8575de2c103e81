package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastErrorMessage(t *testing.T) {
	be := &BroadcastError{
		Total: 3,
		Failed: []*PeerError{
			{Addr: "10.0.0.1:7000", Err: ErrConnect},
			{Addr: "bad", Err: ErrAddress},
		},
	}

	assert.Equal(t,
		"broadcast: 2 of 3 peers failed: 10.0.0.1:7000: connect failed; bad: invalid peer address",
		be.Error())
	assert.Equal(t, []string{"10.0.0.1:7000", "bad"}, be.Peers())
	assert.ErrorIs(t, be, ErrConnect)
	assert.ErrorIs(t, be, ErrAddress)
	assert.NotErrorIs(t, be, ErrIO)

	var pe *PeerError
	assert.True(t, errors.As(be, &pe))
	assert.Equal(t, "10.0.0.1:7000", pe.Addr)
}
