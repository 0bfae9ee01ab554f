package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(Validation("bad input")))
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("missing")))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))

	wrapped := fmt.Errorf("context: %w", Conflict("duplicate"))
	assert.Equal(t, CodeConflict, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeConflict))
}

func TestStateFlag(t *testing.T) {
	err := State(FlagBlocked, "connection is blocked")

	assert.Equal(t, CodeState, CodeOf(err))
	assert.Equal(t, FlagBlocked, FlagOf(err))
	assert.True(t, IsState(err, FlagBlocked))
	assert.False(t, IsState(err, FlagRequestPending))
	assert.False(t, IsState(Conflict("x"), FlagBlocked))
}

func TestUpstreamUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("push failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "push failed")
	assert.Contains(t, err.Error(), "connection refused")
}
