package nutricoach

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "user", err: ErrUserNotFound, want: true},
		{name: "wrapped record", err: fmt.Errorf("daily_summary_get: %w", ErrRecordNotFound), want: true},
		{name: "persistence", err: NewPersistenceError("get user", errors.New("disk full")), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestNewPersistenceError(t *testing.T) {
	assert.NoError(t, NewPersistenceError("save feedback", nil))

	cause := errors.New("locked")
	err := NewPersistenceError("save feedback", cause)
	var pe *PersistenceError
	assert.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "persistence failure during save feedback: locked", err.Error())
}
