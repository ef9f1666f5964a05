package terryerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShapeErrorWrapsSentinel(t *testing.T) {
	err := NewShapeError("relation %q unknown", "Foo")
	require.ErrorIs(t, err, ErrShape)
	require.Contains(t, err.Error(), "Foo")
}

func TestSQLErrorWrapsUnderlyingAndSentinel(t *testing.T) {
	underlying := errors.New("no such table: T")
	err := NewSQLError("SELECT * FROM T", underlying)

	require.ErrorIs(t, err, ErrSQL)
	require.ErrorIs(t, err, underlying)
	require.Contains(t, err.Error(), "SELECT * FROM T")
}

func TestNewSQLErrorNilPassthrough(t *testing.T) {
	require.NoError(t, NewSQLError("stmt", nil))
}

func TestIterationCapExceededErrorWrapsSentinel(t *testing.T) {
	err := NewIterationCapExceededError(11, 10)
	require.ErrorIs(t, err, ErrIterationCapExceeded)

	var capErr *IterationCapExceededError
	require.True(t, errors.As(err, &capErr))
	require.Equal(t, 11, capErr.Ran)
	require.Equal(t, 10, capErr.Cap)
}
