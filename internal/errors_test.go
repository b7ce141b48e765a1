package internal_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routeforge/internal"
)

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("direct HTTPError", func(t *testing.T) {
		t.Parallel()
		httpErr := internal.ErrNotFound("not found")
		got := internal.AsHTTPError(httpErr)
		require.NotNil(t, got)
		require.Equal(t, http.StatusNotFound, got.Code)
		require.Equal(t, "Not Found", got.StatusText())
	})

	t.Run("wrapped HTTPError preserves fields", func(t *testing.T) {
		t.Parallel()
		httpErr := internal.NewHTTPError(http.StatusForbidden, "forbidden", internal.WithErrorCode("AUTH_001"))
		err := fmt.Errorf("middleware: %w", fmt.Errorf("inner: %w", httpErr))

		require.True(t, internal.IsHTTPError(err))
		got := internal.AsHTTPError(err)
		require.Equal(t, "AUTH_001", got.ErrorCode)
	})

	t.Run("unrelated and nil errors", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, internal.AsHTTPError(errors.New("plain")))
		require.Nil(t, internal.AsHTTPError(nil))
		require.False(t, internal.IsHTTPError(nil))
	})

	t.Run("unwrap exposes cause", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("db down")
		err := internal.ErrInternal("oops", internal.WithError(cause))
		require.ErrorIs(t, err, cause)
	})
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("action: %w", &internal.ValidationError{Fields: map[string]string{"email": "required"}})
	require.True(t, internal.IsValidationError(err))
	require.Contains(t, err.Error(), "email: required")

	require.Equal(t, "validation failed", (&internal.ValidationError{}).Error())
	require.False(t, internal.IsValidationError(errors.New("x")))
}
