// ABOUTME: Tests for the store retry helper.
// ABOUTME: Transient errors retry; everything else returns immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harperreed/vigil/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Policy{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxTries: 5}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fast, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, fmt.Errorf("query moods: %w", models.ErrStoreUnavailable)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fast, func() error {
		calls++
		return fmt.Errorf("get habit: %w", models.ErrNotFound)
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Equal(t, 1, calls)
}

func TestDoGivesUpAfterMaxTries(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fast, func() error {
		calls++
		return models.ErrStoreUnavailable
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrStoreUnavailable))
	assert.Equal(t, 5, calls)
}
