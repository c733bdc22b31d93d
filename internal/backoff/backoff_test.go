// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff_RetryNotify(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name    string
		config  *Config
		opErrs  []error
		wantErr error

		wantCalls    int
		wantNotifies int
	}{
		{
			name:      "ok - first attempt",
			config:    &Config{InitialInterval: time.Millisecond, MaxRetries: 3},
			opErrs:    []error{nil},
			wantCalls: 1,
		},
		{
			name:         "ok - succeeds after retries",
			config:       &Config{InitialInterval: time.Millisecond, MaxRetries: 3},
			opErrs:       []error{errTest, errTest, nil},
			wantCalls:    3,
			wantNotifies: 2,
		},
		{
			name:         "error - max retries exhausted",
			config:       &Config{InitialInterval: time.Millisecond, MaxRetries: 2},
			opErrs:       []error{errTest, errTest, errTest},
			wantErr:      errTest,
			wantCalls:    3,
			wantNotifies: 2,
		},
		{
			name:      "error - permanent",
			config:    &Config{InitialInterval: time.Millisecond, MaxRetries: 3},
			opErrs:    []error{fmt.Errorf("%w: %w", ErrPermanent, errTest)},
			wantErr:   errTest,
			wantCalls: 1,
		},
		{
			name:      "error - retries disabled",
			config:    nil,
			opErrs:    []error{errTest},
			wantErr:   errTest,
			wantCalls: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			notifies := 0
			err := New(context.Background(), tc.config).RetryNotify(func() error {
				err := tc.opErrs[calls]
				calls++
				return err
			}, func(error, time.Duration) {
				notifies++
			})
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantCalls, calls)
			require.Equal(t, tc.wantNotifies, notifies)
		})
	}
}
