// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package helper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	errTransient := errors.New("transient")

	tests := []struct {
		name      string
		failures  int
		rc        RetryConfig
		wantCalls int
		wantErr   bool
	}{
		{name: "succeeds at once", failures: 0, rc: RetryConfig{Count: 2}, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, rc: RetryConfig{Count: 2}, wantCalls: 3},
		{name: "budget exhausted", failures: 5, rc: RetryConfig{Count: 1}, wantCalls: 2, wantErr: true},
		{name: "no retries configured", failures: 1, rc: RetryConfig{}, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			eff := func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return errTransient
				}
				return nil
			}

			err := Retry(eff, tt.rc)(t.Context())
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, errTransient)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := Retry(func(context.Context) error { return errors.New("fail") }, RetryConfig{Count: 3, Delay: time.Hour})(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetExpBackoff(t *testing.T) {
	tests := map[int]time.Duration{
		0: time.Second,
		1: time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
		4: 8 * time.Second,
	}
	for it, want := range tests {
		assert.Equal(t, want, getExpBackoff(time.Second, it), "iteration %d", it)
	}
}

func TestRetryConfig_Validate(t *testing.T) {
	assert.NoError(t, RetryConfig{Count: 1, Delay: time.Second}.Validate())
	assert.Error(t, RetryConfig{Count: -1}.Validate())
	assert.Error(t, RetryConfig{Delay: -time.Second}.Validate())
}
