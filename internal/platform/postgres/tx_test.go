// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

/*
TestLockTimeoutStatement never renders a zero timeout, which PostgreSQL reads
as "wait forever".
*/
func TestLockTimeoutStatement(t *testing.T) {
	tests := []struct {
		name string
		wait time.Duration
		want string
	}{
		{"seconds", 5 * time.Second, "SET LOCAL lock_timeout = '5000ms'"},
		{"milliseconds", 250 * time.Millisecond, "SET LOCAL lock_timeout = '250ms'"},
		{"sub_millisecond", 500 * time.Microsecond, "SET LOCAL lock_timeout = '1ms'"},
		{"zero", 0, "SET LOCAL lock_timeout = '1ms'"},
		{"negative", -time.Second, "SET LOCAL lock_timeout = '1ms'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lockTimeoutStatement(tt.wait))
		})
	}
}
