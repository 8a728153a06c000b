package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/aqipredict/internal/auth"
)

const testKey = "admintoken-test-signing-key"

func TestRun_IssuesValidToken(t *testing.T) {
	t.Setenv("ADMIN_SIGNING_KEY", testKey)

	var out bytes.Buffer
	err := run([]string{"-operator", "alice", "-ttl", "10m"}, &out, zerolog.Nop())
	require.NoError(t, err)

	token := strings.TrimSpace(out.String())
	claims, err := auth.NewJWTService(auth.JWTConfig{SigningKey: testKey}).ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		args []string
	}{
		{"missing operator", testKey, nil},
		{"missing signing key", "", []string{"-operator", "alice"}},
		{"ttl too long", testKey, []string{"-operator", "alice", "-ttl", "48h"}},
		{"unknown flag", testKey, []string{"-user", "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ADMIN_SIGNING_KEY", tt.key)

			var out bytes.Buffer
			err := run(tt.args, &out, zerolog.Nop())
			assert.Error(t, err)
			assert.Empty(t, out.String())
		})
	}
}
