package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{name: "unset", secret: ""},
		{name: "too short", secret: "changeme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)

			config, err := LoadConfig()
			assert.ErrorIs(t, err, ErrWeakJWTSecret)
			assert.Nil(t, config)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	secret := strings.Repeat("k", MinJWTSecretLength)
	t.Setenv("JWT_SECRET", secret)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, secret, config.JWT.Secret)
	assert.Equal(t, "memory", config.Ledger.Backend)
	assert.True(t, config.Ledger.RebuildOnStart)
	assert.Equal(t, []string{"*"}, config.CORS.AllowedOrigins)
}
