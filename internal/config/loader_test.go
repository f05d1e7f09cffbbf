package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapSecrets map[string]string

func (m mapSecrets) Get(key string) (string, error) {
	if key == "broken" {
		return "", errors.New("vault unavailable")
	}
	return m[key], nil
}

func TestConfigLoader_LoadConfigValue(t *testing.T) {
	loader := NewConfigLoader(mapSecrets{"BOT_TOKEN": "from-source"}, zap.NewNop())

	tests := []struct {
		name     string
		envValue string
		key      string
		want     string
		wantErr  bool
	}{
		{name: "env важнее источника", envValue: "from-env", key: "BOT_TOKEN", want: "from-env"},
		{name: "значение из источника", key: "BOT_TOKEN", want: "from-source"},
		{name: "нет нигде", key: "DB_DSN", want: ""},
		{name: "ошибка источника", key: "broken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loader.LoadConfigValue(tt.envValue, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("123:abc\n"), 0600))
	t.Setenv("BOT_TOKEN_FILE", path)
	t.Setenv("REDIS_PASSWORD_FILE", filepath.Join(t.TempDir(), "missing"))

	got, err := FileSecrets{}.Get("BOT_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "123:abc", got)

	got, err = FileSecrets{}.Get("DB_DSN")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = FileSecrets{}.Get("REDIS_PASSWORD")
	assert.Error(t, err)
}

func TestConfigLoader_LoadSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = "postgres://env"

	loader := NewConfigLoader(mapSecrets{
		"BOT_TOKEN":      "123:abc",
		"DB_DSN":         "postgres://file",
		"REDIS_PASSWORD": "secret",
	}, nil)
	require.NoError(t, loader.LoadSecrets(cfg))

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, "secret", cfg.Redis.Password)
}
