package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HEXHIVE_SERVER_URL", "HEXHIVE_ROOM", "HEXHIVE_USER", "HEXHIVE_ASSETS",
		"HEXHIVE_WIDTH", "HEXHIVE_HEIGHT", "HEXHIVE_TILE_SIZE", "HEXHIVE_HOVER", "HEXHIVE_POLL",
		"HEXHIVE_DISCOVER", "HEXHIVE_DEV", "HEXHIVE_ADDR", "DATABASE_URL",
		"HEXHIVE_SERVICE", "HEXHIVE_ADVERTISE", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HEXHIVE_USER", "amy")

	c, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "lobby", c.Room)
	assert.Equal(t, 1280, c.Width)
	assert.Equal(t, 50.0, c.TileSize)
	assert.Equal(t, 100*time.Millisecond, c.HoverInterval)
	assert.Equal(t, time.Duration(0), c.PollInterval)
	assert.True(t, c.Discover)
}

func TestLoadClient_Intervals(t *testing.T) {
	clearEnv(t)
	t.Setenv("HEXHIVE_USER", "amy")
	t.Setenv("HEXHIVE_HOVER", "250ms")
	t.Setenv("HEXHIVE_POLL", "2s")

	c, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c.HoverInterval)
	assert.Equal(t, 2*time.Second, c.PollInterval)
}

func TestLoadClient_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing user", map[string]string{}},
		{"bad width", map[string]string{"HEXHIVE_USER": "amy", "HEXHIVE_WIDTH": "wide"}},
		{"bad hover", map[string]string{"HEXHIVE_USER": "amy", "HEXHIVE_HOVER": "sometimes"}},
		{"zero hover", map[string]string{"HEXHIVE_USER": "amy", "HEXHIVE_HOVER": "0s"}},
		{"bad poll", map[string]string{"HEXHIVE_USER": "amy", "HEXHIVE_POLL": "often"}},
		{"no url without discovery", map[string]string{"HEXHIVE_USER": "amy", "HEXHIVE_DISCOVER": "false"}},
		{"zero tile", map[string]string{"HEXHIVE_USER": "amy", "HEXHIVE_TILE_SIZE": "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadClient()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadServer(t *testing.T) {
	clearEnv(t)
	t.Setenv("HEXHIVE_ADVERTISE", "true")
	t.Setenv("DATABASE_URL", "postgres://h@localhost/hive")

	s, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, ":8080", s.Addr)
	assert.True(t, s.Advertise)
	assert.Equal(t, "postgres://h@localhost/hive", s.DatabaseDSN)
}

func TestLoad_DotEnvUnderEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HEXHIVE_ROOM=garden\nHEXHIVE_USER=fromfile\n"), 0o600))
	t.Setenv("HEXHIVE_USER", "amy")
	// godotenv only fills unset variables; an empty value counts as set.
	require.NoError(t, os.Unsetenv("HEXHIVE_ROOM"))

	require.NoError(t, Load(path))
	c, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "garden", c.Room)
	assert.Equal(t, "amy", c.User)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	assert.NoError(t, Load(filepath.Join(t.TempDir(), "nope.env")))
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("debug", true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(-1))

	_, err = NewLogger("loud", false)
	assert.ErrorIs(t, err, ErrInvalid)
}
