package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPairs(t *testing.T) {
	env := FromPairs([]string{"A=1", "B=x=y", "broken", "=nokey", "A=2"})
	assert.Equal(t, Environment{"A": "2", "B": "x=y"}, env)
}

func TestEnvironmentLookupTreatsBlankAsUnset(t *testing.T) {
	env := Environment{"SET": " value ", "BLANK": "   "}
	v, ok := env.Lookup("SET")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = env.Lookup("BLANK")
	assert.False(t, ok)
	_, ok = env.Lookup("ABSENT")
	assert.False(t, ok)
}

func TestWithDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service.env")
	require.NoError(t, os.WriteFile(path, []byte("TRACING_FORMAT=json\nPOSTGRES_URL=postgres://file/app\n"), 0o600))

	env, err := Environment{EnvTracingFormat: "text"}.WithDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "text", env[EnvTracingFormat], "process values win over dotenv")
	assert.Equal(t, "postgres://file/app", env[EnvPostgresURL])

	_, err = Environment{}.WithDotEnv(filepath.Join(dir, "missing.env"))
	requireConfigError(t, err, "ENV_FILE", ReasonInvalid)
}

func TestWithDotEnvDefaultFileIsOptional(t *testing.T) {
	t.Chdir(t.TempDir())

	env, err := Environment{"A": "1"}.WithDotEnv()
	require.NoError(t, err)
	assert.Equal(t, Environment{"A": "1"}, env)
}
