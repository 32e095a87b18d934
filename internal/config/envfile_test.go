package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile_MissingPathIsNotAnError(t *testing.T) {
	err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoadEnvFile_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(`
# a comment
OBDSENTRY_AI_API_KEY=secret123
OBDSENTRY_S3_BUCKET="quoted-value"

`), 0o600))

	os.Unsetenv("OBDSENTRY_AI_API_KEY")
	os.Unsetenv("OBDSENTRY_S3_BUCKET")
	defer os.Unsetenv("OBDSENTRY_AI_API_KEY")
	defer os.Unsetenv("OBDSENTRY_S3_BUCKET")

	require.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "secret123", os.Getenv("OBDSENTRY_AI_API_KEY"))
	assert.Equal(t, "quoted-value", os.Getenv("OBDSENTRY_S3_BUCKET"))
}

func TestLoadEnvFile_DoesNotOverwriteExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OBDSENTRY_EXISTING=from_file\n"), 0o600))

	t.Setenv("OBDSENTRY_EXISTING", "from_env")

	require.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "from_env", os.Getenv("OBDSENTRY_EXISTING"))
}

func TestLoadEnvFile_MalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_KEY_VALUE_LINE\n"), 0o600))

	err := LoadEnvFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}
