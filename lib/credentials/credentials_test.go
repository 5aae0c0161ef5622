package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const secretsJson = `{
	services: [
		{name: "uk_gorod", login: "resident@example.com", password: "hunter2"},
		{name: "saures", login: "resident@example.com", password: "hunter3"},
		{name: "broken", login: "", password: "x"},
	],
}`

func writeSecrets(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.json5")
	err := os.WriteFile(path, []byte(secretsJson), 0o600)
	require.Nil(t, err)
	return path
}

func TestLoad(t *testing.T) {
	path := writeSecrets(t)

	creds, err := Load(path, "uk_gorod")
	require.Nil(t, err)
	require.Equal(t, "resident@example.com", creds.Login)
	require.Equal(t, "hunter2", creds.Password)

	creds, err = Load(path, "saures")
	require.Nil(t, err)
	require.Equal(t, "hunter3", creds.Password)
}

func TestLoadMissingService(t *testing.T) {
	path := writeSecrets(t)

	_, err := Load(path, "nope")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoadEmptyFields(t *testing.T) {
	path := writeSecrets(t)

	_, err := Load(path, "broken")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "secrets.json5"), "uk_gorod")
	require.ErrorIs(t, err, ErrNotConfigured)
}
