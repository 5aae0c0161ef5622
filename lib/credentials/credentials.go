// Package credentials loads portal logins out of a secrets.json5 file
// keyed by service name, so one secrets file can hold the accounts for
// every system the tooling talks to.
package credentials

import (
	"errors"
	"fmt"
	"os"

	"meterassist-backend/lib/configutil"
)

var ErrNotConfigured = errors.New("credentials not configured")

type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type serviceEntry struct {
	Name     string `json:"name"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

type secretsFile struct {
	Services []serviceEntry `json:"services"`
}

func (f secretsFile) find(service string) (Credentials, error) {
	for _, entry := range f.Services {
		if entry.Name != service {
			continue
		}
		if entry.Login == "" || entry.Password == "" {
			return Credentials{}, fmt.Errorf(
				"%w: service %q is missing login or password", ErrNotConfigured, service)
		}
		return Credentials{Login: entry.Login, Password: entry.Password}, nil
	}
	return Credentials{}, fmt.Errorf("%w: no service named %q", ErrNotConfigured, service)
}

// Load reads credentials for the named service out of the given secrets
// file. A missing file, a missing service entry or empty login/password
// fields are all configuration errors, not authentication errors: the
// caller never got far enough to talk to the portal.
func Load(path, service string) (Credentials, error) {
	secrets, err := configutil.ReadConfig[secretsFile](path)
	if os.IsNotExist(err) {
		return Credentials{}, fmt.Errorf("%w: secrets file %q does not exist", ErrNotConfigured, path)
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	return secrets.find(service)
}

// LoadRecursively is Load but it searches up the filesystem from the cwd
// for the secrets file.
func LoadRecursively(name, service string) (Credentials, error) {
	secrets, err := configutil.ReadRecursively[secretsFile](name)
	if os.IsNotExist(err) {
		return Credentials{}, fmt.Errorf("%w: no %q found up the tree", ErrNotConfigured, name)
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	return secrets.find(service)
}
