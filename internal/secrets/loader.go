package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Source describes where a secret may come from. The first non-empty source
// wins in the order File, Value, Env.
type Source struct {
	// Name is used in error messages.
	Name string
	// File points to a file containing the secret.
	File string
	// Value is an inline secret from configuration or flags.
	Value string
	// Env names environment variables consulted last, in order.
	Env []string
}

// Load resolves src against the OS filesystem and environment.
func Load(src Source) (string, error) {
	return LoadFrom(afero.NewOsFs(), os.LookupEnv, src)
}

// LoadFrom resolves src using fs and lookup. The returned secret is trimmed.
func LoadFrom(fs afero.Fs, lookup func(string) (string, bool), src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if lookup != nil {
		for _, key := range src.Env {
			if value, ok := lookup(key); ok {
				if secret := strings.TrimSpace(value); secret != "" {
					return secret, nil
				}
			}
		}
	}

	return "", fmt.Errorf("%s is not configured", name)
}
