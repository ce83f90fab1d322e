// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package credential resolves the parsing service API key.
//
// Sources are consulted in order: an explicit value (flag or config file), the
// LLAMA_CLOUD_API_KEY environment variable, a .env file, and finally a
// .secrets/ directory where each file holds one secret named by its filename.
package credential

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/docparse/pkg/types"
)

const (
	// EnvVar is the environment variable the parsing service documents for its key.
	EnvVar = "LLAMA_CLOUD_API_KEY"

	// SecretFile is the filename looked up under the secrets directory.
	SecretFile = "llama-cloud-api-key"
)

// Credential is the API key authorizing calls to the parsing service.
type Credential string

// String redacts all but the last four characters.
func (c Credential) String() string {
	if len(c) <= 4 {
		return "****"
	}
	return "****" + string(c[len(c)-4:])
}

// Sources lists where Resolve looks for the key.
type Sources struct {
	// Explicit wins over every other source when non-empty.
	Explicit string

	// LookupEnv reads the process environment. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// DotEnv is the path of a .env file. Empty skips it.
	DotEnv string

	// SecretsDir is a directory of one-secret-per-file entries. Empty skips it.
	SecretsDir string
}

// DefaultSources returns the sources the CLI uses: the process environment,
// ./.env and ./.secrets/.
func DefaultSources(explicit string) Sources {
	return Sources{
		Explicit:   explicit,
		DotEnv:     ".env",
		SecretsDir: ".secrets",
	}
}

// Resolve returns the first non-empty credential found in src. It reports
// types.ErrConfiguration when no source provides one.
func Resolve(src Sources) (Credential, error) {
	if v := strings.TrimSpace(src.Explicit); v != "" {
		return Credential(v), nil
	}

	lookup := src.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvVar); ok && strings.TrimSpace(v) != "" {
		return Credential(strings.TrimSpace(v)), nil
	}

	if src.DotEnv != "" {
		env, err := godotenv.Read(src.DotEnv)
		switch {
		case err == nil:
			if v := strings.TrimSpace(env[EnvVar]); v != "" {
				return Credential(v), nil
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return "", fmt.Errorf("%w: reading %s: %v", types.ErrConfiguration, src.DotEnv, err)
		}
	}

	if src.SecretsDir != "" {
		secrets, err := LoadDir(src.SecretsDir, io.Discard)
		if err != nil {
			return "", fmt.Errorf("%w: %v", types.ErrConfiguration, err)
		}
		if v := secrets[SecretFile]; v != "" {
			return Credential(v), nil
		}
	}

	return "", fmt.Errorf("%w: no API key found: set %s, add it to .env, or write it to .secrets/%s",
		types.ErrConfiguration, EnvVar, SecretFile)
}

// LoadDir reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; LoadDir returns an empty map.
// Unreadable files produce a warning on w and are skipped.
func LoadDir(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", entry.Name(), err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[entry.Name()] = value
		}
	}

	return secrets, nil
}
