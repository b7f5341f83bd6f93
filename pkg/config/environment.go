package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment is an explicit snapshot of environment variables. Load reads
// only from the Environment it is given, never from the process.
type Environment map[string]string

// FromOS snapshots the process environment.
func FromOS() Environment {
	return FromPairs(os.Environ())
}

// FromPairs builds an Environment from KEY=VALUE pairs. Pairs without '='
// are ignored; later pairs win.
func FromPairs(pairs []string) Environment {
	env := make(Environment, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

// WithDotEnv returns a copy of e overlaid on the variables found in the
// given dotenv files. Values already in e win. With no paths, ".env" in the
// working directory is tried and silently skipped when absent. An unreadable
// file is reported as an invalid ENV_FILE.
func (e Environment) WithDotEnv(paths ...string) (Environment, error) {
	optional := len(paths) == 0
	if optional {
		paths = []string{".env"}
	}

	out := make(Environment, len(e))
	for _, path := range paths {
		vars, err := godotenv.Read(path)
		if err != nil {
			if optional && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, invalid("ENV_FILE", path, err)
		}
		for k, v := range vars {
			out[k] = v
		}
	}
	for k, v := range e {
		out[k] = v
	}
	return out, nil
}

// Lookup returns the trimmed value of name; empty values count as unset.
func (e Environment) Lookup(name string) (string, bool) {
	v := strings.TrimSpace(e[name])
	return v, v != ""
}
