package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const secretMask = "******"

// Secret holds a sensitive string such as a connection URL or a private
// key. Every formatting path renders it masked; use Reveal to get the raw
// value.
type Secret string

// Reveal returns the unmasked value.
func (s Secret) Reveal() string { return string(s) }

func (s Secret) String() string { return secretMask }

func (s Secret) GoString() string { return `config.Secret("` + secretMask + `")` }

// Format masks the value for every verb, including %q and %x.
func (s Secret) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		_, _ = f.Write([]byte(s.GoString()))
		return
	}
	_, _ = f.Write([]byte(secretMask))
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(secretMask)
}

// secretVariables may be supplied through a {NAME}_FILE indirection, the
// Docker secrets convention. Each belongs to the feature that reads it.
var secretVariables = map[string]Features{
	EnvPostgresURL:   FeaturePostgres,
	EnvRedisURL:      FeatureRedis,
	EnvKafkaKey:      FeatureKafka,
	EnvKafkaCert:     FeatureKafka,
	EnvKafkaCA:       FeatureKafka,
	EnvKafkaPassword: FeatureKafka,
}

func isSecretVariable(name string) bool {
	_, ok := secretVariables[name]
	return ok
}

// resolveSecrets returns a copy of e where every secret variable of an
// enabled feature with a non-empty {NAME}_FILE entry takes the trimmed
// contents of that file. Files of disabled features are never opened.
// Priority: {NAME}_FILE > {NAME}.
func (e Environment) resolveSecrets(features Features) (Environment, error) {
	out := make(Environment, len(e))
	for k, v := range e {
		out[k] = v
	}
	for name, owner := range secretVariables {
		if !features.Has(owner) {
			continue
		}
		path := strings.TrimSpace(e[name+"_FILE"])
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, invalid(name+"_FILE", path, err)
		}
		out[name] = strings.TrimSpace(string(data))
	}
	return out, nil
}
