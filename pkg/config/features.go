package config

import (
	"strings"
)

// Features is the set of optional subsystems enabled for a process. A
// disabled feature gets a no-op implementation at bootstrap and its
// variables are never read.
type Features uint8

const (
	FeaturePostgres Features = 1 << iota
	FeatureRedis
	FeatureKafka
)

// AllFeatures enables every optional subsystem.
const AllFeatures = FeaturePostgres | FeatureRedis | FeatureKafka

var featureNames = []struct {
	feature Features
	name    string
}{
	{FeaturePostgres, "postgres"},
	{FeatureRedis, "redis"},
	{FeatureKafka, "kafka"},
}

// FeatureNames lists the accepted feature names in declaration order.
func FeatureNames() []string {
	names := make([]string, 0, len(featureNames))
	for _, f := range featureNames {
		names = append(names, f.name)
	}
	return names
}

// Has reports whether every feature in f is enabled.
func (fs Features) Has(f Features) bool {
	return f != 0 && fs&f == f
}

func (fs Features) String() string {
	var parts []string
	for _, f := range featureNames {
		if fs.Has(f.feature) {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ParseFeatures parses comma separated feature names, case-insensitively.
// Blank input yields an empty set.
func ParseFeatures(values ...string) (Features, error) {
	var fs Features
	for _, value := range values {
		for _, raw := range strings.Split(value, ",") {
			name := strings.ToLower(strings.TrimSpace(raw))
			if name == "" {
				continue
			}
			f, ok := featureByName(name)
			if !ok {
				return 0, unsupported("feature", raw, FeatureNames())
			}
			fs |= f
		}
	}
	return fs, nil
}

func featureByName(name string) (Features, bool) {
	for _, f := range featureNames {
		if f.name == name {
			return f.feature, true
		}
	}
	return 0, false
}
