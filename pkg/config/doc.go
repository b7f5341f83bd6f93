// Package config loads the bootstrap configuration shared by every
// subsystem of a service: log output, the telemetry exporter and the
// optional SQL, key-value and streaming stacks.
//
// The environment is passed in explicitly and read exactly once:
//
//	import "github.com/Goden-Gun/balthazar/pkg/config"
//
//	env, err := config.FromOS().WithDotEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := config.Load(env, config.FeaturePostgres|config.FeatureRedis)
//	if err != nil {
//	    log.Fatal(err) // always a *config.ConfigurationError
//	}
//
// Variables belonging to a feature that is not enabled are ignored, so a
// service without a database never needs POSTGRES_URL.
package config
