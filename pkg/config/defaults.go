package config

import "github.com/spf13/viper"

const (
	DefaultTracingEndpoint        = "http://localhost:14268/api/traces"
	DefaultTracingExporter        = ExporterOTLPHTTP
	DefaultTracingSampleRatio     = 1.0
	DefaultLogLevel               = "debug"
	DefaultLogFormat              = FormatTextPretty
	DefaultPostgresMaxConnections = 8
	DefaultKafkaClientID          = "balthazar"
	DefaultKafkaSASLMechanism     = "PLAIN"
	DefaultKafkaRequiredAcks      = "all"
)

// Defaults returns the configuration produced by an empty environment with
// no optional features enabled.
func Defaults() Config {
	return Config{
		Tracing: TracingConfig{
			Endpoint:    DefaultTracingEndpoint,
			Exporter:    DefaultTracingExporter,
			SampleRatio: DefaultTracingSampleRatio,
			LogLevel:    DefaultLogLevel,
			Format:      DefaultLogFormat,
		},
	}
}

// applyDefaults registers documented defaults. Variables without a default
// (connection strings, broker lists) stay unset so that they can be
// reported as missing.
func applyDefaults(v *viper.Viper) {
	v.SetDefault(EnvNoColor, "")
	v.SetDefault(EnvTracingDisableOpenTelemetry, "false")
	v.SetDefault(EnvTracingEndpoint, DefaultTracingEndpoint)
	v.SetDefault(EnvTracingExporter, string(DefaultTracingExporter))
	v.SetDefault(EnvTracingSampleRatio, "1")
	v.SetDefault(EnvTracingLogLevel, DefaultLogLevel)
	v.SetDefault(EnvTracingFormat, DefaultLogFormat.String())

	v.SetDefault(EnvPostgresMaxConnections, "8")

	v.SetDefault(EnvKafkaClientID, DefaultKafkaClientID)
	v.SetDefault(EnvKafkaSASLMechanism, DefaultKafkaSASLMechanism)
	v.SetDefault(EnvKafkaRequiredAcks, DefaultKafkaRequiredAcks)
}
