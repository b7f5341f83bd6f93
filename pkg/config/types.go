package config

import (
	"strings"
)

// ==================== Environment variable names ====================

const (
	EnvNoColor = "NO_COLOR"

	EnvTracingDisableOpenTelemetry = "TRACING_DISABLE_OPENTELEMETRY"
	EnvTracingEndpoint             = "TRACING_OPENTELEMETRY_ENDPOINT"
	EnvTracingExporter             = "TRACING_OPENTELEMETRY_EXPORTER"
	EnvTracingSampleRatio          = "TRACING_SAMPLE_RATIO"
	EnvTracingLogLevel             = "TRACING_LOG_LEVEL"
	EnvTracingFormat               = "TRACING_FORMAT"
	EnvTracingLogFileDir           = "TRACING_LOG_FILE_DIR"

	EnvPostgresURL            = "POSTGRES_URL"
	EnvPostgresMaxConnections = "POSTGRES_MAX_CONNECTIONS"

	EnvRedisURL = "REDIS_URL"

	EnvKafkaURL              = "KAFKA_URL"
	EnvKafkaHealthCheckTopic = "KAFKA_HEALTH_CHECK_TOPIC"
	EnvKafkaKey              = "KAFKA_KEY"
	EnvKafkaCert             = "KAFKA_CERT"
	EnvKafkaCA               = "KAFKA_CA"
	EnvKafkaClientID         = "KAFKA_CLIENT_ID"
	EnvKafkaUsername         = "KAFKA_USERNAME"
	EnvKafkaPassword         = "KAFKA_PASSWORD"
	EnvKafkaSASLMechanism    = "KAFKA_SASL_MECHANISM"
	EnvKafkaRequiredAcks     = "KAFKA_REQUIRED_ACKS"
)

// ==================== Configuration ====================

// Config is the process-wide bootstrap configuration. It is built once by
// Load and must be treated as read-only; subsystems receive copies of their
// section. A nil optional section means that feature is disabled.
type Config struct {
	Features Features

	Core    CoreConfig
	Tracing TracingConfig

	Postgres *PostgresConfig
	Redis    *RedisConfig
	Kafka    *KafkaConfig
}

// CoreConfig holds process-wide presentation settings.
type CoreConfig struct {
	NoColor bool `env:"NO_COLOR"`
}

// TracingConfig covers both log output and the telemetry exporter.
type TracingConfig struct {
	DisableOpenTelemetry bool     `env:"TRACING_DISABLE_OPENTELEMETRY"`
	Endpoint             string   `env:"TRACING_OPENTELEMETRY_ENDPOINT" validate:"required,url"`
	Exporter             Exporter `env:"TRACING_OPENTELEMETRY_EXPORTER"`
	SampleRatio          float64  `env:"TRACING_SAMPLE_RATIO" validate:"gt=0,lte=1"`

	LogLevel   string    `env:"TRACING_LOG_LEVEL" validate:"required"`
	Format     LogFormat `env:"TRACING_FORMAT"`
	LogFileDir string    `env:"TRACING_LOG_FILE_DIR"`
}

// PostgresConfig configures the SQL connection pool.
type PostgresConfig struct {
	URL            Secret `env:"POSTGRES_URL" validate:"required,url"`
	MaxConnections int    `env:"POSTGRES_MAX_CONNECTIONS" validate:"min=1"`
}

// RedisConfig configures the key-value store pool.
type RedisConfig struct {
	URL Secret `env:"REDIS_URL" validate:"required"`
}

// KafkaConfig configures the streaming client. Key, Cert and CA are base64
// encoded PEM blocks; TLS is enabled only when all three are set.
type KafkaConfig struct {
	Brokers          []string `env:"KAFKA_URL" validate:"required,min=1,dive,hostname_port"`
	HealthCheckTopic string   `env:"KAFKA_HEALTH_CHECK_TOPIC" validate:"required"`
	ClientID         string   `env:"KAFKA_CLIENT_ID" validate:"required"`

	Key  Secret `env:"KAFKA_KEY" validate:"omitempty,base64"`
	Cert Secret `env:"KAFKA_CERT" validate:"omitempty,base64"`
	CA   Secret `env:"KAFKA_CA" validate:"omitempty,base64"`

	Username      string `env:"KAFKA_USERNAME"`
	Password      Secret `env:"KAFKA_PASSWORD"`
	SASLMechanism string `env:"KAFKA_SASL_MECHANISM" validate:"oneof=PLAIN SCRAM-SHA-256 SCRAM-SHA-512"`
	RequiredAcks  string `env:"KAFKA_REQUIRED_ACKS" validate:"oneof=none one all"`
}

// TLSEnabled reports whether client certificates were supplied.
func (k KafkaConfig) TLSEnabled() bool {
	return k.Key != "" && k.Cert != "" && k.CA != ""
}

// ==================== Enums ====================

// LogFormat selects the log output encoding.
type LogFormat int

const (
	FormatTextPretty LogFormat = iota
	FormatText
	FormatJSON
	FormatJSONPretty
)

var logFormatNames = map[LogFormat]string{
	FormatText:       "text",
	FormatTextPretty: "text-pretty",
	FormatJSON:       "json",
	FormatJSONPretty: "json-pretty",
}

// LogFormatNames lists the accepted TRACING_FORMAT spellings.
func LogFormatNames() []string {
	return []string{"text", "text-pretty", "json", "json-pretty"}
}

func (f LogFormat) String() string {
	if name, ok := logFormatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseLogFormat parses a log format name case-insensitively.
func ParseLogFormat(s string) (LogFormat, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range logFormatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, unsupported(EnvTracingFormat, s, LogFormatNames())
}

// Exporter selects the OpenTelemetry span exporter.
type Exporter string

const (
	ExporterOTLPHTTP Exporter = "otlp-http"
	ExporterOTLPGRPC Exporter = "otlp-grpc"
	ExporterStdout   Exporter = "stdout"
)

// ExporterNames lists the accepted TRACING_OPENTELEMETRY_EXPORTER values.
func ExporterNames() []string {
	return []string{string(ExporterOTLPHTTP), string(ExporterOTLPGRPC), string(ExporterStdout)}
}

// ParseExporter parses an exporter name case-insensitively.
func ParseExporter(s string) (Exporter, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, n := range ExporterNames() {
		if n == name {
			return Exporter(n), nil
		}
	}
	return "", unsupported(EnvTracingExporter, s, ExporterNames())
}

// LogLevelNames lists the accepted TRACING_LOG_LEVEL values.
func LogLevelNames() []string {
	return []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
}

// ParseLogLevel validates a level name case-insensitively and returns its
// canonical lower-case spelling. "warning" is accepted as "warn".
func ParseLogLevel(s string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	for _, n := range LogLevelNames() {
		if n == name {
			return n, nil
		}
	}
	return "", unsupported(EnvTracingLogLevel, s, LogLevelNames())
}
