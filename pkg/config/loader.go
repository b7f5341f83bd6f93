package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// LoadOptions tune Load.
type LoadOptions struct {
	// ConfigFile is an optional YAML file keyed by variable name
	// (e.g. "tracing_format: json"). Environment values override it.
	ConfigFile string
}

// knownVariables are the only keys Load takes from an Environment.
var knownVariables = []string{
	EnvNoColor,
	EnvTracingDisableOpenTelemetry,
	EnvTracingEndpoint,
	EnvTracingExporter,
	EnvTracingSampleRatio,
	EnvTracingLogLevel,
	EnvTracingFormat,
	EnvTracingLogFileDir,
	EnvPostgresURL,
	EnvPostgresMaxConnections,
	EnvRedisURL,
	EnvKafkaURL,
	EnvKafkaHealthCheckTopic,
	EnvKafkaKey,
	EnvKafkaCert,
	EnvKafkaCA,
	EnvKafkaClientID,
	EnvKafkaUsername,
	EnvKafkaPassword,
	EnvKafkaSASLMechanism,
	EnvKafkaRequiredAcks,
}

// Load builds the bootstrap configuration from env. Precedence is
// environment > config file > defaults. Sections of features absent from
// features are neither read nor validated, and come back nil.
//
// Every failure is a *ConfigurationError; no partial configuration is
// returned.
func Load(env Environment, features Features, opts ...LoadOptions) (*Config, error) {
	var opt LoadOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	resolved, err := env.resolveSecrets(features)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	applyDefaults(v)
	if opt.ConfigFile != "" {
		v.SetConfigFile(opt.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, invalid("config file", opt.ConfigFile, err)
		}
	}
	overrides := make(map[string]any)
	for _, name := range knownVariables {
		if value, ok := resolved.Lookup(name); ok {
			overrides[name] = value
		}
	}
	if err := v.MergeConfigMap(overrides); err != nil {
		return nil, invalid("environment", "", err)
	}

	r := reader{v: v}
	cfg := Defaults()
	cfg.Features = features

	if cfg.Core, err = loadCore(r); err != nil {
		return nil, err
	}
	if cfg.Tracing, err = loadTracing(r); err != nil {
		return nil, err
	}
	if features.Has(FeaturePostgres) {
		pg, err := loadPostgres(r)
		if err != nil {
			return nil, err
		}
		cfg.Postgres = &pg
	}
	if features.Has(FeatureRedis) {
		rd, err := loadRedis(r)
		if err != nil {
			return nil, err
		}
		cfg.Redis = &rd
	}
	if features.Has(FeatureKafka) {
		kc, err := loadKafka(r)
		if err != nil {
			return nil, err
		}
		cfg.Kafka = &kc
	}
	return &cfg, nil
}

// LoadProcess loads from the process environment, overlaid on the dotenv
// file named by ENV_FILE (or ./.env when present).
func LoadProcess(features Features, opts ...LoadOptions) (*Config, error) {
	env := FromOS()
	var files []string
	if f, ok := env.Lookup("ENV_FILE"); ok {
		files = append(files, f)
	}
	env, err := env.WithDotEnv(files...)
	if err != nil {
		return nil, err
	}
	return Load(env, features, opts...)
}

func loadCore(r reader) (CoreConfig, error) {
	raw, _ := r.value(EnvNoColor)
	noColor, err := parseNoColor(raw)
	if err != nil {
		return CoreConfig{}, err
	}
	return CoreConfig{NoColor: noColor}, nil
}

func loadTracing(r reader) (TracingConfig, error) {
	var (
		t   TracingConfig
		err error
	)
	raw := r.str(EnvTracingDisableOpenTelemetry, "false")
	if t.DisableOpenTelemetry, err = parseBool(EnvTracingDisableOpenTelemetry, raw); err != nil {
		return t, err
	}
	t.Endpoint = r.str(EnvTracingEndpoint, DefaultTracingEndpoint)
	if t.Exporter, err = ParseExporter(r.str(EnvTracingExporter, string(DefaultTracingExporter))); err != nil {
		return t, err
	}
	raw = r.str(EnvTracingSampleRatio, "1")
	if t.SampleRatio, err = strconv.ParseFloat(raw, 64); err != nil {
		return t, invalid(EnvTracingSampleRatio, raw, numError(err))
	}
	if t.LogLevel, err = ParseLogLevel(r.str(EnvTracingLogLevel, DefaultLogLevel)); err != nil {
		return t, err
	}
	if t.Format, err = ParseLogFormat(r.str(EnvTracingFormat, DefaultLogFormat.String())); err != nil {
		return t, err
	}
	t.LogFileDir, _ = r.value(EnvTracingLogFileDir)

	return t, validateSection(t, 0)
}

func loadPostgres(r reader) (PostgresConfig, error) {
	var pg PostgresConfig
	raw, ok := r.value(EnvPostgresURL)
	if !ok {
		return pg, missing(EnvPostgresURL, FeaturePostgres)
	}
	pg.URL = Secret(raw)

	raw = r.str(EnvPostgresMaxConnections, strconv.Itoa(DefaultPostgresMaxConnections))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return pg, invalid(EnvPostgresMaxConnections, raw, numError(err))
	}
	pg.MaxConnections = n

	if err := validateSection(pg, FeaturePostgres); err != nil {
		return pg, err
	}
	if _, err := pq.ParseURL(pg.URL.Reveal()); err != nil {
		return pg, invalid(EnvPostgresURL, "", redactURLError(err))
	}
	return pg, nil
}

func loadRedis(r reader) (RedisConfig, error) {
	var rd RedisConfig
	raw, ok := r.value(EnvRedisURL)
	if !ok {
		return rd, missing(EnvRedisURL, FeatureRedis)
	}
	rd.URL = Secret(raw)
	if err := validateSection(rd, FeatureRedis); err != nil {
		return rd, err
	}
	if _, err := redis.ParseURL(rd.URL.Reveal()); err != nil {
		return rd, invalid(EnvRedisURL, "", redactURLError(err))
	}
	return rd, nil
}

func loadKafka(r reader) (KafkaConfig, error) {
	var kc KafkaConfig
	brokers := r.list(EnvKafkaURL)
	if len(brokers) == 0 {
		return kc, missing(EnvKafkaURL, FeatureKafka)
	}
	kc.Brokers = brokers

	topic, ok := r.value(EnvKafkaHealthCheckTopic)
	if !ok {
		return kc, missing(EnvKafkaHealthCheckTopic, FeatureKafka)
	}
	kc.HealthCheckTopic = topic
	kc.ClientID = r.str(EnvKafkaClientID, DefaultKafkaClientID)

	tlsVars := []string{EnvKafkaKey, EnvKafkaCert, EnvKafkaCA}
	var set int
	for _, name := range tlsVars {
		if _, ok := r.value(name); ok {
			set++
		}
	}
	if set > 0 && set < len(tlsVars) {
		for _, name := range tlsVars {
			if _, ok := r.value(name); !ok {
				return kc, &ConfigurationError{
					Variable: name,
					Reason:   ReasonMissing,
					Err:      errors.New("KAFKA_KEY, KAFKA_CERT and KAFKA_CA must be set together"),
				}
			}
		}
	}
	key, _ := r.value(EnvKafkaKey)
	cert, _ := r.value(EnvKafkaCert)
	ca, _ := r.value(EnvKafkaCA)
	kc.Key, kc.Cert, kc.CA = Secret(key), Secret(cert), Secret(ca)

	kc.Username, _ = r.value(EnvKafkaUsername)
	password, _ := r.value(EnvKafkaPassword)
	kc.Password = Secret(password)
	kc.SASLMechanism = strings.ToUpper(r.str(EnvKafkaSASLMechanism, DefaultKafkaSASLMechanism))
	kc.RequiredAcks = strings.ToLower(r.str(EnvKafkaRequiredAcks, DefaultKafkaRequiredAcks))

	return kc, validateSection(kc, FeatureKafka)
}

// ==================== value parsing ====================

// reader reads layered values from a viper instance. Keys are matched
// case-insensitively by viper.
type reader struct {
	v *viper.Viper
}

// value returns the trimmed value for key; empty counts as unset.
func (r reader) value(key string) (string, bool) {
	if !r.v.IsSet(key) {
		return "", false
	}
	s := strings.TrimSpace(r.v.GetString(key))
	return s, s != ""
}

// str returns the value for key or def when unset or empty.
func (r reader) str(key, def string) string {
	if s, ok := r.value(key); ok {
		return s
	}
	return def
}

// list accepts a comma separated string or, from a config file, a YAML
// sequence.
func (r reader) list(key string) []string {
	if !r.v.IsSet(key) {
		return nil
	}
	var parts []string
	switch raw := r.v.Get(key).(type) {
	case []any:
		for _, item := range raw {
			parts = append(parts, fmt.Sprint(item))
		}
	case []string:
		parts = raw
	default:
		parts = strings.Split(r.v.GetString(key), ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(variable, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "", "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, invalid(variable, raw, errors.New("expected a boolean"))
	}
}

// parseNoColor follows no-color.org: any non-empty value disables color,
// except an explicit false spelling.
func parseNoColor(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return true, nil
	}
}

// numError strips the echoed input from strconv errors.
func numError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}

// redactURLError drops the URL text (which may carry credentials) from
// url.Parse errors.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

// ==================== struct validation ====================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// validateSection checks struct constraints and reports the first failure
// as a ConfigurationError named after the offending variable.
func validateSection(section any, feature Features) error {
	err := validate.Struct(section)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return invalid(reflect.TypeOf(section).Name(), "", err)
	}
	fe := errs[0]
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	var value string
	if !isSecretVariable(name) {
		value = fmt.Sprint(fe.Value())
	}
	switch fe.Tag() {
	case "required":
		return missing(name, feature)
	case "oneof":
		return unsupported(name, value, strings.Fields(fe.Param()))
	default:
		constraint := fe.Tag()
		if fe.Param() != "" {
			constraint += "=" + fe.Param()
		}
		return invalid(name, value, fmt.Errorf("violates %s", constraint))
	}
}
