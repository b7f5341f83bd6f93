package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/balthazar/pkg/config"
	"github.com/Goden-Gun/balthazar/pkg/logger"
)

// jsonTimestampFormat is RFC 3339 with millisecond precision.
const jsonTimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// LogFileConfig describes the rotating log file.
type LogFileConfig struct {
	Dir          string
	Filename     string
	MaxAgeDays   int
	RotationDays int
}

// LoggerOptions tune logger initialization.
type LoggerOptions struct {
	// ServiceName names the log file and is attached as the "service" field.
	ServiceName string
	// Output defaults to os.Stdout.
	Output io.Writer
	// FileConfig overrides TRACING_LOG_FILE_DIR; nil and no dir means no file.
	FileConfig *LogFileConfig
	// AddContainerHook tags entries with the container id.
	AddContainerHook bool
}

// traceHook copies span correlation ids from the entry context, so that
// log.WithContext(ctx) is enough to correlate a line with its trace.
type traceHook struct{}

func (traceHook) Levels() []log.Level { return log.AllLevels }

func (traceHook) Fire(entry *log.Entry) error {
	if entry.Context == nil {
		return nil
	}
	for k, v := range logger.SpanFields(entry.Context) {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}

// serviceHook tags every entry with the service name.
type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []log.Level { return log.AllLevels }

func (h serviceHook) Fire(entry *log.Entry) error {
	entry.Data["service"] = h.service
	return nil
}

// containerHook tags entries with the container id.
type containerHook struct {
	containerID string
}

func (h *containerHook) Levels() []log.Level { return log.AllLevels }

func (h *containerHook) Fire(entry *log.Entry) error {
	entry.Data["container_id"] = h.containerID
	return nil
}

// Frames of these packages are never reported as the caller.
var callerSkipPrefixes = []string{
	"github.com/sirupsen/logrus.",
	"github.com/Goden-Gun/balthazar/pkg/logger.",
}

// callerHook points entry.Caller past the pkg/logger facade, which logrus
// would otherwise report for every package-level call.
type callerHook struct{}

func (callerHook) Levels() []log.Level { return log.AllLevels }

func (callerHook) Fire(entry *log.Entry) error {
	if !entry.HasCaller() {
		return nil
	}
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	inLogrus := false
	for {
		frame, more := frames.Next()
		skipped := hasAnyPrefix(frame.Function, callerSkipPrefixes)
		if skipped {
			inLogrus = true
		} else if inLogrus {
			entry.Caller = &frame
			return nil
		}
		if !more {
			return nil
		}
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// detectContainerID falls back to "unknown" when no hostname is found.
func detectContainerID() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	if data, err := os.ReadFile("/etc/hostname"); err == nil {
		if hostname := strings.TrimSpace(string(data)); hostname != "" {
			return hostname
		}
	}
	return "unknown"
}

// Formatter returns the logrus formatter for a log format. Color is
// suppressed when noColor is set.
func Formatter(format config.LogFormat, noColor bool) log.Formatter {
	switch format {
	case config.FormatJSON, config.FormatJSONPretty:
		return &log.JSONFormatter{
			TimestampFormat: jsonTimestampFormat,
			DataKey:         "fields",
			FieldMap: log.FieldMap{
				log.FieldKeyTime: "timestamp",
				log.FieldKeyMsg:  "message",
			},
			PrettyPrint: format == config.FormatJSONPretty,
		}
	case config.FormatText:
		return &log.TextFormatter{
			DisableColors: noColor,
			FullTimestamp: true,
		}
	default:
		return &log.TextFormatter{
			ForceColors:     !noColor,
			DisableColors:   noColor,
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			PadLevelText:    true,
		}
	}
}

// NewLogger builds a logger from the core and tracing sections.
func NewLogger(core config.CoreConfig, tracing config.TracingConfig, opts LoggerOptions) (*log.Logger, error) {
	l := log.New()
	if err := configureLogger(l, core, tracing, opts); err != nil {
		return nil, err
	}
	return l, nil
}

// InitLogger configures the logrus standard logger, which pkg/logger
// fronts, and returns it.
func InitLogger(core config.CoreConfig, tracing config.TracingConfig, opts LoggerOptions) (*log.Logger, error) {
	l := log.StandardLogger()
	if err := configureLogger(l, core, tracing, opts); err != nil {
		return nil, err
	}
	return l, nil
}

func configureLogger(l *log.Logger, core config.CoreConfig, tracing config.TracingConfig, opts LoggerOptions) error {
	lvl, err := log.ParseLevel(tracing.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	l.SetLevel(lvl)
	l.SetFormatter(Formatter(tracing.Format, core.NoColor))
	// text-pretty and json-pretty carry file and line.
	reportCaller := tracing.Format == config.FormatTextPretty || tracing.Format == config.FormatJSONPretty
	l.SetReportCaller(reportCaller)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	fileCfg := opts.FileConfig
	if fileCfg == nil && tracing.LogFileDir != "" {
		fileCfg = &LogFileConfig{Dir: tracing.LogFileDir}
	}
	if fileCfg != nil {
		writer, err := fileWriter(fileCfg, opts.ServiceName)
		if err != nil {
			return err
		}
		out = io.MultiWriter(out, writer)
	}
	l.SetOutput(out)

	l.ReplaceHooks(make(log.LevelHooks))
	l.AddHook(traceHook{})
	if reportCaller {
		l.AddHook(callerHook{})
	}
	if opts.ServiceName != "" {
		l.AddHook(serviceHook{service: opts.ServiceName})
	}
	if opts.AddContainerHook {
		l.AddHook(&containerHook{containerID: detectContainerID()})
	}
	return nil
}

// fileWriter opens the daily rotating log file.
func fileWriter(fileCfg *LogFileConfig, serviceName string) (io.Writer, error) {
	logDir := fileCfg.Dir
	if logDir == "" {
		logDir = "./logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", logDir, err)
	}

	filename := fileCfg.Filename
	if filename == "" {
		filename = serviceName
	}
	if filename == "" {
		filename = "app"
	}
	maxAge := fileCfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 7
	}
	rotationDays := fileCfg.RotationDays
	if rotationDays <= 0 {
		rotationDays = 1
	}

	writer, err := rotatelogs.New(
		filepath.Join(logDir, filename+".%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(logDir, filename+".log")),
		rotatelogs.WithMaxAge(time.Duration(maxAge)*24*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(rotationDays)*24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("open rotating log file: %w", err)
	}
	return writer, nil
}

// componentEntry returns an entry tagged with a bootstrap component name.
func componentEntry(ctx context.Context, l *log.Logger, component string) *log.Entry {
	if l == nil {
		l = log.StandardLogger()
	}
	return l.WithContext(ctx).WithField("component", component)
}
