package logger

import (
	"io"
	"log/slog"
	"os"
)

var Log *slog.Logger

func init() {
	// Usable before Init for early startup errors.
	Log = slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the global logger. Output goes to stderr so it never
// corrupts the TUI on stdout; logFile adds a second sink when non-empty.
func Init(level string, logFile string) error {
	logLevel := parseLevel(level)

	var writers []io.Writer
	writers = append(writers, os.Stderr)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}

	multiWriter := io.MultiWriter(writers...)

	handler := slog.NewTextHandler(multiWriter, &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Shorten time format
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("15:04:05"))
			}
			return a
		},
	})

	Log = slog.New(handler)
	slog.SetDefault(Log)

	return nil
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Component is a view of the global logger tagged with a component attribute.
// It resolves Log on every call so a package-level `var log = logger.Named(...)`
// picks up Init.
type Component struct {
	name string
}

func Named(name string) Component {
	return Component{name: name}
}

func (c Component) log(fn func(string, ...any), msg string, args ...any) {
	fn(msg, append([]any{"component", c.name}, args...)...)
}

func (c Component) Debug(msg string, args ...any) { c.log(Log.Debug, msg, args...) }
func (c Component) Info(msg string, args ...any)  { c.log(Log.Info, msg, args...) }
func (c Component) Warn(msg string, args ...any)  { c.log(Log.Warn, msg, args...) }
func (c Component) Error(msg string, args ...any) { c.log(Log.Error, msg, args...) }
