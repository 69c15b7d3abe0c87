package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// SetupLogger installs a zerolog provider on stderr at the named level and
// routes library warnings through it.
func SetupLogger(loglevel string) error {
	return SetupLoggerTo(os.Stderr, loglevel)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	p := NewZerologProvider(w, level)
	SetProvider(p)

	zl := p.Zerolog().With().Str("logger", "warnings").Logger()
	scigoErrors.SetZerologWarnFunc(func(warning error) {
		ev := zl.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.Object("warning", obj)
		}
		ev.Msg(warning.Error())
	})
	return nil
}

// Output formats accepted by SetupLoggerFormat.
const (
	FormatJSON = "json"
	FormatSlog = "slog"
)

// SetupLoggerFormat installs the provider named by format on w: FormatJSON
// (or "") for zerolog, FormatSlog for log/slog with stack trace extraction.
// Library warnings are routed through the installed provider.
func SetupLoggerFormat(w io.Writer, loglevel, format string) error {
	switch format {
	case "", FormatJSON:
		return SetupLoggerTo(w, loglevel)
	case FormatSlog:
		level, err := ToLogLevel(loglevel)
		if err != nil {
			return err
		}
		p := NewSlogProvider(w, level)
		SetProvider(p)

		warnings := p.GetLoggerWithName("warnings")
		scigoErrors.SetZerologWarnFunc(nil)
		scigoErrors.SetWarningHandler(func(warning error) {
			warnings.Warn(warning.Error(), "warning", warning)
		})
		return nil
	default:
		return scigoErrors.NewValueError("SetupLoggerFormat", fmt.Sprintf("invalid log format: %s", format))
	}
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (Level, error) {
	switch level {
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, scigoErrors.NewValueError("ToLogLevel", fmt.Sprintf("invalid log level: %s", level))
	}
}

// ToSlogLevel converts a Level to its slog equivalent.
func ToSlogLevel(level Level) slog.Level {
	return slog.Level(level)
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
