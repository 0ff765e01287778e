package log

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

// Logger is the process logger, a thin adapter over zap.
type Logger struct {
	zap   *zap.Logger
	level zap.AtomicLevel
}

// Options configures Build.
type Options struct {
	Level Level
	// Format is "json" or "console". Empty means json.
	Format string
	// Output lists zap sink URLs or paths. Empty means stderr.
	Output []string
}

// Build creates a Logger from opts.
func Build(opts Options) (*Logger, error) {
	level := zap.NewAtomicLevelAt(toZapLevel(opts.Level))

	cfg := zap.Config{
		Level:            level,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      opts.Output,
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	switch opts.Format {
	case "", "json":
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	case "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stderr"}
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{zap: z, level: level}, nil
}

// New builds a JSON logger writing to stderr. It panics if zap cannot open
// stderr.
func New(level Level) *Logger {
	l, err := Build(Options{Level: level})
	if err != nil {
		panic(err)
	}
	return l
}

// NewWithCore wraps an existing zap core.
func NewWithCore(core zapcore.Core, level Level) *Logger {
	return &Logger{
		zap:   zap.New(core),
		level: zap.NewAtomicLevelAt(toZapLevel(level)),
	}
}

func (l *Logger) Log(level Level, msg string, fields ...Field) {
	if level == LevelSilent || !l.level.Enabled(toZapLevel(level)) {
		return
	}
	l.zap.Log(toZapLevel(level), msg, toZapFields(fields)...)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.Log(LevelDebug, msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.Log(LevelInfo, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.Log(LevelWarn, msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.Log(LevelError, msg, fields...) }

// With returns a child sharing the level of l.
func (l *Logger) With(fields ...Field) Log {
	return &Logger{zap: l.zap.With(toZapFields(fields)...), level: l.level}
}

func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(toZapLevel(level))
}

func (l *Logger) GetLevel() Level {
	for lvl := range levelNames {
		if toZapLevel(lvl) == l.level.Level() {
			return lvl
		}
	}
	return LevelInfo
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

var zapLevels = map[Level]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
	// Above every level zap emits.
	LevelSilent: zapcore.FatalLevel + 1,
}

func toZapLevel(level Level) zapcore.Level {
	if z, ok := zapLevels[level]; ok {
		return z
	}
	return zapcore.InfoLevel
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case DurationType:
			out[i] = zap.Duration(f.Key, f.Value.(time.Duration))
		case Float32Type:
			out[i] = zap.Float32(f.Key, f.Value.(float32))
		case IntType:
			out[i] = zap.Int(f.Key, f.Value.(int))
		case StringType:
			out[i] = zap.String(f.Key, f.Value.(string))
		case ErrorType:
			err, _ := f.Value.(error)
			out[i] = zap.NamedError(f.Key, err)
		default:
			out[i] = zap.Any(f.Key, f.Value)
		}
	}
	return out
}
