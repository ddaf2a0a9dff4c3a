// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int8

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in
	// production.
	DebugLevel Level = -1
	// InfoLevel is the default logging priority.
	InfoLevel Level = 0
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel Level = 1
	// ErrorLevel logs are high-priority. If an application is running smoothly,
	// it shouldn't generate any error-level logs.
	ErrorLevel Level = 2
)

var SupportedLevels = []string{"debug", "info", "warn", "error"}

func ParseLevel(l string) (Level, error) {
	switch strings.ToLower(l) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unsupported log level %q, expected one of %s", l, strings.Join(SupportedLevels, ", "))
	}
}

func (l Level) String() string {
	return zapcore.Level(l).String()
}

func (l Level) ZapLevel() zapcore.Level {
	return zapcore.Level(l)
}

// Logger wraps a zap logger and keeps track of its dotted name so that
// sub-loggers read "anchor.forks".
type Logger struct {
	*zap.Logger
	level *zap.AtomicLevel
	name  string
}

func (log *Logger) GetLevel() Level {
	return Level(log.level.Level())
}

func (log *Logger) SetLevel(level Level) {
	if log.level.Level() == level.ZapLevel() {
		return
	}
	log.level.SetLevel(level.ZapLevel())
}

func (log *Logger) GetName() string {
	return log.name
}

func (log *Logger) Named(name string) *Logger {
	newName := name
	if log.name != "" {
		newName = fmt.Sprintf("%s.%s", log.name, name)
	}
	return &Logger{
		Logger: log.Logger.Named(name),
		level:  log.level,
		name:   newName,
	}
}

func (log *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{
		Logger: log.Logger.With(fields...),
		level:  log.level,
		name:   log.name,
	}
}

// AtExit flushes buffered entries. Errors are dropped: stderr is usually the
// sink and it cannot be synced on every platform.
func (log *Logger) AtExit() {
	if log.Logger != nil {
		_ = log.Logger.Sync()
	}
}

func newLogger(encoder zapcore.Encoder, out io.Writer, level Level) *Logger {
	atom := zap.NewAtomicLevelAt(level.ZapLevel())
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), atom)
	return &Logger{
		Logger: zap.New(core),
		level:  &atom,
	}
}

// NewDevLogger writes human readable entries to out. This is the logger used
// by the command line in interactive mode.
func NewDevLogger(out io.Writer, level Level) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		CallerKey:      "C",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		LevelKey:       "L",
		LineEnding:     "\n",
		MessageKey:     "M",
		NameKey:        "N",
		TimeKey:        "T",
	}
	return newLogger(zapcore.NewConsoleEncoder(encoderConfig), out, level)
}

// NewProdLogger writes JSON entries to out.
func NewProdLogger(out io.Writer, level Level) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		LevelKey:       "level",
		LineEnding:     "\n",
		MessageKey:     "message",
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		TimeKey:        "@timestamp",
	}
	return newLogger(zapcore.NewJSONEncoder(encoderConfig), out, level)
}

func NewTestLogger() *Logger {
	return NewDevLogger(os.Stderr, DebugLevel)
}
