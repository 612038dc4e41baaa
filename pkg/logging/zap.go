// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package logging builds the zap loggers used by smcctl and the SMC client packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/siderolabs/gen/xslices"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogDestination is a single sink of a tee logger.
type LogDestination struct {
	level  zapcore.LevelEnabler
	writer io.Writer
	config zapcore.EncoderConfig
	json   bool
}

// EncoderOption tweaks the encoder config of a destination.
type EncoderOption func(dest *LogDestination)

// WithoutTimestamp drops the time field.
func WithoutTimestamp() EncoderOption {
	return func(dest *LogDestination) {
		dest.config.EncodeTime = nil
	}
}

// WithoutLogLevels drops the level field.
func WithoutLogLevels() EncoderOption {
	return func(dest *LogDestination) {
		dest.config.EncodeLevel = nil
	}
}

// WithColoredLevels colors the level field for terminals.
func WithColoredLevels() EncoderOption {
	return func(dest *LogDestination) {
		dest.config.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
}

// WithJSONEncoding switches the destination to JSON lines.
func WithJSONEncoding() EncoderOption {
	return func(dest *LogDestination) {
		dest.json = true
		dest.config = zap.NewProductionEncoderConfig()
		dest.config.EncodeTime = zapcore.ISO8601TimeEncoder
	}
}

// NewLogDestination creates a console destination writing entries enabled by logLevel.
func NewLogDestination(writer io.Writer, logLevel zapcore.LevelEnabler, options ...EncoderOption) *LogDestination {
	dest := &LogDestination{
		level:  logLevel,
		writer: writer,
		config: zap.NewDevelopmentEncoderConfig(),
	}

	dest.config.ConsoleSeparator = " "
	dest.config.StacktraceKey = "error"

	for _, option := range options {
		option(dest)
	}

	return dest
}

func (dest *LogDestination) encoder() zapcore.Encoder {
	if dest.json {
		return zapcore.NewJSONEncoder(dest.config)
	}

	return zapcore.NewConsoleEncoder(dest.config)
}

// Wrap logs everything written at debug level and above to writer.
func Wrap(writer io.Writer) *zap.Logger {
	return ZapLogger(
		NewLogDestination(writer, zapcore.DebugLevel),
	)
}

// ZapLogger tees all destinations into one logger.
func ZapLogger(dests ...*LogDestination) *zap.Logger {
	if len(dests) == 0 {
		panic("at least one writer must be defined")
	}

	cores := xslices.Map(dests, func(dest *LogDestination) zapcore.Core {
		return zapcore.NewCore(
			dest.encoder(),
			zapcore.AddSync(dest.writer),
			dest.level,
		)
	})

	return zap.New(zapcore.NewTee(cores...))
}

// LevelForVerbosity maps the count of -v flags to a level.
//
// Zero keeps warnings and errors only, one enables info and two or more enable debug.
func LevelForVerbosity(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.WarnLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ParseFormat validates a log format name.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(format); f {
	case "console", "json":
		return f, nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}

// CLI builds the logger used by command line tools: leveled console output without timestamps,
// or JSON lines when format is "json". Levels are colored when writer is a terminal.
func CLI(writer io.Writer, verbosity int, format string) (*zap.Logger, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	var opts []EncoderOption

	if format == "json" {
		opts = append(opts, WithJSONEncoding())
	} else {
		opts = append(opts, WithoutTimestamp())

		if isTerminal(writer) {
			opts = append(opts, WithColoredLevels())
		}
	}

	return ZapLogger(NewLogDestination(writer, LevelForVerbosity(verbosity), opts...)), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Component helper for creating zap.Field.
func Component(name string) zapcore.Field {
	return zap.String("component", name)
}
