package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. Subloggers share the output
// and level of the logger from which they derive. It is safe for concurrent
// usage.
type Logger struct {
	// output is the underlying line logger.
	output *log.Logger
	// level is the maximum level that will be emitted.
	level Level
	// colorize indicates whether or not errors and warnings are colored.
	colorize bool
	// prefix is any prefix specified for the logger.
	prefix string
}

// NewLogger creates a new root logger that writes to the specified writer at
// the specified level. Colors are only used if the writer is a terminal.
func NewLogger(level Level, writer io.Writer) *Logger {
	colorize := false
	if file, ok := writer.(*os.File); ok {
		fd := file.Fd()
		colorize = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return &Logger{
		output:   log.New(writer, "", log.LstdFlags),
		level:    level,
		colorize: colorize,
	}
}

// Sublogger creates a new sublogger with the specified name.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	// Compute the new prefix.
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	// Create the new logger.
	return &Logger{
		output:   l.output,
		level:    l.level,
		colorize: l.colorize,
		prefix:   prefix,
	}
}

// Level returns the logger's level. A nil logger is always disabled.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

// Enabled indicates whether or not messages at the specified level will be
// emitted.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level != LevelDisabled && level <= l.level
}

// write is the internal logging method.
func (l *Logger) write(level Level, line string) {
	if !l.Enabled(level) {
		return
	}

	// Add a prefix if necessary.
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}

	// Colorize errors and warnings.
	if l.colorize {
		switch level {
		case LevelError:
			line = color.RedString("%s", line)
		case LevelWarn:
			line = color.YellowString("%s", line)
		}
	}

	// Log.
	l.output.Println(line)
}

// Error logs error information with an error prefix.
func (l *Logger) Error(err error) {
	l.write(LevelError, fmt.Sprintf("Error: %v", err))
}

// Errorf logs error information with semantics equivalent to fmt.Printf.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelError, fmt.Sprintf(format, v...))
}

// Warn logs error information with a warning prefix.
func (l *Logger) Warn(err error) {
	l.write(LevelWarn, fmt.Sprintf("Warning: %v", err))
}

// Warnf logs warning information with semantics equivalent to fmt.Printf.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelWarn, fmt.Sprintf(format, v...))
}

// Info logs information with semantics equivalent to fmt.Print.
func (l *Logger) Info(v ...interface{}) {
	l.write(LevelInfo, fmt.Sprint(v...))
}

// Infof logs information with semantics equivalent to fmt.Printf.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, v...))
}

// Debug logs information with semantics equivalent to fmt.Print, but only if
// debug logging is enabled.
func (l *Logger) Debug(v ...interface{}) {
	l.write(LevelDebug, fmt.Sprint(v...))
}

// Debugf logs information with semantics equivalent to fmt.Printf, but only if
// debug logging is enabled.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, fmt.Sprintf(format, v...))
}

// Trace logs information with semantics equivalent to fmt.Print, but only if
// trace logging is enabled.
func (l *Logger) Trace(v ...interface{}) {
	l.write(LevelTrace, fmt.Sprint(v...))
}

// Tracef logs information with semantics equivalent to fmt.Printf, but only if
// trace logging is enabled.
func (l *Logger) Tracef(format string, v ...interface{}) {
	l.write(LevelTrace, fmt.Sprintf(format, v...))
}
