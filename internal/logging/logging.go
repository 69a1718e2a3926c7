package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	Verbose bool
	Debug   bool

	// File receives every message without color when non-nil.
	File io.Writer
}

func (l Logger) Infof(msg string, args ...any) {
	l.record("info", msg, args...)
	if l.Verbose || l.Debug {
		fmt.Fprintf(os.Stdout, color.GreenString("[info] ")+msg+"\n", args...)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	l.record("debug", msg, args...)
	if l.Debug {
		fmt.Fprintf(os.Stdout, color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

func (l Logger) Warnf(msg string, args ...any) {
	l.record("warn", msg, args...)
	fmt.Fprintf(os.Stderr, color.YellowString("[warn] ")+msg+"\n", args...)
}

func (l Logger) Errorf(msg string, args ...any) {
	l.record("error", msg, args...)
	fmt.Fprintf(os.Stderr, color.RedString("[error] ")+msg+"\n", args...)
}

// ErrorfAndReturn logs the message as an error and returns it as an error value.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	l.Errorf(msg, args...)
	return fmt.Errorf(msg, args...)
}

func (l Logger) record(level, msg string, args ...any) {
	if l.File == nil {
		return
	}
	line := fmt.Sprintf(msg, args...)
	line = strings.TrimRight(line, "\n")
	fmt.Fprintf(l.File, "%s [%s] %s\n", time.Now().Format(time.RFC3339), level, line)
}

// NewFileSink returns a size-rotated log file writer. maxSizeMB and maxBackups
// fall back to lumberjack defaults when zero.
func NewFileSink(path string, maxSizeMB, maxBackups int) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		LocalTime:  true,
	}
}
