// Package logging wraps logrus behind a small package-level API so every
// component logs through the same rotated, structured sink.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// Init configures the shared logger: text output to stdout plus a rotated
// file. Safe to call more than once; only the first call takes effect.
func Init(logFile string) {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

		if logFile != "" {
			rotator := &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    50, // megabytes
				MaxBackups: 3,
				MaxAge:     7, // days
				Compress:   true,
			}
			logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
		} else {
			logger.SetOutput(os.Stdout)
		}
	})
}

func get() *logrus.Logger {
	if logger == nil {
		// Tests and early startup paths may log before Init runs.
		Init("")
	}
	return logger
}

// Info logs at info level with optional structured fields.
func Info(message string, fields logrus.Fields) {
	get().WithFields(fields).Info(message)
}

// Warn logs at warning level with optional structured fields.
func Warn(message string, fields logrus.Fields) {
	get().WithFields(fields).Warn(message)
}

// Error logs at error level with optional structured fields.
func Error(message string, fields logrus.Fields) {
	get().WithFields(fields).Error(message)
}
