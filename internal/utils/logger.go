package utils

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// GetLogger returns the process-wide JSON logger. LOG_LEVEL sets the level.
func GetLogger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetLevel(levelFromEnv())
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
		logger.SetOutput(os.Stdout)
	})
	return logger
}

// NewConsoleLogger is used by the CLI, where stdout carries the report.
func NewConsoleLogger(out io.Writer, verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(levelFromEnv())
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

func levelFromEnv() logrus.Level {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return logLevel
}
