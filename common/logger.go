package common

import (
	"github.com/sirupsen/logrus"
)

type LogLevel uint32

const (
	DEBUG_INFO_DETAIL LogLevel = 1
	DEBUG_INFO        LogLevel = 2
	DEBUGGING         LogLevel = 4
	INFO              LogLevel = 8
	WARN              LogLevel = 16
	ERROR             LogLevel = 32
	FATAL             LogLevel = 64
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	l.SetLevel(logrus.DebugLevel)
	return l
}

// Logger returns the process-wide component logger for callers that want
// structured fields.
func Logger() *logrus.Logger {
	return logger
}

// ShPrintf emits a printf-style message when logLevel is at or above the
// configured LogLevelSetting. Storage components use this for cache-in/out
// traces and flush diagnostics.
func ShPrintf(logLevel LogLevel, format string, a ...interface{}) {
	if logLevel < LogLevelSetting {
		return
	}
	switch {
	case logLevel >= FATAL:
		logger.Fatalf(format, a...)
	case logLevel >= ERROR:
		logger.Errorf(format, a...)
	case logLevel >= WARN:
		logger.Warnf(format, a...)
	case logLevel >= INFO:
		logger.Infof(format, a...)
	default:
		logger.Debugf(format, a...)
	}
}
