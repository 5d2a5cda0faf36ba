// Package logger is a thin package-level facade over logrus so callers can
// log without threading a logger value through every component.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(logrus.InfoLevel)
}

// SetLevel sets the minimum level from a string such as "debug" or "warn".
// Unknown values leave the level unchanged.
func SetLevel(level string) {
	if level == "" {
		return
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warnf("unknown log level %q, keeping %s", level, log.GetLevel())
		return
	}
	log.SetLevel(parsed)
}

// WithField returns an entry carrying a structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

func Debug(v ...interface{})            { log.Debug(v...) }
func Debugf(f string, v ...interface{}) { log.Debugf(f, v...) }
func Info(v ...interface{})             { log.Info(v...) }
func Infof(f string, v ...interface{})  { log.Infof(f, v...) }
func Warn(v ...interface{})             { log.Warn(v...) }
func Warnf(f string, v ...interface{})  { log.Warnf(f, v...) }
func Error(v ...interface{})            { log.Error(v...) }
func Errorf(f string, v ...interface{}) { log.Errorf(f, v...) }
func Fatal(v ...interface{})            { log.Fatal(v...) }
func Fatalf(f string, v ...interface{}) { log.Fatalf(f, v...) }
