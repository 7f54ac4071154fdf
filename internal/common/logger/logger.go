package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// base is shared by every service logger so level and output are set once.
var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})
	return l
}

// SetLevel accepts logrus level names; unknown names leave the level alone.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	base.SetLevel(lvl)
	return nil
}

func SetOutput(w io.Writer) { base.SetOutput(w) }

type Logger struct {
	service string
	fields  logrus.Fields
}

func New(service string) *Logger { return &Logger{service: service} }

// With returns a copy that adds fields to every entry, e.g. a request id.
func (l *Logger) With(fields map[string]any) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{service: l.service, fields: merged}
}

func (l *Logger) entry(action string, fields map[string]any) *logrus.Entry {
	e := base.WithFields(logrus.Fields{
		"service":    l.service,
		"action":     action,
		"hostname":   hostname(),
		"request_id": "",
	})
	if len(l.fields) > 0 {
		e = e.WithFields(l.fields)
	}
	if len(fields) > 0 {
		e = e.WithFields(fields)
	}
	return e
}

func (l *Logger) Info(action string, fields map[string]any)  { l.entry(action, fields).Info(action) }
func (l *Logger) Debug(action string, fields map[string]any) { l.entry(action, fields).Debug(action) }
func (l *Logger) Warn(action string, fields map[string]any)  { l.entry(action, fields).Warn(action) }
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.entry(action, fields).WithError(err).Error(action)
}

func hostname() string { h, _ := os.Hostname(); return h }
