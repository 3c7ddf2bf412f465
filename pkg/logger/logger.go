package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance
func New(level string) *Logger {
	log := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	// Set output format
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	// Set output destination
	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// WithFields creates a new logger entry with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithField creates a new logger entry with a single field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError creates a new logger entry with an error field
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithUserID creates a new logger entry with user ID field
func (l *Logger) WithUserID(userID string) *logrus.Entry {
	return l.Logger.WithField("user_id", userID)
}

// WithRequestID creates a new logger entry with request ID field
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.Logger.WithField("request_id", requestID)
}

// WithComponent creates a new logger entry with component name field
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// Audit logs audit events with structured format
func (l *Logger) Audit(userID, action, resource string, success bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"audit":    true,
		"user_id":  userID,
		"action":   action,
		"resource": resource,
		"success":  success,
		"details":  details,
	})

	if success {
		entry.Info("Audit event")
	} else {
		entry.Warn("Audit event failed")
	}
}

// Security logs security-related events
func (l *Logger) Security(event string, userID string, details map[string]interface{}) {
	l.Logger.WithFields(logrus.Fields{
		"security": true,
		"event":    event,
		"user_id":  userID,
		"details":  details,
	}).Warn("Security event")
}

// HTTPRequest logs HTTP request events
func (l *Logger) HTTPRequest(method, path, clientIP string, statusCode int, duration int64) {
	entry := l.Logger.WithFields(logrus.Fields{
		"http_request": true,
		"method":       method,
		"path":         path,
		"client_ip":    clientIP,
		"status_code":  statusCode,
		"duration_ms":  duration,
	})

	if statusCode >= 400 {
		entry.Warn("HTTP request completed with error")
	} else {
		entry.Info("HTTP request completed")
	}
}
