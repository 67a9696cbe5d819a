// Package logging configures the shared logrus logger used throughout the
// client: a custom line formatter carrying a request ID, optional rotation
// to disk via lumberjack, and JSON body redaction for request/response
// logging.
package logging

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Formatter renders one log entry per line:
//
//	[2026-07-31 10:04:12] [a1b2c3d4] [info ] [client.go:88] sending request
//
// matching the ambient logging style used throughout the request/response
// lifecycle of an HTTP client built on this package.
type Formatter struct{}

// renderedFields is the allow-list of structured fields the module's own
// call sites attach (session.go's "status" on a received response,
// logrus's own "error" from WithError on a failed one). Any other field
// attached via WithField is dropped rather than rendered ("request_id" has
// its own column), so an arbitrary caller-supplied field can't grow the
// line format unpredictably.
var renderedFields = []string{"status", "error"}

func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	var buf *bytes.Buffer
	if entry.Buffer != nil {
		buf = entry.Buffer
	} else {
		buf = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := strings.TrimRight(entry.Message, "\r\n")
	reqID := requestIDOf(entry)
	levelStr := fmt.Sprintf("%-5s", normalizeLevel(entry.Level.String()))
	fieldsStr := formatAllowedFields(entry.Data)

	if entry.Caller != nil {
		fmt.Fprintf(buf, "[%s] [%s] [%s] [%s:%d] %s%s\n",
			timestamp, reqID, levelStr, filepath.Base(entry.Caller.File), entry.Caller.Line, message, fieldsStr)
	} else {
		fmt.Fprintf(buf, "[%s] [%s] [%s] %s%s\n", timestamp, reqID, levelStr, message, fieldsStr)
	}

	return buf.Bytes(), nil
}

func requestIDOf(entry *log.Entry) string {
	if id, ok := entry.Data["request_id"].(string); ok && id != "" {
		return id
	}
	return "--------"
}

func normalizeLevel(level string) string {
	if level == "warning" {
		return "warn"
	}
	return level
}

func formatAllowedFields(data log.Fields) string {
	var fields []string
	for _, k := range renderedFields {
		if v, ok := data[k]; ok {
			fields = append(fields, fmt.Sprintf("%s=%v", k, v))
		}
	}
	if len(fields) == 0 {
		return ""
	}
	return " " + strings.Join(fields, " ")
}

var setupOnce sync.Once

// Setup installs Formatter and enables caller reporting on the shared
// logrus logger. Safe to call multiple times; only the first call takes
// effect.
func Setup() {
	setupOnce.Do(func() {
		log.SetReportCaller(true)
		log.SetFormatter(&Formatter{})
	})
}

// ToFile redirects the shared logger to a rotating file at path, keeping
// up to maxSizeMB per file and maxBackups old files.
func ToFile(path string, maxSizeMB, maxBackups int) {
	log.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	})
}

// WithRequestID returns a logrus entry prefilled with request_id, ready for
// use throughout a single request/response's lifecycle.
func WithRequestID(requestID string) *log.Entry {
	return log.WithField("request_id", requestID)
}
