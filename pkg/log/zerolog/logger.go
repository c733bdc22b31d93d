// SPDX-License-Identifier: Apache-2.0

package zerolog

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	loglib "github.com/xataio/tabprep/pkg/log"
)

// Logger adapts a zerolog logger to the loglib.Logger interface.
type Logger struct {
	zerologger *zerolog.Logger
	fields     loglib.Fields
}

// byte values longer than this are truncated, since a full cell dump makes
// the entry unreadable
const logMaxBytes = 10000

func NewLogger(zl *zerolog.Logger) *Logger {
	return &Logger{
		zerologger: zl,
	}
}

func (l *Logger) Trace(msg string, fields ...loglib.Fields) {
	l.send(l.zerologger.Trace(), msg, fields)
}

func (l *Logger) Debug(msg string, fields ...loglib.Fields) {
	l.send(l.zerologger.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...loglib.Fields) {
	l.send(l.zerologger.Info(), msg, fields)
}

func (l *Logger) Warn(err error, msg string, fields ...loglib.Fields) {
	l.send(l.zerologger.Warn().Err(err), msg, fields)
}

func (l *Logger) Error(err error, msg string, fields ...loglib.Fields) {
	l.send(l.zerologger.Error().Err(err), msg, fields)
}

func (l *Logger) Panic(msg string, fields ...loglib.Fields) {
	l.send(l.zerologger.Panic(), msg, fields)
}

func (l *Logger) WithFields(fields loglib.Fields) loglib.Logger {
	return &Logger{
		zerologger: l.zerologger,
		fields:     loglib.MergeFields(l.fields, fields),
	}
}

// send adds the call fields and then the logger fields to the event, so the
// logger fields win on key collisions.
func (l *Logger) send(event *zerolog.Event, msg string, fields []loglib.Fields) {
	// disabled level
	if event == nil {
		return
	}
	for _, f := range fields {
		event = withFields(event, f)
	}
	withFields(event, l.fields).Msg(msg)
}

func withFields(event *zerolog.Event, fields loglib.Fields) *zerolog.Event {
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		case []byte:
			if len(v) > logMaxBytes {
				v = v[:logMaxBytes]
			}
			event = event.Bytes(key, v)
		case time.Time:
			event = event.Time(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		case []string:
			event = event.Strs(key, v)
		case []float64:
			event = event.Floats64(key, v)
		case error:
			event = event.AnErr(key, v)
		case fmt.Stringer:
			event = event.Stringer(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	return event
}
