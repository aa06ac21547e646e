package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// logrusLevelMap translates logrus severities onto the pipeline's.
var logrusLevelMap = map[logrus.Level]Level{
	logrus.TraceLevel: LevelTrace,
	logrus.DebugLevel: LevelDebug,
	logrus.InfoLevel:  LevelInfo,
	logrus.WarnLevel:  LevelWarning,
	logrus.ErrorLevel: LevelError,
	logrus.FatalLevel: LevelCritical,
	logrus.PanicLevel: LevelCritical,
}

// PipelineHook is a logrus hook that folds a diagnostic logger's
// entries into the foundation pipeline, so subsystems that log through
// logrus (circuit breaker, config reloader, secret resolver) share one
// sink with the structured pipeline.
type PipelineHook struct {
	// LoggerName is the pipeline logger the entries appear under.
	LoggerName string
}

func (h *PipelineHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *PipelineHook) Fire(entry *logrus.Entry) error {
	level, ok := logrusLevelMap[entry.Level]
	if !ok {
		level = LevelInfo
	}
	fields := make(map[string]any, len(entry.Data))
	var cause error
	for k, v := range entry.Data {
		if k == logrus.ErrorKey {
			if err, isErr := v.(error); isErr {
				cause = err
				continue
			}
		}
		fields[k] = v
	}
	name := h.LoggerName
	if name == "" {
		name = "foundation.diagnostic"
	}
	Emit(name, level, entry.Message, fields, cause, entry.Time)
	return nil
}

// NewDiagnosticLogger returns a *logrus.Logger whose output is folded
// into the pipeline via PipelineHook. Its own writer is discarded so
// entries are not double-printed.
func NewDiagnosticLogger(loggerName string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.TraceLevel)
	l.AddHook(&PipelineHook{LoggerName: loggerName})
	return l
}
