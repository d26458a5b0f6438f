package reports

import (
	"errors"

	"go.uber.org/zap"
)

// Degradable is a report payload that can carry a diagnostic error while
// keeping its documented shape.
type Degradable interface {
	SetError(msg string)
}

// Guard runs an assembler and, on failure, substitutes the report's empty
// default document annotated with the error. The dashboard keeps rendering
// with zeroed panels instead of receiving a transport-level failure.
// ErrNotFound passes through untouched: a missing entity is a distinct
// outcome, not a degraded report.
func Guard[T Degradable](logger *zap.Logger, report string, empty func() T, assemble func() (T, error)) (T, error) {
	doc, err := assemble()
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, ErrNotFound) {
		return doc, err
	}

	logger.Error("report assembly failed, returning degraded payload",
		zap.String("report", report),
		zap.Error(err))
	doc = empty()
	doc.SetError(err.Error())
	return doc, nil
}

// block runs one independently-defaulted sub-query of a report. A failure is
// logged and the block keeps its default value; sibling blocks are
// unaffected. The return value reports whether the block succeeded so the
// caller can mark a partially-degraded document.
func block(logger *zap.Logger, report, name string, fn func() error) bool {
	if err := fn(); err != nil {
		logger.Warn("report block failed, using default value",
			zap.String("report", report),
			zap.String("block", name),
			zap.Error(err))
		return false
	}
	return true
}
