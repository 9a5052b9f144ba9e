package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientSignal signals that two subjects share no comparable modality.
	ErrInsufficientSignal = errors.New("insufficient signal: no shared modality")
	// ErrSchemaMismatch signals a bundle whose features violate its modality schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrUnknownModality signals a modality outside the closed set.
	ErrUnknownModality = errors.New("unknown modality")
	// ErrAnalysisFailed signals that one modality's raw analysis could not be produced.
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrAnalyzerUnavailable signals a missing or unhealthy analyzer backend.
	ErrAnalyzerUnavailable = errors.New("analyzer unavailable")
	// ErrInvalidInput signals malformed subject input.
	ErrInvalidInput = errors.New("invalid input")
)

// AnalysisFailure wraps ErrAnalysisFailed with the modality and subject
// whose raw analysis failed. Recovered locally: the pipeline treats the
// failed item as absent, never as a zero score.
type AnalysisFailure struct {
	Modality  Modality
	SubjectID string
	Cause     error
}

func (e *AnalysisFailure) Error() string {
	return fmt.Sprintf("%s: %s analysis for subject %q: %v",
		ErrAnalysisFailed.Error(), e.Modality, e.SubjectID, e.Cause)
}

func (e *AnalysisFailure) Unwrap() error { return ErrAnalysisFailed }

// NewAnalysisFailure creates an analysis failure error.
func NewAnalysisFailure(m Modality, subjectID string, cause error) error {
	return &AnalysisFailure{Modality: m, SubjectID: subjectID, Cause: cause}
}
