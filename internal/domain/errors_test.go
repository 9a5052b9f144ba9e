package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestAnalysisFailureUnwrap(t *testing.T) {
	cause := errors.New("rate limited")
	err := NewAnalysisFailure(ModalityImage, "user-7", cause)

	if !errors.Is(err, ErrAnalysisFailed) {
		t.Error("expected errors.Is(err, ErrAnalysisFailed)")
	}

	var failure *AnalysisFailure
	if !errors.As(err, &failure) {
		t.Fatal("expected errors.As to find AnalysisFailure")
	}
	if failure.Modality != ModalityImage {
		t.Errorf("expected modality image, got %s", failure.Modality)
	}
	if failure.SubjectID != "user-7" {
		t.Errorf("expected subject user-7, got %s", failure.SubjectID)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestModalityValid(t *testing.T) {
	for _, m := range Modalities() {
		if !m.Valid() {
			t.Errorf("expected %s to be valid", m)
		}
	}
	if Modality("audio").Valid() {
		t.Error("expected audio to be invalid")
	}
}

func TestModalityPriority(t *testing.T) {
	if ModalityText.Priority() != 0 {
		t.Errorf("expected text priority 0, got %d", ModalityText.Priority())
	}
	if ModalityPreference.Priority() != 2 {
		t.Errorf("expected preference priority 2, got %d", ModalityPreference.Priority())
	}
	if Modality("audio").Priority() != len(Modalities()) {
		t.Error("expected unknown modality to sort last")
	}
}
