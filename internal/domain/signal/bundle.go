package signal

import "github.com/homies-app/matchsvc/internal/domain"

// Bundle is the normalized per-subject, per-modality signal handed to the
// compatibility engine. Immutable once produced; the engine only reads it.
type Bundle struct {
	modality   domain.Modality
	subjectID  string
	features   map[string]Value
	confidence float64
}

// NewBundle creates a bundle. The feature map is copied and confidence
// is clamped to [0,1]. Schema conformance is checked by the schema
// package, not here.
func NewBundle(
	m domain.Modality, subjectID string,
	features map[string]Value, confidence float64,
) Bundle {
	copied := make(map[string]Value, len(features))
	for k, v := range features {
		copied[k] = v
	}
	return Bundle{
		modality:   m,
		subjectID:  subjectID,
		features:   copied,
		confidence: clamp01(confidence),
	}
}

// Modality returns the evidence channel this bundle belongs to.
func (b *Bundle) Modality() domain.Modality { return b.modality }

// SubjectID returns the subject the bundle describes.
func (b *Bundle) SubjectID() string { return b.subjectID }

// Feature returns the named feature value.
func (b *Bundle) Feature(name string) (Value, bool) {
	v, ok := b.features[name]
	return v, ok
}

// Features returns a copy of the feature map.
func (b *Bundle) Features() map[string]Value {
	out := make(map[string]Value, len(b.features))
	for k, v := range b.features {
		out[k] = v
	}
	return out
}

// Confidence returns how much evidence backs this bundle.
func (b *Bundle) Confidence() float64 { return b.confidence }
