package domain

// Modality is one evidence channel feeding the compatibility engine.
type Modality string

// Modality constants.
const (
	// ModalityText covers free-text self-descriptions.
	ModalityText Modality = "text"
	// ModalityImage covers living-space and profile photos.
	ModalityImage Modality = "image"
	// ModalityPreference covers structured lifestyle preferences.
	ModalityPreference Modality = "preference"
)

// Modalities returns all modalities in declared priority order.
// The order is load-bearing: explanation tie-breaks and map iteration
// in the engine follow it.
func Modalities() []Modality {
	return []Modality{ModalityText, ModalityImage, ModalityPreference}
}

// Valid reports whether m is a known modality.
func (m Modality) Valid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityPreference:
		return true
	}
	return false
}

// Priority returns the tie-break rank of the modality (lower wins).
// Unknown modalities sort last.
func (m Modality) Priority() int {
	for i, known := range Modalities() {
		if m == known {
			return i
		}
	}
	return len(Modalities())
}
