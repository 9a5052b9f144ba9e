package domain

// Preferences is a subject's structured lifestyle questionnaire.
type Preferences struct {
	Interests      []string
	Lifestyle      string
	NoiseTolerance float64
}

// Evidence is one raw input item for a single analyzer run. Exactly one
// field is populated, matching the analyzer's modality.
type Evidence struct {
	Text        string
	ImageURL    string
	Preferences *Preferences
}

// SubjectProfile is all raw evidence supplied for one subject.
type SubjectProfile struct {
	Description string
	PhotoURLs   []string
	Preferences *Preferences
}
