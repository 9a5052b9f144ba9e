package signal

// Observation is the raw output of one analyzer run over one input item
// (a single photo, one description). Observations for the same
// subject/modality are reduced into a Bundle by the aggregator.
type Observation struct {
	features   map[string]Value
	confidence float64
}

// NewObservation creates an observation. The feature map is copied and
// confidence is clamped to [0,1].
func NewObservation(features map[string]Value, confidence float64) Observation {
	copied := make(map[string]Value, len(features))
	for k, v := range features {
		copied[k] = v
	}
	return Observation{features: copied, confidence: clamp01(confidence)}
}

// Feature returns the named feature value.
func (o *Observation) Feature(name string) (Value, bool) {
	v, ok := o.features[name]
	return v, ok
}

// Features returns a copy of the feature map.
func (o *Observation) Features() map[string]Value {
	out := make(map[string]Value, len(o.features))
	for k, v := range o.features {
		out[k] = v
	}
	return out
}

// Confidence returns the analyzer's confidence in this observation.
func (o *Observation) Confidence() float64 { return o.confidence }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
