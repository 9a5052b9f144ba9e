// Package signal holds the normalized analyzer output model: feature
// values, per-item observations, and per-modality bundles.
package signal

// Kind is the value type of a feature.
type Kind int

// Feature value kinds. The set is closed: every feature in a modality
// schema is exactly one of these, and similarity math dispatches on it.
const (
	// KindNumeric is a float feature (e.g. sentiment score).
	KindNumeric Kind = iota
	// KindCategorical is a single-label feature (e.g. cleanliness preference).
	KindCategorical
	// KindSet is a multi-label feature (e.g. detected keywords).
	KindSet
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged union of the three feature value kinds.
type Value struct {
	kind Kind
	num  float64
	cat  string
	set  []string
}

// Number creates a numeric value.
func Number(v float64) Value {
	return Value{kind: KindNumeric, num: v}
}

// Category creates a categorical value.
func Category(v string) Value {
	return Value{kind: KindCategorical, cat: v}
}

// NewSet creates a set value. Duplicates are dropped keeping first-seen
// order, so set values compare independently of producer repetition.
func NewSet(items ...string) Value {
	seen := make(map[string]bool, len(items))
	dedup := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		dedup = append(dedup, it)
	}
	return Value{kind: KindSet, set: dedup}
}

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// Number returns the numeric payload. Zero for non-numeric values.
func (v Value) Number() float64 { return v.num }

// Category returns the categorical payload. Empty for non-categorical values.
func (v Value) Category() string { return v.cat }

// Set returns a copy of the set payload. Nil for non-set values.
func (v Value) Set() []string {
	if v.set == nil {
		return nil
	}
	out := make([]string, len(v.set))
	copy(out, v.set)
	return out
}
