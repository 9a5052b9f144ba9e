// Package bundlecache caches aggregated signal bundles in a key-value
// store so re-matching the same subject skips the analyzer calls.
package bundlecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/homies-app/matchsvc/internal/db"
	"github.com/homies-app/matchsvc/internal/domain"
	"github.com/homies-app/matchsvc/internal/domain/schema"
	"github.com/homies-app/matchsvc/internal/domain/signal"
)

const cacheKeyPrefix = "matchsvc:bundle:"

// store is the consumer interface for the bundle cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores aggregated bundles keyed by subject, modality, and a
// fingerprint of the raw evidence. Failures degrade to a miss; the cache
// never fails a request.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a bundle cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached bundle for the subject/modality and raw
// evidence, if any.
func (c *Cache) Get(
	ctx context.Context, subjectID string, m domain.Modality, items []domain.Evidence,
) (signal.Bundle, bool) {
	key := c.key(subjectID, m, Fingerprint(items))

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("failed to get cached bundle", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return signal.Bundle{}, false
	}

	bundle, err := decodeBundle(data)
	if err != nil {
		c.logger.Warn("failed to decode cached bundle", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return signal.Bundle{}, false
	}
	if bundle.Modality() != m || bundle.SubjectID() != subjectID {
		c.incCache("miss")
		return signal.Bundle{}, false
	}
	// A stale entry written under an older schema must not reach the engine.
	if err := schema.ValidateBundle(&bundle); err != nil {
		c.incCache("miss")
		return signal.Bundle{}, false
	}

	c.incCache("hit")
	return bundle, true
}

// Put stores a bundle under the evidence fingerprint. Write failures are
// logged and swallowed.
func (c *Cache) Put(ctx context.Context, bundle signal.Bundle, items []domain.Evidence) {
	key := c.key(bundle.SubjectID(), bundle.Modality(), Fingerprint(items))

	data, err := encodeBundle(&bundle)
	if err != nil {
		c.logger.Warn("failed to encode bundle for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("failed to cache bundle", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) key(subjectID string, m domain.Modality, fingerprint string) string {
	h := sha256.Sum256([]byte(subjectID + "\x00" + fingerprint))
	return cacheKeyPrefix + string(m) + ":" + hex.EncodeToString(h[:])
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// Fingerprint digests raw evidence items into a cache key component.
// Item digests are sorted before hashing so reordered evidence hits the
// same entry, matching the aggregator's order independence.
func Fingerprint(items []domain.Evidence) string {
	digests := make([]string, 0, len(items))
	for _, ev := range items {
		h := sha256.New()
		h.Write([]byte(ev.Text))
		h.Write([]byte{0})
		h.Write([]byte(ev.ImageURL))
		h.Write([]byte{0})
		if ev.Preferences != nil {
			data, _ := json.Marshal(prefsFingerprint(ev.Preferences))
			h.Write(data)
		}
		digests = append(digests, hex.EncodeToString(h.Sum(nil)))
	}
	sort.Strings(digests)

	h := sha256.New()
	for _, d := range digests {
		h.Write([]byte(d))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type prefsDTO struct {
	Interests      []string `json:"interests"`
	Lifestyle      string   `json:"lifestyle"`
	NoiseTolerance float64  `json:"noise_tolerance"`
}

func prefsFingerprint(p *domain.Preferences) prefsDTO {
	interests := make([]string, len(p.Interests))
	copy(interests, p.Interests)
	sort.Strings(interests)
	return prefsDTO{Interests: interests, Lifestyle: p.Lifestyle, NoiseTolerance: p.NoiseTolerance}
}

// bundleDTO is the stored representation of a bundle.
type bundleDTO struct {
	Modality   string                `json:"modality"`
	SubjectID  string                `json:"subject_id"`
	Features   map[string]featureDTO `json:"features"`
	Confidence float64               `json:"confidence"`
}

type featureDTO struct {
	Kind string   `json:"kind"`
	Num  float64  `json:"num,omitempty"`
	Cat  string   `json:"cat,omitempty"`
	Set  []string `json:"set,omitempty"`
}

func encodeBundle(b *signal.Bundle) ([]byte, error) {
	features := make(map[string]featureDTO, len(b.Features()))
	for name, v := range b.Features() {
		dto := featureDTO{Kind: v.Kind().String()}
		switch v.Kind() {
		case signal.KindNumeric:
			dto.Num = v.Number()
		case signal.KindCategorical:
			dto.Cat = v.Category()
		case signal.KindSet:
			dto.Set = v.Set()
		}
		features[name] = dto
	}
	return json.Marshal(bundleDTO{
		Modality:   string(b.Modality()),
		SubjectID:  b.SubjectID(),
		Features:   features,
		Confidence: b.Confidence(),
	})
}

func decodeBundle(data []byte) (signal.Bundle, error) {
	var dto bundleDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return signal.Bundle{}, err
	}
	features := make(map[string]signal.Value, len(dto.Features))
	for name, f := range dto.Features {
		switch f.Kind {
		case signal.KindNumeric.String():
			features[name] = signal.Number(f.Num)
		case signal.KindCategorical.String():
			features[name] = signal.Category(f.Cat)
		case signal.KindSet.String():
			features[name] = signal.NewSet(f.Set...)
		default:
			return signal.Bundle{}, errors.New("unknown feature kind " + f.Kind)
		}
	}
	bundle := signal.NewBundle(domain.Modality(dto.Modality), dto.SubjectID, features, dto.Confidence)
	return bundle, nil
}
