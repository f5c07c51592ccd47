package http

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"soullab/internal/empathy"
	jsonx "soullab/internal/shared/json"
)

const (
	defaultAnswerCacheSize = 512
	defaultAnswerCacheTTL  = 10 * time.Minute
)

type answerCacheEntry struct {
	answer   empathy.Answer
	storedAt time.Time
}

// AnswerCache memoizes answers by request fingerprint. Answers are a pure
// function of the input and resolved seed, so a hit is indistinguishable
// from a rebuild.
type AnswerCache struct {
	cache *lru.Cache[string, answerCacheEntry]
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
}

// NewAnswerCache returns nil when size is not positive, which disables
// caching.
func NewAnswerCache(size int, ttl time.Duration) *AnswerCache {
	if size <= 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultAnswerCacheTTL
	}
	cache, err := lru.New[string, answerCacheEntry](size)
	if err != nil {
		// lru.New only errors on non-positive size which we guard above.
		return nil
	}
	return &AnswerCache{cache: cache, ttl: ttl, now: time.Now}
}

// Get returns a live entry for key.
func (c *AnswerCache) Get(key string) (empathy.Answer, bool) {
	if c == nil {
		return empathy.Answer{}, false
	}
	entry, ok := c.cache.Get(key)
	if !ok {
		return empathy.Answer{}, false
	}
	c.mu.Lock()
	expired := c.now().Sub(entry.storedAt) >= c.ttl
	c.mu.Unlock()
	if expired {
		// Expired: evict so the LRU bookkeeping stays clean.
		c.cache.Remove(key)
		return empathy.Answer{}, false
	}
	return cloneAnswer(entry.answer), true
}

// Add stores answer under key.
func (c *AnswerCache) Add(key string, answer empathy.Answer) {
	if c == nil {
		return
	}
	c.mu.Lock()
	storedAt := c.now()
	c.mu.Unlock()
	c.cache.Add(key, answerCacheEntry{answer: cloneAnswer(answer), storedAt: storedAt})
}

// Len reports the number of cached entries, expired ones included.
func (c *AnswerCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}

// answerCacheKey fingerprints the input; in.SeedKey must already hold the
// resolved seed.
func answerCacheKey(in empathy.Input) (string, error) {
	data, err := jsonx.Marshal(in)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func cloneAnswer(a empathy.Answer) empathy.Answer {
	out := a
	if a.Meta.Picked != nil {
		out.Meta.Picked = make(map[empathy.Role]string, len(a.Meta.Picked))
		for k, v := range a.Meta.Picked {
			out.Meta.Picked[k] = v
		}
	}
	out.Meta.BeliefViolations = append([]string(nil), a.Meta.BeliefViolations...)
	out.Meta.Unresolved = append([]string(nil), a.Meta.Unresolved...)
	if len(out.Meta.BeliefViolations) == 0 {
		out.Meta.BeliefViolations = nil
	}
	if len(out.Meta.Unresolved) == 0 {
		out.Meta.Unresolved = nil
	}
	return out
}
