package board

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator hands out timestamp-derived ids: Unix milliseconds in decimal.
// Ids from one generator are strictly increasing, so two entities created in
// the same millisecond still get distinct ids.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator uses now as its clock; nil means time.Now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns the next id.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// nextFree skips ids already present in taken, which can happen when another
// process wrote the store in the same millisecond or with a clock ahead of
// ours.
func (g *IDGenerator) nextFree(taken map[string]struct{}) string {
	for {
		id := g.Next()
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}
