package service

import (
	"strings"
	"sync"
	"time"

	catalogdomain "github.com/careloop/clinicore/internal/catalog/domain"
)

const defaultLineTTL = 10 * time.Minute

// lineCache stores hot-path catalog lookups for the quote path.
type lineCache struct {
	mu      sync.RWMutex
	entries map[string]lineEntry
	ttl     time.Duration
}

type lineEntry struct {
	line      *catalogdomain.CostLine
	expiresAt time.Time
}

func newLineCache() *lineCache {
	return &lineCache{
		entries: make(map[string]lineEntry),
		ttl:     defaultLineTTL,
	}
}

func (c *lineCache) get(department catalogdomain.Department, code string) (*catalogdomain.CostLine, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(department, code)]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.line, true
}

func (c *lineCache) set(department catalogdomain.Department, code string, line *catalogdomain.CostLine) {
	if line == nil {
		return
	}
	c.mu.Lock()
	c.entries[cacheKey(department, code)] = lineEntry{
		line:      line,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *lineCache) invalidate(department catalogdomain.Department, code string) {
	c.mu.Lock()
	delete(c.entries, cacheKey(department, code))
	c.mu.Unlock()
}

func cacheKey(department catalogdomain.Department, code string) string {
	return strings.Join([]string{string(department), code}, ":")
}
