package instrument

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
)

// Source resolves instrument metadata. Implemented by Repository and by
// the static table used in tests and the paper tool.
type Source interface {
	Lookup(ctx context.Context, symbol, exchSeg string) (Meta, error)
}

// Service fronts a Source with a process-lifetime cache. The instrument
// master changes once a day at most, so entries are never evicted.
type Service struct {
	mu     sync.RWMutex
	source Source
	cache  map[cacheKey]Meta
	misses map[cacheKey]struct{}
}

type cacheKey struct {
	symbol  string
	exchSeg string
}

func NewService(source Source) *Service {
	return &Service{
		source: source,
		cache:  make(map[cacheKey]Meta),
		misses: make(map[cacheKey]struct{}),
	}
}

// Lookup resolves metadata, caching both hits and misses.
// ok is false when the instrument is unknown; per the risk contract that
// is a warning-grade condition, not an error.
func (s *Service) Lookup(ctx context.Context, symbol, exchSeg string) (Meta, bool, error) {
	key := cacheKey{symbol: symbol, exchSeg: exchSeg}

	s.mu.RLock()
	meta, hit := s.cache[key]
	_, missed := s.misses[key]
	s.mu.RUnlock()
	if hit {
		return meta, true, nil
	}
	if missed {
		return Meta{}, false, nil
	}

	meta, err := s.source.Lookup(ctx, symbol, exchSeg)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.mu.Lock()
			s.misses[key] = struct{}{}
			s.mu.Unlock()
			return Meta{}, false, nil
		}
		return Meta{}, false, err
	}

	s.mu.Lock()
	s.cache[key] = meta
	s.mu.Unlock()
	return meta, true, nil
}

// StaticSource serves lookups from a fixed table.
type StaticSource map[string]Meta

func (s StaticSource) Lookup(_ context.Context, symbol, exchSeg string) (Meta, error) {
	meta, ok := s[symbol+"|"+exchSeg]
	if !ok {
		return Meta{}, gorm.ErrRecordNotFound
	}
	return meta, nil
}
