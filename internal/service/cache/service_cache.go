package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "TradePulse/pkg/cache"
)

// ServiceCache adapts a pkg/cache Service to the BytesCache the HTTP handlers
// use. Responses are stored as raw strings so a hit returns the exact bytes
// that were cached.
type ServiceCache struct {
	svc pkgcache.Service
}

func NewServiceCache(svc pkgcache.Service) *ServiceCache {
	return &ServiceCache{svc: svc}
}

func (s *ServiceCache) GetBytes(key string) ([]byte, bool, error) {
	var raw string
	if err := s.svc.Get(context.Background(), key, &raw); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (s *ServiceCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	return s.svc.Set(context.Background(), key, string(value), ttl)
}

var _ BytesCache = (*ServiceCache)(nil)
