package meta

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MetaService serves DocType metadata to the engine and API layers.
// DocTypes change rarely, so reads go through an in-memory cache that
// the cron refresher clears periodically.
type MetaService interface {
	GetDocType(ctx context.Context, name string) (*DocType, error)
	ListDocTypes(ctx context.Context) ([]DocType, error)
	InvalidateCache()
}

type MetaServiceImpl struct {
	repo MetaRepository
	log  *zap.Logger

	mu    sync.RWMutex
	cache map[string]*DocType
}

func NewMetaService(repo MetaRepository, log *zap.Logger) MetaService {
	return &MetaServiceImpl{
		repo:  repo,
		log:   log,
		cache: make(map[string]*DocType),
	}
}

func (s *MetaServiceImpl) GetDocType(ctx context.Context, name string) (*DocType, error) {
	s.mu.RLock()
	if dt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return dt, nil
	}
	s.mu.RUnlock()

	dt, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[name] = dt
	s.mu.Unlock()

	return dt, nil
}

func (s *MetaServiceImpl) ListDocTypes(ctx context.Context) ([]DocType, error) {
	return s.repo.ListAll(ctx)
}

func (s *MetaServiceImpl) InvalidateCache() {
	s.mu.Lock()
	size := len(s.cache)
	s.cache = make(map[string]*DocType)
	s.mu.Unlock()

	if size > 0 {
		s.log.Debug("meta cache invalidated", zap.Int("entries", size))
	}
}
