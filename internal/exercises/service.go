package exercises

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	megabyte           = 1024 * 1024
	searchCacheExpire  = 60 * 60 // seconds
	defaultCacheSizeMB = 16
)

var ErrExerciseNotFound = errors.New("exercise not found")

// Service serves the static catalog and caches search results.
type Service struct {
	catalog *Catalog
	cache   *freecache.Cache
}

// NewService creates a new exercises service. cacheSizeMB <= 0 uses the default size.
func NewService(catalog *Catalog, cacheSizeMB int) *Service {
	if cacheSizeMB <= 0 {
		cacheSizeMB = defaultCacheSizeMB
	}
	return &Service{
		catalog: catalog,
		cache:   freecache.NewCache(cacheSizeMB * megabyte),
	}
}

// Catalog exposes the underlying catalog for lookups by other services.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

func (s *Service) MuscleGroups() *ListMuscleGroupsResponse {
	return &ListMuscleGroupsResponse{MuscleGroups: s.catalog.MuscleGroups()}
}

func (s *Service) Get(id string) (*Exercise, error) {
	ex, ok := s.catalog.Exercise(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, id)
	}
	return &ex, nil
}

func (s *Service) Search(query string) *SearchResponse {
	q := NormalizeQuery(query)
	if q == "" {
		return &SearchResponse{Query: q, Exercises: []Exercise{}}
	}

	cacheKey := []byte("search::" + q)
	if cached, err := s.cache.Get(cacheKey); err == nil {
		var results []Exercise
		err := json.Unmarshal(cached, &results)
		if err == nil {
			log.Tracef("exercise search %q served from cache", q)
			return &SearchResponse{Query: q, Exercises: results}
		}
		log.Errorf("failed to unmarshal cached exercise search %q: %s", q, err)
	}

	results := s.catalog.Search(q)

	if payload, err := json.Marshal(results); err != nil {
		log.Errorf("failed to marshal exercise search %q: %s", q, err)
	} else if err := s.cache.Set(cacheKey, payload, searchCacheExpire); err != nil {
		log.Errorf("failed to cache exercise search %q: %s", q, err)
	}

	return &SearchResponse{Query: q, Exercises: results}
}

// CacheHits reports freecache hit count, used by tests and debug logging.
func (s *Service) CacheHits() int64 {
	return s.cache.HitCount()
}
