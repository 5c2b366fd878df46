package query

import (
	"context"

	"github.com/jortega/fuelwatch/internal/api"
	"github.com/jortega/fuelwatch/internal/logging"
	"github.com/jortega/fuelwatch/internal/models"
)

// DefaultPageSize matches the dashboard's station grid.
const DefaultPageSize = 12

// StationsResource is the cache resource name for station listings.
const StationsResource = "stations"

// TokenSource supplies the bearer token for authenticated fetches. The
// session controller implements it; the value is captured when a fetch is
// dispatched, never re-read mid-flight.
type TokenSource interface {
	Token() string
}

// StationsService serves station listings through the cache, slicing pages
// out of the fully fetched collection.
type StationsService struct {
	cache     *Cache
	apiClient api.Client
	tokens    TokenSource
	log       logging.Logger
}

func NewStationsService(cache *Cache, client api.Client, tokens TokenSource, log logging.Logger) *StationsService {
	return &StationsService{
		cache:     cache,
		apiClient: client,
		tokens:    tokens,
		log:       log,
	}
}

// cacheKey excludes pagination: the upstream returns the full collection for
// a filter set and pages are sliced locally, so flipping pages costs no
// round trip.
func (s *StationsService) cacheKey(filters api.StationFilters) string {
	return Key(StationsResource, filters.WithoutPaging().Values())
}

func (s *StationsService) fetchFunc(filters api.StationFilters) FetchFunc {
	return func(ctx context.Context) (any, error) {
		token := s.tokens.Token()
		return s.apiClient.Stations(ctx, token, filters.WithoutPaging())
	}
}

// List returns one page of stations matching the filters. The collection
// comes from the cache when fresh; page and pageSize only affect the slice.
func (s *StationsService) List(ctx context.Context, filters api.StationFilters, page, pageSize int) (models.PaginatedResult[models.Station], error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	v, err := s.cache.Get(ctx, s.cacheKey(filters), s.fetchFunc(filters))
	if err != nil {
		return models.PaginatedResult[models.Station]{}, err
	}

	stations, _ := v.([]models.Station)
	return models.Paginate(stations, page, pageSize), nil
}

// Refresh forces a refetch of the filter set's collection and returns the
// requested page of the result.
func (s *StationsService) Refresh(ctx context.Context, filters api.StationFilters, page, pageSize int) (models.PaginatedResult[models.Station], error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	v, err := s.cache.Refresh(ctx, s.cacheKey(filters), s.fetchFunc(filters))
	if err != nil {
		return models.PaginatedResult[models.Station]{}, err
	}

	stations, _ := v.([]models.Station)
	return models.Paginate(stations, page, pageSize), nil
}

// Subscribe registers for transitions of the filter set's cache entry.
func (s *StationsService) Subscribe(filters api.StationFilters, fn func(Event)) string {
	return s.cache.Subscribe(s.cacheKey(filters), fn)
}

// Unsubscribe drops a subscription; a fetch still in flight finishes into
// the cache but its result is no longer delivered anywhere.
func (s *StationsService) Unsubscribe(filters api.StationFilters, id string) {
	s.cache.Unsubscribe(s.cacheKey(filters), id)
}
