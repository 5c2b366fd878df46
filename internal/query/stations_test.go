package query

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jortega/fuelwatch/internal/api"
	"github.com/jortega/fuelwatch/internal/models"
)

// fakeStationsClient implements api.Client; only Stations matters here.
type fakeStationsClient struct {
	mu          sync.Mutex
	stations    []models.Station
	err         error
	calls       int
	lastToken   string
	lastFilters api.StationFilters
}

func (f *fakeStationsClient) Stations(ctx context.Context, token string, filters api.StationFilters) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastToken = token
	f.lastFilters = filters
	return f.stations, f.err
}

func (f *fakeStationsClient) Login(ctx context.Context, username, password string) (string, error) {
	return "", nil
}

func (f *fakeStationsClient) Register(ctx context.Context, req api.RegisterRequest) (models.UserProfile, error) {
	return models.UserProfile{}, nil
}

func (f *fakeStationsClient) CurrentUser(ctx context.Context, token string) (models.UserProfile, error) {
	return models.UserProfile{}, nil
}

func (f *fakeStationsClient) Close() error { return nil }

func (f *fakeStationsClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func makeStations(n int) []models.Station {
	stations := make([]models.Station, n)
	for i := range stations {
		stations[i] = models.Station{
			StationID:   i + 1,
			StationName: fmt.Sprintf("Station %d", i+1),
			Province:    "Madrid",
		}
	}
	return stations
}

func newStationsService(client *fakeStationsClient) *StationsService {
	cache := New(5*time.Minute, 10*time.Minute, testLogger())
	cache.retryWait = time.Millisecond
	return NewStationsService(cache, client, staticToken("tok-1"), testLogger())
}

func TestStationsService_PaginatesFetchedCollection(t *testing.T) {
	client := &fakeStationsClient{stations: makeStations(25)}
	s := newStationsService(client)
	ctx := context.Background()

	page1, err := s.List(ctx, api.StationFilters{}, 1, 12)
	require.NoError(t, err)
	require.Len(t, page1.Items, 12)
	require.Equal(t, 1, page1.Items[0].StationID)
	require.Equal(t, 12, page1.Items[11].StationID)
	require.Equal(t, 25, page1.Total)
	require.Equal(t, 3, page1.TotalPages)

	page3, err := s.List(ctx, api.StationFilters{}, 3, 12)
	require.NoError(t, err)
	require.Len(t, page3.Items, 1)
	require.Equal(t, 25, page3.Items[0].StationID)

	require.Equal(t, 1, client.callCount(), "page flips slice the cached collection, no extra round trips")
}

func TestStationsService_BearerTokenCapturedAtDispatch(t *testing.T) {
	client := &fakeStationsClient{stations: makeStations(1)}
	s := newStationsService(client)

	_, err := s.List(context.Background(), api.StationFilters{}, 1, 0)
	require.NoError(t, err)
	require.Equal(t, "tok-1", client.lastToken)
}

func TestStationsService_PaginationStrippedFromUpstreamRequest(t *testing.T) {
	client := &fakeStationsClient{stations: makeStations(3)}
	s := newStationsService(client)

	_, err := s.List(context.Background(), api.StationFilters{Province: "Madrid", Page: 2, Limit: 12}, 2, 12)
	require.NoError(t, err)

	require.Equal(t, "Madrid", client.lastFilters.Province)
	require.Zero(t, client.lastFilters.Page, "the full collection is fetched once")
	require.Zero(t, client.lastFilters.Limit)
}

func TestStationsService_FilterSetsShareCacheEntries(t *testing.T) {
	client := &fakeStationsClient{stations: makeStations(5)}
	s := newStationsService(client)
	ctx := context.Background()

	_, err := s.List(ctx, api.StationFilters{Province: "Madrid"}, 1, 12)
	require.NoError(t, err)

	// Same filter set with explicit empties and different paging: cache hit.
	_, err = s.List(ctx, api.StationFilters{Province: "Madrid", Town: "", Page: 2}, 2, 12)
	require.NoError(t, err)
	require.Equal(t, 1, client.callCount())

	// A genuinely different filter set is its own entry.
	_, err = s.List(ctx, api.StationFilters{Province: "Sevilla"}, 1, 12)
	require.NoError(t, err)
	require.Equal(t, 2, client.callCount())
}

func TestStationsService_DefaultPageSize(t *testing.T) {
	client := &fakeStationsClient{stations: makeStations(30)}
	s := newStationsService(client)

	res, err := s.List(context.Background(), api.StationFilters{}, 1, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultPageSize, res.PageSize)
	require.Len(t, res.Items, DefaultPageSize)
}

func TestStationsService_RefreshForcesRefetch(t *testing.T) {
	client := &fakeStationsClient{stations: makeStations(2)}
	s := newStationsService(client)
	ctx := context.Background()

	_, err := s.List(ctx, api.StationFilters{}, 1, 12)
	require.NoError(t, err)

	client.mu.Lock()
	client.stations = makeStations(4)
	client.mu.Unlock()

	res, err := s.Refresh(ctx, api.StationFilters{}, 1, 12)
	require.NoError(t, err)
	require.Equal(t, 4, res.Total)
	require.Equal(t, 2, client.callCount())
}
