package dashboard

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	clients     []int
	calls       int
	start       time.Time
	step        time.Duration
	statusErr   error
	collections []string
	collErr     error
	counts      map[string]int
}

func (f *fakeAPI) SystemStatus(ctx context.Context) (models.SystemStatus, error) {
	if f.statusErr != nil {
		return models.SystemStatus{}, f.statusErr
	}
	n := f.clients[f.calls%len(f.clients)]
	st := models.SystemStatus{
		WebsocketClients: n,
		Timestamp:        f.start.Add(time.Duration(f.calls) * f.step),
		Version:          "4.0.0",
	}
	f.calls++
	return st, nil
}

func (f *fakeAPI) Collections(ctx context.Context) ([]string, error) {
	return f.collections, f.collErr
}

func (f *fakeAPI) ListData(ctx context.Context, collection string) (models.DataListResult, error) {
	n, ok := f.counts[collection]
	if !ok {
		return models.DataListResult{}, errors.New("forbidden")
	}
	return models.DataListResult{Success: true, Collection: collection, Count: n}, nil
}

func newFake() *fakeAPI {
	return &fakeAPI{clients: []int{2, 3, 1}, start: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC), step: time.Minute}
}

func TestLoadDashboard(t *testing.T) {
	var out bytes.Buffer
	svc := New(newFake(), &out, "", nil)

	require.NoError(t, svc.LoadDashboard(context.Background()))

	got := out.String()
	assert.Contains(t, got, "DASHBOARD")
	assert.Contains(t, got, "4.0.0")
	assert.Contains(t, got, "2026-01-02T10:00:00Z")
	assert.Len(t, svc.Samples(), 1)
	assert.Equal(t, 2, svc.Samples()[0].Clients)
}

func TestLoadDashboard_Error(t *testing.T) {
	var out bytes.Buffer
	api := newFake()
	api.statusErr = errors.New("unreachable")
	svc := New(api, &out, "", nil)

	require.Error(t, svc.LoadDashboard(context.Background()))
	assert.Empty(t, out.String())
	assert.Empty(t, svc.Samples())
}

func TestLoadAnalytics_WritesChart(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "clients.png")
	svc := New(newFake(), &out, path, nil)
	ctx := context.Background()

	require.NoError(t, svc.LoadAnalytics(ctx))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "one sample is not enough for a chart")

	require.NoError(t, svc.LoadAnalytics(ctx))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	assert.Contains(t, out.String(), "Chart written to "+path)
	assert.Contains(t, out.String(), "10:01:00")
}

func TestSamplesAreBounded(t *testing.T) {
	svc := New(newFake(), &bytes.Buffer{}, "", nil)
	for i := 0; i < maxSamples+10; i++ {
		require.NoError(t, svc.LoadDashboard(context.Background()))
	}

	samples := svc.Samples()
	require.Len(t, samples, maxSamples)
	assert.True(t, samples[0].At.Before(samples[len(samples)-1].At))
}

func TestChartPoints_CollapsesEqualTimes(t *testing.T) {
	at := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	got := chartPoints([]Sample{
		{At: at.Add(time.Minute), Clients: 4},
		{At: at, Clients: 1},
		{At: at, Clients: 2},
	})
	assert.Equal(t, []Sample{{At: at, Clients: 2}, {At: at.Add(time.Minute), Clients: 4}}, got)

	_, err := RenderClientsChart([]Sample{{At: at, Clients: 1}, {At: at, Clients: 2}})
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestLoadAnalytics_SameServerTime(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "clients.png")
	api := newFake()
	api.step = 0
	svc := New(api, &out, path, nil)
	ctx := context.Background()

	require.NoError(t, svc.LoadAnalytics(ctx))
	require.NoError(t, svc.LoadAnalytics(ctx), "equal timestamps must not fail the view")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	api.step = time.Minute
	require.NoError(t, svc.LoadAnalytics(ctx))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadCollections(t *testing.T) {
	var out bytes.Buffer
	api := newFake()
	api.collections = []string{"sensors", "alerts"}
	api.counts = map[string]int{"sensors": 3}
	svc := New(api, &out, "", nil)

	require.NoError(t, svc.LoadCollections(context.Background()))
	assert.Equal(t, "COLLECTIONS\n  alerts\n  sensors (3 items)\n", out.String())
	assert.Equal(t, []string{"sensors", "alerts"}, api.collections, "input must not be reordered")

	out.Reset()
	api.collections = nil
	require.NoError(t, svc.LoadCollections(context.Background()))
	assert.Equal(t, "COLLECTIONS\n  (none)\n", out.String())
}

func TestRenderClientsChart(t *testing.T) {
	_, err := RenderClientsChart([]Sample{{At: time.Now()}})
	require.ErrorIs(t, err, ErrTooFewPoints)

	now := time.Now()
	png, err := RenderClientsChart([]Sample{{At: now, Clients: 0}, {At: now.Add(time.Minute), Clients: 0}})
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
