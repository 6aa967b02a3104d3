// Package dashboard loads and prints the data behind the dashboard,
// analytics and collections views.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/atinyakov/alphabase/internal/models"
	"go.uber.org/zap"
)

// maxSamples bounds the realtime client history kept for analytics.
const maxSamples = 120

// API is the part of the HTTP transport the views read from.
type API interface {
	SystemStatus(ctx context.Context) (models.SystemStatus, error)
	Collections(ctx context.Context) ([]string, error)
	ListData(ctx context.Context, collection string) (models.DataListResult, error)
}

// Sample is one observation of the server's realtime client count.
type Sample struct {
	At      time.Time
	Clients int
}

// Service prints view data to out. Every status load is also recorded as
// a Sample for the analytics view.
type Service struct {
	api       API
	out       io.Writer
	chartPath string
	log       *zap.Logger

	mu      sync.Mutex
	samples []Sample
}

// New returns a Service. When chartPath is set the analytics view also
// writes a PNG chart of the client history there.
func New(api API, out io.Writer, chartPath string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: api, out: out, chartPath: chartPath, log: log}
}

// LoadDashboard prints the server status.
func (s *Service) LoadDashboard(ctx context.Context) error {
	st, err := s.status(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DASHBOARD")
	fmt.Fprintf(w, "Version\t%s\n", st.Version)
	fmt.Fprintf(w, "Realtime clients\t%d\n", st.WebsocketClients)
	fmt.Fprintf(w, "Server time\t%s\n", st.Timestamp.Format(time.RFC3339))
	return w.Flush()
}

// LoadAnalytics prints the recorded client history, newest last, and
// renders the chart when enough samples exist.
func (s *Service) LoadAnalytics(ctx context.Context) error {
	if _, err := s.status(ctx); err != nil {
		return err
	}
	samples := s.Samples()

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ANALYTICS")
	fmt.Fprintln(w, "Time\tRealtime clients")
	for _, smp := range samples {
		fmt.Fprintf(w, "%s\t%d\n", smp.At.Format(time.TimeOnly), smp.Clients)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if s.chartPath == "" {
		return nil
	}
	png, err := RenderClientsChart(samples)
	if errors.Is(err, ErrTooFewPoints) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.chartPath, png, 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	fmt.Fprintf(s.out, "Chart written to %s\n", s.chartPath)
	return nil
}

// LoadCollections prints the data collections, sorted, with the number of
// items readable in each. A collection whose items cannot be listed is
// printed without a count.
func (s *Service) LoadCollections(ctx context.Context) error {
	names, err := s.api.Collections(ctx)
	if err != nil {
		return err
	}
	names = slices.Clone(names)
	slices.Sort(names)

	fmt.Fprintln(s.out, "COLLECTIONS")
	if len(names) == 0 {
		fmt.Fprintln(s.out, "  (none)")
		return nil
	}
	for _, n := range names {
		res, err := s.api.ListData(ctx, n)
		if err != nil {
			s.log.Debug("failed to list collection", zap.String("collection", n), zap.Error(err))
			fmt.Fprintf(s.out, "  %s\n", n)
			continue
		}
		fmt.Fprintf(s.out, "  %s (%d items)\n", n, res.Count)
	}
	return nil
}

// Samples returns the recorded history, oldest first.
func (s *Service) Samples() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.samples)
}

func (s *Service) status(ctx context.Context) (models.SystemStatus, error) {
	st, err := s.api.SystemStatus(ctx)
	if err != nil {
		return models.SystemStatus{}, err
	}

	at := st.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	s.mu.Lock()
	s.samples = append(s.samples, Sample{At: at, Clients: st.WebsocketClients})
	if n := len(s.samples); n > maxSamples {
		s.samples = slices.Clone(s.samples[n-maxSamples:])
	}
	s.mu.Unlock()

	s.log.Debug("system status", zap.Int("clients", st.WebsocketClients), zap.String("version", st.Version))
	return st, nil
}
