package console

import (
	"context"

	"go.uber.org/zap"
)

// Loaders are the per-view data loaders invoked on activation. A nil
// loader is skipped; the data view never loads anything.
type Loaders struct {
	Dashboard   Loader
	Analytics   Loader
	Collections Loader
	Settings    Loader
}

// ViewRouter switches the single active view.
type ViewRouter struct {
	console *Console
	loaders Loaders
	log     *zap.Logger
}

// NewViewRouter creates a router over c.
func NewViewRouter(c *Console, loaders Loaders, log *zap.Logger) *ViewRouter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ViewRouter{console: c, loaders: loaders, log: log}
}

// Current returns the active view.
func (r *ViewRouter) Current() ViewName {
	return r.console.Snapshot().ActiveView
}

// SwitchView deactivates every view, activates name and runs its loader.
// Any view can be reached from any other; only names outside Views are
// rejected, before anything changes.
func (r *ViewRouter) SwitchView(ctx context.Context, name ViewName) error {
	if _, err := ParseViewName(string(name)); err != nil {
		return err
	}
	r.log.Debug("switching view", zap.String("view", string(name)))

	r.console.update(func(s *State) {
		s.ActiveView = name
		s.ActiveNav = name
		s.ContentPadding = DefaultContentPadding
		if name == ViewSettings {
			s.ContentPadding = SettingsContentPadding
		}
	})

	loader := r.loaderFor(name)
	if loader == nil {
		return nil
	}
	if err := loader.Load(ctx); err != nil {
		r.log.Error("failed to load view", zap.String("view", string(name)), zap.Error(err))
	}
	return nil
}

func (r *ViewRouter) loaderFor(name ViewName) Loader {
	switch name {
	case ViewDashboard:
		return r.loaders.Dashboard
	case ViewAnalytics:
		return r.loaders.Analytics
	case ViewCollections:
		return r.loaders.Collections
	case ViewSettings:
		return r.loaders.Settings
	default:
		return nil
	}
}
