package services

import (
	"context"
	"log/slog"
	"strings"

	"loopledger/internal/core"
	"loopledger/internal/geocode"
	"loopledger/internal/notify"
	"loopledger/internal/store"
)

// Geocoder resolves a free-text address to a best candidate place.
// *geocode.Client satisfies it; tests substitute fakes.
type Geocoder interface {
	Enabled() bool
	Resolve(ctx context.Context, address string) (geocode.Place, bool)
}

// SettingsService persists the settings singleton, resolving home
// coordinates best-effort when the address changed.
type SettingsService struct {
	store    *store.Store
	geocoder Geocoder
	hub      *notify.Hub
}

func NewSettingsService(s *store.Store, g Geocoder, hub *notify.Hub) *SettingsService {
	return &SettingsService{store: s, geocoder: g, hub: hub}
}

func (s *SettingsService) Get(ctx context.Context) core.Settings {
	return s.store.Settings(ctx)
}

// Save normalizes and persists settings. When the home address changed
// and carries no coordinates, it is geocoded best-effort: a disabled or
// failing geocoder leaves the coordinates empty and the save still
// succeeds, which in turn keeps automatic mileage derivation off for
// loops without their own coordinates.
func (s *SettingsService) Save(ctx context.Context, settings core.Settings) (core.Settings, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return core.Settings{}, err
	}

	if settings.HomeLat == nil && settings.HomeAddress != "" {
		s.resolveHome(ctx, &settings)
	}

	s.store.SetSettings(ctx, settings)
	if s.hub != nil {
		s.hub.Publish(ctx, notify.KindSuccess, "Settings saved!")
	}
	return settings, nil
}

func (s *SettingsService) resolveHome(ctx context.Context, settings *core.Settings) {
	if s.geocoder == nil || !s.geocoder.Enabled() {
		return
	}
	place, ok := s.geocoder.Resolve(ctx, settings.HomeAddress)
	if !ok {
		slog.WarnContext(ctx, "Could not geocode home address",
			"address", settings.HomeAddress)
		return
	}
	settings.HomeLat = &place.Lat
	settings.HomeLng = &place.Lng
	if name := strings.TrimSpace(place.Name); name != "" {
		settings.HomeAddress = name
	}
}
