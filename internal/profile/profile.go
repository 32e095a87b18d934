// Package profile implements ProfileStore (named tuning profiles and their
// thresholds) and ProfileSwitcher (queued profile changes applied at drive
// boundary).
package profile

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/obdsentry/obdsentryd/internal/config"
	"github.com/obdsentry/obdsentryd/internal/store"
)

// Profile mirrors the data-model entity, carried in memory once loaded so
// AlertEngine and Poller don't round-trip to the Store on every event.
type Profile struct {
	ID             string
	Name           string
	PollIntervalMs int
	Thresholds     []store.Threshold
}

// ProfileStore loads every configured profile into the Store at startup
// and serves lookups to AlertEngine/Poller. It holds no mutable state
// after Load — all configuration is frozen, no global mutable state.
type ProfileStore struct {
	profiles map[string]Profile
}

// Load seeds the Store with every profile and threshold from cfg and
// returns a ProfileStore ready for lookups. Defaults to the built-in id
// "daily" if config names none.
func Load(ctx context.Context, s *store.Store, cfg *config.Config) (*ProfileStore, error) {
	ps := &ProfileStore{profiles: make(map[string]Profile)}

	ids := cfg.Profiles.AvailableProfiles
	if len(ids) == 0 {
		ids = []string{"daily"}
	}

	for _, id := range ids {
		entry, ok := cfg.Profiles.Definitions[id]
		if !ok {
			entry = config.ProfileEntry{Name: id, PollIntervalMs: 1000}
		}

		p := Profile{ID: id, Name: entry.Name, PollIntervalMs: entry.PollIntervalMs}
		if p.Name == "" {
			p.Name = id
		}

		if err := s.UpsertProfile(ctx, store.Profile{ID: p.ID, Name: p.Name, PollIntervalMs: p.PollIntervalMs}); err != nil {
			return nil, fmt.Errorf("profile: seeding profile %s: %w", id, err)
		}

		for i, th := range cfg.Alerts[id] {
			thresholdID := fmt.Sprintf("%s-%s-%d", id, th.Parameter, i)
			p.Thresholds = append(p.Thresholds, store.Threshold{
				ID: thresholdID, ProfileID: id, Parameter: th.Parameter,
				Direction: th.Direction, Value: th.Value, CooldownMs: th.CooldownMs,
			})

			if err := s.UpsertThreshold(ctx, p.Thresholds[len(p.Thresholds)-1]); err != nil {
				return nil, fmt.Errorf("profile: seeding threshold %s: %w", thresholdID, err)
			}
		}

		ps.profiles[id] = p
	}

	active := cfg.Profiles.ActiveProfile
	if active == "" {
		active = "daily"
	}

	if _, ok := ps.profiles[active]; !ok {
		return nil, fmt.Errorf("profile: active profile %q is not among the loaded profiles", active)
	}

	return ps, nil
}

// Get returns the profile by id.
func (ps *ProfileStore) Get(id string) (Profile, bool) {
	p, ok := ps.profiles[id]

	return p, ok
}

// IDs returns every loaded profile id.
func (ps *ProfileStore) IDs() []string {
	ids := make([]string, 0, len(ps.profiles))
	for id := range ps.profiles {
		ids = append(ids, id)
	}

	return ids
}

// ActiveProfile is the orchestrator's single atomic cell holding the
// currently active profile id; readers see it at each event.
type ActiveProfile struct {
	id atomic.Value // string
}

// NewActiveProfile creates the cell initialized to id.
func NewActiveProfile(id string) *ActiveProfile {
	ap := &ActiveProfile{}
	ap.id.Store(id)

	return ap
}

// Get returns the current active profile id.
func (ap *ActiveProfile) Get() string {
	return ap.id.Load().(string)
}

// Set replaces the active profile id.
func (ap *ActiveProfile) Set(id string) {
	ap.id.Store(id)
}

// Switcher queues a pending profile change and applies it only at a drive
// boundary (drive_end) — see the Open Question decision in DESIGN.md to
// not couple switch with any other pause behavior.
type Switcher struct {
	pending atomic.Value // string, "" means nothing pending
}

// NewSwitcher creates an empty Switcher.
func NewSwitcher() *Switcher {
	sw := &Switcher{}
	sw.pending.Store("")

	return sw
}

// Queue records a desired profile id, to be applied at the next drive_end.
func (sw *Switcher) Queue(id string) {
	sw.pending.Store(id)
}

// ApplyPending returns the queued profile id (clearing it) if one exists,
// or "" if none is pending. Call from the Orchestrator's drive_end
// routing step.
func (sw *Switcher) ApplyPending() string {
	id := sw.pending.Load().(string)
	if id == "" {
		return ""
	}

	sw.pending.Store("")

	return id
}
