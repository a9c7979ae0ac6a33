// Package snapshot caches read views of the record store and drops them when
// the entities they embed change.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Entity is a record-store collection that can be mutated.
type Entity string

const (
	Bookings        Entity = "bookings"
	BlockedDates    Entity = "blocked_dates"
	PricingRules    Entity = "pricing_rules"
	Settings        Entity = "settings"
	ContactMessages Entity = "contact_messages"
)

// View is a cached read model.
type View string

const (
	ViewAvailability View = "availability"
	ViewPricing      View = "pricing"
	ViewBookings     View = "bookings"
	ViewDossier      View = "dossier"
	ViewSettings     View = "settings"
	ViewMessages     View = "messages"
)

// dependents lists the views embedding each entity. Availability embeds
// booked nights, so bookings drop it along with pricing.
var dependents = map[Entity][]View{
	Bookings:        {ViewAvailability, ViewPricing, ViewBookings, ViewDossier},
	BlockedDates:    {ViewAvailability},
	PricingRules:    {ViewPricing},
	Settings:        {ViewPricing, ViewSettings},
	ContactMessages: {ViewMessages},
}

// ViewsFor returns the views to drop when e changes.
func ViewsFor(e Entity) []View {
	return append([]View(nil), dependents[e]...)
}

var ErrMiss = errors.New("snapshot: cache miss")

// Cache stores encoded views under a per-view generation. Get reports the
// generation it read at, hit or miss. Set only makes data reachable while
// the view is still at that generation, and Invalidate moves every given view
// to a new one.
type Cache interface {
	Get(ctx context.Context, view View, key string) ([]byte, int64, error)
	Set(ctx context.Context, view View, key string, gen int64, data []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, views ...View) error
}

// Views is the application's handle on the cache.
type Views struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewViews(cache Cache, ttl time.Duration, logger *zap.SugaredLogger) *Views {
	return &Views{cache: cache, ttl: ttl, logger: logger}
}

// Touch drops every view that depends on the mutated entities. Cache errors
// are logged; the record store is already committed at this point.
func (v *Views) Touch(ctx context.Context, entities ...Entity) {
	seen := map[View]bool{}
	var views []View
	for _, e := range entities {
		for _, view := range dependents[e] {
			if !seen[view] {
				seen[view] = true
				views = append(views, view)
			}
		}
	}
	if len(views) == 0 {
		return
	}
	if err := v.cache.Invalidate(ctx, views...); err != nil {
		v.logger.Warnw("snapshot invalidation failed", "views", views, "error", err)
	}
}

// Load returns the cached view or builds, stores and returns it. The result is
// stored under the generation seen before build ran, so a Touch landing
// mid-build leaves it unreachable.
func Load[T any](ctx context.Context, v *Views, view View, key string, build func(ctx context.Context) (T, error)) (T, error) {
	var out T
	data, gen, err := v.cache.Get(ctx, view, key)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
	case !errors.Is(err, ErrMiss):
		v.logger.Warnw("snapshot read failed", "view", view, "key", key, "error", err)
		return build(ctx)
	}

	out, err = build(ctx)
	if err != nil {
		return out, err
	}
	if data, err := json.Marshal(out); err == nil {
		if err := v.cache.Set(ctx, view, key, gen, data, v.ttl); err != nil {
			v.logger.Warnw("snapshot write failed", "view", view, "key", key, "error", err)
		}
	}
	return out, nil
}
