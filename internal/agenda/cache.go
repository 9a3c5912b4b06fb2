// Package agenda caches clinics' agenda configurations in front of the
// clinic-settings store and exposes slot generation and date validation on
// top of them.
package agenda

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wolfman30/clinic-agenda/internal/observability/metrics"
	"github.com/wolfman30/clinic-agenda/internal/schedule"
	"github.com/wolfman30/clinic-agenda/internal/settings"
	"github.com/wolfman30/clinic-agenda/pkg/logging"
)

const defaultFetchTimeout = 10 * time.Second

var cacheTracer = otel.Tracer("clinic.internal.agenda.cache")

// ErrRemoteSaveFailed is wrapped when any setting write of a save fails.
var ErrRemoteSaveFailed = errors.New("agenda: remote save failed")

type entry struct {
	config schedule.Config
	ids    RemoteIDs
}

// Cache holds fetched agenda configs per clinic, along with the setting
// record ids needed to update rather than re-create each field.
//
// Saves for a clinic take that clinic's write lock for the whole
// write-then-evict sequence; lookups take the read lock across fetch and
// store, so a lookup never caches data read before a concurrent save.
type Cache struct {
	source  settings.Source
	logger  *logging.Logger
	metrics *metrics.AgendaMetrics

	mu      sync.Mutex
	entries map[string]entry
	locks   map[string]*sync.RWMutex
	epoch   uint64

	group        singleflight.Group
	fetchTimeout time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.AgendaMetrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithFetchTimeout bounds a shared settings fetch. Defaults to 10s.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// NewCache creates an empty cache in front of source.
func NewCache(source settings.Source, opts ...Option) *Cache {
	if source == nil {
		panic("agenda: settings source required")
	}
	c := &Cache{
		source:  source,
		entries: make(map[string]entry),
		locks:   make(map[string]*sync.RWMutex),

		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Default()
	}
	return c
}

func (c *Cache) clinicLock(clinicID string) *sync.RWMutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[clinicID]
	if !ok {
		l = &sync.RWMutex{}
		c.locks[clinicID] = l
	}
	return l
}

// Cached returns the cached config for a clinic without fetching.
func (c *Cache) Cached(clinicID string) (schedule.Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[clinicID]
	if !ok {
		return schedule.Config{}, false
	}
	return e.config.Clone(), true
}

// Get returns the clinic's config, fetching it on a miss. When the fetch
// fails the default config is returned and nothing is cached, so the next
// call retries.
func (c *Cache) Get(ctx context.Context, clinicID string) schedule.Config {
	lock := c.clinicLock(clinicID)
	lock.RLock()
	defer lock.RUnlock()

	if cfg, ok := c.Cached(clinicID); ok {
		c.metrics.ObserveLookup(true)
		return cfg
	}
	c.metrics.ObserveLookup(false)

	// The fetch is shared by every caller waiting on this clinic, so one
	// caller's cancellation must not fail the others.
	v, err, _ := c.group.Do(clinicID, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.fetch(fetchCtx, clinicID)
	})
	if err != nil {
		c.metrics.ObserveFetchFallback()
		c.logger.Warn("agenda config fetch failed, using defaults", "clinic_id", clinicID, "error", err)
		return schedule.DefaultConfig(clinicID)
	}
	return v.(schedule.Config).Clone()
}

func (c *Cache) fetch(ctx context.Context, clinicID string) (schedule.Config, error) {
	ctx, span := cacheTracer.Start(ctx, "agenda.cache.fetch", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("clinic.id", clinicID))

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	start := time.Now()
	records, err := c.source.ListByClinic(ctx, clinicID)
	c.metrics.ObserveRemoteLatency("list", time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list settings")
		return schedule.Config{}, fmt.Errorf("agenda: fetch settings: %w", err)
	}

	cfg, ids, clean := FromSettings(clinicID, records)
	if !clean {
		c.logger.Warn("agenda settings contained unparseable values, defaults applied",
			"clinic_id", clinicID,
			"records", len(records),
		)
	}

	c.mu.Lock()
	if c.epoch == epoch {
		c.entries[clinicID] = entry{config: cfg, ids: ids}
	}
	c.mu.Unlock()

	c.logger.Debug("agenda config cached", "clinic_id", clinicID, "records", len(records))
	return cfg, nil
}

// Save persists the changed fields of cfg: an update for every field whose
// record id is known, a create otherwise. Writes run concurrently and are
// all awaited. Any failure yields one error wrapping ErrRemoteSaveFailed and
// leaves the cache untouched; success evicts the clinic's entry.
func (c *Cache) Save(ctx context.Context, cfg schedule.Config, changed []schedule.Field) error {
	if len(changed) == 0 {
		c.metrics.ObserveSave("noop")
		return nil
	}
	if cfg.ClinicID == "" {
		return fmt.Errorf("%w: clinic id required", schedule.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, span := cacheTracer.Start(ctx, "agenda.cache.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.id", cfg.ClinicID),
		attribute.Int("agenda.changed_fields", len(changed)),
	)

	lock := c.clinicLock(cfg.ClinicID)
	lock.Lock()
	defer lock.Unlock()

	ids := c.remoteIDs(ctx, cfg.ClinicID)

	errs := make([]error, len(changed))
	var g errgroup.Group
	for i, field := range changed {
		i, field := i, field
		g.Go(func() error {
			errs[i] = c.write(ctx, cfg, field, ids[field])
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		c.metrics.ObserveSave("failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "save settings")
		c.logger.Error("agenda config save failed", "clinic_id", cfg.ClinicID, "error", err)
		return fmt.Errorf("%w: %w", ErrRemoteSaveFailed, err)
	}

	c.evict(cfg.ClinicID)
	c.metrics.ObserveSave("ok")
	c.logger.Info("agenda config saved", "clinic_id", cfg.ClinicID, "fields", len(changed))
	return nil
}

func (c *Cache) write(ctx context.Context, cfg schedule.Config, field schedule.Field, id string) error {
	rec := settingFor(cfg, field)
	op := "create"
	start := time.Now()
	var err error
	if id != "" {
		op = "update"
		rec.ID = id
		_, err = c.source.Update(ctx, id, rec)
	} else {
		_, err = c.source.Create(ctx, rec)
	}
	c.metrics.ObserveRemoteLatency(op, time.Since(start).Seconds())
	c.metrics.ObserveRemoteWrite(op, err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, field, err)
	}
	return nil
}

// remoteIDs returns the known record ids for a clinic. When nothing is
// cached it lists the clinic's settings once; if that fails every field is
// treated as new.
func (c *Cache) remoteIDs(ctx context.Context, clinicID string) RemoteIDs {
	c.mu.Lock()
	e, ok := c.entries[clinicID]
	c.mu.Unlock()
	if ok {
		return maps.Clone(e.ids)
	}

	records, err := c.source.ListByClinic(ctx, clinicID)
	if err != nil {
		c.logger.Warn("agenda could not resolve setting ids, creating", "clinic_id", clinicID, "error", err)
		return RemoteIDs{}
	}
	_, ids, _ := FromSettings(clinicID, records)
	return ids
}

func (c *Cache) evict(clinicIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range clinicIDs {
		delete(c.entries, id)
	}
}

// Invalidate evicts the given clinics, or every clinic when none is given.
func (c *Cache) Invalidate(clinicIDs ...string) {
	if len(clinicIDs) == 0 {
		c.mu.Lock()
		c.entries = make(map[string]entry)
		c.epoch++
		c.mu.Unlock()
		return
	}
	for _, id := range clinicIDs {
		lock := c.clinicLock(id)
		lock.Lock()
		c.evict(id)
		lock.Unlock()
	}
}
