package featureflags

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ErrUnknownFlag is returned when an update names a flag the service does not know.
var ErrUnknownFlag = errors.New("unknown feature flag")

// ErrInvalidFlagValue is returned when an update carries a value of the wrong type.
var ErrInvalidFlagValue = errors.New("invalid feature flag value")

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository   Repository
	Logger       zerolog.Logger
	CacheTTL     time.Duration // How long to cache flags in memory
	DefaultFlags map[string]*Flag
	Clock        clockwork.Clock
}

// Service provides feature flag evaluation with caching and fallback.
type Service struct {
	repo         Repository
	logger       zerolog.Logger
	cacheTTL     time.Duration
	defaultFlags map[string]*Flag
	clock        clockwork.Clock

	mu          sync.RWMutex
	cache       map[string]*Flag
	cacheExpiry time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Minute
	}

	defaultFlags := cfg.DefaultFlags
	if defaultFlags == nil {
		defaultFlags = DefaultFlags()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		repo:         cfg.Repository,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
		defaultFlags: defaultFlags,
		clock:        clock,
		cache:        make(map[string]*Flag),
	}
}

// GetFlag retrieves a feature flag by key.
// Uses cached value if available and not expired, with fallback to defaults.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag := s.getCached(key); flag != nil {
		return flag
	}

	flag, err := s.repo.GetFlag(ctx, key)
	if err == nil {
		s.setCached(key, flag)
		return flag
	}

	if !errors.Is(err, ErrFlagNotFound) {
		s.logger.Warn().Err(err).Str("flag", key).Msg("failed to get feature flag from repository")
	}

	if defaultFlag, ok := s.defaultFlags[key]; ok {
		return defaultFlag
	}

	return nil
}

// GetAllFlags returns stored flags merged over the defaults.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	result := make(map[string]*Flag, len(s.defaultFlags))
	for k, v := range s.defaultFlags {
		result[k] = v
	}

	flags, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to get feature flags from repository, using defaults")
		return result
	}

	for k, v := range flags {
		result[k] = v
	}

	s.mu.Lock()
	s.cache = flags
	s.cacheExpiry = s.clock.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	return result
}

// List returns all known flags in display order.
func (s *Service) List(ctx context.Context) FlagList {
	all := s.GetAllFlags(ctx)
	list := FlagList{Items: make([]Flag, 0, len(all))}
	for _, key := range KnownKeys() {
		if f, ok := all[key]; ok {
			list.Items = append(list.Items, *f)
		}
	}
	return list
}

// Apply validates and stores a batch of updates.
func (s *Service) Apply(ctx context.Context, req FlagUpdateRequest) error {
	flags := make([]*Flag, 0, len(req.Updates))
	for _, u := range req.Updates {
		if !IsKnown(u.Key) {
			return fmt.Errorf("%w: %s", ErrUnknownFlag, u.Key)
		}
		if _, ok := u.Value.(bool); !ok {
			return fmt.Errorf("%w: %s must be a boolean", ErrInvalidFlagValue, u.Key)
		}
		flags = append(flags, &Flag{Key: u.Key, Value: u.Value})
	}

	if err := s.SetFlags(ctx, flags); err != nil {
		return err
	}

	keys := make([]string, 0, len(flags))
	for _, f := range flags {
		keys = append(keys, f.Key)
	}
	s.logger.Info().
		Strs("flags", keys).
		Str("reason", req.Reason).
		Msg("feature flags updated")
	return nil
}

// SetFlag updates a feature flag.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	return s.SetFlags(ctx, []*Flag{flag})
}

// SetFlags updates multiple feature flags atomically.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	now := s.clock.Now()
	for _, flag := range flags {
		flag.UpdatedAt = now
	}

	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return err
	}

	for _, flag := range flags {
		s.setCached(flag.Key, flag)
	}
	return nil
}

// InvalidateCache clears the cached flags, forcing a refresh on next access.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Flag)
	s.cacheExpiry = time.Time{}
}

// Ping reports whether the backing store can be read.
func (s *Service) Ping(ctx context.Context) error {
	if _, err := s.repo.GetAllFlags(ctx); err != nil {
		return fmt.Errorf("flag store: %w", err)
	}
	return nil
}

// IsEnabled returns true if the flag with the given key is enabled (truthy).
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	flag := s.GetFlag(ctx, key)
	return flag.BoolValue(false)
}

func (s *Service) getCached(key string) *Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.clock.Now().After(s.cacheExpiry) {
		return nil
	}

	return s.cache[key]
}

func (s *Service) setCached(key string, flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Entries from an expired window must not be revived by the new one.
	if now := s.clock.Now(); s.cacheExpiry.Before(now) {
		s.cache = make(map[string]*Flag)
		s.cacheExpiry = now.Add(s.cacheTTL)
	}
	s.cache[key] = flag
}

// Convenience methods for well-known flags.

// IsNamedFieldBinding returns true if form values bind by field name.
func (s *Service) IsNamedFieldBinding(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagNamedFieldBinding)
}

// IsStrictFieldCount returns true if exactly seven values are required.
func (s *Service) IsStrictFieldCount(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagStrictFieldCount)
}

// IsJSONPredictionsDisabled returns true if the JSON prediction endpoint is off.
func (s *Service) IsJSONPredictionsDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableJSONPredictions)
}
