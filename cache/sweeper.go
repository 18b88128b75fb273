package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

// SweeperConfig controls background sweep behavior.
type SweeperConfig struct {
	// Cache is the positive-result cache to sweep.
	Cache *Service
	// TTL is the age past which entries are removed.
	TTL time.Duration
	// Schedule is a UTC five-field cron expression; defaults to every
	// five minutes.
	Schedule string
	// Negative, when set, is swept alongside the positive cache.
	Negative *NegativeCache
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now is injectable for tests.
	Now func() time.Time
}

// Sweeper periodically runs ClearExpired so a long-lived process does not
// accumulate unread expired entries. Lazy read-side expiry remains the
// correctness mechanism; the sweeper only bounds memory.
type Sweeper struct {
	cache    *Service
	negative *NegativeCache
	ttl      time.Duration
	schedule cron.Schedule
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a sweeper from config.
func NewSweeper(cfg SweeperConfig) (*Sweeper, error) {
	if cfg.Cache == nil {
		return nil, errors.New("cache: sweeper cache is nil")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("cache: sweeper ttl must be positive")
	}
	expr := strings.TrimSpace(cfg.Schedule)
	if expr == "" {
		expr = "*/5 * * * *"
	}
	schedule, err := parseCronExpressionUTC(expr)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Sweeper{
		cache:    cfg.Cache,
		negative: cfg.Negative,
		ttl:      cfg.TTL,
		schedule: schedule,
		logger:   logger,
		now:      now,
	}, nil
}

// Start begins sweep execution. It returns an error if already running.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("cache: sweeper already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done

	go s.loop(runCtx, done)
	return nil
}

// Stop halts sweep execution and waits for the loop to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		removed := s.cache.ClearExpired(s.ttl)
		if s.negative != nil {
			removed += s.negative.ClearExpired()
		}
		if removed > 0 {
			s.logger.Debug("cache sweep removed expired entries", "removed", removed)
		}
	}
}

func parseCronExpressionUTC(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, fmt.Errorf("cron expression is required")
	}

	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, fmt.Errorf("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}

	schedule, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}
