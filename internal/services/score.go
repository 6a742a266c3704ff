package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/routine"
)

const defaultCallTimeout = 5 * time.Second

var (
	ErrUnknownCheck     = errors.New("score: unknown check type")
	ErrUnknownReduction = errors.New("score: unknown reduction")
)

// NetworkReader performs the read-only calls against one network.
type NetworkReader interface {
	Network() domain.Network
	ReferralCode(ctx context.Context, user common.Address) (string, error)
	HasSubscription(ctx context.Context, user common.Address) (bool, error)
}

// ScoreCache stores computed scores between requests.
type ScoreCache interface {
	Get(ctx context.Context, q domain.Query, user common.Address) (int, bool, error)
	Set(ctx context.Context, q domain.Query, user common.Address, score int) error
}

// EventPublisher receives a record of every computed score.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ScoreEvent) error
}

// ScoreService polls every configured network and folds the answers into a score.
type ScoreService struct {
	readers []NetworkReader
	timeout time.Duration
	logger  zerolog.Logger

	cache  ScoreCache
	events EventPublisher
	now    func() time.Time
}

type Option func(*ScoreService)

func WithCache(c ScoreCache) Option {
	return func(s *ScoreService) { s.cache = c }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *ScoreService) { s.events = p }
}

// NewScoreService builds the poller. A non-positive timeout falls back to 5s.
func NewScoreService(readers []NetworkReader, timeout time.Duration, logger zerolog.Logger, opts ...Option) *ScoreService {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	s := &ScoreService{
		readers: readers,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeScore queries every network once, in parallel, and reduces the
// results. Per-network failures count as negative results and are only
// logged. The returned error signals an internal fault, never an RPC error.
func (s *ScoreService) ComputeScore(ctx context.Context, user common.Address, q domain.Query) (domain.ScoreResponse, error) {
	if q.Check != domain.CheckReferral && q.Check != domain.CheckSubscription {
		return domain.ScoreResponse{}, fmt.Errorf("%w: %q", ErrUnknownCheck, q.Check)
	}
	if q.Reduce != domain.ReduceCount && q.Reduce != domain.ReduceAny {
		return domain.ScoreResponse{}, fmt.Errorf("%w: %q", ErrUnknownReduction, q.Reduce)
	}

	if score, ok := s.cached(ctx, q, user); ok {
		s.publish(ctx, domain.ScoreEvent{
			Address:   user.Hex(),
			Check:     q.Check,
			Reduction: q.Reduce,
			Score:     score,
			Cached:    true,
		})
		return domain.ScoreResponse{Score: score}, nil
	}

	results, err := s.poll(ctx, user, q.Check)
	if err != nil {
		return domain.ScoreResponse{}, err
	}
	score, err := Reduce(results, q.Reduce)
	if err != nil {
		return domain.ScoreResponse{}, err
	}

	// A score computed while any network failed is not cached.
	if s.cache != nil && !anyFailed(results) {
		if err := s.cache.Set(ctx, q, user, score); err != nil {
			s.logger.Warn().Err(err).Str("address", user.Hex()).Msg("score cache write failed")
		}
	}

	ev := domain.ScoreEvent{
		Address:   user.Hex(),
		Check:     q.Check,
		Reduction: q.Reduce,
		Score:     score,
		Networks:  make(map[string]bool, len(results)),
	}
	for _, r := range results {
		ev.Networks[r.Network] = r.Present
		if r.Err != nil {
			ev.Failures = append(ev.Failures, r.Network)
		}
	}
	s.publish(ctx, ev)

	return domain.ScoreResponse{Score: score}, nil
}

func (s *ScoreService) poll(ctx context.Context, user common.Address, check domain.CheckType) ([]domain.CheckResult, error) {
	tasks := make([]*routine.Task[bool], 0, len(s.readers))
	for _, reader := range s.readers {
		network := reader.Network()
		tasks = append(tasks, &routine.Task[bool]{
			ID:      network.Name,
			Handler: checkHandler(reader, check, user),
			OnError: func(name string, err error) {
				s.logger.Warn().
					Str("network", name).
					Str("address", user.Hex()).
					Err(err).
					Msg("network check failed")
			},
		})
	}

	outcomes, err := routine.SettleAll(ctx, s.timeout, tasks)
	if err != nil {
		return nil, fmt.Errorf("dispatch network checks: %w", err)
	}

	results := make([]domain.CheckResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = domain.CheckResult{Network: o.ID, Present: o.Err == nil && o.Value, Err: o.Err}
	}
	return results, nil
}

func checkHandler(reader NetworkReader, check domain.CheckType, user common.Address) routine.Handler[bool] {
	if check == domain.CheckSubscription {
		return func(ctx context.Context) (bool, error) {
			return reader.HasSubscription(ctx, user)
		}
	}
	return func(ctx context.Context) (bool, error) {
		code, err := reader.ReferralCode(ctx, user)
		if err != nil {
			return false, err
		}
		return code != "", nil
	}
}

// Reduce folds per-network results into a score. Failed results never count.
func Reduce(results []domain.CheckResult, reduction domain.Reduction) (int, error) {
	present := 0
	for _, r := range results {
		if r.Err == nil && r.Present {
			present++
		}
	}
	switch reduction {
	case domain.ReduceCount:
		return present, nil
	case domain.ReduceAny:
		if present > 0 {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownReduction, reduction)
	}
}

func anyFailed(results []domain.CheckResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

func (s *ScoreService) cached(ctx context.Context, q domain.Query, user common.Address) (int, bool) {
	if s.cache == nil {
		return 0, false
	}
	score, ok, err := s.cache.Get(ctx, q, user)
	if err != nil {
		s.logger.Warn().Err(err).Str("address", user.Hex()).Msg("score cache read failed")
		return 0, false
	}
	return score, ok
}

func (s *ScoreService) publish(ctx context.Context, ev domain.ScoreEvent) {
	if s.events == nil {
		return
	}
	ev.RequestID = RequestIDFromContext(ctx)
	ev.ComputedAt = s.now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("address", ev.Address).Msg("publish score event failed")
	}
}
