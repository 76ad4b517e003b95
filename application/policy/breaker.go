package policy

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"mirage-engine/domain/config"
	pkgerrors "mirage-engine/pkg/errors"
)

// GuardedPolicy wraps a decision policy with the loop's failure
// discipline: every call runs under a deadline, a timed-out or failed
// call is retried a bounded number of times, and repeated failures trip
// a circuit breaker so a dead policy fails fast instead of stalling
// every session.
type GuardedPolicy struct {
	inner   DecisionPolicy
	cfg     *config.DomainConfig
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewGuardedPolicy wraps a policy with timeout, retry and breaker
func NewGuardedPolicy(inner DecisionPolicy, cfg *config.DomainConfig, logger *zap.Logger) *GuardedPolicy {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "policy:" + inner.Name(),
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("policy breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &GuardedPolicy{
		inner:   inner,
		cfg:     cfg,
		breaker: cb,
		logger:  logger,
	}
}

// Name identifies the wrapped policy in logs and metrics
func (g *GuardedPolicy) Name() string { return g.inner.Name() }

// Decide calls the wrapped policy under the guard. The returned error
// is a domain error: a deadline miss surfaces as a retryable timeout,
// everything else as a policy failure.
func (g *GuardedPolicy) Decide(ctx context.Context, dctx DecisionContext) (Decision, error) {
	var lastErr error
	for attempt := 0; attempt <= g.cfg.PolicyMaxRetries; attempt++ {
		decision, err := g.decideOnce(ctx, dctx)
		if err == nil {
			return decision, nil
		}
		lastErr = err

		if !pkgerrors.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		g.logger.Debug("retrying policy call",
			zap.String("policy", g.inner.Name()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return Decision{}, lastErr
}

func (g *GuardedPolicy) decideOnce(ctx context.Context, dctx DecisionContext) (Decision, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.PolicyTimeout)
	defer cancel()

	result, err := g.breaker.Execute(func() (interface{}, error) {
		type answer struct {
			decision Decision
			err      error
		}
		done := make(chan answer, 1)
		go func() {
			d, derr := g.inner.Decide(callCtx, dctx)
			done <- answer{d, derr}
		}()

		select {
		case <-callCtx.Done():
			return Decision{}, callCtx.Err()
		case a := <-done:
			if a.err != nil {
				return Decision{}, a.err
			}
			if !a.decision.Action.Valid() {
				return Decision{}, pkgerrors.ErrPolicyFailure.
					WithDetail("action", string(a.decision.Action))
			}
			return a.decision, nil
		}
	})
	if err != nil {
		return Decision{}, g.classify(err)
	}
	return result.(Decision), nil
}

// classify maps raw failures onto the domain error vocabulary
func (g *GuardedPolicy) classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.ErrPolicyTimeout.WithCause(err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return pkgerrors.ErrPolicyFailure.WithCause(err).WithRetryable(false)
	default:
		var domainErr *pkgerrors.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return pkgerrors.ErrPolicyFailure.WithCause(err)
	}
}
