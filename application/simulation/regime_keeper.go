package simulation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mirage-engine/application/policy"
	"mirage-engine/domain/config"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// RegimeKeeper owns one regime's mutable state. All writes flow through
// a single goroutine, so concurrent sessions never race on the shared
// world: they send impacts and wait for the keeper's answer. A send
// that cannot be accepted within the configured window fails with a
// retryable contention error, and the caller backs off and retries a
// bounded number of times.
type RegimeKeeper struct {
	regime *entities.Regime
	cfg    *config.DomainConfig
	logger *zap.Logger

	requests chan keeperRequest
	stop     chan struct{}
	stopped  sync.Once
	wg       sync.WaitGroup
}

type keeperRequest struct {
	impact *entities.RegimeImpact
	view   chan policy.RegimeView
	reply  chan error
}

// NewRegimeKeeper creates and starts a keeper for the given regime
func NewRegimeKeeper(regime *entities.Regime, cfg *config.DomainConfig, logger *zap.Logger) *RegimeKeeper {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	k := &RegimeKeeper{
		regime:   regime,
		cfg:      cfg,
		logger:   logger.With(zap.String("regime_id", regime.ID().String())),
		requests: make(chan keeperRequest),
		stop:     make(chan struct{}),
	}
	k.wg.Add(1)
	go k.run()
	return k
}

// RegimeID returns the kept regime's identifier
func (k *RegimeKeeper) RegimeID() valueobjects.RegimeID { return k.regime.ID() }

func (k *RegimeKeeper) run() {
	defer k.wg.Done()
	for {
		select {
		case <-k.stop:
			return
		case req := <-k.requests:
			if req.impact != nil {
				req.reply <- k.regime.ApplyImpact(*req.impact)
				continue
			}
			req.view <- policy.RegimeView{
				Satisfaction: k.regime.Satisfaction(),
				Stability:    k.regime.Stability(),
				Freedom:      k.regime.Freedom(),
				Corruption:   k.regime.Corruption(),
			}
		}
	}
}

// Apply submits an impact to the keeper, retrying on contention with
// the configured backoff. A nil or zero impact is a no-op.
func (k *RegimeKeeper) Apply(ctx context.Context, impact *entities.RegimeImpact) error {
	if impact.IsZero() {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= k.cfg.RegimeMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return pkgerrors.ErrRegimeContention.WithCause(ctx.Err())
			case <-time.After(k.cfg.RegimeRetryBackoff * time.Duration(attempt)):
			}
		}

		err := k.send(ctx, impact)
		if err == nil {
			return nil
		}
		lastErr = err
		if !pkgerrors.IsRetryable(err) {
			return err
		}
		k.logger.Debug("regime send contended",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return lastErr
}

func (k *RegimeKeeper) send(ctx context.Context, impact *entities.RegimeImpact) error {
	req := keeperRequest{impact: impact, reply: make(chan error, 1)}
	timer := time.NewTimer(k.cfg.RegimeSendTimeout)
	defer timer.Stop()

	select {
	case k.requests <- req:
	case <-ctx.Done():
		return pkgerrors.ErrRegimeContention.WithCause(ctx.Err())
	case <-k.stop:
		return pkgerrors.ErrRegimeContention.WithDetail("reason", "keeper stopped")
	case <-timer.C:
		return pkgerrors.ErrRegimeContention.
			WithDetail("timeout", k.cfg.RegimeSendTimeout.String())
	}
	return <-req.reply
}

// View returns a read snapshot of the regime for decision contexts
func (k *RegimeKeeper) View(ctx context.Context) (policy.RegimeView, error) {
	req := keeperRequest{view: make(chan policy.RegimeView, 1)}
	timer := time.NewTimer(k.cfg.RegimeSendTimeout)
	defer timer.Stop()

	select {
	case k.requests <- req:
		return <-req.view, nil
	case <-ctx.Done():
		return policy.RegimeView{}, pkgerrors.ErrRegimeContention.WithCause(ctx.Err())
	case <-k.stop:
		return policy.RegimeView{}, pkgerrors.ErrRegimeContention.WithDetail("reason", "keeper stopped")
	case <-timer.C:
		return policy.RegimeView{}, pkgerrors.ErrRegimeContention.
			WithDetail("timeout", k.cfg.RegimeSendTimeout.String())
	}
}

// Close stops the keeper goroutine. Pending senders fail with contention.
func (k *RegimeKeeper) Close() {
	k.stopped.Do(func() {
		close(k.stop)
		k.wg.Wait()
	})
}

// KeeperRegistry hands out one keeper per regime
type KeeperRegistry struct {
	mu      sync.Mutex
	keepers map[valueobjects.RegimeID]*RegimeKeeper
	cfg     *config.DomainConfig
	logger  *zap.Logger
}

// NewKeeperRegistry creates an empty registry
func NewKeeperRegistry(cfg *config.DomainConfig, logger *zap.Logger) *KeeperRegistry {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeeperRegistry{
		keepers: make(map[valueobjects.RegimeID]*RegimeKeeper),
		cfg:     cfg,
		logger:  logger,
	}
}

// Keeper returns the keeper for the given regime, starting one if the
// regime is seen for the first time.
func (r *KeeperRegistry) Keeper(regime *entities.Regime) *RegimeKeeper {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.keepers[regime.ID()]; ok {
		return k
	}
	k := NewRegimeKeeper(regime, r.cfg, r.logger)
	r.keepers[regime.ID()] = k
	return k
}

// Lookup returns an already-running keeper, if any
func (r *KeeperRegistry) Lookup(id valueobjects.RegimeID) (*RegimeKeeper, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keepers[id]
	return k, ok
}

// Close stops every keeper
func (r *KeeperRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keepers {
		k.Close()
	}
	r.keepers = make(map[valueobjects.RegimeID]*RegimeKeeper)
}
