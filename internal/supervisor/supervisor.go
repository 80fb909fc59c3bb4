package supervisor

import (
	"context"
	"errors"
	"log"
	"time"
)

// State is the daemon lifecycle phase.
type State string

const (
	StateConnecting    State = "connecting"
	StateBootstrapping State = "bootstrapping"
	StateStreaming     State = "streaming"
	StateBackoff       State = "backoff"
	StateFailed        State = "failed"
)

// ErrRetryBudgetExhausted means the supervisor gave up reconnecting. The
// process exits non-zero on it; long outages are deferred to the external
// process manager, the daemon does not self-heal past its budget.
var ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

// Session is one connected lifetime of the pipeline: bootstrap the replica,
// then stream until an error or shutdown.
type Session interface {
	// Bootstrap runs a full load so notification gaps accrued while
	// disconnected are repaired before streaming resumes.
	Bootstrap(ctx context.Context) error
	// Stream runs the steady-state loop; nil means clean shutdown.
	Stream(ctx context.Context) error
	Close(ctx context.Context) error
}

// Supervisor owns the connect → bootstrap → stream → backoff state machine.
type Supervisor struct {
	Dial func(ctx context.Context) (Session, error)

	BackoffBase time.Duration // default 2s
	BackoffCap  time.Duration // default 30s
	MaxRetries  int           // default 30

	// OnState observes transitions; used for logging and tests.
	OnState func(State)
}

// Run drives the state machine until clean shutdown (nil) or budget
// exhaustion (ErrRetryBudgetExhausted). Every connect rebuilds all three
// connections and re-runs a full bootstrap, which is what repairs
// notifications lost while disconnected.
func (s *Supervisor) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		s.setState(StateConnecting)
		session, err := s.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("supervisor: connect failed: %v", err)
			if err := s.backoff(ctx, &attempt); err != nil {
				return err
			}
			continue
		}

		s.setState(StateBootstrapping)
		if err := session.Bootstrap(ctx); err != nil {
			_ = session.Close(ctx)
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("supervisor: bootstrap failed: %v", err)
			if err := s.backoff(ctx, &attempt); err != nil {
				return err
			}
			continue
		}

		// A session that survives bootstrap earns a fresh budget.
		attempt = 0

		s.setState(StateStreaming)
		streamErr := session.Stream(ctx)
		_ = session.Close(ctx)
		if streamErr == nil || ctx.Err() != nil {
			return nil
		}
		log.Printf("supervisor: streaming session ended: %v", streamErr)
		if err := s.backoff(ctx, &attempt); err != nil {
			return err
		}
	}
}

func (s *Supervisor) backoff(ctx context.Context, attempt *int) error {
	*attempt++
	if *attempt > s.maxRetries() {
		s.setState(StateFailed)
		return ErrRetryBudgetExhausted
	}

	s.setState(StateBackoff)
	delay := s.delay(*attempt)
	log.Printf("supervisor: retrying in %s (%d/%d)", delay, *attempt, s.maxRetries())

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
		return nil
	}
}

// delay grows exponentially from the base and saturates at the cap.
func (s *Supervisor) delay(attempt int) time.Duration {
	base := s.BackoffBase
	if base <= 0 {
		base = 2 * time.Second
	}
	cap := s.BackoffCap
	if cap <= 0 {
		cap = 30 * time.Second
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}

func (s *Supervisor) maxRetries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return 30
}

func (s *Supervisor) setState(state State) {
	if s.OnState != nil {
		s.OnState(state)
	}
}
