package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/bigchain-connection/libhttp"
	"github.com/vultisig/bigchain-connection/metrics"
)

// PollStatusAndFetchTransaction checks the status of txID every poll interval
// until it is "valid", then fetches and returns the transaction. The first
// failed request ends the poll with a *PollError wrapping it.
func (c *Connection) PollStatusAndFetchTransaction(ctx context.Context, txID string) (*libhttp.Response, error) {
	return c.poll(ctx, uuid.New(), txID)
}

// PollSession is a poll running in the background. It settles exactly once.
type PollSession struct {
	id     uuid.UUID
	txID   string
	cancel context.CancelCauseFunc

	once sync.Once
	done chan struct{}
	res  *libhttp.Response
	err  error
}

// StartPoll starts polling txID in a new goroutine. Cancelling ctx or calling
// Cancel stops the session.
func (c *Connection) StartPoll(ctx context.Context, txID string) *PollSession {
	ctx, cancel := context.WithCancelCause(ctx)
	s := &PollSession{
		id:     uuid.New(),
		txID:   txID,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer cancel(nil)
		s.settle(c.poll(ctx, s.id, txID))
	}()

	return s
}

func (s *PollSession) ID() uuid.UUID {
	return s.id
}

func (s *PollSession) TxID() string {
	return s.txID
}

// Done is closed once the session has settled.
func (s *PollSession) Done() <-chan struct{} {
	return s.done
}

func (s *PollSession) Cancel() {
	s.cancel(ErrPollCancelled)
}

// Wait blocks until the session settles or ctx is done. A done ctx does not
// stop the session.
func (s *PollSession) Wait(ctx context.Context) (*libhttp.Response, error) {
	select {
	case <-s.done:
		return s.res, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *PollSession) settle(res *libhttp.Response, err error) bool {
	settled := false
	s.once.Do(func() {
		s.res = res
		s.err = err
		close(s.done)
		settled = true
	})
	return settled
}

func (c *Connection) poll(ctx context.Context, sessionID uuid.UUID, txID string) (*libhttp.Response, error) {
	if c.pollCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.pollCfg.Timeout, ErrPollTimeout)
		defer cancel()
	}

	fields := logrus.Fields{
		"session_id": sessionID.String(),
		"tx_id":      txID,
	}
	start := time.Now()
	attempts := 0

	c.metrics.IncActivePolls()
	defer c.metrics.DecActivePolls()

	fail := func(stage PollStage, err error) (*libhttp.Response, error) {
		outcome := metrics.PollOutcomeFailed
		switch {
		case errors.Is(err, ErrPollTimeout):
			outcome = metrics.PollOutcomeTimeout
		case errors.Is(err, ErrPollCancelled), errors.Is(err, context.Canceled):
			outcome = metrics.PollOutcomeCancelled
		}
		c.metrics.RecordPollResult(outcome, attempts, time.Since(start).Seconds())
		c.logger.WithFields(fields).WithField("attempt", attempts).WithError(err).Warnf("poll %s", outcome)
		return nil, &PollError{
			TxID:     txID,
			Stage:    stage,
			Attempts: attempts,
			Err:      err,
		}
	}

	ticker := time.NewTicker(c.pollCfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fail(StageWait, context.Cause(ctx))
		case <-ticker.C:
		}
		// select picks at random when the tick and ctx.Done are both ready
		if ctx.Err() != nil {
			return fail(StageWait, context.Cause(ctx))
		}

		attempts++
		c.metrics.RecordPollAttempt()

		status, err := c.fetchStatus(ctx, txID)
		if err != nil {
			return fail(StageStatus, interrupted(ctx, err))
		}
		c.logger.WithFields(fields).WithFields(logrus.Fields{
			"attempt": attempts,
			"status":  status,
		}).Debug("status checked")

		if status == StatusValid {
			ticker.Stop()
			if ctx.Err() != nil {
				return fail(StageWait, context.Cause(ctx))
			}
			tx, err := c.GetTransaction(ctx, txID)
			if err != nil {
				return fail(StageFetch, interrupted(ctx, err))
			}
			c.metrics.RecordPollResult(metrics.PollOutcomeValid, attempts, time.Since(start).Seconds())
			c.logger.WithFields(fields).WithField("attempt", attempts).Info("transaction valid")
			return tx, nil
		}

		if c.pollCfg.MaxAttempts > 0 && attempts >= c.pollCfg.MaxAttempts {
			return fail(StageStatus, fmt.Errorf("%w: status %q after %d checks", ErrPollTimeout, status, attempts))
		}
	}
}

func (c *Connection) fetchStatus(ctx context.Context, txID string) (string, error) {
	res, err := c.GetStatus(ctx, txID)
	if err != nil {
		return "", err
	}
	st, err := libhttp.Decode[TxStatus](res)
	if err != nil {
		return "", fmt.Errorf("libhttp.Decode: %w", err)
	}
	return st.Status, nil
}

// interrupted attaches the cancellation cause to a request error caused by a
// done context.
func interrupted(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}
	cause := context.Cause(ctx)
	if errors.Is(err, cause) {
		return err
	}
	return fmt.Errorf("%w: %w", cause, err)
}
