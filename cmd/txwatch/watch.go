package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vultisig/bigchain-connection/connection"
)

type poller interface {
	StartPoll(ctx context.Context, txID string) *connection.PollSession
}

// pollResult is printed as one JSON line per transaction.
type pollResult struct {
	SessionID   string          `json:"session_id"`
	TxID        string          `json:"tx_id"`
	Valid       bool            `json:"valid"`
	Attempts    int             `json:"attempts,omitempty"`
	Transaction json.RawMessage `json:"transaction,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// watchAll polls txIDs, at most limit at a time, and writes a result line for
// each one as it settles. Every transaction is polled to the end even when
// another fails.
func watchAll(ctx context.Context, logger *logrus.Logger, p poller, txIDs []string, limit int, out io.Writer) error {
	var (
		mu     sync.Mutex
		enc    = json.NewEncoder(out)
		failed atomic.Int32
	)

	var eg errgroup.Group
	eg.SetLimit(max(limit, 1))
	for _, txID := range txIDs {
		eg.Go(func() error {
			session := p.StartPoll(ctx, txID)
			// the session settles on its own once ctx is done
			res, err := session.Wait(context.Background())

			r := pollResult{
				SessionID: session.ID().String(),
				TxID:      txID,
			}
			if err != nil {
				failed.Add(1)
				r.Error = err.Error()
				var pollErr *connection.PollError
				if errors.As(err, &pollErr) {
					r.Attempts = pollErr.Attempts
				}
			} else {
				r.Valid = true
				r.Transaction = res.Body
			}

			mu.Lock()
			defer mu.Unlock()
			err = enc.Encode(r)
			if err != nil {
				return fmt.Errorf("enc.Encode: %w", err)
			}
			return nil
		})
	}

	err := eg.Wait()
	if err != nil {
		return fmt.Errorf("eg.Wait: %w", err)
	}
	if n := failed.Load(); n > 0 {
		logger.WithField("failed", n).Warn("some transactions did not become valid")
		return fmt.Errorf("%d of %d transactions did not become valid", n, len(txIDs))
	}
	return nil
}
