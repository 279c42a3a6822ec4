package connection

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrPathParams      = errors.New("path parameters do not match route template")
	ErrPollTimeout     = errors.New("poll timeout")
	ErrPollCancelled   = errors.New("poll cancelled")
)

// PollStage tells which step of a poll failed.
type PollStage string

const (
	StageWait   PollStage = "wait"
	StageStatus PollStage = "status"
	StageFetch  PollStage = "fetch"
)

// PollError is the single failure of a poll session. It wraps the error of
// the failed request, ErrPollTimeout or the cancellation cause.
type PollError struct {
	TxID     string
	Stage    PollStage
	Attempts int
	Err      error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll tx %s failed at %s after %d status checks: %v", e.TxID, e.Stage, e.Attempts, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}
