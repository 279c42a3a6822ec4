package connection

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/bigchain-connection/libhttp"
)

type recordedCall struct {
	url  string
	opts libhttp.Options
}

type fakeRequester struct {
	mu     sync.Mutex
	calls  []recordedCall
	handle func(ctx context.Context, url string, opts libhttp.Options) (*libhttp.Response, error)
}

func (f *fakeRequester) Request(ctx context.Context, url string, opts libhttp.Options) (*libhttp.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{url: url, opts: opts})
	handle := f.handle
	f.mu.Unlock()

	if handle == nil {
		return jsonResponse(`{}`), nil
	}
	return handle(ctx, url, opts)
}

func (f *fakeRequester) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func (f *fakeRequester) CountURL(url string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.url == url {
			n++
		}
	}
	return n
}

func jsonResponse(body string) *libhttp.Response {
	return &libhttp.Response{StatusCode: 200, Body: []byte(body)}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestConnection(cfg Config, requester Requester) *Connection {
	return NewConnection(quietLogger(), cfg, requester, nil)
}

type recordingMetrics struct {
	mu       sync.Mutex
	requests []string
	attempts int
	results  []string
	active   int
}

func (m *recordingMetrics) RecordRequest(endpoint, method string, success bool, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, fmt.Sprintf("%s %s %t", endpoint, method, success))
}

func (m *recordingMetrics) RecordPollAttempt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
}

func (m *recordingMetrics) RecordPollResult(outcome string, attempts int, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, fmt.Sprintf("%s %d", outcome, attempts))
}

func (m *recordingMetrics) IncActivePolls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active++
}

func (m *recordingMetrics) DecActivePolls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active--
}

func (m *recordingMetrics) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

func (m *recordingMetrics) Results() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.results...)
}
