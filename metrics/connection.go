package metrics

// Poll outcomes reported to RecordPollResult
const (
	PollOutcomeValid     = "valid"
	PollOutcomeFailed    = "failed"
	PollOutcomeTimeout   = "timeout"
	PollOutcomeCancelled = "cancelled"
)

// ConnectionMetrics interface for collecting ledger connection metrics
type ConnectionMetrics interface {
	// RecordRequest records one request to an endpoint
	RecordRequest(endpoint, method string, success bool, duration float64)

	// RecordPollAttempt records one status check made by a poll session
	RecordPollAttempt()

	// RecordPollResult records how a poll session settled
	RecordPollResult(outcome string, attempts int, duration float64)

	// IncActivePolls and DecActivePolls track running poll sessions
	IncActivePolls()
	DecActivePolls()
}

// NilConnectionMetrics is a no-op implementation for when metrics are disabled
type NilConnectionMetrics struct{}

// NewNilConnectionMetrics creates a no-op metrics implementation
func NewNilConnectionMetrics() ConnectionMetrics {
	return &NilConnectionMetrics{}
}

func (n *NilConnectionMetrics) RecordRequest(endpoint, method string, success bool, duration float64) {}
func (n *NilConnectionMetrics) RecordPollAttempt()                                                     {}
func (n *NilConnectionMetrics) RecordPollResult(outcome string, attempts int, duration float64)        {}
func (n *NilConnectionMetrics) IncActivePolls()                                                        {}
func (n *NilConnectionMetrics) DecActivePolls()                                                        {}
