package connection

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/bigchain-connection/libhttp"
	"github.com/vultisig/bigchain-connection/metrics"
)

var jsonOnly = libhttp.Options{OnlyJSONResponse: true}

// DefaultPollInterval is the delay between two status checks.
const DefaultPollInterval = 500 * time.Millisecond

// Requester performs one HTTP request. *libhttp.Client implements it.
type Requester interface {
	Request(ctx context.Context, url string, opts libhttp.Options) (*libhttp.Response, error)
}

// Config describes the ledger API a Connection talks to.
type Config struct {
	BasePath string            `mapstructure:"base_path" json:"base_path,omitempty" yaml:"base_path,omitempty" split_words:"true" validate:"required,url"`
	Headers  map[string]string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty" split_words:"true"`
	Poll     PollConfig        `mapstructure:"poll" json:"poll,omitempty" yaml:"poll,omitempty" split_words:"true"`
}

// PollConfig bounds a poll session. Zero Timeout and zero MaxAttempts poll
// until a terminal status or an error.
type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval" json:"interval,omitempty" yaml:"interval,omitempty" split_words:"true" validate:"gte=0"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty" split_words:"true" validate:"gte=0"`
	MaxAttempts int           `mapstructure:"max_attempts" json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" split_words:"true" validate:"gte=0"`
}

// Connection talks to one ledger API. It is immutable after construction and
// safe for concurrent use.
type Connection struct {
	logger    *logrus.Logger
	basePath  string
	headers   map[string]string
	pollCfg   PollConfig
	requester Requester
	metrics   metrics.ConnectionMetrics
}

func NewConnection(
	logger *logrus.Logger,
	cfg Config,
	requester Requester,
	connMetrics metrics.ConnectionMetrics,
) *Connection {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if requester == nil {
		requester = libhttp.NewClient(logger, libhttp.Config{})
	}
	if connMetrics == nil {
		connMetrics = metrics.NewNilConnectionMetrics()
	}

	poll := cfg.Poll
	if poll.Interval <= 0 {
		poll.Interval = DefaultPollInterval
	}

	return &Connection{
		logger:    logger,
		basePath:  cfg.BasePath,
		headers:   MergeHeaders(cfg.Headers, nil),
		pollCfg:   poll,
		requester: requester,
		metrics:   connMetrics,
	}
}

func (c *Connection) BasePath() string {
	return c.basePath
}

// Headers returns a copy of the default headers.
func (c *Connection) Headers() map[string]string {
	return MergeHeaders(c.headers, nil)
}

func (c *Connection) PollConfig() PollConfig {
	return c.pollCfg
}

func (c *Connection) GetBlock(ctx context.Context, blockID string, opts ...CallOption) (*libhttp.Response, error) {
	return c.request(ctx, BlocksDetail, map[string]string{"blockId": blockID}, nil, jsonOnly, opts)
}

func (c *Connection) GetStatus(ctx context.Context, txID string, opts ...CallOption) (*libhttp.Response, error) {
	return c.request(ctx, Statuses, nil, statusQuery{TransactionID: txID}, jsonOnly, opts)
}

func (c *Connection) GetTransaction(ctx context.Context, txID string, opts ...CallOption) (*libhttp.Response, error) {
	return c.request(ctx, TransactionsDetail, map[string]string{"transactionId": txID}, nil, jsonOnly, opts)
}

func (c *Connection) ListBlocks(ctx context.Context, params ListBlocksParams, opts ...CallOption) (*libhttp.Response, error) {
	return c.request(ctx, Blocks, nil, params, jsonOnly, opts)
}

// ListOutputs lists outputs. onlyJSONResponse is handed to the requester as is.
func (c *Connection) ListOutputs(
	ctx context.Context,
	params ListOutputsParams,
	onlyJSONResponse bool,
	opts ...CallOption,
) (*libhttp.Response, error) {
	return c.request(ctx, Outputs, nil, params, libhttp.Options{OnlyJSONResponse: onlyJSONResponse}, opts)
}

func (c *Connection) ListTransactions(ctx context.Context, params ListTransactionsParams, opts ...CallOption) (*libhttp.Response, error) {
	return c.request(ctx, Transactions, nil, params, jsonOnly, opts)
}

func (c *Connection) ListVotes(ctx context.Context, blockID string, opts ...CallOption) (*libhttp.Response, error) {
	return c.request(ctx, Votes, nil, votesQuery{BlockID: blockID}, jsonOnly, opts)
}

// PostTransaction sends tx as the JSON body of a POST to the transactions endpoint.
func (c *Connection) PostTransaction(ctx context.Context, tx any, opts ...CallOption) (*libhttp.Response, error) {
	return c.request(ctx, Transactions, nil, nil, libhttp.Options{
		Method:           http.MethodPost,
		JSONBody:         tx,
		OnlyJSONResponse: true,
	}, opts)
}

func (c *Connection) SearchAssets(ctx context.Context, search string, opts ...CallOption) (*libhttp.Response, error) {
	return c.request(ctx, Assets, nil, searchQuery{Search: search}, jsonOnly, opts)
}

// request resolves the endpoint, merges headers and hands the call to the
// requester. The requester's result is returned unchanged.
func (c *Connection) request(
	ctx context.Context,
	endpoint Endpoint,
	pathParams map[string]string,
	queryParams any,
	reqOpts libhttp.Options,
	callOpts []CallOption,
) (*libhttp.Response, error) {
	path, err := Resolve(c.basePath, endpoint, pathParams)
	if err != nil {
		return nil, err
	}

	if queryParams != nil {
		q, err := encodeQuery(queryParams)
		if err != nil {
			return nil, err
		}
		reqOpts.Query = q
	}

	var call callOptions
	for _, opt := range callOpts {
		opt(&call)
	}
	reqOpts.Headers = MergeHeaders(c.headers, call.headers)

	if reqOpts.Method == "" {
		reqOpts.Method = http.MethodGet
	}

	start := time.Now()
	res, err := c.requester.Request(ctx, path, reqOpts)
	c.metrics.RecordRequest(endpoint.String(), reqOpts.Method, err == nil, time.Since(start).Seconds())

	fields := logrus.Fields{
		"endpoint": endpoint.String(),
		"method":   reqOpts.Method,
		"path":     path,
	}
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Debug("request failed")
		return res, err
	}
	c.logger.WithFields(fields).Debug("request done")
	return res, nil
}
