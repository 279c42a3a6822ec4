package libhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	stdurl "net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// Config controls the transport. Zero RetryMax disables retries; zero wait
// bounds keep retryablehttp's defaults.
type Config struct {
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty" split_words:"true" validate:"gte=0"`
	RetryMax     int           `mapstructure:"retry_max" json:"retry_max,omitempty" yaml:"retry_max,omitempty" split_words:"true" validate:"gte=0"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min" json:"retry_wait_min,omitempty" yaml:"retry_wait_min,omitempty" split_words:"true" validate:"gte=0"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max" json:"retry_wait_max,omitempty" yaml:"retry_wait_max,omitempty" split_words:"true" validate:"gte=0"`
}

// Options describes a single request.
type Options struct {
	Method  string
	Headers map[string]string
	Query   stdurl.Values
	// JSONBody is marshalled as the request body when not nil.
	JSONBody any
	// OnlyJSONResponse requires a JSON body and drops the response metadata.
	OnlyJSONResponse bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Client struct {
	logger *logrus.Logger
	client *retryablehttp.Client
}

func NewClient(logger *logrus.Logger, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = logger
	retryClient.RetryMax = max(cfg.RetryMax, 0)
	if cfg.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = cfg.RetryWaitMax
	}
	// keep the server's status and body instead of retryablehttp's generic error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		logger: logger,
		client: retryClient,
	}
}

func (c *Client) Request(ctx context.Context, url string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.JSONBody != nil {
		b, err := json.Marshal(opts.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := url
	if len(opts.Query) > 0 {
		target = url + "?" + opts.Query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if opts.JSONBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make http call: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		c.logger.WithFields(logrus.Fields{
			"method":      method,
			"url":         url,
			"status_code": res.StatusCode,
		}).Debug("unsuccessful response")
		return nil, newHTTPError(res.StatusCode, res.Status, bodyBytes)
	}

	if opts.OnlyJSONResponse {
		if !json.Valid(bodyBytes) {
			return nil, fmt.Errorf("response is not json: status_code: %d", res.StatusCode)
		}
		return &Response{
			StatusCode: res.StatusCode,
			Body:       bodyBytes,
		}, nil
	}

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       bodyBytes,
	}, nil
}

// Decode converts the response body into T. A string T receives the raw body.
func Decode[T any](res *Response) (T, error) {
	var r T
	if res == nil {
		return r, fmt.Errorf("nil response")
	}

	if _, ok := any(r).(string); ok {
		return any(string(res.Body)).(T), nil
	}

	err := json.Unmarshal(res.Body, &r)
	if err != nil {
		return r, fmt.Errorf("failed to unmarshal response json: %w", err)
	}
	return r, nil
}
