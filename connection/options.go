package connection

import "net/http"

// CallOption customizes a single request.
type CallOption func(*callOptions)

type callOptions struct {
	headers map[string]string
}

// WithHeader sets one request header for this call only. It wins over the
// connection's default headers.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithHeaders sets several request headers for this call only.
func WithHeaders(headers map[string]string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			o.headers[k] = v
		}
	}
}

// MergeHeaders returns defaults overlaid with overrides, overrides win on
// conflict. Keys are canonicalized so "x-foo" and "X-Foo" collide. Inputs are
// left untouched.
func MergeHeaders(defaults, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range overrides {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	return merged
}
