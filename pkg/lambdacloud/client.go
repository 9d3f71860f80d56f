package lambdacloud

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Lambda Cloud API endpoint
const DefaultBaseURL = "https://cloud.lambdalabs.com"

// HTTPDoer is the transport the client sends requests through.
// *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Lambda Cloud API client.
// It holds no mutable state after New returns and is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     Credential
	authMethod AuthMethod
	httpClient HTTPDoer
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*options)

type options struct {
	baseURL    string
	authMethod AuthMethod
	httpClient HTTPDoer
	retryMax   int
	logger     *zap.Logger
}

// WithBaseURL overrides the API base URL. A trailing slash is removed.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithAuthMethod selects how the API key is rendered into the Authorization header
func WithAuthMethod(method AuthMethod) Option {
	return func(o *options) {
		o.authMethod = method
	}
}

// WithHTTPClient replaces the default transport.
// WithRetryMax has no effect when a custom transport is supplied.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(o *options) {
		o.httpClient = doer
	}
}

// WithRetryMax enables retries of failed round trips in the default transport.
// The default of 0 sends every request exactly once.
func WithRetryMax(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.retryMax = n
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a new Lambda Cloud API client
func New(apiKey string, opts ...Option) *Client {
	o := options{
		baseURL:    DefaultBaseURL,
		authMethod: AuthBearer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.httpClient == nil {
		o.httpClient = newRetryableTransport(o.retryMax, o.logger)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(o.baseURL, "/"),
		apiKey:     Credential(apiKey),
		authMethod: o.authMethod,
		httpClient: o.httpClient,
		logger:     o.logger,
	}
}

// BaseURL returns the normalized base URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AuthMethod returns the authentication strategy chosen at construction
func (c *Client) AuthMethod() AuthMethod {
	return c.authMethod
}
