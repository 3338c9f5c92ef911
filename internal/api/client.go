package api

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/chatline/internal/models"
)

// DefaultClientProfile is the TLS fingerprint used when none is configured
const DefaultClientProfile = "chrome_120"

// Doer sends a prepared request. tls_client.HttpClient satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatClient talks to the chat endpoint of one server
type ChatClient struct {
	httpClient     Doer
	baseURL        string
	endpoint       string
	timeoutSeconds int
	profile        string
	proxy          string
	logger         *slog.Logger
	mu             sync.RWMutex
	closed         bool
}

// ClientOption is a function that configures the client
type ClientOption func(*ChatClient)

// WithBaseURL sets the server the client talks to
func WithBaseURL(baseURL string) ClientOption {
	return func(c *ChatClient) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the whole-request timeout in seconds. Zero disables it.
func WithTimeout(seconds int) ClientOption {
	return func(c *ChatClient) {
		c.timeoutSeconds = seconds
	}
}

// WithClientProfile selects the TLS fingerprint, e.g. "chrome_120"
func WithClientProfile(name string) ClientOption {
	return func(c *ChatClient) {
		c.profile = name
	}
}

// WithProxy routes requests through a proxy URL
func WithProxy(proxy string) ClientOption {
	return func(c *ChatClient) {
		c.proxy = proxy
	}
}

// WithLogger sets the logger for request lifecycle events
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *ChatClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the TLS client, mainly for tests
func WithHTTPClient(doer Doer) ClientOption {
	return func(c *ChatClient) {
		c.httpClient = doer
	}
}

// NewClient creates a ChatClient. Unless WithHTTPClient is given, requests go
// through a tls-client HTTP client built from the profile, proxy and timeout.
func NewClient(opts ...ClientOption) (*ChatClient, error) {
	client := &ChatClient{
		baseURL: models.DefaultBaseURL,
		profile: DefaultClientProfile,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(client)
	}

	endpoint, err := chatEndpoint(client.baseURL)
	if err != nil {
		return nil, err
	}
	client.endpoint = endpoint

	if client.httpClient == nil {
		httpClient, err := newTLSClient(client.profile, client.proxy, client.timeoutSeconds)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

func newTLSClient(profile, proxy string, timeoutSeconds int) (tls_client.HttpClient, error) {
	clientProfile, ok := profiles.MappedTLSClients[strings.ToLower(profile)]
	if !ok {
		clientProfile = profiles.Chrome_120
	}

	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(clientProfile),
		tls_client.WithNotFollowRedirects(),
	}
	if proxy != "" {
		options = append(options, tls_client.WithProxyUrl(proxy))
	}

	return tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
}

// chatEndpoint joins the base URL and the chat path
func chatEndpoint(baseURL string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid endpoint %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing host", baseURL)
	}
	return strings.TrimRight(baseURL, "/") + models.EndpointChat, nil
}

// Endpoint returns the full URL requests are posted to
func (c *ChatClient) Endpoint() string {
	return c.endpoint
}

// BaseURL returns the configured server URL
func (c *ChatClient) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections. The client cannot be used afterwards.
func (c *ChatClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if closer, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}

// IsClosed returns whether the client is closed
func (c *ChatClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
