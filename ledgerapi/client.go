package ledgerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ledgerkit/api-test-harness/framework"
	"github.com/ledgerkit/api-test-harness/framework/helpers"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultFeeCushion = "1.2"
	defaultMaxFeeXRP  = "2"
)

// Client talks to one ledger server. Create it with NewClient and call Connect before
// anything else.
type Client struct {
	url        string
	transport  transport
	timeout    time.Duration
	feeCushion *big.Rat
	maxFeeXRP  *big.Rat
	logger     framework.Logger
}

// Option configures a Client in NewClient.
type Option = helpers.ConfigOption[Client]

// WithTimeout sets how long each request may take. The default is 10 seconds.
func WithTimeout(timeout time.Duration) Option {
	return helpers.ConfigOptionFunc[Client](func(c *Client) error {
		if timeout <= 0 {
			return &ValidationError{Field: "timeout", Message: "must be positive"}
		}
		c.timeout = timeout
		return nil
	})
}

// WithLogger sets a logger that receives every request and response.
func WithLogger(logger framework.Logger) Option {
	return helpers.ConfigOptionFunc[Client](func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	})
}

// WithFeeCushion sets the factor GetFee multiplies the server's fee by. It must be at least 1;
// the default is 1.2.
func WithFeeCushion(cushion string) Option {
	return helpers.ConfigOptionFunc[Client](func(c *Client) error {
		r, ok := parseDecimal(cushion)
		if !ok || r.Cmp(big.NewRat(1, 1)) < 0 {
			return &ValidationError{Field: "feeCushion", Message: fmt.Sprintf("%q must be a number >= 1", cushion)}
		}
		c.feeCushion = r
		return nil
	})
}

// WithMaxFeeXRP sets the highest fee GetFee will report. The default is 2 XRP.
func WithMaxFeeXRP(maxFee string) Option {
	return helpers.ConfigOptionFunc[Client](func(c *Client) error {
		r, ok := parseDecimal(maxFee)
		if !ok || r.Sign() <= 0 {
			return &ValidationError{Field: "maxFeeXRP", Message: fmt.Sprintf("%q must be a positive number", maxFee)}
		}
		c.maxFeeXRP = r
		return nil
	})
}

// NewClient creates a client for the server at serverURL. The scheme selects the protocol:
// http or https for JSON-RPC, ws or wss for websockets.
func NewClient(serverURL string, options ...Option) (*Client, error) {
	t, err := newTransport(serverURL)
	if err != nil {
		return nil, err
	}
	cushion, _ := parseDecimal(defaultFeeCushion)
	maxFee, _ := parseDecimal(defaultMaxFeeXRP)
	c := &Client{
		url:        serverURL,
		transport:  t,
		timeout:    defaultTimeout,
		feeCushion: cushion,
		maxFeeXRP:  maxFee,
		logger:     framework.NullLogger(),
	}
	if err := helpers.ApplyOptions(c, options...); err != nil {
		return nil, err
	}
	return c, nil
}

// InternalMethods lists exported methods that are not part of the ledger API itself.
func (c *Client) InternalMethods() []string {
	return []string{"Transport", "URL"}
}

// URL returns the server URL the client was created with.
func (c *Client) URL() string { return c.url }

// Transport returns "http" or "ws".
func (c *Client) Transport() string { return c.transport.name() }

// Connect opens the connection. For HTTP, it checks that the server responds.
func (c *Client) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	c.logger.Printf("Connecting to %s", c.url)
	if err := c.transport.connect(ctx); err != nil {
		return c.convertError(ctx, "connect", err)
	}
	return nil
}

// Disconnect closes the connection. Requests still waiting fail with a ConnectionError.
func (c *Client) Disconnect() error {
	c.logger.Printf("Disconnecting from %s", c.url)
	if err := c.transport.close(); err != nil {
		return &ConnectionError{URL: c.url, Err: err}
	}
	return nil
}

// IsConnected reports whether Connect has succeeded and the connection is still open.
func (c *Client) IsConnected() bool {
	return c.transport.isConnected()
}

// Request sends any command with the given parameters and returns the raw result object.
func (c *Client) Request(ctx context.Context, command string, params map[string]interface{}) (json.RawMessage, error) {
	if command == "" {
		return nil, &ValidationError{Field: "command", Message: "must not be empty"}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if data, err := json.Marshal(params); err == nil {
		c.logger.Printf("Request %s: %s", command, data)
	}
	result, err := c.transport.call(ctx, command, params)
	if err != nil {
		c.logger.Printf("Request %s failed: %s", command, err)
		return nil, c.convertError(ctx, command, err)
	}
	c.logger.Printf("Response to %s: %s", command, result)
	return result, nil
}

// request is Request followed by decoding the result into target.
func (c *Client) request(ctx context.Context, command string, params map[string]interface{}, target interface{}) error {
	result, err := c.Request(ctx, command, params)
	if err != nil {
		return err
	}
	decoder := json.NewDecoder(bytes.NewReader(result))
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return &ResponseFormatError{Command: command, Message: err.Error(), Data: string(result)}
	}
	return nil
}

func (c *Client) convertError(ctx context.Context, command string, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{Command: command, Timeout: c.timeout}
	case errors.Is(err, context.Canceled), ctx.Err() != nil:
		return &TimeoutError{Command: command}
	default:
		return &ConnectionError{URL: c.url, Err: err}
	}
}
