// Package camunda connects the lead server to a Zeebe gateway and runs job workers.
package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"lead-crm/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client is a connected Zeebe client. Commands sent through ExecuteWithRetry
// are retried while the gateway reports a transient failure.
type Client struct {
	zeebe zbc.Client
	cfg   ClientConfig
}

// ClientConfig holds the gateway address and per-call limits.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	// ConnectionTimeout bounds the topology request used by Dial and Ping.
	ConnectionTimeout time.Duration
	// RequestTimeout bounds each attempt of ExecuteWithRetry. Zero means no bound.
	RequestTimeout time.Duration
	Retry          RetryPolicy
}

// RetryPolicy is capped exponential backoff. The zero value uses DefaultRetryPolicy.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   10 * time.Second,
}

func (p RetryPolicy) orDefault() RetryPolicy {
	if p == (RetryPolicy{}) {
		return DefaultRetryPolicy
	}
	return p
}

// delay is the wait before retry number attempt+1.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Dial opens a gateway connection and confirms the broker answers a topology request.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	cfg.Retry = cfg.Retry.orDefault()

	zc, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{zeebe: zc, cfg: cfg}
	if err := c.Ping(ctx); err != nil {
		zc.Close()
		return nil, fmt.Errorf("gateway %s: %w", cfg.GatewayAddress, err)
	}
	return c, nil
}

// GetClient returns the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.zeebe
}

func (c *Client) Close() error {
	return c.zeebe.Close()
}

// Ping sends a topology request. It backs the /ready check.
func (c *Client) Ping(ctx context.Context) error {
	if c.cfg.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ConnectionTimeout)
		defer cancel()
	}
	if _, err := c.zeebe.NewTopologyCommand().Send(ctx); err != nil {
		return errors.NewWorkflowEngineUnavailableError("topology", err)
	}
	return nil
}

// ExecuteWithRetry runs command until it succeeds, fails permanently, or the
// retry budget is spent. Failures come back as workflow engine StandardErrors.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	command func(context.Context) (interface{}, error),
	operation string,
) (interface{}, error) {
	policy := c.cfg.Retry.orDefault()

	for attempt := 0; ; attempt++ {
		result, err := c.attempt(ctx, command)
		if err == nil {
			return result, nil
		}
		if !isTransient(err) || attempt >= policy.MaxRetries {
			return nil, classify(err, operation, attempt)
		}

		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			return nil, fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}
}

func (c *Client) attempt(ctx context.Context, command func(context.Context) (interface{}, error)) (interface{}, error) {
	if c.cfg.RequestTimeout <= 0 {
		return command(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	return command(ctx)
}

var transientPhrases = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
}

// isTransient trusts the gRPC status code when there is one and falls back to
// the error text for transport errors that never reached the gateway.
func isTransient(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func classify(err error, operation string, attempt int) error {
	if attempt > 0 {
		err = fmt.Errorf("after %d attempts: %w", attempt+1, err)
	}
	if isTransient(err) {
		return errors.NewWorkflowEngineUnavailableError(operation, err)
	}
	return errors.NewWorkflowEngineRejectedError(operation, err)
}
