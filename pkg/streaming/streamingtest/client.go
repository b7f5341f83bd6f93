// Package streamingtest provides a testify mock of streaming.Client.
package streamingtest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Goden-Gun/balthazar/pkg/streaming"
)

var _ streaming.Client = (*Client)(nil)

// Client is a mock streaming.Client. Enabled reports true unless an
// expectation for it is set.
type Client struct {
	mock.Mock
}

// NewClient returns a Client that asserts its expectations on cleanup.
func NewClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *Client {
	c := &Client{}
	c.Mock.Test(t)
	t.Cleanup(func() { c.AssertExpectations(t) })
	return c
}

func (c *Client) Publish(ctx context.Context, msg streaming.Message) error {
	args := c.Called(ctx, msg)
	return args.Error(0)
}

func (c *Client) HealthCheck(ctx context.Context) error {
	args := c.Called(ctx)
	return args.Error(0)
}

func (c *Client) Close() error {
	args := c.Called()
	return args.Error(0)
}

func (c *Client) Enabled() bool {
	for _, call := range c.ExpectedCalls {
		if call.Method == "Enabled" {
			return c.Called().Bool(0)
		}
	}
	return true
}
