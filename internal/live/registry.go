package live

import (
	"context"
	"errors"
)

var (
	ErrChannelClosed = errors.New("live channel closed")
	ErrBufferFull    = errors.New("live channel send buffer full")
)

// Channel is an open duplex connection to one user.
type Channel interface {
	Send(ctx context.Context, ev Event) error
}

// Registry maps a user to their open channel, if any. A missing channel is
// not an error.
type Registry interface {
	Lookup(ctx context.Context, userID uint) (Channel, bool)
}

// Connector is the connect/disconnect side of a registry, used by the
// websocket endpoint.
type Connector interface {
	Connect(ctx context.Context, c *Client)
	Disconnect(ctx context.Context, c *Client)
}

// NopRegistry never finds a channel.
type NopRegistry struct{}

func (NopRegistry) Lookup(context.Context, uint) (Channel, bool) { return nil, false }
