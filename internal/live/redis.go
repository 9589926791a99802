package live

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

const (
	presenceKey       = "live:presence"
	userChannelPrefix = "live:user:"
)

// leaveScript decrements a user's instance count and drops the field once
// no instance holds a socket for them.
var leaveScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if n <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
end
return n
`)

func userChannel(userID uint) string {
	return userChannelPrefix + presenceField(userID)
}

func presenceField(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// RedisRegistry shares presence between instances. Users connected to this
// instance are served from the local hub; others are reached by publishing
// to their user channel, which the owning instance relays.
//
// Presence is a hash of user id to the number of instances holding a socket
// for that user, so one instance going away does not hide the others.
type RedisRegistry struct {
	client *redis.Client
	hub    *Hub
}

func NewRedisRegistry(client *redis.Client, hub *Hub) *RedisRegistry {
	return &RedisRegistry{client: client, hub: hub}
}

func (r *RedisRegistry) Connect(ctx context.Context, c *Client) {
	if r.hub.add(c) {
		return
	}
	if err := r.client.HIncrBy(ctx, presenceKey, presenceField(c.UserID), 1).Err(); err != nil {
		l := logger.Ctx(ctx)
		l.Warn().Err(err).Uint(logger.FieldUserID, c.UserID).Msg("failed to mark user online")
	}
}

func (r *RedisRegistry) Disconnect(ctx context.Context, c *Client) {
	if !r.hub.remove(c) {
		return
	}
	r.leave(context.WithoutCancel(ctx), c.UserID)
}

func (r *RedisRegistry) leave(ctx context.Context, userID uint) {
	if err := leaveScript.Run(ctx, r.client, []string{presenceKey}, presenceField(userID)).Err(); err != nil {
		l := logger.Ctx(ctx)
		l.Warn().Err(err).Uint(logger.FieldUserID, userID).Msg("failed to mark user offline")
	}
}

func (r *RedisRegistry) Lookup(ctx context.Context, userID uint) (Channel, bool) {
	if ch, ok := r.hub.Lookup(ctx, userID); ok {
		return ch, true
	}
	online, err := r.client.HExists(ctx, presenceKey, presenceField(userID)).Result()
	if err != nil || !online {
		return nil, false
	}
	return &remoteChannel{client: r.client, userID: userID}, true
}

// Close withdraws this instance's presence and closes its local clients.
// Used on shutdown.
func (r *RedisRegistry) Close(ctx context.Context) {
	for _, id := range r.hub.userIDs() {
		r.leave(ctx, id)
	}
	r.hub.CloseAll()
}

// Run relays events published for users connected to this instance until
// ctx is done. Subscription errors are retried.
func (r *RedisRegistry) Run(ctx context.Context) {
	l := logger.L()
	for {
		err := r.relay(ctx)
		if ctx.Err() != nil {
			return
		}
		l.Warn().Err(err).Msg("live relay subscription error, reconnecting in 2s")
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (r *RedisRegistry) relay(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, userChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("live relay channel closed")
			}
			id, err := strconv.ParseUint(strings.TrimPrefix(msg.Channel, userChannelPrefix), 10, 64)
			if err != nil {
				continue
			}
			r.hub.deliver(uint(id), []byte(msg.Payload))
		}
	}
}

// remoteChannel publishes to a user connected to another instance.
type remoteChannel struct {
	client *redis.Client
	userID uint
}

func (c *remoteChannel) Send(ctx context.Context, ev Event) error {
	data, err := ev.encode()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, userChannel(c.userID), data).Err()
}

var (
	_ Registry  = (*RedisRegistry)(nil)
	_ Connector = (*RedisRegistry)(nil)
)
