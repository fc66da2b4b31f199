package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront/internal/cart"
)

// EventsChannel carries change notifications to every connected storefront.
const EventsChannel = "storefront:events"

var (
	ErrCartNotFound  = errors.New("cart not found")
	ErrCartContended = errors.New("cart changed too often to update")
)

// maxCartRetries bounds how many times UpdateCart re-runs after losing a race.
const maxCartRetries = 64

type Client struct {
	rdb *redis.Client
}

// Event announces that a record in a collection changed.
type Event struct {
	Collection string    `json:"collection"`
	Action     string    `json:"action"`
	ID         string    `json:"id,omitempty"`
	At         time.Time `json:"at"`
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func cartKey(id string) string {
	return "cart:" + id
}

// Cart storage
func (c *Client) SetCart(ctx context.Context, crt *cart.Cart, ttl time.Duration) error {
	jsonData, err := json.Marshal(crt)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	return c.rdb.Set(ctx, cartKey(crt.ID), jsonData, ttl).Err()
}

func (c *Client) GetCart(ctx context.Context, id string) (*cart.Cart, error) {
	return getCart(ctx, c.rdb, id)
}

// UpdateCart loads the cart, applies fn and writes it back in one optimistic
// transaction. When another writer touches the cart in between, the whole
// read-modify-write runs again. An error from fn aborts without writing.
func (c *Client) UpdateCart(ctx context.Context, id string, ttl time.Duration, fn func(*cart.Cart) error) (*cart.Cart, error) {
	key := cartKey(id)
	var updated *cart.Cart

	txf := func(tx *redis.Tx) error {
		crt, err := getCart(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(crt); err != nil {
			return err
		}
		jsonData, err := json.Marshal(crt)
		if err != nil {
			return fmt.Errorf("failed to marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, jsonData, ttl)
			return nil
		})
		if err == nil {
			updated = crt
		}
		return err
	}

	for i := 0; i < maxCartRetries; i++ {
		err := c.rdb.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("cart %s: %w", id, ErrCartContended)
}

func getCart(ctx context.Context, cmd redis.Cmdable, id string) (*cart.Cart, error) {
	val, err := cmd.Get(ctx, cartKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	var crt cart.Cart
	if err := json.Unmarshal([]byte(val), &crt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	if crt.Items == nil {
		crt.Items = []cart.Item{}
	}

	return &crt, nil
}

func (c *Client) DeleteCart(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, cartKey(id)).Err()
}

// Change feed
func (c *Client) Publish(ctx context.Context, evt Event) error {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return c.rdb.Publish(ctx, EventsChannel, payload).Err()
}

// Subscribe returns a channel of decoded events and a func that ends the
// subscription. The channel is closed once the subscription ends.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, func() error, error) {
	sub := c.rdb.Subscribe(ctx, EventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, sub.Close, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
