package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans projection-update events out to the websocket clients of each
// account, with optional redis pub/sub so peer instances see them too.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	AccountID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(accountID string) *Client {
	client := &Client{
		AccountID: accountID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[accountID] == nil {
		h.clients[accountID] = map[*Client]struct{}{}
	}
	h.clients[accountID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if accountClients, ok := h.clients[client.AccountID]; ok {
		delete(accountClients, client)
		if len(accountClients) == 0 {
			delete(h.clients, client.AccountID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(accountID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[accountID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(accountID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "events:*:broadcast")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		accountID := accountIDFromChannel(msg.Channel)
		h.mu.RLock()
		clients := h.clients[accountID]
		h.mu.RUnlock()
		for client := range clients {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
	}
}

func redisChannel(accountID string) string {
	return "events:" + accountID + ":broadcast"
}

func accountIDFromChannel(ch string) string {
	// events:{account}:broadcast
	const prefix = "events:"
	const suffix = ":broadcast"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
