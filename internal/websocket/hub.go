// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package websocket pushes subscription and sign-in state changes to
// connected browser sessions, so a toggle made in one tab shows up in
// every other tab without polling.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/metrics"
	"github.com/hyunwoo-dev/newsync/internal/models"
)

// Message types for WebSocket communication.
const (
	MessageTypeSubscriptions = "subscriptions_changed"
	MessageTypeAuth          = "auth_changed"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
)

// Message is a WebSocket frame payload.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionsData is the payload of a subscriptions_changed message.
type SubscriptionsData struct {
	Subscriptions []models.Subscription `json:"subscriptions"`
}

// AuthData is the payload of an auth_changed message.
type AuthData struct {
	SignedIn bool `json:"signedIn"`
}

// delivery targets a message at one user's connections.
type delivery struct {
	userID  string
	message Message
}

// Hub maintains the set of active clients and routes messages to the
// connections belonging to a given user.
type Hub struct {
	clients    map[*Client]bool
	deliver    chan delivery
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// done is closed on shutdown so connection goroutines blocked on the
	// unbuffered lifecycle channels can give up instead of leaking.
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		deliver:    make(chan delivery, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// RunWithContext runs the hub until the context is canceled. Designed
// for suture supervision: on cancellation all clients are closed and
// ctx.Err() is returned.
//
// Uses priority-based selection so behavior is predictable when several
// channels are ready: shutdown first, then client lifecycle, then
// deliveries.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case d := <-h.deliver:
			h.deliverToUser(d)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Str("user_id", client.userID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Str("user_id", client.userID).Int("total_clients", total).Msg("websocket client disconnected")
}

// deliverToUser sends a message to every connection owned by the target
// user, in client ID order so delivery is deterministic.
func (h *Hub) deliverToUser(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	targets := make([]*Client, 0, 4)
	for client := range h.clients {
		if client.userID == d.userID {
			targets = append(targets, client)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	for _, client := range targets {
		select {
		case client.send <- d.message:
			metrics.WebSocketMessagesSent.WithLabelValues(d.message.Type).Inc()
		default:
			// Slow consumer. Drop the connection, not the hub.
			close(client.send)
			delete(h.clients, client)
		}
	}
	metrics.WebSocketClients.Set(float64(len(h.clients)))
}

// attach registers a client, reporting false once the hub has stopped.
func (h *Hub) attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// detach removes a client, giving up once the hub has stopped. Safe to
// call from connection goroutines racing a shutdown.
func (h *Hub) detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// shutdown closes all connected clients.
func (h *Hub) shutdown() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	count := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// SendSubscriptions pushes the user's current subscription list to all
// of their connections.
func (h *Hub) SendSubscriptions(userID string, subs []models.Subscription) {
	h.send(userID, Message{
		Type: MessageTypeSubscriptions,
		Data: SubscriptionsData{Subscriptions: subs},
	})
}

// SendAuthChange pushes a sign-in state change to the user's connections.
func (h *Hub) SendAuthChange(userID string, signedIn bool) {
	h.send(userID, Message{
		Type: MessageTypeAuth,
		Data: AuthData{SignedIn: signedIn},
	})
}

func (h *Hub) send(userID string, msg Message) {
	select {
	case h.deliver <- delivery{userID: userID, message: msg}:
	default:
		logging.Warn().Str("message_type", msg.Type).Msg("delivery channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
