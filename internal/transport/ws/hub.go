package ws

import (
	"context"
	"encoding/json"
	"log"
)

// Hub routes published events to topic subscribers. All registry state
// is owned by the Run loop; register, unregister, subscribe,
// unsubscribe and publish arrive as messages over channels, so they
// are applied in one total order and never race.
type Hub struct {
	// topics maps topic key → subscriber set. clientTopics is the
	// reverse index used to clean up on disconnect.
	topics       map[string]map[*Client]struct{}
	clientTopics map[*Client]map[string]struct{}

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan broadcastMsg
}

type subscription struct {
	client *Client
	topic  string
}

type broadcastMsg struct {
	topic string
	data  []byte
}

func NewHub() *Hub {
	return &Hub{
		topics:       make(map[string]map[*Client]struct{}),
		clientTopics: make(map[*Client]map[string]struct{}),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		subscribe:    make(chan subscription),
		unsubscribe:  make(chan subscription),
		broadcast:    make(chan broadcastMsg, 256),
	}
}

// Run starts the Hub's event loop. Call this in a goroutine; it
// returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clientTopics[client] = make(map[string]struct{})
			log.Printf("ws hub: client %s connected (%d total)", client.profileID, len(h.clientTopics))

		case client := <-h.unregister:
			h.drop(client)

		case sub := <-h.subscribe:
			if _, ok := h.clientTopics[sub.client]; !ok {
				continue // already dropped
			}
			set, ok := h.topics[sub.topic]
			if !ok {
				set = make(map[*Client]struct{})
				h.topics[sub.topic] = set
			}
			// Adding twice is a no-op; the set guarantees single delivery.
			set[sub.client] = struct{}{}
			h.clientTopics[sub.client][sub.topic] = struct{}{}

		case sub := <-h.unsubscribe:
			h.removeFromTopic(sub.client, sub.topic)

		case msg := <-h.broadcast:
			for client := range h.topics[msg.topic] {
				select {
				case client.send <- msg.data:
				default:
					// Outbound buffer full or receiver gone: drop this
					// subscriber, keep delivering to the rest.
					log.Printf("ws hub: dropping slow client %s", client.profileID)
					h.drop(client)
				}
			}
		}
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a connection and all of its subscriptions.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Subscribe adds the client to a topic. Idempotent.
func (h *Hub) Subscribe(c *Client, topic string) {
	h.subscribe <- subscription{client: c, topic: topic}
}

// Unsubscribe removes the client from a topic.
func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.unsubscribe <- subscription{client: c, topic: topic}
}

// Publish delivers an event to every current subscriber of the topic.
// Events published from one goroutine reach each subscriber in publish
// order. Publish never blocks the caller: if the hub's intake buffer
// is full the event is dropped and logged, and the write path that
// produced it still succeeds.
func (h *Hub) Publish(topic string, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- broadcastMsg{topic: topic, data: data}:
	default:
		log.Printf("ws hub: broadcast buffer full, dropping event on %s", topic)
	}
}

// drop removes a client from every topic and closes its send channel.
// Must only be called from the Run loop.
func (h *Hub) drop(client *Client) {
	topics, ok := h.clientTopics[client]
	if !ok {
		return
	}
	for topic := range topics {
		h.removeFromTopic(client, topic)
	}
	delete(h.clientTopics, client)
	close(client.send)
	close(client.done)
	log.Printf("ws hub: client %s disconnected (%d total)", client.profileID, len(h.clientTopics))
}

func (h *Hub) removeFromTopic(client *Client, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.topics, topic)
	}
	if topics, ok := h.clientTopics[client]; ok {
		delete(topics, topic)
	}
}
