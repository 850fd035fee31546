package websocket

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// delivery is a message addressed to the clients of a set of users.
type delivery struct {
	userIDs []string
	message []byte
}

// Hub maintains the set of active clients and routes feed messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Clients by the id of the user they are signed in as.
	subscriptions map[string]map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	deliver chan delivery
	count   chan chan int
	done    chan struct{}
	once    sync.Once
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		deliver:       make(chan delivery, 64),
		count:         make(chan chan int),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Feed client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Feed client disconnected")
			}
		case d := <-h.deliver:
			for _, userID := range d.userIDs {
				for client := range h.subscriptions[userID] {
					select {
					case client.Send <- d.message:
					default:
						h.drop(client)
					}
				}
			}
		case reply := <-h.count:
			reply <- len(h.clients)
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// Stop shuts the hub down and closes every client's send channel.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishTo queues message for every client signed in as one of userIDs.
// Duplicate ids receive the message once.
func (h *Hub) PublishTo(userIDs []string, message []byte) {
	seen := make(map[string]bool, len(userIDs))
	unique := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	select {
	case h.deliver <- delivery{userIDs: unique, message: message}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	if h.stopped() {
		return 0
	}
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	if subs, ok := h.subscriptions[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.UserID)
		}
	}
	close(client.Send)
}
