package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub хранит активные соединения и рассылает им сообщения.
type Hub struct {
	clients     map[*Client]struct{}
	userClients map[uint64]map[*Client]struct{}
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	mu          sync.RWMutex
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		userClients: make(map[uint64]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Run обслуживает регистрацию клиентов до отмены ctx, затем закрывает все соединения.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.mu.Unlock()
			return nil
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			if h.userClients[client.UserID] == nil {
				h.userClients[client.UserID] = make(map[*Client]struct{})
			}
			h.userClients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("websocket: клиент зарегистрирован", zap.Uint64("userID", client.UserID))
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.logger.Debug("websocket: клиент отсоединён", zap.Uint64("userID", client.UserID))
		}
	}
}

// Register и Unregister не блокируются после остановки хаба.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// remove вызывается под h.mu.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	if set := h.userClients[client.UserID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
}

// SendMessageToUser отправляет сообщение во все соединения пользователя.
func (h *Hub) SendMessageToUser(userID uint64, payload interface{}, messageType string) error {
	message, err := encode(payload, messageType)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.userClients[userID] {
		h.deliver(client, message)
	}
	return nil
}

// BroadcastToRole отправляет сообщение всем соединениям с указанной ролью.
func (h *Hub) BroadcastToRole(role string, payload interface{}, messageType string) error {
	message, err := encode(payload, messageType)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.Role == role {
			h.deliver(client, message)
		}
	}
	return nil
}

// ConnectedUsers - число пользователей, у которых есть хотя бы одно соединение.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients)
}

// deliver не блокирует: медленный клиент теряет сообщение, а не тормозит рассылку.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.logger.Warn("websocket: буфер клиента переполнен, сообщение пропущено", zap.Uint64("userID", client.UserID))
	}
}

func encode(payload interface{}, messageType string) ([]byte, error) {
	return json.Marshal(Envelope{
		ID:        uuid.NewString(),
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}
