package relay

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"inflow/internal/models"
	"inflow/internal/port"
)

var ErrNoActivePage = errors.New("no active page")

type pageConn struct {
	id   string
	port port.Port
}

// Hub tracks the connected pages. The most recently connected page that is
// still open is the active one and receives pushed commands.
type Hub struct {
	mu    sync.Mutex
	pages []pageConn
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) add(p port.Port) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.pages = append(h.pages, pageConn{id: id, port: p})
	h.mu.Unlock()
	return id
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, pc := range h.pages {
		if pc.id == id {
			h.pages = append(h.pages[:i], h.pages[i+1:]...)
			return
		}
	}
}

// Count returns the number of connected pages.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pages)
}

// Push sends env to the active page. Pages that turn out to be disconnected
// are dropped and the next most recent one is tried.
func (h *Hub) Push(env models.Envelope) (string, error) {
	for {
		h.mu.Lock()
		if len(h.pages) == 0 {
			h.mu.Unlock()
			return "", ErrNoActivePage
		}
		active := h.pages[len(h.pages)-1]
		h.mu.Unlock()

		err := active.port.Post(env)
		if err == nil {
			return active.id, nil
		}
		if !errors.Is(err, port.ErrDisconnected) {
			return "", err
		}
		h.remove(active.id)
	}
}
