// Package server hosts arenas for browser clients over websockets: one
// session per arena, JSON envelopes in and msgpack snapshots out.
package server

import (
	"sync"
	"time"

	"spaceship-shmup/arena"
	"spaceship-shmup/store"
	"spaceship-shmup/weapon"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
	reapInterval  = 30 * time.Second
)

// Config is what the hub needs to build sessions
type Config struct {
	Arena   arena.Config
	Catalog *weapon.Catalog
	Seed    int64 // 0 seeds every session from the clock
}

// Hub manages all connected clients and routes them to sessions
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	stop       chan struct{}
	stopOnce   sync.Once
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	loginFails map[string]*failWindow
	// Accounts and leaderboard, nil when running without a database
	db       *store.DB
	accounts *Accounts
}

type failWindow struct {
	count   int
	resetAt time.Time
}

// NewHub creates a new Hub. db may be nil, which disables accounts and
// leaderboards.
func NewHub(cfg Config, db *store.DB) *Hub {
	if cfg.Catalog == nil {
		cfg.Catalog = weapon.DefaultCatalog()
	}
	var rec RunRecorder
	var accounts *Accounts
	if db != nil {
		rec = db
		accounts = NewAccounts(db)
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		sessions:   NewSessionManager(cfg.Arena, cfg.Catalog, cfg.Seed, rec),
		stop:       make(chan struct{}),
		ipConns:    make(map[string]int),
		loginFails: make(map[string]*failWindow),
		db:         db,
		accounts:   accounts,
	}
}

// Sessions exposes the session manager
func (h *Hub) Sessions() *SessionManager { return h.sessions }

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// LoginLocked reports whether ip has failed too many logins recently
func (h *Hub) LoginLocked(ip string, now time.Time) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	w, ok := h.loginFails[ip]
	if !ok {
		return false
	}
	if now.After(w.resetAt) {
		delete(h.loginFails, ip)
		return false
	}
	return w.count >= maxLoginFails
}

// TrackLogin counts a failed login against ip. A success clears the count.
func (h *Hub) TrackLogin(ip string, ok bool, now time.Time) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if ok {
		delete(h.loginFails, ip)
		return
	}
	w, found := h.loginFails[ip]
	if !found || now.After(w.resetAt) {
		w = &failWindow{resetAt: now.Add(loginFailWindow)}
		h.loginFails[ip] = w
	}
	w.count++
}

// Run processes register/unregister events and reaps idle sessions
func (h *Hub) Run() {
	reap := time.NewTicker(reapInterval)
	defer reap.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			if client.sessionID != "" {
				h.sessions.Leave(client.sessionID, client)
			}

		case now := <-reap.C:
			h.sessions.ReapIdle(now)

		case <-h.stop:
			h.sessions.StopAll()
			return
		}
	}
}

// Stop ends Run and every session
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
