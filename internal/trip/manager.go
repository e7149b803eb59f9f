package trip

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/gensanfare/internal/overlay"
	"github.com/yourorg/gensanfare/internal/routing"
	"github.com/yourorg/gensanfare/internal/transit"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultSweepInterval = 5 * time.Minute
)

// Manager owns every live session: creation, lookup with idle tracking, and
// eviction of sessions nobody has touched for a while.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	catalog *transit.Catalog
	routes  routing.Resolver
	labels  LabelResolver

	idleTTL time.Duration
	done    chan struct{}
	once    sync.Once
}

type sessionEntry struct {
	controller *Controller
	hub        *overlay.Hub
	lastSeen   time.Time
}

// NewManager creates a manager and starts its eviction sweep.
func NewManager(catalog *transit.Catalog, routes routing.Resolver, labels LabelResolver) *Manager {
	m := &Manager{
		sessions: make(map[string]*sessionEntry),
		catalog:  catalog,
		routes:   routes,
		labels:   labels,
		idleTTL:  defaultIdleTTL,
		done:     make(chan struct{}),
	}
	go m.sweep(defaultSweepInterval)
	return m
}

// Create allocates a fresh session with its own hub and returns its ID.
func (m *Manager) Create() (string, *Controller, *overlay.Hub) {
	id := uuid.NewString()
	hub := overlay.NewHub()
	session := NewSession(m.routes, m.labels, hub)
	selection := transit.NewSelection(m.catalog, m.routes, hub)
	controller := NewController(session, selection)

	m.mu.Lock()
	m.sessions[id] = &sessionEntry{
		controller: controller,
		hub:        hub,
		lastSeen:   time.Now(),
	}
	m.mu.Unlock()

	log.Printf("🆕 Session %s created", id)
	return id, controller, hub
}

// Get returns the session for id and marks it as recently used.
func (m *Manager) Get(id string) (*Controller, *overlay.Hub, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, nil, false
	}
	entry.lastSeen = time.Now()
	return entry.controller, entry.hub, true
}

// Remove evicts a session immediately, disconnecting its clients.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok {
		entry.hub.Close()
		log.Printf("🗑️ Session %s removed", id)
	}
	return ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stop halts the eviction sweep and closes every session.
func (m *Manager) Stop() {
	m.once.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	for id, entry := range m.sessions {
		entry.hub.Close()
		delete(m.sessions, id)
	}
	m.mu.Unlock()
}

func (m *Manager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*sessionEntry
	for id, entry := range m.sessions {
		if entry.lastSeen.Before(cutoff) {
			expired = append(expired, entry)
			delete(m.sessions, id)
			log.Printf("🗑️ Session %s evicted after %s idle", id, m.idleTTL)
		}
	}
	m.mu.Unlock()

	for _, entry := range expired {
		entry.hub.Close()
	}
}
