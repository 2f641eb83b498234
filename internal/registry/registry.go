package registry

import (
	"errors"
	"iter"
	"sync"

	"presence-notify/internal/domain"
)

// Connection is one live duplex channel to a client, bound to a single user.
type Connection interface {
	ID() string
	UserID() string
	// Send must return an error, not panic, once the connection is closed.
	Send(event string, payload any) error
	Close() error
}

var (
	ErrMissingUserID   = domain.NewInvalidArgument("MISSING_USER_ID", "connection has no user id")
	ErrDuplicateConnID = domain.NewInvalidArgument("DUPLICATE_CONNECTION", "connection id already registered")
)

// Stats is a point-in-time size of the registry.
type Stats struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
}

// ConnectionRegistry maps user ids to their live connections.
// A user key exists only while that user has at least one connection.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]Connection
	owners map[string]string // connection id -> user id
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byUser: make(map[string]map[string]Connection),
		owners: make(map[string]string),
	}
}

// Register adds conn under userID and returns its connection id.
func (r *ConnectionRegistry) Register(userID string, conn Connection) (string, error) {
	if userID == "" {
		return "", ErrMissingUserID
	}
	if conn == nil {
		return "", errors.New("registry: nil connection")
	}
	id := conn.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.owners[id]; exists {
		return "", ErrDuplicateConnID
	}
	conns, ok := r.byUser[userID]
	if !ok {
		conns = make(map[string]Connection)
		r.byUser[userID] = conns
	}
	conns[id] = conn
	r.owners[id] = userID
	return id, nil
}

// Unregister removes the connection and drops the user key with its last connection.
// It reports whether the connection was registered.
func (r *ConnectionRegistry) Unregister(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[connectionID]
	if !ok {
		return false
	}
	delete(r.owners, connectionID)

	conns := r.byUser[userID]
	delete(conns, connectionID)
	if len(conns) == 0 {
		delete(r.byUser, userID)
	}
	return true
}

// ConnectionsFor returns a copy of the user's connections, empty if none.
func (r *ConnectionRegistry) ConnectionsFor(userID string) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byUser[userID]
	out := make([]Connection, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// AllConnections returns a sequence over every connection registered at call time.
// The snapshot is taken eagerly, so ranging over it again yields the same
// connections and later registrations are never observed.
func (r *ConnectionRegistry) AllConnections() iter.Seq[Connection] {
	r.mu.RLock()
	snapshot := make([]Connection, 0, len(r.owners))
	for _, conns := range r.byUser {
		for _, c := range conns {
			snapshot = append(snapshot, c)
		}
	}
	r.mu.RUnlock()

	return func(yield func(Connection) bool) {
		for _, c := range snapshot {
			if !yield(c) {
				return
			}
		}
	}
}

func (r *ConnectionRegistry) HasUser(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

func (r *ConnectionRegistry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{Users: len(r.byUser), Connections: len(r.owners)}
}

// CloseAll empties the registry and closes every connection outside the lock.
func (r *ConnectionRegistry) CloseAll() int {
	r.mu.Lock()
	conns := make([]Connection, 0, len(r.owners))
	for _, set := range r.byUser {
		for _, c := range set {
			conns = append(conns, c)
		}
	}
	r.byUser = make(map[string]map[string]Connection)
	r.owners = make(map[string]string)
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	return len(conns)
}
