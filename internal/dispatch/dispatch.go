// Package dispatch implements the server-side request router and
// connected-client registry (spec §4.F), grounded on
// _examples/teranos-QNTX/server/client.go's routeMessage switch,
// generalized from a string-typed JSON message to the binary Cli/ServerToCli
// catalog in internal/codec.
package dispatch

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rustyhorde/barto-sub000/internal/codec"
	"github.com/rustyhorde/barto-sub000/internal/codec/shared"
)

// Queryable is the handler interface a Router invokes for every decoded
// request (spec §4.F).
type Queryable interface {
	Info(json bool) codec.ServerToCli
	Updates(name string) codec.ServerToCli
	Cleanup() codec.ServerToCli
	Clients(registry *Registry) codec.ServerToCli
	Query(query string) codec.ServerToCli
	List(name, cmdName string) codec.ServerToCli
	Failed() codec.ServerToCli
}

// Router dispatches one decoded Cli request at a time. It is stateless
// between requests; all state lives in the Queryable implementation and the
// Registry.
type Router struct {
	handler  Queryable
	registry *Registry
}

// NewRouter builds a Router over handler and registry.
func NewRouter(handler Queryable, registry *Registry) *Router {
	return &Router{handler: handler, registry: registry}
}

// Dispatch invokes the Queryable method matching req's tag, returning
// the response to write back through the session.
func (r *Router) Dispatch(req codec.Cli) codec.ServerToCli {
	switch req.Tag() {
	case 0:
		return r.handler.Info(req.InfoJSON())
	case 1:
		return r.handler.Updates(req.UpdatesName())
	case 2:
		return r.handler.Cleanup()
	case 3:
		return r.handler.Clients(r.registry)
	case 4:
		return r.handler.Query(req.Query())
	case 5:
		name, cmdName := req.ListName()
		return r.handler.List(name, cmdName)
	case 6:
		return r.handler.Failed()
	default:
		return codec.NewServerToCliFailed(nil)
	}
}

// Registry is the server's connected-client map, mutated only from the
// accept and disconnect paths (spec §3 "Connected-client registry").
type Registry struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]shared.ClientData
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[uuid.UUID]shared.ClientData)}
}

// Insert adds or replaces a client's registry entry. Called from the
// session accept path.
func (r *Registry) Insert(id uuid.UUID, data shared.ClientData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[id] = data
}

// Remove drops a client's registry entry. Called from the session
// disconnect path.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// Snapshot returns a copy of the registry suitable for a Clients response.
func (r *Registry) Snapshot() map[shared.UUID]shared.ClientData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[shared.UUID]shared.ClientData, len(r.clients))
	for id, data := range r.clients {
		out[shared.UUID{UUID: id}] = data
	}
	return out
}

// Len reports how many clients are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
