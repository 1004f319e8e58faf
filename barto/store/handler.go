package store

import (
	"time"

	"github.com/rustyhorde/barto-sub000/internal/codec"
	"github.com/rustyhorde/barto-sub000/internal/codec/shared"
	"github.com/rustyhorde/barto-sub000/internal/dispatch"
)

// CleanupRetention is how far back Cleanup() looks before deleting rows
// (spec §4.F "Cleanup").
const CleanupRetention = 30 * 24 * time.Hour

// Handler adapts a Store into dispatch.Queryable, giving the server's
// Router a concrete collaborator instead of a mock (SPEC_FULL.md §3).
type Handler struct {
	store     *Store
	version   string
	commands  []string
	Retention time.Duration
}

// NewHandler builds a Handler over store, reporting version in Info
// responses and commands in ListCommands.
func NewHandler(store *Store, version string, commands []string) *Handler {
	return &Handler{store: store, version: version, commands: commands, Retention: CleanupRetention}
}

func (h *Handler) Info(json bool) codec.ServerToCli {
	if json {
		return codec.NewServerToCliInfoJSON(`{"version":"` + h.version + `"}`)
	}
	return codec.NewServerToCliInfo(map[string]string{"version": h.version})
}

// Updates reports no available package updates; the digest-extraction
// pipeline that would populate this is explicitly out of scope
// (SPEC_FULL.md §3).
func (h *Handler) Updates(name string) codec.ServerToCli {
	return codec.NewServerToCliUpdates(shared.NewUpdateOther())
}

func (h *Handler) Cleanup() codec.ServerToCli {
	removed, kept, err := h.store.Cleanup(time.Now().UTC().Add(-h.Retention))
	if err != nil {
		return codec.NewServerToCliCleanup(0, 0)
	}
	return codec.NewServerToCliCleanup(removed, kept)
}

func (h *Handler) Clients(registry *dispatch.Registry) codec.ServerToCli {
	return codec.NewServerToCliClients(registry.Snapshot())
}

// Query returns an empty result set; the relational query DSL behind this
// message is out of scope (spec.md's non-goals).
func (h *Handler) Query(query string) codec.ServerToCli {
	return codec.NewServerToCliQuery(nil)
}

func (h *Handler) List(name, cmdName string) codec.ServerToCli {
	rows, err := h.store.ListByCommand(cmdName)
	if err != nil {
		return codec.NewServerToCliList(nil)
	}
	return codec.NewServerToCliList(rows)
}

func (h *Handler) Failed() codec.ServerToCli {
	rows, err := h.store.FailedSince(100)
	if err != nil {
		return codec.NewServerToCliFailed(nil)
	}
	return codec.NewServerToCliFailed(rows)
}

// ListCommands reports the command names passed to NewHandler, carried over from original_source's BartosToBartoCli catalog
// (SPEC_FULL.md §4).
func (h *Handler) ListCommands() codec.ServerToCli {
	return codec.NewServerToCliListCommands(h.commands)
}
