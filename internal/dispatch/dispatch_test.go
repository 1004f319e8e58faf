package dispatch

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyhorde/barto-sub000/internal/codec"
	"github.com/rustyhorde/barto-sub000/internal/codec/shared"
)

type stubHandler struct {
	queryCalledWith string
}

func (s *stubHandler) Info(json bool) codec.ServerToCli {
	return codec.NewServerToCliInfo(map[string]string{"json": boolStr(json)})
}
func (s *stubHandler) Updates(name string) codec.ServerToCli {
	return codec.NewServerToCliUpdates(shared.NewUpdateOther())
}
func (s *stubHandler) Cleanup() codec.ServerToCli { return codec.NewServerToCliCleanup(1, 2) }
func (s *stubHandler) Clients(r *Registry) codec.ServerToCli {
	return codec.NewServerToCliClients(r.Snapshot())
}
func (s *stubHandler) Query(q string) codec.ServerToCli {
	s.queryCalledWith = q
	return codec.NewServerToCliQuery(nil)
}
func (s *stubHandler) List(name, cmdName string) codec.ServerToCli {
	return codec.NewServerToCliList(nil)
}
func (s *stubHandler) Failed() codec.ServerToCli { return codec.NewServerToCliFailed(nil) }

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestRouterDispatchesEveryTag(t *testing.T) {
	handler := &stubHandler{}
	reg := NewRegistry()
	router := NewRouter(handler, reg)

	cases := []codec.Cli{
		codec.NewCliInfo(true),
		codec.NewCliUpdates("worker-1"),
		codec.NewCliCleanup(),
		codec.NewCliClients(),
		codec.NewCliQuery("select 1"),
		codec.NewCliList("worker-1", "build"),
		codec.NewCliFailed(),
	}
	wantTags := []uint32{0, 2, 3, 4, 5, 6, 7}
	for i, req := range cases {
		resp := router.Dispatch(req)
		assert.Equal(t, wantTags[i], resp.Tag(), "case %d", i)
	}
	assert.Equal(t, "select 1", handler.queryCalledWith)
}

func TestRegistryInsertRemoveSnapshot(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()
	reg.Insert(id, shared.ClientData{Name: "worker-1", IP: "10.0.0.1"})
	require.Equal(t, 1, reg.Len())

	snap := reg.Snapshot()
	assert.Equal(t, "worker-1", snap[shared.UUID{UUID: id}].Name)

	reg.Remove(id)
	assert.Equal(t, 0, reg.Len())
}
