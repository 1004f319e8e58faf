package codec

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyhorde/barto-sub000/internal/codec/shared"
	"github.com/rustyhorde/barto-sub000/internal/codec/wire"
)

func TestServerToWorkerInitializeRoundTrip(t *testing.T) {
	init := shared.Initialize{ID: shared.UUID{UUID: uuid.New()}, SchedulesJSON: []byte(`{"schedules":[]}`)}
	msg := NewServerToWorkerInitialize(init)

	w := wire.NewWriter()
	require.NoError(t, msg.Encode(w))

	var decoded ServerToWorker
	r := wire.NewReader(w.Bytes())
	require.NoError(t, decoded.Decode(r))

	assert.Equal(t, init.ID, decoded.Initialize().ID)
	assert.Equal(t, init.SchedulesJSON, decoded.Initialize().SchedulesJSON)
}

func TestServerToWorkerUnexpectedVariant(t *testing.T) {
	w := wire.NewWriter()
	w.WriteU32(99)
	var decoded ServerToWorker
	err := decoded.Decode(wire.NewReader(w.Bytes()))
	assert.Error(t, err)
}

func TestServerToCliEachVariantRoundTrips(t *testing.T) {
	id := uuid.New()
	cases := []ServerToCli{
		NewServerToCliInfo(map[string]string{"version": "1.0.0"}),
		NewServerToCliInfoJSON(`{"version":"1.0.0"}`),
		NewServerToCliUpdates(shared.NewUpdateOther()),
		NewServerToCliCleanup(42, 7),
		NewServerToCliClients(map[shared.UUID]shared.ClientData{
			{UUID: id}: {Name: "worker-1", IP: "10.0.0.5"},
		}),
		NewServerToCliQuery(map[int]map[string]string{1: {"col": "val"}}),
		NewServerToCliList([]shared.ListOutput{{ExitCode: 0, Success: 1}}),
		NewServerToCliFailed([]shared.FailedOutput{{ExitCode: 1, Success: 0}}),
		NewServerToCliListCommands([]string{"a", "b"}),
		NewServerToCliCmd(map[string][]shared.ListOutput{"job": {{ExitCode: 0, Success: 1}}}),
	}

	for i, original := range cases {
		w := wire.NewWriter()
		require.NoError(t, original.Encode(w), "case %d", i)

		var decoded ServerToCli
		require.NoError(t, decoded.Decode(wire.NewReader(w.Bytes())), "case %d", i)
		assert.Equal(t, original.Tag(), decoded.Tag(), "case %d", i)
	}
}

func TestServerToCliUnexpectedVariant(t *testing.T) {
	w := wire.NewWriter()
	w.WriteU32(10)
	var decoded ServerToCli
	err := decoded.Decode(wire.NewReader(w.Bytes()))
	assert.Error(t, err)
}

func TestWorkerToServerCloseWithoutReason(t *testing.T) {
	original := NewWorkerToServerClose(false, 0, "")
	w := wire.NewWriter()
	require.NoError(t, original.Encode(w))
	var decoded WorkerToServer
	require.NoError(t, decoded.Decode(wire.NewReader(w.Bytes())))
	hasCode, _, _ := decoded.Close()
	assert.False(t, hasCode)
}

func TestWorkerToServerCloseWithReason(t *testing.T) {
	original := NewWorkerToServerClose(true, 1000, "bye")
	w := wire.NewWriter()
	require.NoError(t, original.Encode(w))
	var decoded WorkerToServer
	require.NoError(t, decoded.Decode(wire.NewReader(w.Bytes())))
	hasCode, code, reason := decoded.Close()
	assert.True(t, hasCode)
	assert.Equal(t, uint16(1000), code)
	assert.Equal(t, "bye", reason)
}

func TestWorkerToServerRecordRoundTrip(t *testing.T) {
	out := shared.Output{
		Timestamp: shared.Timestamp{Time: time.Now().UTC().Truncate(time.Second)},
		UUID:      shared.UUID{UUID: uuid.New()},
		Kind:      shared.OutputStdout,
		Data:      "hello world",
	}
	original := NewWorkerToServerRecord(out)
	w := wire.NewWriter()
	require.NoError(t, original.Encode(w))
	var decoded WorkerToServer
	require.NoError(t, decoded.Decode(wire.NewReader(w.Bytes())))
	assert.Equal(t, out.Data, decoded.Record().Data)
	assert.True(t, out.Timestamp.Time.Equal(decoded.Record().Timestamp.Time))
	assert.Equal(t, out.UUID.UUID, decoded.Record().UUID.UUID)
}

func TestCliEachVariantRoundTrips(t *testing.T) {
	cases := []Cli{
		NewCliInfo(true),
		NewCliUpdates("worker-1"),
		NewCliCleanup(),
		NewCliClients(),
		NewCliQuery("select 1"),
		NewCliList("worker-1", "build"),
		NewCliFailed(),
	}
	for i, original := range cases {
		w := wire.NewWriter()
		require.NoError(t, original.Encode(w), "case %d", i)
		var decoded Cli
		require.NoError(t, decoded.Decode(wire.NewReader(w.Bytes())), "case %d", i)
		assert.Equal(t, original.Tag(), decoded.Tag(), "case %d", i)
	}
}

func TestCliUnexpectedVariant(t *testing.T) {
	w := wire.NewWriter()
	w.WriteU32(7)
	var decoded Cli
	err := decoded.Decode(wire.NewReader(w.Bytes()))
	assert.Error(t, err)
}

func TestUpdateKindGarudaRoundTrip(t *testing.T) {
	gs := []shared.Garuda{
		{Channel: "extra", Package: "kio", OldVersion: "1", NewVersion: "2", SizeChange: "0.00 MiB", DownloadSize: "3.59 MiB"},
	}
	original := shared.NewUpdateGaruda(gs)
	w := wire.NewWriter()
	require.NoError(t, original.Encode(w))
	var decoded shared.UpdateKind
	require.NoError(t, decoded.Decode(wire.NewReader(w.Bytes())))
	assert.True(t, decoded.IsGaruda())
	require.Len(t, decoded.Garuda(), 1)
	assert.Equal(t, "kio", decoded.Garuda()[0].Package)
}

func TestUpdateKindPacmanRoundTrip(t *testing.T) {
	p := shared.Pacman{UpdateCount: 3, Packages: []string{"a", "b", "c"}, InstallSize: 10.5, NetSize: 9.1, DownloadSize: 4.2}
	original := shared.NewUpdatePacman(p)
	w := wire.NewWriter()
	require.NoError(t, original.Encode(w))
	var decoded shared.UpdateKind
	require.NoError(t, decoded.Decode(wire.NewReader(w.Bytes())))
	assert.True(t, decoded.IsPacman())
	assert.Equal(t, p, decoded.Pacman())
}

func TestUUIDWireRoundTrip(t *testing.T) {
	u := shared.UUID{UUID: uuid.New()}
	w := wire.NewWriter()
	require.NoError(t, u.Encode(w))
	var decoded shared.UUID
	require.NoError(t, decoded.Decode(wire.NewReader(w.Bytes())))
	assert.Equal(t, u.UUID, decoded.UUID)
}

func TestTimestampWireIsRFC3339(t *testing.T) {
	ts := shared.Timestamp{Time: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)}
	w := wire.NewWriter()
	require.NoError(t, ts.Encode(w))
	r := wire.NewReader(w.Bytes())
	s, err := r.ReadString()
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339Nano, s)
	assert.NoError(t, err)
}
