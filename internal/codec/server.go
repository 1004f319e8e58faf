package codec

import (
	"sort"

	"github.com/rustyhorde/barto-sub000/internal/codec/shared"
	"github.com/rustyhorde/barto-sub000/internal/codec/wire"
)

// ServerToWorker is the bartos -> bartoc message catalog, grounded on
// original_source/libbarto/src/message/server.rs's BartosToBartoc.
type ServerToWorker struct {
	tag        serverToWorkerTag
	initialize shared.Initialize
}

type serverToWorkerTag uint32

const serverToWorkerInitialize serverToWorkerTag = 0

func NewServerToWorkerInitialize(init shared.Initialize) ServerToWorker {
	return ServerToWorker{tag: serverToWorkerInitialize, initialize: init}
}

func (m ServerToWorker) Initialize() shared.Initialize { return m.initialize }

func (m ServerToWorker) Encode(w *wire.Writer) error {
	w.WriteU32(uint32(m.tag))
	switch m.tag {
	case serverToWorkerInitialize:
		return m.initialize.Encode(w)
	default:
		return unexpectedVariant("ServerToWorker", 0, 0, uint32(m.tag))
	}
}

func (m *ServerToWorker) Decode(r *wire.Reader) error {
	tag, err := r.ReadU32()
	if err != nil {
		return err
	}
	switch serverToWorkerTag(tag) {
	case serverToWorkerInitialize:
		m.tag = serverToWorkerInitialize
		return m.initialize.Decode(r)
	default:
		return unexpectedVariant("ServerToWorker", 0, 0, tag)
	}
}

// ServerToCli is the bartos -> barto-cli message catalog, grounded on
// original_source/libbarto/src/message/server.rs's BartosToBartoCli. Variant
// discriminators 0-9 are load-bearing and must never be reordered.
type ServerToCli struct {
	tag          serverToCliTag
	info         map[string]string
	infoJSON     string
	updates      shared.UpdateKind
	cleanupDone  uint64
	cleanupKept  uint64
	clients      map[shared.UUID]shared.ClientData
	query        map[int]map[string]string
	list         []shared.ListOutput
	failed       []shared.FailedOutput
	listCommands []string
	cmd          map[string][]shared.ListOutput
}

type serverToCliTag uint32

const (
	serverToCliInfo serverToCliTag = iota
	serverToCliInfoJSON
	serverToCliUpdates
	serverToCliCleanup
	serverToCliClients
	serverToCliQuery
	serverToCliList
	serverToCliFailed
	serverToCliListCommands
	serverToCliCmd
)

func NewServerToCliInfo(info map[string]string) ServerToCli {
	return ServerToCli{tag: serverToCliInfo, info: info}
}

func NewServerToCliInfoJSON(j string) ServerToCli {
	return ServerToCli{tag: serverToCliInfoJSON, infoJSON: j}
}

func NewServerToCliUpdates(u shared.UpdateKind) ServerToCli {
	return ServerToCli{tag: serverToCliUpdates, updates: u}
}

func NewServerToCliCleanup(removed, kept uint64) ServerToCli {
	return ServerToCli{tag: serverToCliCleanup, cleanupDone: removed, cleanupKept: kept}
}

func NewServerToCliClients(c map[shared.UUID]shared.ClientData) ServerToCli {
	return ServerToCli{tag: serverToCliClients, clients: c}
}

func NewServerToCliQuery(q map[int]map[string]string) ServerToCli {
	return ServerToCli{tag: serverToCliQuery, query: q}
}

func NewServerToCliList(l []shared.ListOutput) ServerToCli {
	return ServerToCli{tag: serverToCliList, list: l}
}

func NewServerToCliFailed(f []shared.FailedOutput) ServerToCli {
	return ServerToCli{tag: serverToCliFailed, failed: f}
}

func NewServerToCliListCommands(names []string) ServerToCli {
	return ServerToCli{tag: serverToCliListCommands, listCommands: names}
}

func NewServerToCliCmd(c map[string][]shared.ListOutput) ServerToCli {
	return ServerToCli{tag: serverToCliCmd, cmd: c}
}

func (m ServerToCli) Tag() uint32                               { return uint32(m.tag) }
func (m ServerToCli) Info() map[string]string                   { return m.info }
func (m ServerToCli) InfoJSON() string                          { return m.infoJSON }
func (m ServerToCli) Updates() shared.UpdateKind                { return m.updates }
func (m ServerToCli) Cleanup() (removed, kept uint64)           { return m.cleanupDone, m.cleanupKept }
func (m ServerToCli) Clients() map[shared.UUID]shared.ClientData { return m.clients }
func (m ServerToCli) Query() map[int]map[string]string          { return m.query }
func (m ServerToCli) List() []shared.ListOutput                 { return m.list }
func (m ServerToCli) Failed() []shared.FailedOutput              { return m.failed }
func (m ServerToCli) ListCommands() []string                    { return m.listCommands }
func (m ServerToCli) Cmd() map[string][]shared.ListOutput        { return m.cmd }

func (m ServerToCli) Encode(w *wire.Writer) error {
	w.WriteU32(uint32(m.tag))
	switch m.tag {
	case serverToCliInfo:
		return encodeStringMap(w, m.info)
	case serverToCliInfoJSON:
		w.WriteString(m.infoJSON)
		return nil
	case serverToCliUpdates:
		return m.updates.Encode(w)
	case serverToCliCleanup:
		w.WriteU64(m.cleanupDone)
		w.WriteU64(m.cleanupKept)
		return nil
	case serverToCliClients:
		w.WriteU64(uint64(len(m.clients)))
		for id, cd := range m.clients {
			if err := id.Encode(w); err != nil {
				return err
			}
			if err := cd.Encode(w); err != nil {
				return err
			}
		}
		return nil
	case serverToCliQuery:
		keys := make([]int, 0, len(m.query))
		for k := range m.query {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		w.WriteU64(uint64(len(keys)))
		for _, k := range keys {
			w.WriteI64(int64(k))
			if err := encodeStringMap(w, m.query[k]); err != nil {
				return err
			}
		}
		return nil
	case serverToCliList:
		w.WriteU64(uint64(len(m.list)))
		for _, lo := range m.list {
			if err := lo.Encode(w); err != nil {
				return err
			}
		}
		return nil
	case serverToCliFailed:
		w.WriteU64(uint64(len(m.failed)))
		for _, fo := range m.failed {
			if err := fo.Encode(w); err != nil {
				return err
			}
		}
		return nil
	case serverToCliListCommands:
		w.WriteU64(uint64(len(m.listCommands)))
		for _, n := range m.listCommands {
			w.WriteString(n)
		}
		return nil
	case serverToCliCmd:
		keys := make([]string, 0, len(m.cmd))
		for k := range m.cmd {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		w.WriteU64(uint64(len(keys)))
		for _, k := range keys {
			w.WriteString(k)
			lst := m.cmd[k]
			w.WriteU64(uint64(len(lst)))
			for _, lo := range lst {
				if err := lo.Encode(w); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return unexpectedVariant("ServerToCli", 0, 9, uint32(m.tag))
	}
}

func (m *ServerToCli) Decode(r *wire.Reader) error {
	tag, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.tag = serverToCliTag(tag)
	switch m.tag {
	case serverToCliInfo:
		m.info, err = decodeStringMap(r)
		return err
	case serverToCliInfoJSON:
		m.infoJSON, err = r.ReadString()
		return err
	case serverToCliUpdates:
		return m.updates.Decode(r)
	case serverToCliCleanup:
		if m.cleanupDone, err = r.ReadU64(); err != nil {
			return err
		}
		m.cleanupKept, err = r.ReadU64()
		return err
	case serverToCliClients:
		n, err := r.ReadU64()
		if err != nil {
			return err
		}
		m.clients = make(map[shared.UUID]shared.ClientData, n)
		for i := uint64(0); i < n; i++ {
			var id shared.UUID
			if err := id.Decode(r); err != nil {
				return err
			}
			var cd shared.ClientData
			if err := cd.Decode(r); err != nil {
				return err
			}
			m.clients[id] = cd
		}
		return nil
	case serverToCliQuery:
		n, err := r.ReadU64()
		if err != nil {
			return err
		}
		m.query = make(map[int]map[string]string, n)
		for i := uint64(0); i < n; i++ {
			k, err := r.ReadI64()
			if err != nil {
				return err
			}
			v, err := decodeStringMap(r)
			if err != nil {
				return err
			}
			m.query[int(k)] = v
		}
		return nil
	case serverToCliList:
		n, err := r.ReadU64()
		if err != nil {
			return err
		}
		m.list = make([]shared.ListOutput, n)
		for i := range m.list {
			if err := m.list[i].Decode(r); err != nil {
				return err
			}
		}
		return nil
	case serverToCliFailed:
		n, err := r.ReadU64()
		if err != nil {
			return err
		}
		m.failed = make([]shared.FailedOutput, n)
		for i := range m.failed {
			if err := m.failed[i].Decode(r); err != nil {
				return err
			}
		}
		return nil
	case serverToCliListCommands:
		n, err := r.ReadU64()
		if err != nil {
			return err
		}
		m.listCommands = make([]string, n)
		for i := range m.listCommands {
			if m.listCommands[i], err = r.ReadString(); err != nil {
				return err
			}
		}
		return nil
	case serverToCliCmd:
		n, err := r.ReadU64()
		if err != nil {
			return err
		}
		m.cmd = make(map[string][]shared.ListOutput, n)
		for i := uint64(0); i < n; i++ {
			k, err := r.ReadString()
			if err != nil {
				return err
			}
			ln, err := r.ReadU64()
			if err != nil {
				return err
			}
			lst := make([]shared.ListOutput, ln)
			for j := range lst {
				if err := lst[j].Decode(r); err != nil {
					return err
				}
			}
			m.cmd[k] = lst
		}
		return nil
	default:
		return unexpectedVariant("ServerToCli", 0, 9, tag)
	}
}

func encodeStringMap(w *wire.Writer, m map[string]string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.WriteU64(uint64(len(keys)))
	for _, k := range keys {
		w.WriteString(k)
		w.WriteString(m[k])
	}
	return nil
}

func decodeStringMap(r *wire.Reader) (map[string]string, error) {
	n, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, n)
	for i := uint64(0); i < n; i++ {
		k, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}
