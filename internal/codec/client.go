package codec

import (
	"github.com/rustyhorde/barto-sub000/internal/codec/shared"
	"github.com/rustyhorde/barto-sub000/internal/codec/wire"
)

// WorkerToServer is the bartoc -> bartos message catalog. It merges the two
// sibling Rust enums BartocWs{Close,Ping,Pong} and Bartoc{Record} into one
// Go type (both ride the same websocket connection in this implementation),
// grounded on original_source/libbarto/src/message/client.rs.
type WorkerToServer struct {
	tag        workerToServerTag
	closeCode  uint16
	closeMsg   string
	hasClose   bool
	pingPongTs []byte
	record     shared.Output
}

type workerToServerTag uint32

const (
	workerToServerClose workerToServerTag = iota
	workerToServerPing
	workerToServerPong
	workerToServerRecord
)

// NewWorkerToServerClose builds a Close frame. hasCode controls whether the
// optional (code, reason) pair is present, matching Rust's Option<(u16, String)>.
func NewWorkerToServerClose(hasCode bool, code uint16, reason string) WorkerToServer {
	return WorkerToServer{tag: workerToServerClose, hasClose: hasCode, closeCode: code, closeMsg: reason}
}

func NewWorkerToServerPing(payload []byte) WorkerToServer {
	return WorkerToServer{tag: workerToServerPing, pingPongTs: payload}
}

func NewWorkerToServerPong(payload []byte) WorkerToServer {
	return WorkerToServer{tag: workerToServerPong, pingPongTs: payload}
}

func NewWorkerToServerRecord(o shared.Output) WorkerToServer {
	return WorkerToServer{tag: workerToServerRecord, record: o}
}

func (m WorkerToServer) IsClose() bool           { return m.tag == workerToServerClose }
func (m WorkerToServer) Close() (bool, uint16, string) { return m.hasClose, m.closeCode, m.closeMsg }
func (m WorkerToServer) IsPing() bool            { return m.tag == workerToServerPing }
func (m WorkerToServer) IsPong() bool            { return m.tag == workerToServerPong }
func (m WorkerToServer) Payload() []byte         { return m.pingPongTs }
func (m WorkerToServer) IsRecord() bool          { return m.tag == workerToServerRecord }
func (m WorkerToServer) Record() shared.Output   { return m.record }

func (m WorkerToServer) Encode(w *wire.Writer) error {
	w.WriteU32(uint32(m.tag))
	switch m.tag {
	case workerToServerClose:
		w.WriteBool(m.hasClose)
		if m.hasClose {
			w.WriteU32(uint32(m.closeCode))
			w.WriteString(m.closeMsg)
		}
		return nil
	case workerToServerPing, workerToServerPong:
		w.WriteBytes(m.pingPongTs)
		return nil
	case workerToServerRecord:
		return m.record.Encode(w)
	default:
		return unexpectedVariant("WorkerToServer", 0, 3, uint32(m.tag))
	}
}

func (m *WorkerToServer) Decode(r *wire.Reader) error {
	tag, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.tag = workerToServerTag(tag)
	switch m.tag {
	case workerToServerClose:
		if m.hasClose, err = r.ReadBool(); err != nil {
			return err
		}
		if m.hasClose {
			code, err := r.ReadU32()
			if err != nil {
				return err
			}
			m.closeCode = uint16(code)
			if m.closeMsg, err = r.ReadString(); err != nil {
				return err
			}
		}
		return nil
	case workerToServerPing, workerToServerPong:
		m.pingPongTs, err = r.ReadBytes()
		return err
	case workerToServerRecord:
		return m.record.Decode(r)
	default:
		return unexpectedVariant("WorkerToServer", 0, 3, tag)
	}
}
