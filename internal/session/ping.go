package session

import (
	"encoding/binary"
	"time"
)

// tsPingSize is the fixed 12-byte (u64 seconds, u32 nanos) big-endian
// timestamp ping layout (spec §4.C), regardless of the codec's own
// endianness choice elsewhere. Grounded on
// original_source/libbarto/src/utils.rs's send_ts_ping/parse_ts_ping.
const tsPingSize = 12

// sendTsPing encodes the elapsed time since origin as a 12-byte big-endian
// (seconds, nanos) payload, for use as a WebSocket ping/pong frame body.
func sendTsPing(origin time.Time) []byte {
	elapsed := time.Since(origin)
	b := make([]byte, tsPingSize)
	binary.BigEndian.PutUint64(b[0:8], uint64(elapsed/time.Second))
	binary.BigEndian.PutUint32(b[8:12], uint32(elapsed%time.Second))
	return b
}

// parseTsPing decodes a 12-byte timestamp ping payload back into a
// duration. It returns ok=false for any length other than 12, matching the
// original's Option<Duration>.
func parseTsPing(b []byte) (time.Duration, bool) {
	if len(b) != tsPingSize {
		return 0, false
	}
	secs := binary.BigEndian.Uint64(b[0:8])
	nanos := binary.BigEndian.Uint32(b[8:12])
	return time.Duration(secs)*time.Second + time.Duration(nanos), true
}
