package pm4

import "encoding/binary"

// Sink accepts register writes against a pre-reserved window.
//
// ReserveCommands returns a writable window of ReserveLimit DWORDs. The
// caller advances the window with the writers of this package and passes
// the remainder to CommitCommands, which keeps exactly the DWORDs written.
type Sink interface {
	ReserveCommands() []uint32
	CommitCommands(rest []uint32)
}

// DefaultReserveLimit is the reserve window size of a CmdStream.
const DefaultReserveLimit = 256

// StreamOption configures a CmdStream during creation.
type StreamOption func(*streamOptions)

type streamOptions struct {
	reserveLimit int
	capacity     int
}

// WithReserveLimit sets the window size returned by ReserveCommands.
func WithReserveLimit(n int) StreamOption {
	return func(o *streamOptions) {
		if n > 0 {
			o.reserveLimit = n
		}
	}
}

// WithCapacity preallocates room for n DWORDs.
func WithCapacity(n int) StreamOption {
	return func(o *streamOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// CmdStream is a growable in-memory command stream implementing Sink.
// A CmdStream must not be recorded by two goroutines at once.
type CmdStream struct {
	buf          []uint32
	reserveLimit int
	reserved     bool
}

// NewCmdStream creates an empty command stream.
func NewCmdStream(opts ...StreamOption) *CmdStream {
	o := streamOptions{reserveLimit: DefaultReserveLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return &CmdStream{
		buf:          make([]uint32, 0, max(o.capacity, o.reserveLimit)),
		reserveLimit: o.reserveLimit,
	}
}

// ReserveLimit returns the window size of ReserveCommands.
func (s *CmdStream) ReserveLimit() int {
	return s.reserveLimit
}

// ReserveCommands returns a window of ReserveLimit DWORDs at the end of the
// stream. Reserving twice without a commit panics.
func (s *CmdStream) ReserveCommands() []uint32 {
	if s.reserved {
		panic("pm4: ReserveCommands called twice without CommitCommands")
	}
	n := len(s.buf)
	if cap(s.buf)-n < s.reserveLimit {
		grown := make([]uint32, n, 2*cap(s.buf)+s.reserveLimit)
		copy(grown, s.buf)
		s.buf = grown
	}
	s.reserved = true
	return s.buf[n : n+s.reserveLimit : n+s.reserveLimit]
}

// CommitCommands keeps the DWORDs written before rest, the cursor returned
// by the last writer.
func (s *CmdStream) CommitCommands(rest []uint32) {
	if !s.reserved {
		panic("pm4: CommitCommands called without ReserveCommands")
	}
	used := s.reserveLimit - len(rest)
	if used < 0 {
		panic("pm4: CommitCommands cursor does not belong to the reserved window")
	}
	s.buf = s.buf[:len(s.buf)+used]
	s.reserved = false
}

// Len returns the number of committed DWORDs.
func (s *CmdStream) Len() int {
	return len(s.buf)
}

// Dwords returns the committed DWORDs. The slice aliases the stream.
func (s *CmdStream) Dwords() []uint32 {
	return s.buf
}

// Bytes returns the committed stream as little-endian bytes.
func (s *CmdStream) Bytes() []byte {
	out := make([]byte, 0, 4*len(s.buf))
	for _, dw := range s.buf {
		out = binary.LittleEndian.AppendUint32(out, dw)
	}
	return out
}

// Reset discards all committed DWORDs, keeping the allocation.
func (s *CmdStream) Reset() {
	s.buf = s.buf[:0]
	s.reserved = false
}
