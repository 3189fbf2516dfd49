package pm4

import (
	"encoding/binary"
	"testing"
)

func TestCmdStreamReserveCommit(t *testing.T) {
	s := NewCmdStream(WithReserveLimit(8))
	if s.ReserveLimit() != 8 {
		t.Fatalf("ReserveLimit = %d, want 8", s.ReserveLimit())
	}

	space := s.ReserveCommands()
	if len(space) != 8 {
		t.Fatalf("window = %d dwords, want 8", len(space))
	}
	space = SetOneReg(space, ComputeNumThreadX, 64, ShaderCompute)
	s.CommitCommands(space)
	if s.Len() != SetOneRegDwords {
		t.Errorf("Len = %d, want %d", s.Len(), SetOneRegDwords)
	}

	space = s.ReserveCommands()
	s.CommitCommands(space)
	if s.Len() != SetOneRegDwords {
		t.Errorf("empty commit changed Len to %d", s.Len())
	}
}

func TestCmdStreamGrows(t *testing.T) {
	s := NewCmdStream(WithReserveLimit(4))
	for i := 0; i < 100; i++ {
		space := s.ReserveCommands()
		space = SetOneReg(space, ComputeUserData0, uint32(i), ShaderCompute)
		s.CommitCommands(space)
	}
	if s.Len() != 100*SetOneRegDwords {
		t.Fatalf("Len = %d", s.Len())
	}
	packets, err := Decode(s.Dwords())
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range packets {
		if got := p.Regs()[0].Value; got != uint32(i) {
			t.Fatalf("packet %d value = %d", i, got)
		}
	}
}

func TestCmdStreamWindowIsBounded(t *testing.T) {
	s := NewCmdStream(WithReserveLimit(4), WithCapacity(64))
	space := s.ReserveCommands()
	if cap(space) != 4 {
		t.Fatalf("window capacity = %d, want 4", cap(space))
	}
	defer func() {
		if recover() == nil {
			t.Error("writing past the reserve limit did not panic")
		}
	}()
	SetSeqRegs(space, ComputeUserData0, []uint32{1, 2, 3}, ShaderCompute)
}

func TestCmdStreamMisuse(t *testing.T) {
	t.Run("double reserve", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("no panic")
			}
		}()
		s := NewCmdStream()
		s.ReserveCommands()
		s.ReserveCommands()
	})
	t.Run("commit without reserve", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("no panic")
			}
		}()
		NewCmdStream().CommitCommands(nil)
	})
}

func TestCmdStreamBytesAndReset(t *testing.T) {
	s := NewCmdStream()
	space := s.ReserveCommands()
	space = EventWrite(space, EventVgtFlush, ShaderGraphics)
	s.CommitCommands(space)

	b := s.Bytes()
	if len(b) != 4*EventWriteDwords {
		t.Fatalf("Bytes len = %d", len(b))
	}
	if got := binary.LittleEndian.Uint32(b); got != s.Dwords()[0] {
		t.Errorf("first dword = 0x%08X, want 0x%08X", got, s.Dwords()[0])
	}

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len after Reset = %d", s.Len())
	}
}
