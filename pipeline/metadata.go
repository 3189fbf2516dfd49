package pipeline

import (
	"fmt"

	"github.com/gogpu/gpucmd/pm4"
)

// Metadata is the register payload of a compiled compute pipeline, as
// produced by the shader compiler.
type Metadata struct {
	// Name identifies the pipeline in logs.
	Name string

	// Registers are the register values of the pipeline, in any order.
	Registers []pm4.RegWrite

	// UserData holds initial values of COMPUTE_USER_DATA_0 onwards.
	UserData []uint32
}

// Set assigns reg, replacing an earlier assignment of the same register.
func (m *Metadata) Set(reg, value uint32) {
	for i := range m.Registers {
		if m.Registers[i].Reg == reg {
			m.Registers[i].Value = value
			return
		}
	}
	m.Registers = append(m.Registers, pm4.RegWrite{Reg: reg, Value: value})
}

// Lookup returns the value assigned to reg.
func (m *Metadata) Lookup(reg uint32) (uint32, bool) {
	for _, w := range m.Registers {
		if w.Reg == reg {
			return w.Value, true
		}
	}
	return 0, false
}

// Validate reports malformed metadata. A command image is only ever built
// from metadata that passed Validate.
func (m *Metadata) Validate() error {
	if len(m.Registers) == 0 && len(m.UserData) == 0 {
		return ErrEmptyMetadata
	}
	if len(m.UserData) > pm4.ComputeUserDataCount {
		return fmt.Errorf("%w: %d > %d", ErrTooManyUserData, len(m.UserData), pm4.ComputeUserDataCount)
	}
	seen := make(map[uint32]struct{}, len(m.Registers))
	for _, w := range m.Registers {
		if pm4.SpaceOf(w.Reg) == pm4.SpaceNone {
			return fmt.Errorf("%w: 0x%04X", ErrUnsupportedRegister, w.Reg)
		}
		if w.Reg >= pm4.ComputeUserData0 && w.Reg < pm4.ComputeUserData0+uint32(len(m.UserData)) {
			return fmt.Errorf("%w: %s also set by user data", ErrDuplicateRegister, pm4.RegName(w.Reg))
		}
		if _, dup := seen[w.Reg]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRegister, pm4.RegName(w.Reg))
		}
		seen[w.Reg] = struct{}{}
	}
	return nil
}

// writes returns every register assignment of m, user data included.
func (m *Metadata) writes() []pm4.RegWrite {
	out := make([]pm4.RegWrite, 0, len(m.Registers)+len(m.UserData))
	out = append(out, m.Registers...)
	for i, v := range m.UserData {
		out = append(out, pm4.RegWrite{Reg: pm4.ComputeUserData0 + uint32(i), Value: v})
	}
	return out
}
