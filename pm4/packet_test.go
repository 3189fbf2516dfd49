package pm4

import "testing"

func TestType3Header(t *testing.T) {
	tests := []struct {
		name   string
		op     Opcode
		dwords int
		st     ShaderType
		want   uint32
	}{
		{"set one sh reg", OpSetShReg, 3, ShaderCompute, 0xC0017602},
		{"set one context reg", OpSetContextReg, 3, ShaderGraphics, 0xC0016900},
		{"rmw", OpContextRegRmw, 4, ShaderGraphics, 0xC0025100},
		{"event", OpEventWrite, 2, ShaderGraphics, 0xC0004600},
		{"seq of 4", OpSetShReg, 6, ShaderGraphics, 0xC0047600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Type3Header(tt.op, tt.dwords, tt.st)
			if got != tt.want {
				t.Errorf("Type3Header = 0x%08X, want 0x%08X", got, tt.want)
			}
			hdr, ok := ParseHeader(got)
			if !ok {
				t.Fatal("ParseHeader rejected its own header")
			}
			if hdr.Opcode != tt.op || hdr.Size() != tt.dwords || hdr.ShaderType != tt.st {
				t.Errorf("ParseHeader = %+v", hdr)
			}
		})
	}
}

func TestParseHeaderRejectsOtherTypes(t *testing.T) {
	for _, h := range []uint32{0x00000000, 0x40000000, 0x80001000} {
		if _, ok := ParseHeader(h); ok {
			t.Errorf("ParseHeader(0x%08X) accepted a non type-3 header", h)
		}
	}
}

func TestOpcodeString(t *testing.T) {
	if got := OpSetShReg.String(); got != "SET_SH_REG" {
		t.Errorf("got %q", got)
	}
	if got := Opcode(0x99).String(); got != "IT_0x99" {
		t.Errorf("got %q", got)
	}
}

func TestSpaceOf(t *testing.T) {
	tests := []struct {
		reg  uint32
		want Space
	}{
		{ComputeNumThreadX, SpaceSh},
		{ShRegStart, SpaceSh},
		{ShRegEnd, SpaceNone},
		{PaScVportScissor0TL, SpaceContext},
		{ContextRegEnd - 1, SpaceContext},
		{UConfigRegStart, SpaceUConfig},
		{0x1000, SpaceNone},
	}
	for _, tt := range tests {
		if got := SpaceOf(tt.reg); got != tt.want {
			t.Errorf("SpaceOf(0x%04X) = %v, want %v", tt.reg, got, tt.want)
		}
	}
}

func TestRegName(t *testing.T) {
	tests := []struct {
		reg  uint32
		want string
	}{
		{ComputeResourceLimits, "COMPUTE_RESOURCE_LIMITS"},
		{ComputeUserData0 + 3, "COMPUTE_USER_DATA_3"},
		{ScissorTL(2), "PA_SC_VPORT_SCISSOR_2_TL"},
		{ScissorTL(2) + 1, "PA_SC_VPORT_SCISSOR_2_BR"},
		{CbColorDccControl(5), "CB_COLOR5_DCC_CONTROL"},
		{0xA001, "0xA001"},
	}
	for _, tt := range tests {
		if got := RegName(tt.reg); got != tt.want {
			t.Errorf("RegName(0x%04X) = %q, want %q", tt.reg, got, tt.want)
		}
	}
}
