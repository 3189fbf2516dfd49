package pipeline

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucmd/pm4"
)

const reduceShader = `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64, 2)
fn reduce(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = data[id.x] + 1u;
}

@compute @workgroup_size(8, 8, 4)
fn tile(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = 0u;
}
`

func TestMetadataFromWGSL(t *testing.T) {
	tests := []struct {
		entry string
		want  [3]uint32
	}{
		{"", [3]uint32{64, 2, 1}},
		{"reduce", [3]uint32{64, 2, 1}},
		{"tile", [3]uint32{8, 8, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			meta, err := MetadataFromWGSL(reduceShader, tt.entry)
			if err != nil {
				t.Fatalf("MetadataFromWGSL error = %v", err)
			}
			for i, reg := range []uint32{pm4.ComputeNumThreadX, pm4.ComputeNumThreadY, pm4.ComputeNumThreadZ} {
				if v, ok := meta.Lookup(reg); !ok || v != tt.want[i] {
					t.Errorf("%s = %d (set %v), want %d", pm4.RegName(reg), v, ok, tt.want[i])
				}
			}
		})
	}
}

func TestMetadataFromWGSLErrors(t *testing.T) {
	if _, err := MetadataFromWGSL(reduceShader, "missing"); !errors.Is(err, ErrNoComputeEntryPoint) {
		t.Errorf("error = %v, want ErrNoComputeEntryPoint", err)
	}

	vertexOnly := `
@vertex
fn main() -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`
	if _, err := MetadataFromWGSL(vertexOnly, ""); !errors.Is(err, ErrNoComputeEntryPoint) {
		t.Errorf("error = %v, want ErrNoComputeEntryPoint", err)
	}

	if _, err := MetadataFromWGSL("fn (", ""); err == nil {
		t.Error("malformed WGSL was accepted")
	}
}

func TestMetadataFromWGSLBuildsPipeline(t *testing.T) {
	meta, err := MetadataFromWGSL(reduceShader, "reduce")
	if err != nil {
		t.Fatal(err)
	}
	meta.UserData = []uint32{0x80000000}
	p, err := New(mustCaps(t, "navi14"), meta)
	if err != nil {
		t.Fatal(err)
	}
	// NUM_THREAD_X..Z in one packet, user data in another.
	if got := p.Image().PacketCount(); got != 2 {
		t.Errorf("PacketCount = %d, want 2", got)
	}
}
