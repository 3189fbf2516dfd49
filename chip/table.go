package chip

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpucmd"
)

// VendorAMD is the PCI vendor id of every revision in the table.
const VendorAMD = 0x1002

// Field limits shared by all revisions in the table.
const (
	wavesPerShFieldMax = 0x3FF // COMPUTE_RESOURCE_LIMITS.WAVES_PER_SH, 10 bits
	tgPerCuFieldMax    = 0xF   // COMPUTE_RESOURCE_LIMITS.TG_PER_CU, 4 bits
	scissorExtent      = 16384
)

// revisions is the capability table, one record per revision.
var revisions = []Caps{
	{
		Name:                      "vega10",
		Family:                    FamilyGfx9,
		DeviceIDs:                 []uint32{0x6860, 0x6861, 0x6862, 0x6863, 0x6867, 0x687F},
		NumShaderEngines:          4,
		NumShPerSe:                1,
		NumCuPerSh:                16,
		NumSimdPerCu:              4,
		NumWavesPerSimd:           10,
		MaxWavesPerShField:        wavesPerShFieldMax,
		MaxThreadGroupsPerCuField: tgPerCuFieldMax,
		MaxScissorExtent:          scissorExtent,
		Workarounds: WaLogicOpDisablesOverwriteCombiner |
			WaDrainPsOnOverlap,
	},
	{
		Name:                      "vega20",
		Family:                    FamilyGfx9,
		DeviceIDs:                 []uint32{0x66A0, 0x66A1, 0x66A2, 0x66A3, 0x66AF},
		NumShaderEngines:          4,
		NumShPerSe:                1,
		NumCuPerSh:                16,
		NumSimdPerCu:              4,
		NumWavesPerSimd:           10,
		MaxWavesPerShField:        wavesPerShFieldMax,
		MaxThreadGroupsPerCuField: tgPerCuFieldMax,
		MaxScissorExtent:          scissorExtent,
		Workarounds:               WaDrainPsOnOverlap,
	},
	{
		Name:                      "raven",
		Family:                    FamilyGfx9,
		DeviceIDs:                 []uint32{0x15DD, 0x15D8},
		NumShaderEngines:          1,
		NumShPerSe:                1,
		NumCuPerSh:                11,
		NumSimdPerCu:              4,
		NumWavesPerSimd:           10,
		MaxWavesPerShField:        wavesPerShFieldMax,
		MaxThreadGroupsPerCuField: tgPerCuFieldMax,
		MaxScissorExtent:          scissorExtent,
		Workarounds: WaLogicOpDisablesOverwriteCombiner |
			WaRotatedSwizzleDisablesOverwriteCombiner |
			WaDrainPsOnOverlap,
	},
	{
		Name:                      "navi10",
		Family:                    FamilyGfx10,
		DeviceIDs:                 []uint32{0x7310, 0x7312, 0x731F},
		NumShaderEngines:          2,
		NumShPerSe:                2,
		NumCuPerSh:                10,
		NumSimdPerCu:              2,
		NumWavesPerSimd:           20,
		MaxWavesPerShField:        wavesPerShFieldMax,
		MaxThreadGroupsPerCuField: tgPerCuFieldMax,
		MaxScissorExtent:          scissorExtent,
		Workarounds:               WaLogicOpDisablesOverwriteCombiner,
	},
	{
		Name:                      "navi14",
		Family:                    FamilyGfx10,
		DeviceIDs:                 []uint32{0x7340, 0x7341, 0x7347},
		NumShaderEngines:          1,
		NumShPerSe:                2,
		NumCuPerSh:                12,
		NumSimdPerCu:              2,
		NumWavesPerSimd:           20,
		MaxWavesPerShField:        wavesPerShFieldMax,
		MaxThreadGroupsPerCuField: tgPerCuFieldMax,
		MaxScissorExtent:          scissorExtent,
		Workarounds:               WaLogicOpDisablesOverwriteCombiner,
	},
}

// Revisions returns the names of all known revisions, sorted.
func Revisions() []string {
	names := make([]string, 0, len(revisions))
	for i := range revisions {
		names = append(names, revisions[i].Name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the capability record of the named revision.
// The name is matched case-insensitively.
func Lookup(name string, opts ...Option) (Caps, error) {
	for i := range revisions {
		if strings.EqualFold(revisions[i].Name, name) {
			return resolve(&revisions[i], opts), nil
		}
	}
	return Caps{}, fmt.Errorf("%w: %q", ErrUnknownRevision, name)
}

// ForAdapter resolves the capability record of a HAL adapter by its PCI ids.
func ForAdapter(info gputypes.AdapterInfo, opts ...Option) (Caps, error) {
	if info.VendorID != VendorAMD {
		return Caps{}, fmt.Errorf("%w: vendor 0x%04x (%s)", ErrUnknownRevision, info.VendorID, info.Name)
	}
	for i := range revisions {
		if slices.Contains(revisions[i].DeviceIDs, info.DeviceID) {
			return resolve(&revisions[i], opts), nil
		}
	}
	return Caps{}, fmt.Errorf("%w: device 0x%04x (%s)", ErrUnknownRevision, info.DeviceID, info.Name)
}

func resolve(base *Caps, opts []Option) Caps {
	c := base.With(opts...)
	gpucmd.Logger().Info("chip: resolved capability record",
		"revision", c.Name,
		"family", c.Family,
		"workarounds", c.Workarounds)
	return c
}
