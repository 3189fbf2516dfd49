// Command pm4dump builds the command image of a WGSL compute shader for a
// chip revision and prints the decoded PM4 packets.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gpucmd"
	"github.com/gogpu/gpucmd/chip"
	"github.com/gogpu/gpucmd/pipeline"
	"github.com/gogpu/gpucmd/pm4"
)

func main() {
	var (
		chipName = flag.String("chip", "vega10", "chip revision")
		entry    = flag.String("entry", "", "compute entry point (default: first)")
		waves    = flag.Uint("waves", 0, "max waves per CU, 0 for no limit")
		groups   = flag.Uint("groups", 0, "max thread groups per CU, 0 for no limit")
		output   = flag.String("output", "", "also write the raw stream to this file")
		list     = flag.Bool("list", false, "list chip revisions and exit")
		verbose  = flag.Bool("v", false, "log at debug level")
	)
	flag.Parse()

	if *verbose {
		gpucmd.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *list {
		for _, name := range chip.Revisions() {
			caps, _ := chip.Lookup(name)
			fmt.Printf("%-8s %-6s %s\n", name, caps.Family, caps.Workarounds)
		}
		return
	}
	if flag.NArg() != 1 {
		log.Fatal("usage: pm4dump [flags] shader.wgsl")
	}

	src, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read shader: %v", err)
	}
	caps, err := chip.Lookup(*chipName)
	if err != nil {
		log.Fatalf("Unknown chip (have %s): %v", strings.Join(chip.Revisions(), ", "), err)
	}
	meta, err := pipeline.MetadataFromWGSL(string(src), *entry)
	if err != nil {
		log.Fatalf("Failed to compile: %v", err)
	}
	p, err := pipeline.New(caps, meta)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	stream := pm4.NewCmdStream(pm4.WithReserveLimit(max(p.CommandSize(), pm4.DefaultReserveLimit)))
	space := stream.ReserveCommands()
	space = p.WriteCommands(space, pipeline.DynamicInfo{
		MaxWavesPerCu:        uint32(*waves),
		MaxThreadGroupsPerCu: uint32(*groups),
	})
	stream.CommitCommands(space)

	packets, err := pm4.Decode(stream.Dwords())
	if err != nil {
		log.Fatalf("Failed to decode: %v", err)
	}
	for _, pkt := range packets {
		fmt.Println(pkt)
	}

	if *output != "" {
		if err := os.WriteFile(*output, stream.Bytes(), 0o644); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
	}

	x, y, z := p.ThreadsPerGroup()
	log.Printf("%s on %s: %d packets, %d dwords, %dx%dx%d threads\n",
		meta.Name, caps.Name, len(packets), stream.Len(), x, y, z)
}
