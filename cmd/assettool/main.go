// assettool is a CLI utility for inspecting Aurora-engine binary assets.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hollowshade/aurora-assets/internal/assets"
	"github.com/hollowshade/aurora-assets/internal/config"
	"github.com/hollowshade/aurora-assets/internal/logger"
	"github.com/hollowshade/aurora-assets/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "terrain":
		cmdTerrain(args)
	case "soundbank", "sb":
		cmdSoundBank(args)
	case "cues":
		cmdCues(args)
	case "validate":
		cmdValidate(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`assettool - Aurora-engine binary asset utility

Usage:
  assettool <command> [options]

Commands:
  terrain <file.trx>            Show baked terrain contents
  soundbank <file.xsb>          Show sound bank contents
  cues <file.xsb> [pattern]     List cues (optional substring pattern)
  validate <dir>                Decode every asset under a directory

Examples:
  assettool terrain area01.trx
  assettool soundbank music.xsb
  assettool cues music.xsb battle
  assettool validate ./data`)
}

func cmdTerrain(args []string) {
	fs := flag.NewFlagSet("terrain", flag.ExitOnError)
	verbose := fs.Bool("v", false, "List every mesh")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: assettool terrain <file.trx>")
		os.Exit(1)
	}

	trx, err := formats.ParseTRXFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var terrainVerts, terrainFaces int
	for _, m := range trx.Terrain {
		terrainVerts += m.VertexCount()
		terrainFaces += m.FaceCount()
	}
	var waterVerts, waterFaces int
	for _, m := range trx.Water {
		waterVerts += len(m.Vertices) / formats.WaterVertexStride
		waterFaces += len(m.Indices) / 3
	}

	fmt.Printf("File:    %s\n", fs.Arg(0))
	fmt.Printf("Version: %s\n", trx.Version)
	fmt.Printf("Size:    %d x %d tiles\n", trx.Width, trx.Height)
	fmt.Printf("Terrain: %d meshes, %d vertices, %d faces\n",
		len(trx.Terrain), terrainVerts, terrainFaces)
	fmt.Printf("Water:   %d meshes, %d vertices, %d faces\n",
		len(trx.Water), waterVerts, waterFaces)

	if !*verbose {
		return
	}

	fmt.Println()
	for _, m := range trx.Terrain {
		textures := 0
		for _, t := range m.Textures {
			if t != "" {
				textures++
			}
		}
		fmt.Printf("  terrain %-24s %6d verts %6d faces %d textures\n",
			m.Name, m.VertexCount(), m.FaceCount(), textures)
	}
	for _, m := range trx.Water {
		fmt.Printf("  water   %-24s %6d verts %6d faces color (%.2f, %.2f, %.2f)\n",
			m.Name, len(m.Vertices)/formats.WaterVertexStride, len(m.Indices)/3,
			m.Color[0], m.Color[1], m.Color[2])
	}
}

func cmdSoundBank(args []string) {
	fs := flag.NewFlagSet("soundbank", flag.ExitOnError)
	verbose := fs.Bool("v", false, "List every sound")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: assettool soundbank <file.xsb>")
		os.Exit(1)
	}

	bank, err := formats.ParseXSBFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File:       %s\n", fs.Arg(0))
	fmt.Printf("Bank:       %s\n", bank.Name)
	fmt.Printf("Wave banks: %d\n", len(bank.WaveBanks))
	for _, wb := range bank.WaveBanks {
		fmt.Printf("  %s\n", wb.Name)
	}
	fmt.Printf("Cues:       %d (%d named)\n", len(bank.Cues), len(bank.CueNames()))
	fmt.Printf("Sounds:     %d\n", len(bank.Sounds))

	if !*verbose {
		return
	}

	fmt.Println()
	for i, s := range bank.Sounds {
		kind := "complex"
		if len(s.Tracks) == 1 && len(s.Tracks[0].Events) == 1 {
			kind = "simple"
		}
		extras := []string{}
		if s.Is3D {
			extras = append(extras, "3D")
		}
		if s.ParametricEQ {
			extras = append(extras, "EQ")
		}
		if s.GainBoost {
			extras = append(extras, "gain boost")
		}
		fmt.Printf("  sound %3d: %-7s %2d track(s), volume %+.2f dB, pitch %+.2f  %s\n",
			i, kind, len(s.Tracks), s.Volume, s.Pitch, strings.Join(extras, ", "))
	}
}

func cmdCues(args []string) {
	fs := flag.NewFlagSet("cues", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: assettool cues <file.xsb> [pattern]")
		os.Exit(1)
	}

	bank, err := formats.ParseXSBFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	names := bank.CueNames()
	sort.Strings(names)

	count := 0
	for _, name := range names {
		if pattern != "" && !strings.Contains(strings.ToLower(name), pattern) {
			continue
		}

		cue := bank.Cue(name)
		fmt.Printf("%-40s %s, %d variation(s)\n",
			name, cue.VariationSelectMethod, len(cue.Variations))
		count++
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d cues matched)\n", count)
	}
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: assettool validate <dir>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	mgr := assets.NewManager(logger.Named("assets"))
	defer mgr.Close()

	root := fs.Arg(0)
	if err := mgr.AddSearchPath(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var checked, failed int
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".trx":
			checked++
			if _, err := mgr.Terrain(rel); err != nil {
				fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", rel, err)
				failed++
			}
		case ".xsb":
			checked++
			if _, err := mgr.SoundBank(rel); err != nil {
				fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", rel, err)
				failed++
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Checked %d assets, %d failed\n", checked, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
