// Command layoutcheck parses a layout file and reports whether it is
// well-formed, plus a summary of what it defines, grounded on the
// teacher's cmd/corelx_devkit validate-then-report command shape.
package main

import (
	"flag"
	"fmt"
	"os"

	"nitro-core-dx/internal/layoutfile"
)

func main() {
	path := flag.String("file", "", "Path to layout file to check")
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage: layoutcheck -file <path-to-layout-file>")
		os.Exit(1)
	}

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	l, err := layoutfile.Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid layout: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: %s\n", *path)
	if l.DisplayName != "" {
		fmt.Printf("Display name: %s\n", l.DisplayName)
	}
	fmt.Printf("Sections: %d\n", len(l.Sections))
	for name, section := range l.Sections {
		fmt.Printf("  %s: base=%d cells, sub-planes=%d\n", name, len(section.BasePlane), len(section.SubPlanes))
	}
	fmt.Printf("Function-key swaps: %d\n", len(l.FunctionSwaps))
	fmt.Printf("Max chord size: %d\n", l.MaxChordSize)
	fmt.Printf("Target keys: %d, trigger keys: %d\n", len(l.TargetKeys), len(l.TriggerKeys))
}
