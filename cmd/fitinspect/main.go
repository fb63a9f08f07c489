package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/virbfit"
	"github.com/lucasjlepore/virbfit/fitdec"
)

func main() {
	var (
		fitPath = flag.String("fit", "", "Path to input .fit file")
		global  = flag.Int("global", -1, "Dump data messages with this global number")
		from    = flag.Int("from", 0, "First file-order index to dump (with --global)")
		to      = flag.Int("to", -1, "Index to stop dumping at, exclusive (-1 = end)")
		asJSON  = flag.Bool("json", false, "Print the file summary as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --fit rec.fit [--global 160 [--from 0 --to 100]] [--json]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*fitPath) == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := fitdec.DecodeFile(*fitPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitinspect failed: %v\n", err)
		os.Exit(1)
	}

	if *global >= 0 {
		dumpMessages(f, uint16(*global), *from, *to)
		return
	}

	summary := virbfit.Summarize(f)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "fitinspect failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("file:      %s\n", summary.FilePath)
	fmt.Printf("protocol:  %d  profile: %d  data bytes: %d\n", summary.ProtocolVersion, summary.ProfileVersion, summary.DataSize)
	fmt.Printf("records:   %d\n", summary.RecordCount)
	if !summary.FirstTimestamp.IsZero() {
		fmt.Printf("span:      %s .. %s\n", summary.FirstTimestamp, summary.LastTimestamp)
	}
	fmt.Println("messages:")
	for _, mc := range summary.Messages {
		name := mc.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("  %5d  %-28s %6d\n", mc.Global, name, mc.Count)
	}
	if len(summary.UUIDs) > 0 {
		fmt.Println("uuids:")
		for _, u := range summary.UUIDs {
			fmt.Printf("  %s\n", u)
		}
	}
}

func dumpMessages(f *fitdec.Fit, global uint16, from, to int) {
	for _, m := range f.FilterRange(global, from, to) {
		fmt.Printf("#%d global=%d\n", m.Index, m.Global)
		for _, field := range m.Fields {
			fmt.Printf("  %3d (%s): %v\n", field.Number, field.Value.Type, field.Value.Any())
		}
		for _, field := range m.DevFields {
			name := field.Name
			if name == "" {
				name = fmt.Sprintf("dev_%d", field.Number)
			}
			if scaled, ok := field.Scaled(); ok && field.Scale != 0 {
				fmt.Printf("  %s: %v %s\n", name, scaled, field.Units)
			} else {
				fmt.Printf("  %s: %v %s\n", name, field.Value.Any(), field.Units)
			}
		}
	}
}
