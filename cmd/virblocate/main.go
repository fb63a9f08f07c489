package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasjlepore/virbfit"
	"github.com/lucasjlepore/virbfit/mp4probe"
)

func main() {
	var (
		dir        = flag.String("dir", "", "Directory to scan for FIT and video files")
		offset     = flag.Int("offset", 0, "Camera clock offset from UTC in hours")
		configPath = flag.String("config", "", "Optional TOML defaults file")
		verbose    = flag.Bool("v", false, "Debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --dir /path/to/virb [--offset 2] [--config virbfit.toml]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*dir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Str("app", "virblocate").Logger()

	cfg := virbfit.DefaultConfig()
	if *configPath != "" {
		loaded, err := virbfit.LoadConfig(*configPath)
		if err != nil {
			log.Error().Err(err).Msg("config")
			os.Exit(1)
		}
		cfg = loaded
	}
	if isFlagSet("offset") {
		cfg.OffsetHours = *offset
	}

	scanner := virbfit.NewScanner(*dir, mp4probe.Prober{}, cfg.OffsetHours, log)
	sessions, err := scanner.Sessions()
	if err != nil {
		log.Error().Err(err).Msg("scan failed")
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Println("no recording sessions found")
		return
	}

	for i, s := range sessions {
		fmt.Printf("session %d\n", i+1)
		fmt.Printf("  fit:   %s\n", s.FitPath)
		fmt.Printf("  start: %s\n", s.T0.UTC().Format(time.RFC3339))
		fmt.Printf("  end:   %s\n", s.End.UTC().Format(time.RFC3339))
		for _, c := range s.Clips {
			mark := " "
			if c.Matched() {
				mark = "*"
			}
			fmt.Printf("  %s %s", mark, c.UUID)
			if c.Matched() {
				fmt.Printf("  %s (%s)", c.Video(), c.Duration.Round(time.Second))
			}
			fmt.Println()
		}
		if !s.Usable() {
			fmt.Println("  (no clips matched on disk)")
		}
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
