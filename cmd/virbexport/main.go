package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasjlepore/virbfit"
	"github.com/lucasjlepore/virbfit/export"
	"github.com/lucasjlepore/virbfit/mp4probe"
)

func main() {
	var (
		dir        = flag.String("dir", "", "Directory to scan for FIT and video files")
		uuid       = flag.String("uuid", "", "Select the session containing this clip UUID")
		video      = flag.String("video", "", "Select the session containing this MP4/GLV file")
		fitPath    = flag.String("fit", "", "Select the session(s) of this FIT file")
		outDir     = flag.String("out", "", "Output directory")
		format     = flag.String("format", "parquet", "Track format: parquet|csv")
		offset     = flag.Int("offset", 0, "Camera clock offset from UTC in hours")
		downsample = flag.Int("downsample", virbfit.DefaultDownsample, "Keep every Nth GPS point (1 disables)")
		minFix     = flag.Int("minfix", virbfit.DefaultMinFix, "Minimum GPS fix quality 0..3")
		configPath = flag.String("config", "", "Optional TOML defaults file")
		verbose    = flag.Bool("v", false, "Debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s --dir /path/to/virb (--uuid UUID | --video clip.mp4 | --fit rec.fit) [--out outdir] [--format parquet|csv]\n",
			filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	selectors := 0
	for _, s := range []string{*uuid, *video, *fitPath} {
		if strings.TrimSpace(s) != "" {
			selectors++
		}
	}
	if strings.TrimSpace(*dir) == "" || selectors != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Str("app", "virbexport").Logger()

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
	if isFlagSet("downsample") {
		cfg.Downsample = *downsample
	}
	if isFlagSet("minfix") {
		cfg.MinFix = uint8(*minFix)
	}
	if strings.TrimSpace(*outDir) != "" {
		cfg.OutputDir = *outDir
	}
	if cfg.Downsample < 1 || *minFix < 0 || *minFix > 3 {
		flag.Usage()
		os.Exit(2)
	}

	scanner := virbfit.NewScanner(*dir, mp4probe.Prober{}, cfg.OffsetHours, log)

	var sessions []*virbfit.Session
	var err error
	switch {
	case *uuid != "":
		var s *virbfit.Session
		s, err = scanner.FromUUID(*uuid)
		sessions = append(sessions, s)
	case *video != "":
		var s *virbfit.Session
		s, err = scanner.FromVideo(*video)
		sessions = append(sessions, s)
	default:
		sessions, err = scanner.FromFit(*fitPath)
	}
	if err != nil {
		if errors.Is(err, virbfit.ErrNoSuchSession) {
			log.Error().Err(err).Msg("no session matched the selection")
		} else {
			log.Error().Err(err).Msg("session lookup failed")
		}
		os.Exit(1)
	}

	for i, s := range sessions {
		points, err := s.Points(cfg.MinFix, cfg.Downsample)
		if err != nil {
			log.Error().Str("fit", s.FitPath).Err(err).Msg("gps pipeline failed")
			os.Exit(1)
		}

		sessionOut := cfg.OutputDir
		if len(sessions) > 1 {
			sessionOut = filepath.Join(cfg.OutputDir, fmt.Sprintf("session_%02d", i+1))
		}
		result, err := export.Run(s, points, export.Options{OutDir: sessionOut, Format: *format})
		if err != nil {
			log.Error().Err(err).Msg("export failed")
			os.Exit(1)
		}

		fmt.Printf("session:  %s .. %s\n", s.T0.UTC().Format(time.RFC3339), s.End.UTC().Format(time.RFC3339))
		fmt.Printf("clips:    %d matched of %d\n", len(s.MatchedClips()), len(s.UUIDs))
		fmt.Printf("track:    %s (%d points)\n", result.TrackPath, result.PointCount)
		fmt.Printf("session:  %s\n", result.SessionPath)
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
