package virbfit

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasjlepore/virbfit/fitdec"
)

// VideoProber answers UUID and duration questions about a video container.
// Calls are blocking, idempotent, and safely retryable; mp4probe.Prober is
// the on-disk implementation, tests substitute fakes.
type VideoProber interface {
	UUID(path string) (string, error)
	Duration(path string) (time.Duration, error)
}

// Scanner reconstructs recording sessions from the FIT and video files under
// one directory tree.
type Scanner struct {
	Dir         string
	Prober      VideoProber
	OffsetHours int
	Log         zerolog.Logger
}

func NewScanner(dir string, prober VideoProber, offsetHours int, log zerolog.Logger) *Scanner {
	return &Scanner{Dir: dir, Prober: prober, OffsetHours: offsetHours, Log: log}
}

// Sessions reconstructs every session found in the directory's FIT files.
// A FIT file that fails to decode, or a session whose clips fail to probe, is
// logged and skipped; the scan continues with the rest.
func (sc *Scanner) Sessions() ([]*Session, error) {
	fits, err := sc.collect(".fit")
	if err != nil {
		return nil, err
	}
	mp4ByUUID, glvByUUID, err := sc.videoIndex()
	if err != nil {
		return nil, err
	}

	var out []*Session
	for _, path := range fits {
		f, err := fitdec.DecodeFile(path)
		if err != nil {
			sc.Log.Warn().Str("fit", path).Err(err).Msg("skipping undecodable file")
			continue
		}
		for _, s := range sessionsFromFit(f) {
			s.match(mp4ByUUID, glvByUUID)
			if err := s.resolveTime(sc.Prober, sc.OffsetHours); err != nil {
				sc.Log.Warn().Str("fit", path).Err(err).Msg("skipping session")
				continue
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// FromUUID returns the single session whose manifest contains the uuid.
func (sc *Scanner) FromUUID(uuid string) (*Session, error) {
	sessions, err := sc.Sessions()
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		if s.Contains(uuid) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("uuid %s: %w", uuid, ErrNoSuchSession)
}

// FromVideo probes the given MP4/GLV for its embedded UUID and resolves the
// session containing it.
func (sc *Scanner) FromVideo(path string) (*Session, error) {
	uuid, err := sc.Prober.UUID(path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	return sc.FromUUID(uuid)
}

// FromFit reconstructs the sessions of one specific FIT file, still matching
// clips against the scanner's directory.
func (sc *Scanner) FromFit(path string) ([]*Session, error) {
	f, err := fitdec.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	sessions := sessionsFromFit(f)
	if len(sessions) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSuchSession)
	}
	mp4ByUUID, glvByUUID, err := sc.videoIndex()
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		s.match(mp4ByUUID, glvByUUID)
		if err := s.resolveTime(sc.Prober, sc.OffsetHours); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// collect walks the scanner directory for files with the given extension.
// Unreadable entries are logged and skipped, never abort the walk.
func (sc *Scanner) collect(ext string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(sc.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			sc.Log.Debug().Str("path", path).Err(err).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ext) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", sc.Dir, err)
	}
	return out, nil
}

// videoIndex probes every candidate video for its embedded UUID and builds
// uuid→path lookups, high and low resolution separately. Probing is a pure
// function per file, so candidates run on a bounded worker pool.
func (sc *Scanner) videoIndex() (map[string]string, map[string]string, error) {
	mp4s, err := sc.collect(".mp4")
	if err != nil {
		return nil, nil, err
	}
	glvs, err := sc.collect(".glv")
	if err != nil {
		return nil, nil, err
	}
	candidates := append(mp4s, glvs...)

	type probed struct {
		path string
		uuid string
	}
	jobs := make(chan string)
	results := make(chan probed)

	var wg sync.WaitGroup
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				uuid, err := sc.Prober.UUID(path)
				if err != nil {
					sc.Log.Debug().Str("video", path).Err(err).Msg("no embedded uuid")
					continue
				}
				results <- probed{path: path, uuid: uuid}
			}
		}()
	}
	go func() {
		for _, path := range candidates {
			jobs <- path
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	mp4ByUUID := make(map[string]string)
	glvByUUID := make(map[string]string)
	for p := range results {
		index := mp4ByUUID
		if strings.EqualFold(filepath.Ext(p.path), ".glv") {
			index = glvByUUID
		}
		if prev, ok := index[p.uuid]; ok {
			sc.Log.Warn().Str("uuid", p.uuid).Str("kept", prev).Str("ignored", p.path).
				Msg("duplicate uuid across video files")
			continue
		}
		index[p.uuid] = p.path
	}
	return mp4ByUUID, glvByUUID, nil
}
