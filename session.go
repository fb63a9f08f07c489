package virbfit

import (
	"fmt"
	"time"

	"github.com/lucasjlepore/virbfit/fitdec"
)

// Clip is one physical recording file of a session: the shared UUID plus the
// matched high-resolution (MP4) and low-resolution (GLV) paths, where found.
type Clip struct {
	UUID     string        `json:"uuid"`
	MP4      string        `json:"mp4,omitempty"`
	GLV      string        `json:"glv,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Matched reports whether at least one video file carries this clip's UUID.
func (c Clip) Matched() bool { return c.MP4 != "" || c.GLV != "" }

// Video returns the preferred playback path, high-resolution first.
func (c Clip) Video() string {
	if c.MP4 != "" {
		return c.MP4
	}
	return c.GLV
}

// Session is one recording: an ordered UUID clip manifest extracted from a
// FIT file's camera events, the on-disk files matched to it, and the derived
// absolute time span. Video files are referenced by path, never owned.
type Session struct {
	FitPath string    `json:"fit"`
	UUIDs   []string  `json:"uuids"`
	Clips   []Clip    `json:"clips"`
	T0      time.Time `json:"t0"`
	End     time.Time `json:"end"`

	// Start is the session-start camera event's offset on the system clock,
	// used to anchor GPS points.
	Start time.Duration `json:"-"`

	// Record-index span of this session's camera events. GPS projection is
	// restricted to it so sessions in a multi-session file keep their own
	// points. lastIndex < 0 means the run never closed, open to end of file.
	firstIndex int
	lastIndex  int

	fit *fitdec.Fit
}

// sessionsFromFit extracts the UUID runs from the camera event stream, in
// file order. A video_start event opens a session and a video_end closes it;
// second-stream trailers are skipped; any other event joins the open session,
// opening one implicitly when none is. An unterminated run still counts as a
// session.
func sessionsFromFit(f *fitdec.Fit) []*Session {
	var out []*Session
	var cur *Session

	open := func(e fitdec.CameraEvent) {
		cur = &Session{FitPath: f.Path, Start: e.Relative(), firstIndex: e.Index, lastIndex: -1, fit: f}
	}
	add := func(uuid string) {
		for _, u := range cur.UUIDs {
			if u == uuid {
				return
			}
		}
		cur.UUIDs = append(cur.UUIDs, uuid)
	}

	for _, e := range f.CameraEvents() {
		switch e.EventType {
		case fitdec.CameraEventVideoSecondStreamEnd:
			continue
		case fitdec.CameraEventVideoStart:
			if cur != nil && len(cur.UUIDs) > 0 {
				cur.lastIndex = e.Index
				out = append(out, cur)
			}
			open(e)
			add(e.UUID)
		case fitdec.CameraEventVideoEnd:
			if cur == nil {
				open(e)
			}
			add(e.UUID)
			cur.lastIndex = e.Index
			out = append(out, cur)
			cur = nil
		default:
			if cur == nil {
				open(e)
			}
			add(e.UUID)
		}
	}
	if cur != nil && len(cur.UUIDs) > 0 {
		out = append(out, cur)
	}
	return out
}

// Contains reports whether the uuid is part of this session's manifest.
func (s *Session) Contains(uuid string) bool {
	for _, u := range s.UUIDs {
		if u == uuid {
			return true
		}
	}
	return false
}

// match fills the clip list in manifest order from uuid→path lookups built by
// the directory scan. Unmatched UUIDs keep an empty clip entry.
func (s *Session) match(mp4ByUUID, glvByUUID map[string]string) {
	s.Clips = make([]Clip, 0, len(s.UUIDs))
	for _, uuid := range s.UUIDs {
		s.Clips = append(s.Clips, Clip{
			UUID: uuid,
			MP4:  mp4ByUUID[uuid],
			GLV:  glvByUUID[uuid],
		})
	}
}

// MatchedClips returns the clips with at least one on-disk file, in manifest
// order.
func (s *Session) MatchedClips() []Clip {
	var out []Clip
	for _, c := range s.Clips {
		if c.Matched() {
			out = append(out, c)
		}
	}
	return out
}

// Usable reports whether at least one clip matched a file on disk.
func (s *Session) Usable() bool { return len(s.MatchedClips()) > 0 }

// VideoDuration is the summed duration of the matched clips.
func (s *Session) VideoDuration() time.Duration {
	var total time.Duration
	for _, c := range s.Clips {
		total += c.Duration
	}
	return total
}

// resolveTime derives T0 from the FIT file's timestamp correlation and the
// user hour offset, then probes matched clip durations to place the session
// end. Files recorded before the camera acquired UTC keep the FIT epoch base.
func (s *Session) resolveTime(prober VideoProber, offsetHours int) error {
	t0, err := s.fit.T0(offsetHours)
	if err != nil {
		t0 = fitdec.FitTimeUTC(0).Add(time.Duration(offsetHours) * time.Hour)
	}
	s.T0 = t0

	for i := range s.Clips {
		c := &s.Clips[i]
		if !c.Matched() {
			continue
		}
		d, err := prober.Duration(c.Video())
		if err != nil {
			return fmt.Errorf("clip %s: %w", c.UUID, err)
		}
		c.Duration = d
	}
	s.End = s.T0.Add(s.VideoDuration())
	return nil
}

// Points runs the GPS pipeline for this session: project the samples inside
// the session's record span, prune by fix quality, downsample, anchor to
// absolute time, and assign durations. The session end is required for the
// last point's duration.
func (s *Session) Points(minFix uint8, downsample int) ([]Point, error) {
	if !s.Usable() {
		return nil, fmt.Errorf("session %s: %w", s.FitPath, ErrMissingVideo)
	}
	points := pointsFromMetadata(s.fit.GpsMetadataRange(s.firstIndex, s.lastIndex))
	points = Prune(points, minFix)
	points = Downsample(points, downsample)
	SetAbsoluteTimes(points, s.T0, s.Start)
	AssignDurations(points, s.End)
	return points, nil
}
