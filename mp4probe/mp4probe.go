// Package mp4probe answers two questions about MP4/GLV video containers:
// which recording UUID is embedded in the file, and how long the video runs.
// Probes are blocking, idempotent, and keep nothing cached.
package mp4probe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

var (
	ErrNoUUID  = errors.New("no uuid atom")
	ErrNoMovie = errors.New("no moov atom")
)

// uuid payloads are tiny; anything larger is a misread atom.
const maxUUIDPayload = 4096

// Prober is the stateless probe used for session matching. It satisfies the
// video prober interface of the session layer.
type Prober struct{}

func (Prober) UUID(path string) (string, error)            { return UUID(path) }
func (Prober) Duration(path string) (time.Duration, error) { return Duration(path) }

// UUID returns the recording UUID embedded in the container's moov/udta/uuid
// atom, trimmed of padding.
func UUID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return "", fmt.Errorf("probe video: %w", err)
	}

	udtaStart, udtaEnd, err := descend(f, 0, end, "moov", "udta")
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	start, size, err := findChild(f, udtaStart, udtaEnd, "uuid")
	if err != nil {
		if errors.Is(err, errAtomNotFound) {
			return "", fmt.Errorf("%s: %w", path, ErrNoUUID)
		}
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if size > maxUUIDPayload {
		return "", fmt.Errorf("%s: uuid atom is %d bytes", path, size)
	}

	payload := make([]byte, size)
	if _, err := f.ReadAt(payload, start); err != nil {
		return "", fmt.Errorf("read uuid atom: %w", err)
	}
	uuid := strings.TrimRight(string(payload), "\x00")
	if uuid == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoUUID)
	}
	return uuid, nil
}

// Duration returns the presentation duration from the movie header.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("probe video: %w", err)
	}

	moovStart, moovEnd, err := descend(f, 0, end, "moov")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	start, size, err := findChild(f, moovStart, moovEnd, "mvhd")
	if err != nil {
		return 0, fmt.Errorf("%s: movie header: %w", path, err)
	}
	if size < 20 {
		return 0, fmt.Errorf("%s: movie header is %d bytes", path, size)
	}

	head := make([]byte, 4)
	if _, err := f.ReadAt(head, start); err != nil {
		return 0, fmt.Errorf("read movie header: %w", err)
	}

	var timescale uint32
	var duration uint64
	switch version := head[0]; version {
	case 0:
		buf := make([]byte, 8)
		if _, err := f.ReadAt(buf, start+12); err != nil {
			return 0, fmt.Errorf("read movie header: %w", err)
		}
		timescale = binary.BigEndian.Uint32(buf[0:4])
		duration = uint64(binary.BigEndian.Uint32(buf[4:8]))
	case 1:
		buf := make([]byte, 12)
		if _, err := f.ReadAt(buf, start+20); err != nil {
			return 0, fmt.Errorf("read movie header: %w", err)
		}
		timescale = binary.BigEndian.Uint32(buf[0:4])
		duration = binary.BigEndian.Uint64(buf[4:12])
	default:
		return 0, fmt.Errorf("%s: movie header version %d", path, version)
	}
	if timescale == 0 {
		return 0, fmt.Errorf("%s: movie header timescale is zero", path)
	}

	return time.Duration(float64(duration) / float64(timescale) * float64(time.Second)), nil
}

var errAtomNotFound = errors.New("atom not found")

// descend walks a container path like moov/udta, returning the payload span
// of the final container.
func descend(f *os.File, start, end int64, path ...string) (int64, int64, error) {
	for _, name := range path {
		childStart, childSize, err := findChild(f, start, end, name)
		if err != nil {
			if errors.Is(err, errAtomNotFound) && name == "moov" {
				return 0, 0, ErrNoMovie
			}
			return 0, 0, fmt.Errorf("%s: %w", name, err)
		}
		start, end = childStart, childStart+childSize
	}
	return start, end, nil
}

// findChild scans sibling atoms in [start, end) for the named box and returns
// its payload offset and length. Sizes are big-endian; size 1 means a 64-bit
// extended size follows the type; size 0 (to end of file) is rejected.
func findChild(f *os.File, start, end int64, name string) (int64, int64, error) {
	pos := start
	buf := make([]byte, 8)
	for pos+8 <= end {
		if _, err := f.ReadAt(buf, pos); err != nil {
			return 0, 0, fmt.Errorf("read atom header: %w", err)
		}
		size := int64(binary.BigEndian.Uint32(buf[0:4]))
		atomType := string(buf[4:8])
		headerLen := int64(8)

		switch size {
		case 0:
			return 0, 0, fmt.Errorf("atom %s with size 0 at offset %d", atomType, pos)
		case 1:
			ext := make([]byte, 8)
			if _, err := f.ReadAt(ext, pos+8); err != nil {
				return 0, 0, fmt.Errorf("read extended atom size: %w", err)
			}
			size = int64(binary.BigEndian.Uint64(ext))
			headerLen = 16
		}
		if size < headerLen || pos+size > end {
			return 0, 0, fmt.Errorf("atom %s with size %d at offset %d overruns parent", atomType, size, pos)
		}

		if atomType == name {
			return pos + headerLen, size - headerLen, nil
		}
		pos += size
	}
	return 0, 0, fmt.Errorf("%w: %s", errAtomNotFound, name)
}
