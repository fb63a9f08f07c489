package virbfit

import "errors"

var (
	// ErrNoSuchSession means no session matched the caller's UUID, video, or
	// FIT path, or the FIT file carried no camera events at all.
	ErrNoSuchSession = errors.New("no matching recording session")
	// ErrMissingVideo means a session's UUID manifest matched no files on
	// disk, so clip durations and the session end are unknown.
	ErrMissingVideo = errors.New("no matched video files")
)
