package fitdec

import (
	"errors"
	"fmt"
)

// Decode errors are fatal for the file they occur in: record boundaries are
// only knowable from correctly decoded preceding definitions, so there is no
// mid-stream resynchronization.
var (
	ErrInvalidHeader   = errors.New("invalid fit header")
	ErrTruncated       = errors.New("truncated fit data")
	ErrInvalidBaseType = errors.New("invalid fit base type")
	ErrNoCorrelation   = errors.New("no timestamp_correlation message")
)

// UnknownFieldDescriptionError reports a developer field definition that
// references a field_description not yet seen in the stream. Descriptions are
// append-only and file-order dependent, so a missing entry cannot resolve
// later.
type UnknownFieldDescriptionError struct {
	FieldNumber        uint8
	DeveloperDataIndex uint8
}

func (e *UnknownFieldDescriptionError) Error() string {
	return fmt.Sprintf("unknown field description: field=%d developer_data_index=%d",
		e.FieldNumber, e.DeveloperDataIndex)
}
