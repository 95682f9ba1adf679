// Package bytesutil provides byte-slice manipulation utilities.
package bytesutil

import (
	"fmt"

	"selfid/pkg/platform/sentinel"
)

// ExtractRange returns buffer[offset:offset+length] as a copy. It fails with
// ErrOutOfRange when the requested range runs past the end of the buffer.
// Used by the claim batch decoder to slice packed signature and data blobs.
//
// Example:
//
//	ExtractRange([]byte{1, 2, 3, 4}, 1, 2)
//	// Returns: []byte{2, 3}
func ExtractRange(buffer []byte, offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("negative offset or length: %w", sentinel.ErrOutOfRange)
	}
	if offset+length > len(buffer) {
		return nil, fmt.Errorf("range %d+%d exceeds buffer size %d: %w", offset, length, len(buffer), sentinel.ErrOutOfRange)
	}
	out := make([]byte, length)
	copy(out, buffer[offset:offset+length])
	return out, nil
}
