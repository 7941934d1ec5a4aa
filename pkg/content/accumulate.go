// Package content retrieves the binary payload of platform messages.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// chunkSize is the read size for a single chunk off the content stream.
const chunkSize = 32 * 1024

var (
	// ErrTooLarge is returned when a stream exceeds the accumulation limit.
	ErrTooLarge = errors.New("content exceeds size limit")

	// ErrEmptyMessageID is returned when no message ID is given to a Fetcher.
	ErrEmptyMessageID = errors.New("message id is required")
)

// Accumulate reads r until EOF, buffering each chunk in arrival order, and
// returns the chunks joined into one slice. If the stream fails before EOF the
// error is returned and the chunks read so far are dropped.
// A limit <= 0 disables the size check.
func Accumulate(r io.Reader, limit int64) ([]byte, error) {
	var (
		chunks [][]byte
		total  int64
	)

	for {
		buf := make([]byte, chunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if limit > 0 && total > limit {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
			}
			chunks = append(chunks, buf[:n])
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading content stream: %w", err)
		}
	}

	return bytes.Join(chunks, nil), nil
}
