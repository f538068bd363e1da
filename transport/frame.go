package transport

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/trinity-gateway/hubnode/message"
)

// DefaultMaxFrame bounds the payload of a single peer frame. Whole-graph
// syncs are the largest messages.
const DefaultMaxFrame = 16 << 20

// FrameTooLargeError is returned when a frame header announces more bytes
// than the reader accepts.
type FrameTooLargeError struct {
	Size  uint32
	Limit uint32
}

func (err FrameTooLargeError) Error() string {
	return fmt.Sprintf("frame of %d bytes exceeds limit of %d", err.Size, err.Limit)
}

// WriteFrame writes payload prefixed with its length as a big-endian uint32.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed payload.
func ReadFrame(r io.Reader, limit uint32) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if limit > 0 && size > limit {
		return nil, FrameTooLargeError{Size: size, Limit: limit}
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func writeAck(w io.Writer, ack message.Ack) error {
	raw, err := json.Marshal(ack)
	if err != nil {
		return err
	}
	return WriteFrame(w, raw)
}

func readAck(r io.Reader) (message.Ack, error) {
	var ack message.Ack
	raw, err := ReadFrame(r, DefaultMaxFrame)
	if err != nil {
		return ack, err
	}
	err = json.Unmarshal(raw, &ack)
	return ack, err
}
