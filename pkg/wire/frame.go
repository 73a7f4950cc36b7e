package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds the length prefix accepted by ReadFrame
const MaxFrameSize = 64 << 20

var ErrInvalidFrame = errors.New("invalid frame")

// WriteFrame writes a 4-byte little-endian length, the message type and the
// msgpack encoding of payload. A nil payload sends the type alone.
func WriteFrame(w io.Writer, msgType MsgType, payload interface{}) error {
	var data []byte
	if payload != nil {
		var err error
		data, err = Encode(payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", msgType, err)
		}
	}

	buf := make([]byte, 5+len(data))
	binary.LittleEndian.PutUint32(buf, uint32(1+len(data)))
	buf[4] = byte(msgType)
	copy(buf[5:], data)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one frame and returns its type and raw payload. io.EOF is
// returned unwrapped when the stream ends between frames.
func ReadFrame(r io.Reader) (MsgType, []byte, error) {
	var head [5]byte
	if _, err := io.ReadFull(r, head[:4]); err != nil {
		return 0, nil, err
	}
	length := binary.LittleEndian.Uint32(head[:4])
	if length == 0 || length > MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: length %d", ErrInvalidFrame, length)
	}
	if _, err := io.ReadFull(r, head[4:]); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	payload := make([]byte, length-1)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return MsgType(head[4]), payload, nil
}
