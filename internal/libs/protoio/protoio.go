// Package protoio frames protobuf messages with a uvarint length prefix.
//
// A frame is the uvarint-encoded length of the payload followed by the
// payload itself. Decoding checks the declared length against a maximum
// before looking at the payload.
package protoio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogo/protobuf/proto"
)

var (
	// ErrTrailingData is returned by UnmarshalDelimited when the input holds
	// more bytes than the single frame it declares.
	ErrTrailingData = errors.New("trailing data after delimited message")

	// ErrTruncated is returned when the input ends before the declared
	// payload does.
	ErrTruncated = errors.New("truncated delimited message")
)

type sizedMarshaler interface {
	Size() int
	MarshalTo(data []byte) (int, error)
}

// MarshalDelimited marshals msg and prefixes it with its uvarint length.
func MarshalDelimited(msg proto.Message) ([]byte, error) {
	if m, ok := msg.(sizedMarshaler); ok {
		size := m.Size()
		buf := make([]byte, binary.MaxVarintLen64+size)
		n := binary.PutUvarint(buf, uint64(size))
		nw, err := m.MarshalTo(buf[n:])
		if err != nil {
			return nil, err
		}
		return buf[:n+nw], nil
	}

	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, binary.MaxVarintLen64+len(data))
	n := binary.PutUvarint(buf, uint64(len(data)))
	n += copy(buf[n:], data)
	return buf[:n], nil
}

// UnmarshalDelimited decodes exactly one frame from data into msg. The
// declared length may not exceed maxSize and no bytes may follow the frame.
func UnmarshalDelimited(data []byte, maxSize int, msg proto.Message) error {
	length, n := binary.Uvarint(data)
	switch {
	case n == 0:
		return ErrTruncated
	case n < 0:
		return errors.New("invalid length prefix")
	case maxSize < 0 || length > uint64(maxSize):
		return fmt.Errorf("message exceeds max size (%d > %d)", length, maxSize)
	}

	payload := data[n:]
	if uint64(len(payload)) < length {
		return ErrTruncated
	}
	if uint64(len(payload)) > length {
		return ErrTrailingData
	}
	return proto.Unmarshal(payload, msg)
}
