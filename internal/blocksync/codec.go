package blocksync

import (
	"fmt"

	"github.com/gogo/protobuf/proto"

	"github.com/nodesync/nodesync/internal/libs/protoio"
	bcproto "github.com/nodesync/nodesync/proto/nodesync/blocksync"
	"github.com/nodesync/nodesync/version"
)

// EncodeMessage wraps pb into a versioned envelope and frames it.
func EncodeMessage(pb proto.Message) ([]byte, error) {
	msg := &bcproto.Message{Version: version.WireEnvelope}
	if err := msg.Wrap(pb); err != nil {
		return nil, err
	}
	return protoio.MarshalDelimited(msg)
}

// DecodeMessage decodes exactly one framed envelope from bz and returns the
// message it carries. It never panics: any failure, including a frame larger
// than maxSize, an unknown envelope version or a structurally invalid
// payload, is returned as an error.
func DecodeMessage(bz []byte, maxSize int) (pb proto.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			pb = nil
			err = fmt.Errorf("panic while decoding message: %v", r)
		}
	}()

	msg := new(bcproto.Message)
	if err := protoio.UnmarshalDelimited(bz, maxSize, msg); err != nil {
		return nil, err
	}
	if msg.Version != version.WireEnvelope {
		return nil, fmt.Errorf("unsupported envelope version %d", msg.Version)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg.Unwrap()
}
