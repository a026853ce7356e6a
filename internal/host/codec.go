package host

import (
	"io"

	"github.com/ugorji/go/codec"
)

var msgpack = newHandle()

func newHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	return h
}

// Encode serializes a stored value as msgpack.
func Encode(v any) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, msgpack).Encode(v); err != nil {
		return nil, err
	}
	return buf, nil
}

// Decode is the inverse of Encode. out must be a pointer.
func Decode(data []byte, out any) error {
	return codec.NewDecoderBytes(data, msgpack).Decode(out)
}

// NewEncoder returns a streaming encoder writing the stored value format.
func NewEncoder(w io.Writer) *codec.Encoder {
	return codec.NewEncoder(w, msgpack)
}

// NewDecoder returns a streaming decoder for values written by NewEncoder.
func NewDecoder(r io.Reader) *codec.Decoder {
	return codec.NewDecoder(r, msgpack)
}
