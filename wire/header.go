package wire

import (
	"fmt"
	"math"
)

const (
	// HeaderSize is the encoded size of a command Header.
	HeaderSize = 8
	// MessageAlign is the alignment every encoded command is padded to.
	MessageAlign = 8
)

// Header frames every protocol command. Size counts the whole message,
// header and trailing padding included.
type Header struct {
	Opcode uint32
	Size   uint32
}

// MessageSize returns the framed size of a command whose body is bodySize
// bytes long.
func MessageSize(bodySize int) int {
	return Align(HeaderSize+bodySize, MessageAlign)
}

// AppendHeader appends a header carrying opcode and a zero size. The size is
// patched by FinishMessage once the body has been appended.
func AppendHeader(b []byte, opcode uint32) []byte {
	b = Order.AppendUint32(b, opcode)
	return Order.AppendUint32(b, 0)
}

// FinishMessage pads the message that starts at b[start] to MessageAlign and
// writes its final size into the header in place.
func FinishMessage(b []byte, start int) ([]byte, error) {
	n := len(b) - start
	b = AppendZeros(b, Align(n, MessageAlign)-n)
	size := len(b) - start
	if size > math.MaxUint32 {
		return nil, &MalformedError{Type: "message", Detail: fmt.Sprintf("size %d exceeds 32 bits", size)}
	}
	Order.PutUint32(b[start+4:], uint32(size))
	return b, nil
}

// ReadHeader decodes the header at the start of b and returns it with the
// message body, which excludes the header and stops at the header's size.
func ReadHeader(b []byte, protocol string) (Header, []byte, error) {
	if err := Check(b, HeaderSize, protocol, "header"); err != nil {
		return Header{}, nil, err
	}
	h := Header{
		Opcode: Order.Uint32(b[0:]),
		Size:   Order.Uint32(b[4:]),
	}
	if h.Size < HeaderSize {
		return Header{}, nil, &MalformedError{
			Type:   protocol,
			Detail: fmt.Sprintf("header size %d is smaller than the header", h.Size),
		}
	}
	if uint64(h.Size) > uint64(len(b)) {
		return Header{}, nil, &TruncatedInputError{Type: protocol, Field: "message", Need: uint64(h.Size), Have: len(b)}
	}
	return h, b[HeaderSize:h.Size:h.Size], nil
}
