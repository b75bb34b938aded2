package codec

import (
	"encoding/binary"
	"errors"
	"math"
	"twitter-bridge/message"
)

// BinaryCodec lays out an RPCMessage as length-prefixed fields:
//
//	plugin(2+n) action(2+n) payload(4+n) error(2+n)
type BinaryCodec struct{}

func (c *BinaryCodec) Encode(v any) ([]byte, error) {
	msg, ok := v.(*message.RPCMessage)
	if !ok {
		return nil, errors.New("BinaryCodec: v must be *RPCMessage")
	}
	if len(msg.Plugin) > math.MaxUint16 || len(msg.Action) > math.MaxUint16 || len(msg.Error) > math.MaxUint16 {
		return nil, errors.New("BinaryCodec: field too long")
	}

	total := 2 + len(msg.Plugin) + 2 + len(msg.Action) + 4 + len(msg.Payload) + 2 + len(msg.Error)
	buf := make([]byte, 0, total)

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(msg.Plugin)))
	buf = append(buf, msg.Plugin...)

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(msg.Action)))
	buf = append(buf, msg.Action...)

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(msg.Payload)))
	buf = append(buf, msg.Payload...)

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(msg.Error)))
	buf = append(buf, msg.Error...)
	return buf, nil
}

func (c *BinaryCodec) Decode(data []byte, v any) error {
	msg, ok := v.(*message.RPCMessage)
	if !ok {
		return errors.New("BinaryCodec: v must be *RPCMessage")
	}

	r := reader{data: data}
	msg.Plugin = string(r.field16())
	msg.Action = string(r.field16())
	if payload := r.field32(); payload != nil {
		msg.Payload = append([]byte(nil), payload...)
	} else {
		msg.Payload = nil
	}
	msg.Error = string(r.field16())
	return r.err
}

func (c *BinaryCodec) Type() CodecType {
	return CodecTypeBinary
}

// reader walks length-prefixed fields and latches the first truncation.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = ErrTruncated
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) field16() []byte {
	l := r.take(2)
	if l == nil {
		return nil
	}
	return r.take(int(binary.BigEndian.Uint16(l)))
}

func (r *reader) field32() []byte {
	l := r.take(4)
	if l == nil {
		return nil
	}
	n := binary.BigEndian.Uint32(l)
	if uint64(n) > uint64(len(r.data)) {
		r.err = ErrTruncated
		return nil
	}
	return r.take(int(n))
}
