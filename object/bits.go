package object

import (
	"encoding/binary"
	"fmt"
)

// Bits returns the value as 64-bit words, the form stored in the constant
// pool. Scalars are a single word. Strings are the byte length followed by
// the bytes packed little-endian into words, zero padded. None has no words.
func (v Value) Bits() []uint64 {
	switch v.typ {
	case INT, UINT, FLOAT, BOOL:
		return []uint64{v.bits()}
	case STRING:
		words := make([]uint64, 1, 1+(len(v.data)+payloadSize-1)/payloadSize)
		words[0] = uint64(len(v.data))
		for i := 0; i < len(v.data); i += payloadSize {
			var chunk [payloadSize]byte
			copy(chunk[:], v.data[i:])
			words = append(words, binary.LittleEndian.Uint64(chunk[:]))
		}
		return words
	default:
		return nil
	}
}

// FromBits rebuilds a value from the words produced by Bits.
func FromBits(t Type, words []uint64) (Value, error) {
	switch t {
	case INT, UINT, FLOAT, BOOL:
		if len(words) != 1 {
			return Value{}, fmt.Errorf("%s constant has %d words, expected 1", t, len(words))
		}
		if t == BOOL && words[0] > 1 {
			return Value{}, fmt.Errorf("invalid bool payload %d", words[0])
		}
		return scalar(t, words[0]), nil
	case STRING:
		if len(words) == 0 {
			return Value{}, fmt.Errorf("string constant is missing its length")
		}
		n := words[0]
		need := (n + payloadSize - 1) / payloadSize
		if uint64(len(words)-1) != need {
			return Value{}, fmt.Errorf("string constant of length %d has %d data words", n, len(words)-1)
		}
		buf := make([]byte, 0, need*payloadSize)
		for _, w := range words[1:] {
			buf = binary.LittleEndian.AppendUint64(buf, w)
		}
		return Value{typ: STRING, data: buf[:n]}, nil
	case NONE:
		if len(words) != 0 {
			return Value{}, fmt.Errorf("none constant has %d words, expected 0", len(words))
		}
		return None(), nil
	}
	return Value{}, fmt.Errorf("invalid constant type %d", uint8(t))
}
