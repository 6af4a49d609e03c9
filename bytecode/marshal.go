package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/hexe-lang/hexe/object"
)

// Magic identifies a Hexe executable.
const Magic = "\x7fHEXE\r\n\x1a"

// HeaderSize is the size of the fixed header in bytes.
const HeaderSize = 64

const entryHeaderSize = 5

// Errors returned by Deserialize. They are wrapped with detail; test for
// them with errors.Is.
var (
	ErrBadMagic         = errors.New("not a hexe executable")
	ErrVersionMismatch  = errors.New("unsupported executable version")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrTruncated        = errors.New("truncated executable")
	ErrMalformed        = errors.New("malformed executable")
)

// Version is the executable format version.
type Version struct {
	Major uint8
	Minor uint8
	Patch uint16
}

// CurrentVersion is the only version this package reads and writes.
var CurrentVersion = Version{Major: 1, Minor: 0, Patch: 0}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Header is the decoded fixed-size header of an executable.
type Header struct {
	EntryPoint   uint64  `json:"entry_point"`
	CodeSize     uint64  `json:"code_size"`
	ConstantSize uint32  `json:"constant_size"`
	Checksum     uint32  `json:"checksum"`
	Version      Version `json:"-"`
	MainFrame    uint16  `json:"main_frame"`
}

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], Magic)
	binary.LittleEndian.PutUint64(buf[8:], h.EntryPoint)
	binary.LittleEndian.PutUint64(buf[16:], h.CodeSize)
	binary.LittleEndian.PutUint32(buf[24:], h.ConstantSize)
	binary.LittleEndian.PutUint32(buf[28:], h.Checksum)
	buf[32] = h.Version.Major
	buf[33] = h.Version.Minor
	binary.LittleEndian.PutUint16(buf[34:], h.Version.Patch)
	binary.LittleEndian.PutUint16(buf[36:], h.MainFrame)
	return buf
}

// ReadHeader decodes and validates the magic and version of an executable
// header. It does not verify the checksum.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrTruncated, len(data))
	}
	if string(data[0:8]) != Magic {
		return Header{}, fmt.Errorf("%w: magic %q", ErrBadMagic, data[0:8])
	}
	h := Header{
		EntryPoint:   binary.LittleEndian.Uint64(data[8:]),
		CodeSize:     binary.LittleEndian.Uint64(data[16:]),
		ConstantSize: binary.LittleEndian.Uint32(data[24:]),
		Checksum:     binary.LittleEndian.Uint32(data[28:]),
		Version: Version{
			Major: data[32],
			Minor: data[33],
			Patch: binary.LittleEndian.Uint16(data[34:]),
		},
		MainFrame: binary.LittleEndian.Uint16(data[36:]),
	}
	if h.Version != CurrentVersion {
		return h, fmt.Errorf("%w: file is %s, expected %s", ErrVersionMismatch, h.Version, CurrentVersion)
	}
	return h, nil
}

func (c *Container) encodeConstants() []byte {
	var buf []byte
	for _, v := range c.constants {
		words := v.Bits()
		buf = append(buf, byte(v.Type()))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(words)))
		for _, w := range words {
			buf = binary.LittleEndian.AppendUint64(buf, w)
		}
	}
	return buf
}

// Serialize encodes the container in the executable format. An empty
// container produces an empty slice.
func (c *Container) Serialize() []byte {
	if c.IsEmpty() {
		return []byte{}
	}
	pool := c.encodeConstants()
	body := make([]byte, 0, len(pool)+len(c.instructions))
	body = append(body, pool...)
	body = append(body, c.instructions...)
	h := Header{
		EntryPoint:   c.entryPoint,
		CodeSize:     uint64(len(c.instructions)),
		ConstantSize: uint32(len(pool)),
		Checksum:     crc32.ChecksumIEEE(body),
		Version:      c.version,
		MainFrame:    c.mainFrame,
	}
	return append(h.encode(), body...)
}

// Deserialize decodes an executable produced by Serialize. Any structural
// problem rejects the whole input.
func Deserialize(data []byte) (*Container, error) {
	if len(data) == 0 {
		return NewContainer(), nil
	}
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[HeaderSize:]
	size := uint64(len(body))
	if uint64(h.ConstantSize) > size || h.CodeSize != size-uint64(h.ConstantSize) {
		return nil, fmt.Errorf("%w: header declares %d constant and %d code bytes, found %d",
			ErrTruncated, h.ConstantSize, h.CodeSize, size)
	}
	if sum := crc32.ChecksumIEEE(body); sum != h.Checksum {
		return nil, fmt.Errorf("%w: computed %08x, header has %08x", ErrChecksumMismatch, sum, h.Checksum)
	}
	if h.EntryPoint > h.CodeSize {
		return nil, fmt.Errorf("%w: entry point %d is past the end of the code", ErrMalformed, h.EntryPoint)
	}
	c := NewContainer()
	c.version = h.Version
	c.entryPoint = h.EntryPoint
	c.mainFrame = h.MainFrame
	if err := c.decodeConstants(body[:h.ConstantSize]); err != nil {
		return nil, err
	}
	c.instructions = append([]byte(nil), body[h.ConstantSize:]...)
	return c, nil
}

func (c *Container) decodeConstants(pool []byte) error {
	for pos := 0; pos < len(pool); {
		if len(pool)-pos < entryHeaderSize {
			return fmt.Errorf("%w: constant entry at %d is truncated", ErrMalformed, pos)
		}
		typ := object.Type(pool[pos])
		count := uint64(binary.LittleEndian.Uint32(pool[pos+1:]))
		pos += entryHeaderSize
		if count*8 > uint64(len(pool)-pos) {
			return fmt.Errorf("%w: constant %d declares %d words past the pool end",
				ErrMalformed, len(c.constants), count)
		}
		words := make([]uint64, count)
		for i := range words {
			words[i] = binary.LittleEndian.Uint64(pool[pos:])
			pos += 8
		}
		v, err := object.FromBits(typ, words)
		if err != nil {
			return fmt.Errorf("%w: constant %d: %v", ErrMalformed, len(c.constants), err)
		}
		if _, dup := c.index[v.Key()]; dup {
			return fmt.Errorf("%w: constant %d duplicates an earlier entry", ErrMalformed, len(c.constants))
		}
		if len(c.constants) >= MaxConstants {
			return fmt.Errorf("%w: %v", ErrMalformed, ErrTooManyConstants)
		}
		c.index[v.Key()] = uint16(len(c.constants))
		c.constants = append(c.constants, v)
	}
	return nil
}
