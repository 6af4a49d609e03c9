// Package bytecode provides the container for compiled Hexe programs and its
// binary executable format.
//
// A [Container] holds an instruction stream and a deduplicated constant pool.
// The compiler appends instructions with [Container.Write] and fixes up jump
// and call operands afterwards with [Container.Patch] and
// [Container.PatchCall]. Once compilation finishes the container is only
// read: by the VM, by the disassembler, or by [Container.Serialize].
//
// # Executable format
//
// A serialized container is a 64-byte header followed by the constant pool
// and the raw instructions. All multi-byte fields are little-endian:
//
//	offset size field
//	0      8    magic "\x7fHEXE\r\n\x1a"
//	8      8    entry point (byte offset into the instructions)
//	16     8    instruction section length
//	24     4    constant pool section length
//	28     4    CRC32 (IEEE) of constant pool ++ instructions
//	32     1    version major
//	33     1    version minor
//	34     2    version patch
//	36     2    main frame register count
//	38     26   reserved
//
// Each constant pool entry is a one byte type tag, a four byte element count
// and that many 8-byte words (see [object.Value.Bits]).
//
// [Deserialize] fails closed: a bad magic, a different version, a checksum
// mismatch or a malformed section rejects the whole file. An empty container
// serializes to an empty byte slice.
//
// Example:
//
//	c := bytecode.NewContainer()
//	idx, _ := c.AddConstant(object.NewInt(5))
//	c.Write(op.LoadConstant, 0, idx)
//	c.Write(op.Return, 0)
//	c.Write(op.Halt)
//	data := c.Serialize()
//
//	loaded, err := bytecode.Deserialize(data)
package bytecode
