// Package dis decodes and pretty-prints Hexe bytecode.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/hexe-lang/hexe/bytecode"
	"github.com/hexe-lang/hexe/internal/table"
	"github.com/hexe-lang/hexe/op"
	"github.com/hokaccha/go-prettyjson"
)

// Instruction is one decoded instruction with its operands resolved for
// display.
type Instruction struct {
	Offset   int      `json:"offset"`
	Name     string   `json:"opcode"`
	Operands []string `json:"operands,omitempty"`
	Info     string   `json:"info,omitempty"`
	Entry    bool     `json:"entry,omitempty"`

	// Target is the absolute address of a jump or call, or -1.
	Target int     `json:"target"`
	Code   op.Code `json:"-"`
}

// Disassemble decodes every instruction in c. Constant operands are
// annotated with the constant's value and jumps with their absolute target.
func Disassemble(c *bytecode.Container) ([]Instruction, error) {
	iter := bytecode.NewInstructionIter(c)
	var results []Instruction
	entry := int(c.EntryPoint())
	for {
		instr, ok := iter.Next()
		if !ok {
			break
		}
		info := op.GetInfo(instr.Opcode)
		d := Instruction{
			Offset: instr.Offset,
			Name:   info.Name,
			Code:   instr.Opcode,
			Entry:  instr.Offset == entry,
			Target: -1,
		}
		var notes []string
		after := instr.Offset + info.Size()
		for i, kind := range info.Operands {
			value := instr.Operands[i]
			switch kind {
			case op.Register:
				if uint16(value) == op.RegisterReturn {
					d.Operands = append(d.Operands, "ret")
				} else {
					d.Operands = append(d.Operands, fmt.Sprintf("r%d", value))
				}
			case op.Constant:
				d.Operands = append(d.Operands, strconv.Itoa(int(value)))
				if int(value) < c.ConstantCount() {
					notes = append(notes, c.ConstantAt(int(value)).String())
				} else {
					notes = append(notes, "<bad constant>")
				}
			case op.Offset:
				delta := int(int16(uint16(value)))
				d.Operands = append(d.Operands, fmt.Sprintf("%+d", delta))
				d.Target = after + delta
				notes = append(notes, fmt.Sprintf("-> %d", d.Target))
			case op.FrameSize:
				d.Operands = append(d.Operands, strconv.Itoa(int(value)))
			case op.Address:
				d.Operands = append(d.Operands, strconv.Itoa(int(value)))
				d.Target = int(value)
				notes = append(notes, fmt.Sprintf("-> %d", d.Target))
			}
		}
		d.Info = strings.Join(notes, " ")
		results = append(results, d)
	}
	if err := iter.Err(); err != nil {
		return results, err
	}
	return results, nil
}

var (
	opcodeColor = color.New(color.FgCyan)
	jumpColor   = color.New(color.FgYellow)
	haltColor   = color.New(color.FgRed)
	entryColor  = color.New(color.FgGreen, color.Bold)
)

func paintOpcode(instr Instruction) string {
	switch {
	case instr.Target >= 0:
		return jumpColor.Sprint(instr.Name)
	case instr.Code == op.Halt || instr.Code == op.Err || instr.Code == op.Return:
		return haltColor.Sprint(instr.Name)
	default:
		return opcodeColor.Sprint(instr.Name)
	}
}

// Print writes the instructions as a table. Colors follow color.NoColor.
func Print(instructions []Instruction, writer io.Writer) error {
	tbl := table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		})
	for _, instr := range instructions {
		offset := strconv.Itoa(instr.Offset)
		if instr.Entry {
			offset = entryColor.Sprint("*") + offset
		}
		tbl.Append([]string{
			offset,
			paintOpcode(instr),
			strings.Join(instr.Operands, " "),
			instr.Info,
		})
	}
	return tbl.Render()
}

// PrintJSON writes the instructions as a JSON array, colored unless
// color.NoColor is set.
func PrintJSON(instructions []Instruction, writer io.Writer) error {
	if instructions == nil {
		instructions = []Instruction{}
	}
	formatter := prettyjson.NewFormatter()
	formatter.DisabledColor = color.NoColor
	data, err := formatter.Marshal(instructions)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(writer, string(data))
	return err
}
