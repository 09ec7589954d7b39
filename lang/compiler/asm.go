package compiler

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rillscript/rill/lang/stdlib"
	"github.com/rillscript/rill/lang/value"
)

// Dasm writes a human-readable disassembly of prog to w: one instruction
// per line, `<index>:\t<mnemonic>\t<operand>`, delimited by a two-line
// header and footer.
func Dasm(w io.Writer, prog *Program) error {
	if _, err := fmt.Fprintf(w, "; program: %d instructions, entry at %d\n", len(prog.Code), prog.EntryPoint); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "; ----------------------------------------"); err != nil {
		return err
	}
	for i, insn := range prog.Code {
		if _, err := fmt.Fprintf(w, "%d:\t%s\t%s\n", i, insn.Op, operandText(insn)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "; ----------------------------------------"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "; end, %d instructions\n", len(prog.Code)); err != nil {
		return err
	}
	return nil
}

func operandText(insn Insn) string {
	switch insn.Op.OperandKind() {
	case OperandValue:
		return insn.Val.String()
	case OperandOffset, OperandTarget, OperandArity:
		return fmt.Sprintf("%d", insn.Operand)
	case OperandNative:
		return stdlib.NativeFunction(insn.Operand).String()
	default:
		return ""
	}
}

// DasmString returns Dasm's output as a string, for tests.
func DasmString(prog *Program) string {
	var sb strings.Builder
	// Dasm never returns an error writing to a strings.Builder.
	_ = Dasm(&sb, prog)
	return sb.String()
}

var mnemonicToOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		if name != "" {
			m[name] = Opcode(op)
		}
	}
	return m
}()

// Asm parses the textual form Dasm produces (plus quoted-string, true/
// false/none/null Push operands, which Dasm does not need to round-trip)
// back into a Program. It lets machine tests build programs directly,
// without going through the parser and compiler, the way the teacher's
// asm format exercises the VM in isolation.
func Asm(src string) (*Program, error) {
	var entry int
	var code []Insn
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ";"):
			if i := strings.Index(line, "entry at "); i >= 0 {
				fmt.Sscanf(line[i:], "entry at %d", &entry)
			}
			continue
		}

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, fmt.Errorf("asm: malformed line %q", line)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(line[:colon]))
		if err != nil {
			return nil, fmt.Errorf("asm: bad instruction index in %q: %w", line, err)
		}

		fields := strings.Fields(line[colon+1:])
		if len(fields) == 0 {
			return nil, fmt.Errorf("asm: missing mnemonic at index %d", idx)
		}
		op, ok := mnemonicToOpcode[fields[0]]
		if !ok {
			return nil, fmt.Errorf("asm: unknown mnemonic %q", fields[0])
		}

		insn := Insn{Op: op}
		if len(fields) > 1 {
			operand := strings.Join(fields[1:], " ")
			switch op.OperandKind() {
			case OperandValue:
				v, err := parseAsmValue(operand)
				if err != nil {
					return nil, fmt.Errorf("asm: index %d: %w", idx, err)
				}
				insn.Val = v
			case OperandNative:
				nf, ok := stdlib.Lookup(operand)
				if !ok {
					return nil, fmt.Errorf("asm: index %d: unknown native %q", idx, operand)
				}
				insn.Operand = int(nf)
			default:
				n, err := strconv.Atoi(operand)
				if err != nil {
					return nil, fmt.Errorf("asm: index %d: bad operand %q: %w", idx, operand, err)
				}
				insn.Operand = n
			}
		}

		for len(code) <= idx {
			code = append(code, Insn{Op: Noop})
		}
		code[idx] = insn
	}
	return &Program{Code: code, EntryPoint: entry}, nil
}

func parseAsmValue(s string) (value.Value, error) {
	switch s {
	case "true":
		return value.Bool(true), nil
	case "false":
		return value.Bool(false), nil
	case "none":
		return value.None{}, nil
	case "null":
		return value.Null{}, nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return value.String(s[1 : len(s)-1]), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid push operand %q: %w", s, err)
	}
	return value.Number(f), nil
}
