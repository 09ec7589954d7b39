// Package stdlib implements the fixed, closed set of native functions the
// virtual machine can invoke via the NativeCall opcode. Natives are pure
// with respect to VM state: they only see the argument values the VM
// dereferences for them and return exactly one result value.
package stdlib

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dolthub/swiss"

	"github.com/rillscript/rill/lang/value"
)

// NativeFunction identifies one member of the closed native function
// enumeration.
type NativeFunction uint8

//nolint:revive
const (
	Stdout NativeFunction = iota
	Stdin
	Flushout
	Time

	maxNative
)

var names = [...]string{
	Stdout:   "stdout",
	Stdin:    "stdin",
	Flushout: "flushout",
	Time:     "time",
}

var arities = [...]int{
	Stdout:   1,
	Stdin:    0,
	Flushout: 0,
	Time:     0,
}

func (nf NativeFunction) String() string {
	if nf < maxNative {
		return names[nf]
	}
	return fmt.Sprintf("native(%d)", nf)
}

// Arity returns the number of arguments nf expects.
func (nf NativeFunction) Arity() int {
	if nf < maxNative {
		return arities[nf]
	}
	return 0
}

// byName is the name->tag dispatch table consulted by Lookup, backed by
// the same open-addressing map the compiler uses for its name table.
var byName = func() *swiss.Map[string, NativeFunction] {
	m := swiss.NewMap[string, NativeFunction](uint32(len(names)))
	for i, n := range names {
		m.Put(n, NativeFunction(i))
	}
	return m
}()

// Lookup resolves a source-level native function name, as written after a
// `#` in a NativeCall, to its enumeration member.
func Lookup(name string) (NativeFunction, bool) {
	return byName.Get(name)
}

// IO bundles the streams natives read from and write to; the VM supplies
// this, defaulting to the process' own stdio (see Default).
type IO struct {
	Out io.Writer
	In  *bufio.Reader
}

// Default returns an IO bound to the process' stdin/stdout.
func Default() *IO {
	return &IO{Out: os.Stdout, In: bufio.NewReader(os.Stdin)}
}

// Call invokes nf with args (already in natural left-to-right order) and
// returns its single result.
func (io_ *IO) Call(nf NativeFunction, args []value.Value) (value.Value, error) {
	switch nf {
	case Stdout:
		fmt.Fprint(io_.Out, value.Stringify(args[0]))
		return value.None{}, nil
	case Stdin:
		line, err := io_.In.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return value.String(line), nil
	case Flushout:
		if f, ok := io_.Out.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				return nil, fmt.Errorf("flushout: %w", err)
			}
		} else if f, ok := io_.Out.(*os.File); ok {
			_ = f.Sync()
		}
		return value.None{}, nil
	case Time:
		return value.Number(float64(time.Now().UnixMilli())), nil
	}
	return nil, fmt.Errorf("stdlib: unknown native function tag %d", nf)
}
