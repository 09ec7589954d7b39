package ast

import (
	"fmt"
	"strings"
)

// Sprint renders a Block as an indented, human-readable tree, for the CLI's
// `parse` diagnostic command.
func Sprint(b Block) string {
	var sb strings.Builder
	sprintBlock(&sb, b, 0)
	return sb.String()
}

func sprintBlock(sb *strings.Builder, b Block, depth int) {
	for _, n := range b {
		sprintNode(sb, n, depth)
	}
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
}

func sprintNode(sb *strings.Builder, n Node, depth int) {
	indent(sb, depth)
	switch n := n.(type) {
	case *NumberLit:
		fmt.Fprintf(sb, "Number(%g)\n", n.Value)
	case *StringLit:
		fmt.Fprintf(sb, "String(%q)\n", n.Value)
	case *FormatStringLit:
		fmt.Fprintf(sb, "FormatString(%d parts)\n", len(n.Parts))
		sprintBlock(sb, n.Parts, depth+1)
	case *BoolLit:
		fmt.Fprintf(sb, "Bool(%t)\n", n.Value)
	case *NoneLit:
		sb.WriteString("None\n")
	case *Identifier:
		fmt.Fprintf(sb, "Identifier(%s)\n", n.Name)
	case *Declaration:
		fmt.Fprintf(sb, "Declaration(%s)\n", n.Name)
		sprintNode(sb, n.Value, depth+1)
	case *Assignment:
		sb.WriteString("Assignment\n")
		sprintNode(sb, n.Target, depth+1)
		sprintNode(sb, n.Value, depth+1)
	case *IndexExpr:
		sb.WriteString("Index\n")
		sprintNode(sb, n.Item, depth+1)
		sprintNode(sb, n.Index, depth+1)
	case *Function:
		fmt.Fprintf(sb, "Function(%s, args=%v)\n", n.Name, n.Args)
		sprintBlock(sb, n.Body, depth+1)
	case *Lambda:
		fmt.Fprintf(sb, "Lambda(args=%v)\n", n.Args)
		sprintBlock(sb, n.Body, depth+1)
	case *Call:
		sb.WriteString("Call\n")
		sprintNode(sb, n.Callee, depth+1)
		sprintBlock(sb, n.Args, depth+1)
	case *NativeCall:
		fmt.Fprintf(sb, "NativeCall(#%s)\n", n.Name)
		sprintBlock(sb, n.Args, depth+1)
	case *Op:
		fmt.Fprintf(sb, "Op(%v)\n", n.Kind)
		sprintNode(sb, n.Lhs, depth+1)
		if n.Rhs != nil {
			sprintNode(sb, n.Rhs, depth+1)
		}
	case *Join:
		sb.WriteString("Join\n")
		sprintNode(sb, n.Lhs, depth+1)
		sprintNode(sb, n.Rhs, depth+1)
	case *If:
		sb.WriteString("If\n")
		sprintNode(sb, n.Condition, depth+1)
		sprintBlock(sb, n.Then, depth+1)
		if n.Otherwise != nil {
			indent(sb, depth)
			sb.WriteString("Else\n")
			sprintBlock(sb, n.Otherwise, depth+1)
		}
	case *Return:
		sb.WriteString("Return\n")
		sprintNode(sb, n.Value, depth+1)
	default:
		fmt.Fprintf(sb, "%T\n", n)
	}
}
