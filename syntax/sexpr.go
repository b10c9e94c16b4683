package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprString renders an expression as an s-expression, for tests and debugging.
func ExprString(e Expression) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

// StmtString renders a statement as an s-expression.
func StmtString(s Statement) string {
	var b strings.Builder
	writeStmt(&b, s)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expression) {
	switch e := e.(type) {
	case *BinaryOperation:
		fmt.Fprintf(b, "(binary %q ", e.Operation)
		writeExpr(b, e.LeftOperand)
		b.WriteByte(' ')
		writeExpr(b, e.RightOperand)
		b.WriteByte(')')
	case *FunctionCall:
		fmt.Fprintf(b, "(call %q", e.FunctionName.String())
		for _, arg := range e.Arguments {
			b.WriteByte(' ')
			if arg.IsByReference {
				b.WriteString("(ref ")
				writeExpr(b, arg.Value)
				b.WriteByte(')')
			} else {
				writeExpr(b, arg.Value)
			}
		}
		b.WriteByte(')')
	case *QualifiedNameExpr:
		fmt.Fprintf(b, "(name %q)", e.Value.String())
	case *ObjectLiteral:
		fmt.Fprintf(b, "(object %q", e.TypeName.String())
		for _, f := range e.Fields {
			fmt.Fprintf(b, " (field %q", f.Name)
			if f.Value != nil {
				b.WriteByte(' ')
				writeExpr(b, f.Value)
			}
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case *CollectionLiteral:
		b.WriteString("(" + e.Kind.String())
		if e.ItemType != nil {
			fmt.Fprintf(b, " %q", e.ItemType.String())
		}
		for _, v := range e.Values {
			b.WriteByte(' ')
			writeExpr(b, v)
		}
		b.WriteByte(')')
	case *CollectionAccess:
		fmt.Fprintf(b, "(index %q ", e.CollectionName.String())
		writeExpr(b, e.Key)
		b.WriteByte(')')
	case *IdentityTest:
		if e.IsNegative {
			b.WriteString("(isnt ")
		} else {
			b.WriteString("(is ")
		}
		writeExpr(b, e.Operand)
		fmt.Fprintf(b, " %q)", e.Variant.String())
	case *InPlaceAssignment:
		fmt.Fprintf(b, "(prefix %q ", e.Operation)
		writeExpr(b, e.Target)
		b.WriteByte(')')
	case *UnaryOperation:
		fmt.Fprintf(b, "(unary %q ", e.Operator)
		writeExpr(b, e.Operand)
		b.WriteByte(')')
	case *BoolLiteral:
		b.WriteString(strconv.FormatBool(e.Value))
	case *NumberLiteral:
		b.WriteString(e.Value)
	case *StringLiteral:
		b.WriteString(strconv.Quote(e.Value))
	case *CharacterLiteral:
		b.WriteString(strconv.QuoteRune(e.Value))
	default:
		panic(fmt.Sprintf("unhandled expression %T", e))
	}
}

func writeStmt(b *strings.Builder, s Statement) {
	switch s := s.(type) {
	case *If:
		b.WriteString("(if ")
		writeExpr(b, s.Condition)
		b.WriteByte(' ')
		writeStmt(b, s.Consequent)
		if s.Alternate != nil {
			b.WriteByte(' ')
			writeStmt(b, s.Alternate)
		}
		b.WriteByte(')')
	case *WhileLoop:
		b.WriteString("(while ")
		writeExpr(b, s.Condition)
		b.WriteByte(' ')
		writeStmt(b, s.Body)
		b.WriteByte(')')
	case *VariableDeclaration:
		fmt.Fprintf(b, "(let %q ", s.Name)
		writeExpr(b, s.InitialValue)
		b.WriteByte(')')
	case *Return:
		b.WriteString("(return")
		if s.Value != nil {
			b.WriteByte(' ')
			writeExpr(b, s.Value)
		}
		b.WriteByte(')')
	case *Expect:
		b.WriteString("(expect ")
		writeExpr(b, s.Value)
		b.WriteByte(')')
	case *Block:
		b.WriteString("(block")
		for _, st := range s.Statements {
			b.WriteByte(' ')
			writeStmt(b, st)
		}
		b.WriteByte(')')
	case *ExpressionStatement:
		writeExpr(b, s.Value)
	default:
		panic(fmt.Sprintf("unhandled statement %T", s))
	}
}
