package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders every analyzed function as an s-expression, one per line.
func (p *Program) Dump() string {
	var b strings.Builder
	for _, fn := range p.Functions() {
		b.WriteString(p.FunctionString(fn))
		b.WriteByte('\n')
	}
	return b.String()
}

// FunctionString renders one analyzed function as an s-expression.
func (p *Program) FunctionString(fn *Function) string {
	var b strings.Builder
	b.WriteString("(fn " + fn.JSName)
	for _, st := range fn.Body {
		b.WriteByte(' ')
		p.writeStmt(&b, st)
	}
	b.WriteByte(')')
	return b.String()
}

func (p *Program) writeStmt(b *strings.Builder, st Stmt) {
	switch s := st.(type) {
	case *LetStmt:
		fmt.Fprintf(b, "(let %s ", entityName(p.entities[s.Variable]))
		p.writeExpr(b, s.Value)
		b.WriteByte(')')
	case *IfStmt:
		b.WriteString("(if ")
		p.writeExpr(b, s.Condition)
		b.WriteByte(' ')
		p.writeStmt(b, s.Then)
		if s.Else != nil {
			b.WriteByte(' ')
			p.writeStmt(b, s.Else)
		}
		b.WriteByte(')')
	case *WhileStmt:
		b.WriteString("(while ")
		p.writeExpr(b, s.Condition)
		b.WriteByte(' ')
		p.writeStmt(b, s.Body)
		b.WriteByte(')')
	case *ReturnStmt:
		b.WriteString("(return")
		if s.Value != nil {
			b.WriteByte(' ')
			p.writeExpr(b, s.Value)
		}
		b.WriteByte(')')
	case *ExpectStmt:
		b.WriteString("(expect ")
		p.writeExpr(b, s.Condition)
		b.WriteByte(')')
	case *BlockStmt:
		b.WriteString("(block")
		for _, child := range s.Statements {
			b.WriteByte(' ')
			p.writeStmt(b, child)
		}
		b.WriteByte(')')
	case *ExprStmt:
		p.writeExpr(b, s.Value)
	}
}

func (p *Program) refString(ref Reference) string {
	parts := []string{entityName(p.entities[ref.Value])}
	for _, step := range ref.Path {
		parts = append(parts, step.Field)
	}
	return strings.Join(parts, ".")
}

func (p *Program) writeExpr(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *BoolLit:
		b.WriteString(strconv.FormatBool(e.Value))
	case *NumberLit:
		b.WriteString(strconv.FormatInt(e.Value, 10))
	case *StringLit:
		b.WriteString(strconv.Quote(e.Value))
	case *CharLit:
		b.WriteString(strconv.QuoteRune(e.Value))
	case *Read:
		b.WriteString(p.refString(e.Ref))
	case *Call:
		b.WriteString("(call " + p.entities[e.Function].(*Function).JSName)
		for _, arg := range e.Arguments {
			b.WriteByte(' ')
			if arg.ByRef {
				b.WriteString("(ref " + p.refString(*arg.Ref) + ")")
			} else {
				p.writeExpr(b, arg.Value)
			}
		}
		b.WriteByte(')')
	case *ObjectLit:
		b.WriteString("(new " + p.TypeString(e.T))
		if e.Variant != NoID {
			b.WriteString("." + p.entities[e.Variant].(*Variant).Name)
		}
		for _, f := range e.Fields {
			b.WriteString(" (" + f.Name + " ")
			p.writeExpr(b, f.Value)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case *CollectionLit:
		b.WriteString("(" + p.TypeString(e.T))
		for _, item := range e.Items {
			b.WriteByte(' ')
			p.writeExpr(b, item)
		}
		b.WriteByte(')')
	case *IndexExpr:
		b.WriteString("(index " + p.refString(e.Collection) + " ")
		p.writeExpr(b, e.Key)
		b.WriteByte(')')
	case *BinaryExpr:
		b.WriteString("(" + e.Op + " ")
		p.writeExpr(b, e.Left)
		b.WriteByte(' ')
		p.writeExpr(b, e.Right)
		b.WriteByte(')')
	case *AssignExpr:
		b.WriteString("(= " + p.refString(e.Target) + " ")
		p.writeExpr(b, e.Value)
		b.WriteByte(')')
	case *IncrementExpr:
		b.WriteString("(++ " + p.refString(e.Target) + ")")
	case *UnaryExpr:
		b.WriteString("(" + e.Op + " ")
		p.writeExpr(b, e.Operand)
		b.WriteByte(')')
	case *IdentityTestExpr:
		op := "is"
		if e.Negative {
			op = "isnt"
		}
		b.WriteString("(" + op + " ")
		p.writeExpr(b, e.Operand)
		b.WriteString(" " + p.entities[e.Variant].(*Variant).Name + ")")
	}
}
