package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jeanlauliac/indigo-lang/syntax"
)

// Generate writes the program as JavaScript. When entryPointCall is set the
// output ends with a call to the index module's main function.
func Generate(p *Program, w io.Writer, entryPointCall bool) error {
	g := &generator{p: p, globals: map[string]bool{}}
	for _, fn := range p.Functions() {
		g.globals[fn.JSName] = true
	}

	g.buf.WriteString("\"use strict\";\n// GENERATED, DO NOT EDIT\n\n")
	for _, fn := range p.Functions() {
		g.function(fn)
		g.buf.WriteByte('\n')
	}
	g.buf.WriteString(runtimeJS)

	if entryPointCall {
		id, ok := p.FunctionID("main")
		if !ok || len(p.entities[id].(*Function).Arguments) != 0 {
			return &Error{Kind: UnknownName, Module: IndexModule, Msg: "no main() function to call"}
		}
		fmt.Fprintf(&g.buf, "\n%s();\n", p.entities[id].(*Function).JSName)
	}
	p.logf("generated %d bytes of JavaScript", g.buf.Len())
	_, err := w.Write(g.buf.Bytes())
	return err
}

type generator struct {
	p       *Program
	buf     bytes.Buffer
	indent  int
	globals map[string]bool

	// per function
	names    map[ID]string
	returned []ID
}

func (g *generator) line(format string, args ...any) {
	for i := 0; i < g.indent; i++ {
		g.buf.WriteString("  ")
	}
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

// aliased reports whether a by-reference argument is passed as the caller's
// own object, so that the callee mutates it in place. Other by-reference
// arguments are copied in and handed back in the callee's result.
func (p *Program) aliased(a *Argument) bool {
	if !a.ByRef {
		return false
	}
	switch p.entities[a.Type.ID].(type) {
	case *Struct, *Enum:
		return true
	}
	return false
}

func (g *generator) localName(id ID, name string) string {
	if jsReserved[name] || g.globals[name] {
		name = name + "$" + strconv.FormatUint(uint64(id), 10)
	}
	g.names[id] = name
	return name
}

func (g *generator) function(fn *Function) {
	g.names = map[ID]string{}
	g.returned = nil
	params := make([]string, len(fn.Arguments))
	for i, aid := range fn.Arguments {
		arg := g.p.entities[aid].(*Argument)
		params[i] = g.localName(aid, arg.Name)
		if arg.ByRef && !g.p.aliased(arg) {
			g.returned = append(g.returned, aid)
		}
	}

	g.line("function %s(%s) {", fn.JSName, strings.Join(params, ", "))
	g.indent++
	for _, st := range fn.Body {
		g.statement(st)
	}
	if len(g.returned) > 0 {
		g.line("return %s;", g.bundle("undefined"))
	}
	g.indent--
	g.line("}")
}

// bundle builds the result of a function with returned by-reference
// arguments: the return value followed by their final values.
func (g *generator) bundle(value string) string {
	parts := []string{value}
	for _, id := range g.returned {
		parts = append(parts, g.names[id])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (g *generator) statement(st Stmt) {
	switch s := st.(type) {
	case *LetStmt:
		v := g.p.entities[s.Variable].(*Variable)
		name := g.localName(s.Variable, v.Name)
		g.line("let %s = %s;", name, g.stored(s.Value, ownerID(s.Variable)))

	case *IfStmt:
		g.line("if (%s) {", g.expr(s.Condition))
		g.body(s.Then)
		if s.Else != nil {
			g.line("} else {")
			g.body(s.Else)
		}
		g.line("}")

	case *WhileStmt:
		g.line("while (%s) {", g.expr(s.Condition))
		g.body(s.Body)
		g.line("}")

	case *ReturnStmt:
		value := ""
		if s.Value != nil {
			value = g.stored(s.Value, "0")
		}
		switch {
		case len(g.returned) > 0:
			if value == "" {
				value = "undefined"
			}
			g.line("return %s;", g.bundle(value))
		case value == "":
			g.line("return;")
		default:
			g.line("return %s;", value)
		}

	case *ExpectStmt:
		g.line("if (!(%s)) throw new Error(%s);", g.expr(s.Condition),
			jsString(fmt.Sprintf("expect() failed at line %d", s.Pos.Line)))

	case *BlockStmt:
		g.line("{")
		g.body(s)
		g.line("}")

	case *ExprStmt:
		g.line("%s;", g.expr(s.Value))

	default:
		panic(fmt.Sprintf("unhandled statement %T", st))
	}
}

// body writes the statements of a branch, one level deeper.
func (g *generator) body(st Stmt) {
	g.indent++
	if block, ok := st.(*BlockStmt); ok {
		for _, child := range block.Statements {
			g.statement(child)
		}
	} else {
		g.statement(st)
	}
	g.indent--
}

func ownerID(id ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func jsString(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return string(out)
}

// refJS is the JavaScript expression reading a reference.
func (g *generator) refJS(ref Reference) string {
	var b strings.Builder
	b.WriteString(g.names[ref.Value])
	for _, step := range ref.Path {
		b.WriteString("." + step.Field)
	}
	return b.String()
}

func (g *generator) rootIsAliased(ref Reference) bool {
	arg, ok := g.p.entities[ref.Value].(*Argument)
	return ok && g.p.aliased(arg)
}

// stored renders a value about to be stored somewhere: in a variable, a
// field, a collection, a by-value argument or a return value. Literals are
// tagged with owner. A struct or enum read from a reference becomes shared,
// except the object behind an aliased argument, which is snapshot since the
// callee keeps mutating it in place.
func (g *generator) stored(e Expr, owner string) string {
	switch e := e.(type) {
	case *ObjectLit:
		return g.objectLit(e, owner)
	case *Read:
		if !g.p.isStructural(e.T) {
			return g.refJS(e.Ref)
		}
		if len(e.Ref.Path) == 0 && g.rootIsAliased(e.Ref) {
			return "$copy(" + g.refJS(e.Ref) + ")"
		}
		return "$share(" + g.refJS(e.Ref) + ")"
	case *AssignExpr:
		switch {
		case !g.p.isStructural(e.T):
		case len(e.Target.Path) == 0 && g.rootIsAliased(e.Target):
			return "$copy(" + g.expr(e) + ")"
		default:
			return "$share(" + g.expr(e) + ")"
		}
	}
	return g.expr(e)
}

func (g *generator) objectLit(e *ObjectLit, owner string) string {
	parts := make([]string, 0, len(e.Fields)+2)
	if e.Variant != NoID {
		parts = append(parts, "__type: "+jsString(g.p.entities[e.Variant].(*Variant).Tag))
	}
	for _, f := range e.Fields {
		parts = append(parts, f.Name+": "+g.stored(f.Value, owner))
	}
	parts = append(parts, "__owner: "+owner)
	return "{" + strings.Join(parts, ", ") + "}"
}

// assign renders the store of value at ref. Every object on the path is
// first made exclusively owned by the root, copying shared ones, so that no
// other holder observes the write.
func (g *generator) assign(ref Reference, value string) string {
	root := g.names[ref.Value]
	aliased := g.rootIsAliased(ref)
	if len(ref.Path) == 0 {
		if aliased {
			return "$assign(" + root + ", " + value + ")"
		}
		return "(" + root + " = " + value + ")"
	}

	chain := g.ownPath(ref, len(ref.Path)-1)
	target := g.refJS(ref)
	if len(chain) == 0 {
		return "(" + target + " = " + value + ")"
	}
	chain = append(chain, target+" = $v")
	return "(($v) => (" + strings.Join(chain, ", ") + "))(" + value + ")"
}

// ownPath takes ownership of the root and the first depth objects on the
// path of ref.
func (g *generator) ownPath(ref Reference, depth int) []string {
	root := g.names[ref.Value]
	owner := ownerID(ref.Value)
	var chain []string
	if g.rootIsAliased(ref) {
		owner = root + ".__owner"
	} else {
		chain = append(chain, root+" = $own("+root+", "+owner+")")
	}
	path := root
	for _, step := range ref.Path[:depth] {
		path += "." + step.Field
		chain = append(chain, path+" = $own("+path+", "+owner+")")
	}
	return chain
}

func (g *generator) assignOwner(ref Reference) string {
	if g.rootIsAliased(ref) {
		return "0"
	}
	return ownerID(ref.Value)
}

func (g *generator) expr(e Expr) string {
	p := g.p
	switch e := e.(type) {
	case *BoolLit:
		return strconv.FormatBool(e.Value)
	case *NumberLit:
		if e.Value < 0 {
			return "(" + strconv.FormatInt(e.Value, 10) + ")"
		}
		return strconv.FormatInt(e.Value, 10)
	case *StringLit:
		return jsString(e.Value)
	case *CharLit:
		return jsString(string(e.Value))
	case *Read:
		return g.refJS(e.Ref)
	case *Call:
		return g.call(e)
	case *ObjectLit:
		return g.objectLit(e, "0")
	case *CollectionLit:
		items := make([]string, len(e.Items))
		for i, item := range e.Items {
			items[i] = g.stored(item, "0")
		}
		list := "[" + strings.Join(items, ", ") + "]"
		if e.Kind == syntax.Set {
			return "new Set(" + list + ")"
		}
		return list
	case *IndexExpr:
		return "$access(" + g.refJS(e.Collection) + ", " + g.expr(e.Key) + ")"
	case *BinaryExpr:
		return g.binary(e)
	case *AssignExpr:
		return g.assign(e.Target, g.stored(e.Value, g.assignOwner(e.Target)))
	case *IncrementExpr:
		return g.assign(e.Target, g.arithmetic("+", e.T, g.refJS(e.Target), "1"))
	case *UnaryExpr:
		if e.Op == "-" {
			return "(-" + g.expr(e.Operand) + " | 0)"
		}
		return "(!" + g.expr(e.Operand) + ")"
	case *IdentityTestExpr:
		test := "$is(" + g.expr(e.Operand) + ", " + jsString(p.entities[e.Variant].(*Variant).Tag) + ")"
		if e.Negative {
			return "!" + test
		}
		return test
	}
	panic(fmt.Sprintf("unhandled expression %T", e))
}

func (g *generator) binary(e *BinaryExpr) string {
	l, r := g.expr(e.Left), g.expr(e.Right)
	switch e.Op {
	case "+", "-", "*":
		if g.p.isNumeric(e.T) {
			return g.arithmetic(e.Op, e.T, l, r)
		}
		return "(" + l + " + " + r + ")"
	case "==":
		return "(" + l + " === " + r + ")"
	case "!=":
		return "(" + l + " !== " + r + ")"
	}
	return "(" + l + " " + e.Op + " " + r + ")"
}

// arithmetic wraps the result to 32 bits, unsigned for u32.
func (g *generator) arithmetic(op string, t TypeRef, l, r string) string {
	var raw string
	if op == "*" {
		raw = "Math.imul(" + l + ", " + r + ")"
	} else {
		raw = "(" + l + " " + op + " " + r + ")"
	}
	if t.ID == g.p.builtins.u32 {
		return "(" + raw + " >>> 0)"
	}
	return "(" + raw + " | 0)"
}

// call renders a function call. Aliased arguments have their path made
// exclusively owned first; arguments handed back by the callee are stored
// again from its result. Struct and enum arguments passed by value next to
// an aliased one are evaluated before ownership is taken, so that taking
// ownership copies any object they share.
func (g *generator) call(c *Call) string {
	fn := g.p.entities[c.Function].(*Function)
	hasRefArgs, hasAliased := false, false
	for i, arg := range c.Arguments {
		hasRefArgs = hasRefArgs || arg.ByRef
		hasAliased = hasAliased || g.p.aliased(g.p.entities[fn.Arguments[i]].(*Argument))
	}

	var prefix, args, handBack, temps, tempValues []string
	for i, arg := range c.Arguments {
		def := g.p.entities[fn.Arguments[i]].(*Argument)
		switch {
		case g.p.aliased(def):
			prefix = append(prefix, g.ownPath(*arg.Ref, len(arg.Ref.Path))...)
			args = append(args, g.refJS(*arg.Ref))
		case def.ByRef:
			args = append(args, g.refJS(*arg.Ref))
			handBack = append(handBack, g.assign(*arg.Ref, fmt.Sprintf("$r[%d]", len(handBack)+1)))
		case hasAliased && g.p.isStructural(arg.Value.Type()):
			temp := fmt.Sprintf("$a%d", i)
			temps = append(temps, temp)
			tempValues = append(tempValues, g.passedWithRefs(arg.Value))
			args = append(args, temp)
		case hasRefArgs:
			args = append(args, g.passedWithRefs(arg.Value))
		default:
			args = append(args, g.stored(arg.Value, "0"))
		}
	}

	out := fn.JSName + "(" + strings.Join(args, ", ") + ")"
	if len(handBack) > 0 {
		out = "(($r) => (" + strings.Join(handBack, ", ") + ", $r[0]))(" + out + ")"
	}
	if len(prefix) > 0 {
		out = "(" + strings.Join(prefix, ", ") + ", " + out + ")"
	}
	if len(temps) > 0 {
		out = "((" + strings.Join(temps, ", ") + ") => " + out + ")(" + strings.Join(tempValues, ", ") + ")"
	}
	return out
}

// passedWithRefs renders a by-value argument of a call that also passes
// arguments by reference. Reads are copied rather than shared, since the
// callee may mutate the same object through the reference.
func (g *generator) passedWithRefs(e Expr) string {
	if read, ok := e.(*Read); ok && g.p.isStructural(read.T) {
		return "$copy(" + g.refJS(read.Ref) + ")"
	}
	return g.stored(e, "0")
}
