package compiler

import (
	"strings"

	"github.com/jeanlauliac/indigo-lang/syntax"
)

// ID names one entity of a compilation: a builtin type, struct, enum, enum
// variant, function, type parameter, argument, local variable or module.
// IDs are allocated once and never reused within a compilation.
type ID uint32

// NoID is never allocated.
const NoID ID = 0

// TypeRef is an instantiation of a possibly generic type.
type TypeRef struct {
	ID         ID
	Parameters []TypeRef
}

func (t TypeRef) Equal(o TypeRef) bool {
	if t.ID != o.ID || len(t.Parameters) != len(o.Parameters) {
		return false
	}
	for i := range t.Parameters {
		if !t.Parameters[i].Equal(o.Parameters[i]) {
			return false
		}
	}
	return true
}

// Entity is one of the pointer types below.
type Entity interface {
	entity()
}

type BuiltinType struct {
	Name  string
	Arity int
}

// FieldDef is one field of a struct or enum variant.
type FieldDef struct {
	Name string
	Type TypeRef
}

type Struct struct {
	Name   string
	Module ID
	Fields []FieldDef
}

type Enum struct {
	Name     string
	Module   ID
	Variants []ID
}

type Variant struct {
	Name   string
	Enum   ID
	Fields []FieldDef
	// Tag identifies the variant at runtime.
	Tag string
}

type Function struct {
	Name           string
	Module         ID
	JSName         string
	TypeParameters []ID
	Arguments      []ID
	ReturnType     *TypeRef
	Builtin        bool

	// TypeScope binds the type parameters; arguments are bound in a child of it.
	TypeScope ScopeID
	Decl      *syntax.FunctionDecl
	// Body is filled by pass 3.
	Body []Stmt
}

type TypeParameter struct {
	Name     string
	Function ID
}

type Argument struct {
	Name     string
	Type     TypeRef
	ByRef    bool
	Function ID
}

type Variable struct {
	Name string
	Type TypeRef
}

type Module struct {
	Name  string
	Scope ScopeID
}

func (*BuiltinType) entity()   {}
func (*Struct) entity()        {}
func (*Enum) entity()          {}
func (*Variant) entity()       {}
func (*Function) entity()      {}
func (*TypeParameter) entity() {}
func (*Argument) entity()      {}
func (*Variable) entity()      {}
func (*Module) entity()        {}

func fieldType(fields []FieldDef, name string) (TypeRef, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return TypeRef{}, false
}

// entityName returns the declared name of any entity.
func entityName(e Entity) string {
	switch e := e.(type) {
	case *BuiltinType:
		return e.Name
	case *Struct:
		return e.Name
	case *Enum:
		return e.Name
	case *Variant:
		return e.Name
	case *Function:
		return e.Name
	case *TypeParameter:
		return e.Name
	case *Argument:
		return e.Name
	case *Variable:
		return e.Name
	case *Module:
		return e.Name
	}
	return "?"
}

// TypeString formats a type reference the way it is written in source.
func (p *Program) TypeString(t TypeRef) string {
	var b strings.Builder
	p.writeType(&b, t)
	return b.String()
}

func (p *Program) writeType(b *strings.Builder, t TypeRef) {
	if t.ID == NoID {
		b.WriteString("void")
		return
	}
	e, ok := p.entities[t.ID]
	if !ok {
		b.WriteString("?")
		return
	}
	if v, ok := e.(*Variant); ok {
		b.WriteString(entityName(p.entities[v.Enum]) + ".")
	}
	b.WriteString(entityName(e))
	if len(t.Parameters) == 0 {
		return
	}
	b.WriteByte('<')
	for i, param := range t.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		p.writeType(b, param)
	}
	b.WriteByte('>')
}
