package compiler

import (
	"strings"

	"github.com/jeanlauliac/indigo-lang/syntax"
)

// resolveModule is pass 2: it resolves the field types of structs and enum
// variants and the signatures of functions. Every name already has an ID
// from pass 1, so types may refer to each other in any order.
func (p *Program) resolveModule(m *moduleUnit) error {
	for _, e := range m.decls {
		switch d := e.decl.(type) {
		case *syntax.StructDecl:
			st := p.entities[e.id].(*Struct)
			fields, err := p.resolveFields(m.scope, d.Fields)
			if err != nil {
				return err
			}
			st.Fields = fields

		case *syntax.EnumDecl:
			enum := p.entities[e.id].(*Enum)
			for i, v := range d.Variants {
				fields, err := p.resolveFields(m.scope, v.Fields)
				if err != nil {
					return err
				}
				p.entities[enum.Variants[i]].(*Variant).Fields = fields
			}

		case *syntax.FunctionDecl:
			if err := p.resolveFunction(m, e.id, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Program) resolveFields(scope ScopeID, fields []syntax.Field) ([]FieldDef, error) {
	out := make([]FieldDef, 0, len(fields))
	seen := map[string]bool{}
	for _, f := range fields {
		if strings.HasPrefix(f.Name, "__") {
			return nil, errorf(InvalidContext, f.Pos, "field name %q is reserved", f.Name)
		}
		if seen[f.Name] {
			return nil, errorf(DuplicateName, f.Pos, "duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		t, err := p.resolveType(scope, f.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, FieldDef{Name: f.Name, Type: t})
	}
	return out, nil
}

func (p *Program) resolveFunction(m *moduleUnit, id ID, d *syntax.FunctionDecl) error {
	fn := p.entities[id].(*Function)
	fn.TypeScope = p.scopes.New(m.scope)

	for _, tp := range d.TypeParameters {
		if _, ok := p.scopes.Lookup(fn.TypeScope, tp); ok {
			return errorf(DuplicateName, d.Pos, "type parameter %q shadows an existing name", tp)
		}
		tid := p.alloc(&TypeParameter{Name: tp, Function: id})
		fn.TypeParameters = append(fn.TypeParameters, tid)
		p.scopes.Declare(fn.TypeScope, tp, TypeBinding{ID: tid})
	}

	seen := map[string]bool{}
	for _, a := range d.Arguments {
		if seen[a.Name] {
			return errorf(DuplicateName, a.Pos, "duplicate argument %q", a.Name)
		}
		seen[a.Name] = true
		if _, ok := p.scopes.Lookup(fn.TypeScope, a.Name); ok {
			return errorf(DuplicateName, a.Pos, "argument %q shadows an existing name", a.Name)
		}
		t, err := p.resolveType(fn.TypeScope, a.Type)
		if err != nil {
			return err
		}
		fn.Arguments = append(fn.Arguments, p.alloc(&Argument{Name: a.Name, Type: t, ByRef: a.IsByReference, Function: id}))
	}

	if d.ReturnType != nil {
		t, err := p.resolveType(fn.TypeScope, *d.ReturnType)
		if err != nil {
			return err
		}
		fn.ReturnType = &t
	}
	return nil
}

// resolveType turns a type expression into a type reference.
func (p *Program) resolveType(scope ScopeID, te syntax.TypeExpr) (TypeRef, error) {
	b, rest, err := p.resolveQualified(scope, te.Name, te.Pos, UnknownTypeName)
	if err != nil {
		return TypeRef{}, err
	}
	tb, ok := b.(TypeBinding)
	if !ok || len(rest) > 0 {
		return TypeRef{}, errorf(UnknownTypeName, te.Pos, "%q is not a type", te.Name.String())
	}
	if _, ok := p.entities[tb.ID].(*Variant); ok {
		return TypeRef{}, errorf(UnknownTypeName, te.Pos, "%q is an enum variant, not a type", te.Name.String())
	}
	if len(te.Parameters) != tb.Arity {
		return TypeRef{}, errorf(ArityMismatch, te.Pos, "%q expects %d type parameters, got %d",
			te.Name.String(), tb.Arity, len(te.Parameters))
	}
	t := TypeRef{ID: tb.ID}
	for _, param := range te.Parameters {
		pt, err := p.resolveType(scope, param)
		if err != nil {
			return TypeRef{}, err
		}
		t.Parameters = append(t.Parameters, pt)
	}
	return t, nil
}

// resolveQualified looks up the longest prefix of name that designates a
// module member or an enum variant. The remaining components, if any, are
// field accesses for the caller to resolve.
func (p *Program) resolveQualified(scope ScopeID, name syntax.QualifiedName, pos syntax.Pos, unknown ErrorKind) (Binding, []string, error) {
	b, ok := p.scopes.Lookup(scope, name[0])
	if !ok {
		return nil, nil, errorf(unknown, pos, "unknown name %q", name[0])
	}
	i := 1
loop:
	for ; i < len(name); i++ {
		switch cur := b.(type) {
		case ModuleBinding:
			next, ok := p.scopes.LookupLocal(cur.Scope, name[i])
			if !ok {
				return nil, nil, errorf(unknown, pos, "module %q has no member %q", name[:i].String(), name[i])
			}
			b = next
		case TypeBinding:
			enum, ok := p.entities[cur.ID].(*Enum)
			if !ok {
				break loop
			}
			vid, ok := p.variantNamed(enum, name[i])
			if !ok {
				return nil, nil, errorf(unknown, pos, "enum %q has no variant %q", name[:i].String(), name[i])
			}
			b = TypeBinding{ID: vid}
		default:
			break loop
		}
	}
	return b, name[i:], nil
}

func (p *Program) variantNamed(enum *Enum, name string) (ID, bool) {
	for _, vid := range enum.Variants {
		if p.entities[vid].(*Variant).Name == name {
			return vid, true
		}
	}
	return NoID, false
}
