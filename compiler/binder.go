package compiler

import (
	"strconv"

	"github.com/jeanlauliac/indigo-lang/syntax"
)

// bindModule is pass 1: it allocates an ID for every struct, enum, enum
// variant and function of the module and binds their names in the module
// scope. Functions sharing a name form an overload group.
func (p *Program) bindModule(m *moduleUnit) error {
	for _, decl := range m.ast.Declarations {
		name := decl.DeclName()
		if err := p.checkUnshadowed(m.scope, name, decl.DeclPos()); err != nil {
			return err
		}

		var id ID
		switch d := decl.(type) {
		case *syntax.FunctionDecl:
			fn := &Function{Name: name, Module: m.id, Decl: d}
			id = p.alloc(fn)
			overload := 0
			if b, ok := p.scopes.LookupLocal(m.scope, name); ok {
				fb, isFunc := b.(*FunctionBinding)
				if !isFunc {
					return errorf(DuplicateName, d.Pos, "%q is already declared in this module", name)
				}
				fb.Overloads = append(fb.Overloads, id)
				overload = len(fb.Overloads) - 1
			} else {
				p.scopes.Declare(m.scope, name, &FunctionBinding{Overloads: []ID{id}})
			}
			fn.JSName = functionJSName(m, name, overload)

		case *syntax.StructDecl:
			if _, ok := p.scopes.LookupLocal(m.scope, name); ok {
				return errorf(DuplicateName, d.Pos, "%q is already declared in this module", name)
			}
			id = p.alloc(&Struct{Name: name, Module: m.id})
			p.scopes.Declare(m.scope, name, TypeBinding{ID: id})

		case *syntax.EnumDecl:
			if _, ok := p.scopes.LookupLocal(m.scope, name); ok {
				return errorf(DuplicateName, d.Pos, "%q is already declared in this module", name)
			}
			enum := &Enum{Name: name, Module: m.id}
			id = p.alloc(enum)
			p.scopes.Declare(m.scope, name, TypeBinding{ID: id})
			for _, v := range d.Variants {
				if err := p.checkUnshadowed(m.scope, v.Name, v.Pos); err != nil {
					return err
				}
				if _, ok := p.scopes.LookupLocal(m.scope, v.Name); ok {
					return errorf(DuplicateName, v.Pos, "%q is already declared in this module", v.Name)
				}
				vid := p.alloc(&Variant{Name: v.Name, Enum: id, Tag: v.Name})
				enum.Variants = append(enum.Variants, vid)
				p.scopes.Declare(m.scope, v.Name, TypeBinding{ID: vid})
			}
		}
		m.decls = append(m.decls, declEntry{id: id, decl: decl})
	}
	p.logf("bound %d declarations in module %s", len(m.decls), m.name)
	return nil
}

// checkUnshadowed rejects a declaration in scope whose name is already
// visible from an enclosing scope.
func (p *Program) checkUnshadowed(scope ScopeID, name string, pos syntax.Pos) error {
	parent := p.scopes.Parent(scope)
	if parent == NoScope {
		return nil
	}
	if _, ok := p.scopes.Lookup(parent, name); ok {
		return errorf(DuplicateName, pos, "%q shadows a name from an enclosing scope", name)
	}
	return nil
}

func functionJSName(m *moduleUnit, name string, overload int) string {
	js := name
	if m.name != IndexModule {
		js = m.name + "$" + name
	} else if jsReserved[name] {
		js = name + "$"
	}
	if overload > 0 {
		js += "$" + strconv.Itoa(overload)
	}
	return js
}
