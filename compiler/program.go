package compiler

import (
	"fmt"
	"log"

	"fortio.org/safecast"
	"github.com/jeanlauliac/indigo-lang/syntax"
)

// IndexModule is the name of the root module. Every other module becomes a
// namespace of the index module.
const IndexModule = "index"

// Program is the state of one compilation: the ID allocator, the entity
// table, the scope arena and the analyzed functions. It is built once by
// Check and is read-only afterwards.
type Program struct {
	entities map[ID]Entity
	nextID   ID
	scopes   Scopes
	root     ScopeID
	builtins builtinIDs
	modules  []*moduleUnit
	// functions lists analyzed user functions in analysis order.
	functions []ID
	logger    *log.Logger
}

type moduleUnit struct {
	name  string
	id    ID
	scope ScopeID
	ast   *syntax.Module
	decls []declEntry
}

// declEntry pairs a declaration with the ID pass 1 gave it.
type declEntry struct {
	id   ID
	decl syntax.Declaration
}

func newProgram(logger *log.Logger) *Program {
	p := &Program{entities: map[ID]Entity{}, nextID: 1, logger: logger}
	p.root = p.scopes.New(NoScope)
	p.declareBuiltins()
	return p
}

func (p *Program) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

func (p *Program) alloc(e Entity) ID {
	id := p.nextID
	next, err := safecast.Conv[ID](uint64(id) + 1)
	if err != nil {
		panic(fmt.Sprintf("ID space exhausted: %v", err))
	}
	p.nextID = next
	p.entities[id] = e
	return id
}

// Entity returns the entity with the given ID, or nil.
func (p *Program) Entity(id ID) Entity {
	return p.entities[id]
}

// Functions returns the analyzed user functions in analysis order.
func (p *Program) Functions() []*Function {
	out := make([]*Function, 0, len(p.functions))
	for _, id := range p.functions {
		out = append(out, p.entities[id].(*Function))
	}
	return out
}

// FunctionID returns the ID of the function with the given name in the
// index module, when it is not overloaded.
func (p *Program) FunctionID(name string) (ID, bool) {
	if len(p.modules) == 0 {
		return NoID, false
	}
	b, ok := p.scopes.LookupLocal(p.modules[0].scope, name)
	if !ok {
		return NoID, false
	}
	fb, ok := b.(*FunctionBinding)
	if !ok || len(fb.Overloads) != 1 {
		return NoID, false
	}
	return fb.Overloads[0], true
}

func (p *Program) isStructural(t TypeRef) bool {
	switch p.entities[t.ID].(type) {
	case *Struct, *Enum, *TypeParameter:
		return true
	}
	return false
}

func (p *Program) isNumeric(t TypeRef) bool {
	return t.ID == p.builtins.i32 || t.ID == p.builtins.u32
}

// isScalar reports whether values of t can be compared with == and !=.
func (p *Program) isScalar(t TypeRef) bool {
	switch t.ID {
	case p.builtins.bool, p.builtins.str, p.builtins.char, p.builtins.i32, p.builtins.u32:
		return true
	}
	return false
}
