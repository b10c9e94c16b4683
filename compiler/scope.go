package compiler

// ScopeID indexes a frame of the scope arena.
type ScopeID int32

// NoScope is the parent of the root frame.
const NoScope ScopeID = -1

// Binding is what a name resolves to in a scope.
type Binding interface {
	binding()
}

// TypeBinding names a struct, enum, enum variant, builtin type or type parameter.
type TypeBinding struct {
	ID    ID
	Arity int
}

// FunctionBinding is an overload group, in declaration order.
type FunctionBinding struct {
	Overloads []ID
}

// ModuleBinding is a module namespace and the scope of its declarations.
type ModuleBinding struct {
	ID    ID
	Scope ScopeID
}

// ValueBinding is a runtime value: an argument or a local variable.
type ValueBinding struct {
	ID   ID
	Type TypeRef
}

func (TypeBinding) binding()      {}
func (*FunctionBinding) binding() {}
func (ModuleBinding) binding()    {}
func (ValueBinding) binding()     {}

type frame struct {
	parent ScopeID
	// names is nil for a void scope, which cannot hold declarations.
	names map[string]Binding
}

// Scopes is an arena of scope frames. Frames refer to their parent by index,
// and the frames of a function body are released once it has been analyzed.
type Scopes struct {
	frames []frame
}

func (s *Scopes) New(parent ScopeID) ScopeID {
	s.frames = append(s.frames, frame{parent: parent, names: map[string]Binding{}})
	return ScopeID(len(s.frames) - 1)
}

// NewVoid adds a frame in which nothing may be declared, used for the
// unbraced body of an if or while.
func (s *Scopes) NewVoid(parent ScopeID) ScopeID {
	s.frames = append(s.frames, frame{parent: parent})
	return ScopeID(len(s.frames) - 1)
}

func (s *Scopes) IsVoid(id ScopeID) bool {
	return s.frames[id].names == nil
}

func (s *Scopes) Parent(id ScopeID) ScopeID {
	return s.frames[id].parent
}

// Mark returns a position that Release can later truncate the arena back to.
func (s *Scopes) Mark() int { return len(s.frames) }

func (s *Scopes) Release(mark int) {
	clear(s.frames[mark:])
	s.frames = s.frames[:mark]
}

// Declare binds name in the given frame, replacing any previous binding there.
func (s *Scopes) Declare(id ScopeID, name string, b Binding) {
	s.frames[id].names[name] = b
}

// LookupLocal searches only the given frame.
func (s *Scopes) LookupLocal(id ScopeID, name string) (Binding, bool) {
	b, ok := s.frames[id].names[name]
	return b, ok
}

// Lookup walks the parent chain starting at id.
func (s *Scopes) Lookup(id ScopeID, name string) (Binding, bool) {
	for id != NoScope {
		if b, ok := s.frames[id].names[name]; ok {
			return b, true
		}
		id = s.frames[id].parent
	}
	return nil, false
}
