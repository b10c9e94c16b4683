package compiler

type builtinIDs struct {
	bool, vec, set, str, char, i32, u32 ID
}

type builtinArg struct {
	name  string
	typ   TypeRef
	byRef bool
}

func (p *Program) declareBuiltinType(name string, arity int) ID {
	id := p.alloc(&BuiltinType{Name: name, Arity: arity})
	p.scopes.Declare(p.root, name, TypeBinding{ID: id, Arity: arity})
	return id
}

// declareBuiltinFunction adds one overload of a builtin function. sig receives
// the function's type parameters and returns its arguments and return type.
func (p *Program) declareBuiltinFunction(name, jsName string, typeParams []string, sig func(tps []TypeRef) ([]builtinArg, *TypeRef)) {
	fn := &Function{Name: name, JSName: jsName, Builtin: true, TypeScope: p.root}
	fnID := p.alloc(fn)
	tps := make([]TypeRef, len(typeParams))
	for i, tp := range typeParams {
		id := p.alloc(&TypeParameter{Name: tp, Function: fnID})
		fn.TypeParameters = append(fn.TypeParameters, id)
		tps[i] = TypeRef{ID: id}
	}
	args, ret := sig(tps)
	for _, a := range args {
		fn.Arguments = append(fn.Arguments, p.alloc(&Argument{Name: a.name, Type: a.typ, ByRef: a.byRef, Function: fnID}))
	}
	fn.ReturnType = ret

	if b, ok := p.scopes.LookupLocal(p.root, name); ok {
		fb := b.(*FunctionBinding)
		fb.Overloads = append(fb.Overloads, fnID)
		return
	}
	p.scopes.Declare(p.root, name, &FunctionBinding{Overloads: []ID{fnID}})
}

func (p *Program) declareBuiltins() {
	b := &p.builtins
	b.bool = p.declareBuiltinType("bool", 0)
	b.vec = p.declareBuiltinType("vec", 1)
	b.set = p.declareBuiltinType("set", 1)
	b.str = p.declareBuiltinType("str", 0)
	b.char = p.declareBuiltinType("char", 0)
	b.i32 = p.declareBuiltinType("i32", 0)
	b.u32 = p.declareBuiltinType("u32", 0)

	str := TypeRef{ID: b.str}
	u32 := TypeRef{ID: b.u32}
	i32 := TypeRef{ID: b.i32}
	boolean := TypeRef{ID: b.bool}
	char := TypeRef{ID: b.char}
	ret := func(t TypeRef) *TypeRef { return &t }

	p.declareBuiltinFunction("size_of", "$size_of_str", nil, func([]TypeRef) ([]builtinArg, *TypeRef) {
		return []builtinArg{{name: "s", typ: str}}, ret(u32)
	})
	p.declareBuiltinFunction("size_of", "$size_of_vec", []string{"T"}, func(tps []TypeRef) ([]builtinArg, *TypeRef) {
		return []builtinArg{{name: "v", typ: TypeRef{ID: b.vec, Parameters: tps}}}, ret(u32)
	})
	p.declareBuiltinFunction("size_of", "$size_of_set", []string{"T"}, func(tps []TypeRef) ([]builtinArg, *TypeRef) {
		return []builtinArg{{name: "s", typ: TypeRef{ID: b.set, Parameters: tps}}}, ret(u32)
	})
	p.declareBuiltinFunction("has", "$has", []string{"T"}, func(tps []TypeRef) ([]builtinArg, *TypeRef) {
		return []builtinArg{
			{name: "s", typ: TypeRef{ID: b.set, Parameters: tps}},
			{name: "item", typ: tps[0]},
		}, ret(boolean)
	})
	p.declareBuiltinFunction("push", "$push", []string{"T"}, func(tps []TypeRef) ([]builtinArg, *TypeRef) {
		return []builtinArg{
			{name: "v", typ: TypeRef{ID: b.vec, Parameters: tps}, byRef: true},
			{name: "item", typ: tps[0]},
		}, nil
	})
	p.declareBuiltinFunction("println", "$println", nil, func([]TypeRef) ([]builtinArg, *TypeRef) {
		return []builtinArg{{name: "s", typ: str}}, nil
	})
	p.declareBuiltinFunction("die", "$die", nil, func([]TypeRef) ([]builtinArg, *TypeRef) {
		return []builtinArg{{name: "message", typ: str}}, nil
	})
	p.declareBuiltinFunction("substring", "$substring", nil, func([]TypeRef) ([]builtinArg, *TypeRef) {
		return []builtinArg{{name: "s", typ: str}, {name: "start", typ: u32}, {name: "end", typ: u32}}, ret(str)
	})
	for _, t := range []TypeRef{u32, i32, char, boolean} {
		p.declareBuiltinFunction("to_str", "$to_str", nil, func([]TypeRef) ([]builtinArg, *TypeRef) {
			return []builtinArg{{name: "value", typ: t}}, ret(str)
		})
	}
	p.declareBuiltinFunction("to_i32", "$to_i32", nil, func([]TypeRef) ([]builtinArg, *TypeRef) {
		return []builtinArg{{name: "value", typ: u32}}, ret(i32)
	})
}
