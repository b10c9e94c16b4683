package compiler

import (
	"slices"
	"strings"

	"github.com/jeanlauliac/indigo-lang/syntax"
)

// tryMatchTypes unifies an argument type against a parameter type. A free
// type parameter of the candidate is settled by its first occurrence and
// must be matched exactly by later ones.
func tryMatchTypes(actual, expected TypeRef, typeParams []ID, settled map[ID]TypeRef) bool {
	if slices.Contains(typeParams, expected.ID) {
		if prev, ok := settled[expected.ID]; ok {
			return actual.Equal(prev)
		}
		settled[expected.ID] = actual
		return true
	}
	if actual.ID != expected.ID || len(actual.Parameters) != len(expected.Parameters) {
		return false
	}
	for i := range actual.Parameters {
		if !tryMatchTypes(actual.Parameters[i], expected.Parameters[i], typeParams, settled) {
			return false
		}
	}
	return true
}

// substituteType replaces settled type parameters in t. It fails when t
// mentions a type parameter the call did not settle.
func substituteType(t TypeRef, typeParams []ID, settled map[ID]TypeRef) (TypeRef, bool) {
	if slices.Contains(typeParams, t.ID) {
		s, ok := settled[t.ID]
		return s, ok
	}
	out := TypeRef{ID: t.ID}
	for _, param := range t.Parameters {
		s, ok := substituteType(param, typeParams, settled)
		if !ok {
			return TypeRef{}, false
		}
		out.Parameters = append(out.Parameters, s)
	}
	return out, true
}

// matchOverload checks one candidate against analyzed call arguments.
func (p *Program) matchOverload(fn *Function, args []CallArg) (map[ID]TypeRef, bool) {
	if len(fn.Arguments) != len(args) {
		return nil, false
	}
	settled := map[ID]TypeRef{}
	for i, aid := range fn.Arguments {
		def := p.entities[aid].(*Argument)
		if def.ByRef != args[i].ByRef {
			return nil, false
		}
		if !tryMatchTypes(args[i].Value.Type(), def.Type, fn.TypeParameters, settled) {
			return nil, false
		}
	}
	return settled, true
}

type overloadMatch struct {
	id      ID
	settled map[ID]TypeRef
}

// analyzeCall analyzes the arguments once, left to right, then keeps the
// overloads they match. Exactly one must remain.
func (a *funcAnalyzer) analyzeCall(scope ScopeID, e *syntax.FunctionCall, refs Refinements) (exprResult, error) {
	p := a.p
	b, rest, err := p.resolveQualified(scope, e.FunctionName, e.Pos, UnknownName)
	if err != nil {
		return exprResult{}, err
	}
	group, ok := b.(*FunctionBinding)
	if !ok || len(rest) > 0 {
		return exprResult{}, errorf(InvalidContext, e.Pos, "%q is not a function", e.FunctionName.String())
	}

	args := make([]CallArg, len(e.Arguments))
	for i, arg := range e.Arguments {
		res, err := a.analyzeValue(scope, arg.Value, refs)
		if err != nil {
			return exprResult{}, err
		}
		refs = res.refs
		args[i] = CallArg{ByRef: arg.IsByReference, Value: res.expr}
		if arg.IsByReference {
			if res.ref == nil {
				return exprResult{}, errorf(InvalidContext, arg.Value.ExprPos(),
					"argument %d of %q is passed by reference and must be a variable or field", i+1, e.FunctionName.String())
			}
			ref := *res.ref
			args[i].Ref = &ref
		}
	}

	var matches []overloadMatch
	for _, id := range group.Overloads {
		if settled, ok := p.matchOverload(p.entities[id].(*Function), args); ok {
			matches = append(matches, overloadMatch{id: id, settled: settled})
		}
	}
	switch {
	case len(matches) == 0:
		return exprResult{}, errorf(NoMatchingOverload, e.Pos, "no overload of %q accepts (%s)",
			e.FunctionName.String(), p.describeArgs(args))
	case len(matches) > 1:
		return exprResult{}, errorf(AmbiguousOverload, e.Pos, "%d overloads of %q accept (%s)",
			len(matches), e.FunctionName.String(), p.describeArgs(args))
	}

	m := matches[0]
	fn := p.entities[m.id].(*Function)
	call := &Call{Function: m.id, Arguments: args, Settled: m.settled}
	if fn.ReturnType != nil {
		t, ok := substituteType(*fn.ReturnType, fn.TypeParameters, m.settled)
		if !ok {
			return exprResult{}, errorf(TypeMismatch, e.Pos, "cannot infer the return type of %q", e.FunctionName.String())
		}
		call.T = t
	}

	// The callee may overwrite anything passed by reference.
	for _, arg := range args {
		if arg.Ref != nil {
			refs = forgetRefinement(refs, *arg.Ref)
		}
	}
	return exprResult{expr: call, refs: refs}, nil
}

func (p *Program) describeArgs(args []CallArg) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = p.TypeString(arg.Value.Type())
		if arg.ByRef {
			parts[i] = "ref " + parts[i]
		}
	}
	return strings.Join(parts, ", ")
}
