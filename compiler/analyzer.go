package compiler

import (
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/jeanlauliac/indigo-lang/syntax"
)

// funcAnalyzer runs pass 3 over one function body.
type funcAnalyzer struct {
	p  *Program
	fn *Function
}

// exprResult is the outcome of analyzing one expression. whenTrue and
// whenFalse hold the refinements known after a boolean expression evaluated
// to true or false; they are nil for other expressions.
type exprResult struct {
	expr      Expr
	ref       *Reference
	refs      Refinements
	whenTrue  Refinements
	whenFalse Refinements
}

func (r exprResult) ifTrue() Refinements {
	if r.whenTrue != nil {
		return r.whenTrue
	}
	return r.refs
}

func (r exprResult) ifFalse() Refinements {
	if r.whenFalse != nil {
		return r.whenFalse
	}
	return r.refs
}

// analyzeFunction is pass 3 for one function: it type-checks the body and
// stores the typed statements in the function entity.
func (p *Program) analyzeFunction(id ID) error {
	fn := p.entities[id].(*Function)
	mark := p.scopes.Mark()
	defer p.scopes.Release(mark)

	scope := p.scopes.New(fn.TypeScope)
	for _, aid := range fn.Arguments {
		arg := p.entities[aid].(*Argument)
		p.scopes.Declare(scope, arg.Name, ValueBinding{ID: aid, Type: arg.Type})
	}

	a := &funcAnalyzer{p: p, fn: fn}
	refs := Refinements{}
	for _, st := range fn.Decl.Statements {
		typed, out, _, err := a.analyzeStatement(scope, st, refs)
		if err != nil {
			return err
		}
		fn.Body = append(fn.Body, typed)
		refs = out
	}
	p.functions = append(p.functions, id)
	p.logf("analyzed function %s (%d statements)", fn.JSName, len(fn.Body))
	return nil
}

// analyzeStatement returns the typed statement, the refinements that hold
// after it, and whether it always returns.
func (a *funcAnalyzer) analyzeStatement(scope ScopeID, st syntax.Statement, refs Refinements) (Stmt, Refinements, bool, error) {
	p := a.p
	switch s := st.(type) {
	case *syntax.VariableDeclaration:
		if p.scopes.IsVoid(scope) {
			return nil, nil, false, errorf(InvalidContext, s.Pos, "variable %q must be declared in a block", s.Name)
		}
		if _, ok := p.scopes.Lookup(scope, s.Name); ok {
			return nil, nil, false, errorf(DuplicateName, s.Pos, "%q shadows an existing name", s.Name)
		}
		res, err := a.analyzeValue(scope, s.InitialValue, refs)
		if err != nil {
			return nil, nil, false, err
		}
		t := res.expr.Type()
		vid := p.alloc(&Variable{Name: s.Name, Type: t})
		p.scopes.Declare(scope, s.Name, ValueBinding{ID: vid, Type: t})
		out := assignRefinement(res.refs, Reference{Value: vid}, valueRefinement(res.expr, res.refs))
		return &LetStmt{Variable: vid, Value: res.expr}, out, false, nil

	case *syntax.If:
		cond, err := a.analyzeCondition(scope, s.Condition, refs)
		if err != nil {
			return nil, nil, false, err
		}
		then, thenOut, thenDone, err := a.analyzeBranch(scope, s.Consequent, cond.ifTrue())
		if err != nil {
			return nil, nil, false, err
		}
		typed := &IfStmt{Condition: cond.expr, Then: then}
		elseOut, elseDone := cond.ifFalse(), false
		if s.Alternate != nil {
			typed.Else, elseOut, elseDone, err = a.analyzeBranch(scope, s.Alternate, cond.ifFalse())
			if err != nil {
				return nil, nil, false, err
			}
		}
		out, done := joinBranches(thenOut, thenDone, elseOut, elseDone)
		return typed, out, done, nil

	case *syntax.WhileLoop:
		written := map[ID]bool{}
		a.collectWrites(scope, s, written)
		entry := pruneRefinements(refs, written)
		cond, err := a.analyzeCondition(scope, s.Condition, entry)
		if err != nil {
			return nil, nil, false, err
		}
		body, _, _, err := a.analyzeBranch(scope, s.Body, cond.ifTrue())
		if err != nil {
			return nil, nil, false, err
		}
		return &WhileStmt{Condition: cond.expr, Body: body}, cond.ifFalse(), false, nil

	case *syntax.Return:
		if s.Value == nil {
			if a.fn.ReturnType != nil {
				return nil, nil, false, errorf(TypeMismatch, s.Pos, "missing return value of type %s", p.TypeString(*a.fn.ReturnType))
			}
			return &ReturnStmt{}, refs, true, nil
		}
		if a.fn.ReturnType == nil {
			return nil, nil, false, errorf(TypeMismatch, s.Pos, "function %q does not return a value", a.fn.Name)
		}
		res, err := a.analyzeValue(scope, s.Value, refs)
		if err != nil {
			return nil, nil, false, err
		}
		if err := p.expectType(res.expr.Type(), *a.fn.ReturnType, s.Value.ExprPos(), "return value"); err != nil {
			return nil, nil, false, err
		}
		return &ReturnStmt{Value: res.expr}, res.refs, true, nil

	case *syntax.Expect:
		cond, err := a.analyzeCondition(scope, s.Value, refs)
		if err != nil {
			return nil, nil, false, err
		}
		return &ExpectStmt{Pos: s.Pos, Condition: cond.expr}, cond.ifTrue(), false, nil

	case *syntax.Block:
		inner := p.scopes.New(scope)
		block := &BlockStmt{}
		done := false
		for _, child := range s.Statements {
			typed, out, childDone, err := a.analyzeStatement(inner, child, refs)
			if err != nil {
				return nil, nil, false, err
			}
			block.Statements = append(block.Statements, typed)
			refs = out
			done = done || childDone
		}
		return block, refs, done, nil

	case *syntax.ExpressionStatement:
		res, err := a.analyzeExpr(scope, s.Value, refs)
		if err != nil {
			return nil, nil, false, err
		}
		return &ExprStmt{Value: res.expr}, res.refs, false, nil
	}
	return nil, nil, false, errorf(InvalidContext, st.StmtPos(), "unsupported statement %T", st)
}

// analyzeBranch analyzes the body of an if or while. An unbraced body gets
// a void scope so that it cannot declare variables.
func (a *funcAnalyzer) analyzeBranch(scope ScopeID, st syntax.Statement, refs Refinements) (Stmt, Refinements, bool, error) {
	if _, ok := st.(*syntax.Block); !ok {
		scope = a.p.scopes.NewVoid(scope)
	}
	return a.analyzeStatement(scope, st, refs)
}

// joinBranches merges the outcome of two alternative paths. A path that
// always returns contributes nothing.
func joinBranches(a Refinements, aDone bool, b Refinements, bDone bool) (Refinements, bool) {
	switch {
	case aDone && bDone:
		return Refinements{}, true
	case aDone:
		return b, false
	case bDone:
		return a, false
	}
	return MergeRefinements(Union, a, b), false
}

func (p *Program) expectType(actual, expected TypeRef, pos syntax.Pos, what string) error {
	if actual.Equal(expected) {
		return nil
	}
	return errorf(TypeMismatch, pos, "%s: expected %s, got %s", what, p.TypeString(expected), p.TypeString(actual))
}

func (a *funcAnalyzer) analyzeCondition(scope ScopeID, e syntax.Expression, refs Refinements) (exprResult, error) {
	res, err := a.analyzeExpr(scope, e, refs)
	if err != nil {
		return exprResult{}, err
	}
	if err := a.p.expectType(res.expr.Type(), TypeRef{ID: a.p.builtins.bool}, e.ExprPos(), "condition"); err != nil {
		return exprResult{}, err
	}
	return res, nil
}

// analyzeValue analyzes an expression whose result is used as a value.
func (a *funcAnalyzer) analyzeValue(scope ScopeID, e syntax.Expression, refs Refinements) (exprResult, error) {
	res, err := a.analyzeExpr(scope, e, refs)
	if err != nil {
		return exprResult{}, err
	}
	if res.expr.Type().ID == NoID {
		return exprResult{}, errorf(TypeMismatch, e.ExprPos(), "expression does not produce a value")
	}
	return res, nil
}

func (a *funcAnalyzer) analyzeExpr(scope ScopeID, e syntax.Expression, refs Refinements) (exprResult, error) {
	p := a.p
	b := p.builtins
	switch e := e.(type) {
	case *syntax.BoolLiteral:
		return exprResult{expr: &BoolLit{Value: e.Value, T: TypeRef{ID: b.bool}}, refs: refs}, nil

	case *syntax.StringLiteral:
		return exprResult{expr: &StringLit{Value: e.Value, T: TypeRef{ID: b.str}}, refs: refs}, nil

	case *syntax.CharacterLiteral:
		return exprResult{expr: &CharLit{Value: e.Value, T: TypeRef{ID: b.char}}, refs: refs}, nil

	case *syntax.NumberLiteral:
		v, err := parseLiteral(e)
		if err != nil {
			return exprResult{}, err
		}
		u, err := safecast.Conv[uint32](v)
		if err != nil {
			return exprResult{}, errorf(TypeMismatch, e.Pos, "number %s does not fit in u32", e.Value)
		}
		return exprResult{expr: &NumberLit{Value: int64(u), T: TypeRef{ID: b.u32}}, refs: refs}, nil

	case *syntax.UnaryOperation:
		return a.analyzeUnary(scope, e, refs)

	case *syntax.QualifiedNameExpr:
		ref, t, err := a.resolveValue(scope, e.Value, e.Pos, refs)
		if err != nil {
			return exprResult{}, err
		}
		return exprResult{expr: &Read{Ref: ref, T: t}, ref: &ref, refs: refs}, nil

	case *syntax.IdentityTest:
		return a.analyzeIdentityTest(scope, e, refs)

	case *syntax.BinaryOperation:
		return a.analyzeBinary(scope, e, refs)

	case *syntax.FunctionCall:
		return a.analyzeCall(scope, e, refs)

	case *syntax.ObjectLiteral:
		return a.analyzeObjectLiteral(scope, e, refs)

	case *syntax.CollectionLiteral:
		return a.analyzeCollectionLiteral(scope, e, refs)

	case *syntax.CollectionAccess:
		ref, t, err := a.resolveValue(scope, e.CollectionName, e.Pos, refs)
		if err != nil {
			return exprResult{}, err
		}
		key, err := a.analyzeValue(scope, e.Key, refs)
		if err != nil {
			return exprResult{}, err
		}
		if err := p.expectType(key.expr.Type(), TypeRef{ID: b.u32}, e.Key.ExprPos(), "index"); err != nil {
			return exprResult{}, err
		}
		var item TypeRef
		switch t.ID {
		case b.vec:
			item = t.Parameters[0]
		case b.str:
			item = TypeRef{ID: b.char}
		default:
			return exprResult{}, errorf(TypeMismatch, e.Pos, "cannot index into a value of type %s", p.TypeString(t))
		}
		return exprResult{expr: &IndexExpr{Collection: ref, Key: key.expr, T: item}, refs: key.refs}, nil

	case *syntax.InPlaceAssignment:
		target, err := a.analyzeExpr(scope, e.Target, refs)
		if err != nil {
			return exprResult{}, err
		}
		if target.ref == nil {
			return exprResult{}, errorf(InvalidContext, e.Pos, "%s needs a variable or field", e.Operation)
		}
		t := target.expr.Type()
		if !p.isNumeric(t) {
			return exprResult{}, errorf(TypeMismatch, e.Pos, "%s needs a number, got %s", e.Operation, p.TypeString(t))
		}
		return exprResult{
			expr: &IncrementExpr{Target: *target.ref, T: t},
			refs: forgetRefinement(target.refs, *target.ref),
		}, nil
	}
	return exprResult{}, errorf(InvalidContext, e.ExprPos(), "unsupported expression %T", e)
}

func parseLiteral(e *syntax.NumberLiteral) (uint64, error) {
	v, err := strconv.ParseUint(e.Value, 10, 64)
	if err != nil {
		return 0, errorf(TypeMismatch, e.Pos, "number %s is out of range", e.Value)
	}
	return v, nil
}

func (a *funcAnalyzer) analyzeUnary(scope ScopeID, e *syntax.UnaryOperation, refs Refinements) (exprResult, error) {
	p := a.p
	if lit, ok := e.Operand.(*syntax.NumberLiteral); ok && e.Operator == "-" {
		v, err := parseLiteral(lit)
		if err != nil {
			return exprResult{}, err
		}
		if v > 1<<31 {
			return exprResult{}, errorf(TypeMismatch, e.Pos, "number -%s does not fit in i32", lit.Value)
		}
		n, err := safecast.Conv[int32](-int64(v))
		if err != nil {
			return exprResult{}, errorf(TypeMismatch, e.Pos, "number -%s does not fit in i32", lit.Value)
		}
		return exprResult{expr: &NumberLit{Value: int64(n), T: TypeRef{ID: p.builtins.i32}}, refs: refs}, nil
	}

	operand, err := a.analyzeValue(scope, e.Operand, refs)
	if err != nil {
		return exprResult{}, err
	}
	t := operand.expr.Type()
	switch e.Operator {
	case "!":
		if err := p.expectType(t, TypeRef{ID: p.builtins.bool}, e.Pos, "operand of !"); err != nil {
			return exprResult{}, err
		}
		return exprResult{
			expr:      &UnaryExpr{Op: "!", Operand: operand.expr, T: t},
			refs:      operand.refs,
			whenTrue:  operand.ifFalse(),
			whenFalse: operand.ifTrue(),
		}, nil
	case "-":
		if err := p.expectType(t, TypeRef{ID: p.builtins.i32}, e.Pos, "operand of unary -"); err != nil {
			return exprResult{}, err
		}
		return exprResult{expr: &UnaryExpr{Op: "-", Operand: operand.expr, T: t}, refs: operand.refs}, nil
	}
	return exprResult{}, errorf(InvalidContext, e.Pos, "unknown unary operator %q", e.Operator)
}

func (a *funcAnalyzer) analyzeIdentityTest(scope ScopeID, e *syntax.IdentityTest, refs Refinements) (exprResult, error) {
	p := a.p
	operand, err := a.analyzeValue(scope, e.Operand, refs)
	if err != nil {
		return exprResult{}, err
	}
	t := operand.expr.Type()
	enum, ok := p.entities[t.ID].(*Enum)
	if !ok {
		return exprResult{}, errorf(TypeMismatch, e.Pos, "%s is not an enum", p.TypeString(t))
	}
	b, rest, err := p.resolveQualified(scope, e.Variant, e.Pos, UnknownName)
	if err != nil {
		return exprResult{}, err
	}
	tb, ok := b.(TypeBinding)
	var variant *Variant
	if ok && len(rest) == 0 {
		variant, _ = p.entities[tb.ID].(*Variant)
	}
	if variant == nil || variant.Enum != t.ID {
		return exprResult{}, errorf(TypeMismatch, e.Pos, "%q is not a variant of %s", e.Variant.String(), enum.Name)
	}

	res := exprResult{
		expr: &IdentityTestExpr{Negative: e.IsNegative, Operand: operand.expr, Variant: tb.ID, T: TypeRef{ID: p.builtins.bool}},
		refs: operand.refs,
	}
	if operand.ref != nil {
		is := &EnumRefinement{Variants: map[ID]map[string]Refinement{tb.ID: {}}}
		isnt := &EnumRefinement{Variants: map[ID]map[string]Refinement{}}
		for _, vid := range enum.Variants {
			if vid != tb.ID {
				isnt.Variants[vid] = map[string]Refinement{}
			}
		}
		res.whenTrue = MergeRefinements(Intersection, operand.refs, wrapRefinement(*operand.ref, is))
		res.whenFalse = MergeRefinements(Intersection, operand.refs, wrapRefinement(*operand.ref, isnt))
		if e.IsNegative {
			res.whenTrue, res.whenFalse = res.whenFalse, res.whenTrue
		}
	}
	return res, nil
}

func (a *funcAnalyzer) analyzeBinary(scope ScopeID, e *syntax.BinaryOperation, refs Refinements) (exprResult, error) {
	p := a.p
	boolean := TypeRef{ID: p.builtins.bool}
	switch e.Operation {
	case "=":
		return a.analyzeAssignment(scope, e, refs)

	case "&&":
		left, err := a.analyzeCondition(scope, e.LeftOperand, refs)
		if err != nil {
			return exprResult{}, err
		}
		right, err := a.analyzeCondition(scope, e.RightOperand, left.ifTrue())
		if err != nil {
			return exprResult{}, err
		}
		return exprResult{
			expr:      &BinaryExpr{Op: "&&", Left: left.expr, Right: right.expr, T: boolean},
			refs:      MergeRefinements(Union, left.ifFalse(), right.refs),
			whenTrue:  right.ifTrue(),
			whenFalse: MergeRefinements(Union, left.ifFalse(), right.ifFalse()),
		}, nil

	case "||":
		left, err := a.analyzeCondition(scope, e.LeftOperand, refs)
		if err != nil {
			return exprResult{}, err
		}
		right, err := a.analyzeCondition(scope, e.RightOperand, left.ifFalse())
		if err != nil {
			return exprResult{}, err
		}
		return exprResult{
			expr:      &BinaryExpr{Op: "||", Left: left.expr, Right: right.expr, T: boolean},
			refs:      MergeRefinements(Union, left.ifTrue(), right.refs),
			whenTrue:  MergeRefinements(Union, left.ifTrue(), right.ifTrue()),
			whenFalse: right.ifFalse(),
		}, nil
	}

	left, err := a.analyzeValue(scope, e.LeftOperand, refs)
	if err != nil {
		return exprResult{}, err
	}
	right, err := a.analyzeValue(scope, e.RightOperand, left.refs)
	if err != nil {
		return exprResult{}, err
	}
	t, err := p.binaryType(e, left.expr.Type(), right.expr.Type())
	if err != nil {
		return exprResult{}, err
	}
	return exprResult{expr: &BinaryExpr{Op: e.Operation, Left: left.expr, Right: right.expr, T: t}, refs: right.refs}, nil
}

func (p *Program) binaryType(e *syntax.BinaryOperation, l, r TypeRef) (TypeRef, error) {
	b := p.builtins
	isText := func(t TypeRef) bool { return t.ID == b.str || t.ID == b.char }
	switch e.Operation {
	case "+":
		if p.isNumeric(l) && l.Equal(r) {
			return l, nil
		}
		if isText(l) && isText(r) {
			return TypeRef{ID: b.str}, nil
		}
	case "-", "*":
		if p.isNumeric(l) && l.Equal(r) {
			return l, nil
		}
	case "==", "!=":
		if p.isScalar(l) && l.Equal(r) {
			return TypeRef{ID: b.bool}, nil
		}
	case "<", "<=", ">", ">=":
		if (p.isNumeric(l) || isText(l)) && l.Equal(r) {
			return TypeRef{ID: b.bool}, nil
		}
	default:
		return TypeRef{}, errorf(InvalidContext, e.Pos, "unknown operator %q", e.Operation)
	}
	return TypeRef{}, errorf(TypeMismatch, e.Pos, "operator %s cannot be applied to %s and %s",
		e.Operation, p.TypeString(l), p.TypeString(r))
}

func (a *funcAnalyzer) analyzeAssignment(scope ScopeID, e *syntax.BinaryOperation, refs Refinements) (exprResult, error) {
	target, err := a.analyzeExpr(scope, e.LeftOperand, refs)
	if err != nil {
		return exprResult{}, err
	}
	if target.ref == nil {
		return exprResult{}, errorf(InvalidContext, e.Pos, "cannot assign to this expression")
	}
	value, err := a.analyzeValue(scope, e.RightOperand, target.refs)
	if err != nil {
		return exprResult{}, err
	}
	t := target.expr.Type()
	if err := a.p.expectType(value.expr.Type(), t, e.RightOperand.ExprPos(), "assigned value"); err != nil {
		return exprResult{}, err
	}
	shape := valueRefinement(value.expr, value.refs)
	return exprResult{
		expr: &AssignExpr{Target: *target.ref, Value: value.expr, T: t},
		refs: assignRefinement(value.refs, *target.ref, shape),
	}, nil
}

func (a *funcAnalyzer) analyzeObjectLiteral(scope ScopeID, e *syntax.ObjectLiteral, refs Refinements) (exprResult, error) {
	p := a.p
	b, rest, err := p.resolveQualified(scope, e.TypeName, e.Pos, UnknownTypeName)
	if err != nil {
		return exprResult{}, err
	}
	lit := &ObjectLit{}
	var defs []FieldDef
	if tb, ok := b.(TypeBinding); ok && len(rest) == 0 {
		switch ent := p.entities[tb.ID].(type) {
		case *Struct:
			lit.Struct, lit.T, defs = tb.ID, TypeRef{ID: tb.ID}, ent.Fields
		case *Variant:
			lit.Variant, lit.T, defs = tb.ID, TypeRef{ID: ent.Enum}, ent.Fields
		}
	}
	if lit.T.ID == NoID {
		return exprResult{}, errorf(InvalidConstructor, e.Pos, "%q is not a struct or enum variant", e.TypeName.String())
	}

	seen := map[string]bool{}
	for _, f := range e.Fields {
		ft, ok := fieldType(defs, f.Name)
		if !ok {
			return exprResult{}, errorf(InvalidFieldAccess, f.Pos, "%q has no field %q", e.TypeName.String(), f.Name)
		}
		if seen[f.Name] {
			return exprResult{}, errorf(MissingOrExtraFields, f.Pos, "field %q is given more than once", f.Name)
		}
		seen[f.Name] = true

		var value Expr
		if f.Value == nil {
			ref, t, err := a.resolveValue(scope, syntax.QualifiedName{f.Name}, f.Pos, refs)
			if err != nil {
				return exprResult{}, err
			}
			value = &Read{Ref: ref, T: t}
		} else {
			res, err := a.analyzeValue(scope, f.Value, refs)
			if err != nil {
				return exprResult{}, err
			}
			value, refs = res.expr, res.refs
		}
		if err := p.expectType(value.Type(), ft, f.Pos, "field "+f.Name); err != nil {
			return exprResult{}, err
		}
		lit.Fields = append(lit.Fields, FieldInit{Name: f.Name, Value: value})
	}

	var missing []string
	for _, def := range defs {
		if !seen[def.Name] {
			missing = append(missing, strconv.Quote(def.Name))
		}
	}
	if len(missing) > 0 {
		return exprResult{}, errorf(MissingOrExtraFields, e.Pos, "missing fields in %q: %s",
			e.TypeName.String(), strings.Join(missing, ", "))
	}
	return exprResult{expr: lit, refs: refs}, nil
}

func (a *funcAnalyzer) analyzeCollectionLiteral(scope ScopeID, e *syntax.CollectionLiteral, refs Refinements) (exprResult, error) {
	p := a.p
	var item TypeRef
	if e.ItemType != nil {
		t, err := p.resolveType(scope, *e.ItemType)
		if err != nil {
			return exprResult{}, err
		}
		item = t
	} else if len(e.Values) == 0 {
		return exprResult{}, errorf(TypeMismatch, e.Pos, "cannot infer the item type of an empty %s", e.Kind)
	}

	lit := &CollectionLit{Kind: e.Kind}
	for i, v := range e.Values {
		res, err := a.analyzeValue(scope, v, refs)
		if err != nil {
			return exprResult{}, err
		}
		refs = res.refs
		if i == 0 && e.ItemType == nil {
			item = res.expr.Type()
		}
		if err := p.expectType(res.expr.Type(), item, v.ExprPos(), e.Kind.String()+" item"); err != nil {
			return exprResult{}, err
		}
		lit.Items = append(lit.Items, res.expr)
	}
	id := p.builtins.vec
	if e.Kind == syntax.Set {
		id = p.builtins.set
	}
	lit.T = TypeRef{ID: id, Parameters: []TypeRef{item}}
	return exprResult{expr: lit, refs: refs}, nil
}

// resolveValue resolves a qualified name to a reference. Components past
// the value binding are field accesses; accessing a field of an enum needs
// the refinements to prove a single variant at that path.
func (a *funcAnalyzer) resolveValue(scope ScopeID, name syntax.QualifiedName, pos syntax.Pos, refs Refinements) (Reference, TypeRef, error) {
	p := a.p
	b, rest, err := p.resolveQualified(scope, name, pos, UnknownName)
	if err != nil {
		return Reference{}, TypeRef{}, err
	}
	vb, ok := b.(ValueBinding)
	if !ok {
		return Reference{}, TypeRef{}, errorf(InvalidContext, pos, "%q is not a value", name.String())
	}
	ref, t := Reference{Value: vb.ID}, vb.Type
	for _, field := range rest {
		switch ent := p.entities[t.ID].(type) {
		case *Struct:
			ft, ok := fieldType(ent.Fields, field)
			if !ok {
				return Reference{}, TypeRef{}, errorf(InvalidFieldAccess, pos, "struct %s has no field %q", ent.Name, field)
			}
			ref, t = ref.extend(PathStep{Field: field}), ft
		case *Enum:
			vid, ok := singleVariant(lookupRefinement(refs, ref))
			if !ok {
				return Reference{}, TypeRef{}, errorf(AmbiguousOrUnrefinedAccess, pos,
					"cannot read %q of %q: it is not known to be a single variant of %s", field, name.String(), ent.Name)
			}
			v := p.entities[vid].(*Variant)
			ft, ok := fieldType(v.Fields, field)
			if !ok {
				return Reference{}, TypeRef{}, errorf(InvalidFieldAccess, pos, "variant %s.%s has no field %q", ent.Name, v.Name, field)
			}
			ref, t = ref.extend(PathStep{Variant: vid, Field: field}), ft
		default:
			return Reference{}, TypeRef{}, errorf(InvalidFieldAccess, pos, "%s has no fields", p.TypeString(t))
		}
	}
	return ref, t, nil
}

// valueRefinement describes the shape of an expression's value, or nil.
func valueRefinement(e Expr, refs Refinements) Refinement {
	switch e := e.(type) {
	case *Read:
		return lookupRefinement(refs, e.Ref)
	case *ObjectLit:
		fields := map[string]Refinement{}
		for _, f := range e.Fields {
			if r := valueRefinement(f.Value, refs); r != nil {
				fields[f.Name] = r
			}
		}
		if e.Variant != NoID {
			return &EnumRefinement{Variants: map[ID]map[string]Refinement{e.Variant: fields}}
		}
		if len(fields) > 0 {
			return &StructRefinement{Fields: fields}
		}
	}
	return nil
}

// collectWrites finds the values a statement may overwrite, by assignment,
// increment or by-reference argument. Names are resolved in scope; values
// declared inside the statement are not found there and are skipped.
func (a *funcAnalyzer) collectWrites(scope ScopeID, st syntax.Statement, out map[ID]bool) {
	switch s := st.(type) {
	case *syntax.If:
		a.collectExprWrites(scope, s.Condition, out)
		a.collectWrites(scope, s.Consequent, out)
		if s.Alternate != nil {
			a.collectWrites(scope, s.Alternate, out)
		}
	case *syntax.WhileLoop:
		a.collectExprWrites(scope, s.Condition, out)
		a.collectWrites(scope, s.Body, out)
	case *syntax.VariableDeclaration:
		a.collectExprWrites(scope, s.InitialValue, out)
	case *syntax.Return:
		if s.Value != nil {
			a.collectExprWrites(scope, s.Value, out)
		}
	case *syntax.Expect:
		a.collectExprWrites(scope, s.Value, out)
	case *syntax.Block:
		for _, child := range s.Statements {
			a.collectWrites(scope, child, out)
		}
	case *syntax.ExpressionStatement:
		a.collectExprWrites(scope, s.Value, out)
	}
}

func (a *funcAnalyzer) collectExprWrites(scope ScopeID, e syntax.Expression, out map[ID]bool) {
	written := func(target syntax.Expression) {
		name, ok := target.(*syntax.QualifiedNameExpr)
		if !ok {
			return
		}
		if vb, ok := a.p.scopes.Lookup(scope, name.Value[0]); ok {
			if vb, ok := vb.(ValueBinding); ok {
				out[vb.ID] = true
			}
		}
	}

	switch e := e.(type) {
	case *syntax.BinaryOperation:
		if e.Operation == "=" {
			written(e.LeftOperand)
		}
		a.collectExprWrites(scope, e.LeftOperand, out)
		a.collectExprWrites(scope, e.RightOperand, out)
	case *syntax.InPlaceAssignment:
		written(e.Target)
		a.collectExprWrites(scope, e.Target, out)
	case *syntax.FunctionCall:
		for _, arg := range e.Arguments {
			if arg.IsByReference {
				written(arg.Value)
			}
			a.collectExprWrites(scope, arg.Value, out)
		}
	case *syntax.ObjectLiteral:
		for _, f := range e.Fields {
			if f.Value != nil {
				a.collectExprWrites(scope, f.Value, out)
			}
		}
	case *syntax.CollectionLiteral:
		for _, v := range e.Values {
			a.collectExprWrites(scope, v, out)
		}
	case *syntax.CollectionAccess:
		a.collectExprWrites(scope, e.Key, out)
	case *syntax.IdentityTest:
		a.collectExprWrites(scope, e.Operand, out)
	case *syntax.UnaryOperation:
		a.collectExprWrites(scope, e.Operand, out)
	}
}
