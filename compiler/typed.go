package compiler

import "github.com/jeanlauliac/indigo-lang/syntax"

// PathStep is one field access. Variant is set when the access goes through
// an enum known to be in that variant.
type PathStep struct {
	Variant ID
	Field   string
}

// Reference is an lvalue: a value ID and a path of field accesses from it.
type Reference struct {
	Value ID
	Path  []PathStep
}

func (r Reference) extend(step PathStep) Reference {
	path := make([]PathStep, len(r.Path), len(r.Path)+1)
	copy(path, r.Path)
	return Reference{Value: r.Value, Path: append(path, step)}
}

// Stmt is a typed statement.
type Stmt interface {
	typedStmt()
}

type LetStmt struct {
	Variable ID
	Value    Expr
}

type IfStmt struct {
	Condition Expr
	Then      Stmt
	Else      Stmt // nil when there is no else branch
}

type WhileStmt struct {
	Condition Expr
	Body      Stmt
}

type ReturnStmt struct {
	Value Expr // nil for a bare return
}

type ExpectStmt struct {
	Pos       syntax.Pos
	Condition Expr
}

type BlockStmt struct {
	Statements []Stmt
}

type ExprStmt struct {
	Value Expr
}

func (*LetStmt) typedStmt()    {}
func (*IfStmt) typedStmt()     {}
func (*WhileStmt) typedStmt()  {}
func (*ReturnStmt) typedStmt() {}
func (*ExpectStmt) typedStmt() {}
func (*BlockStmt) typedStmt()  {}
func (*ExprStmt) typedStmt()   {}

// Expr is a typed expression.
type Expr interface {
	Type() TypeRef
}

type BoolLit struct {
	Value bool
	T     TypeRef
}

type NumberLit struct {
	Value int64
	T     TypeRef
}

type StringLit struct {
	Value string
	T     TypeRef
}

type CharLit struct {
	Value rune
	T     TypeRef
}

// Read reads the value at a reference.
type Read struct {
	Ref Reference
	T   TypeRef
}

type CallArg struct {
	ByRef bool
	Value Expr
	// Ref is set for by-reference arguments.
	Ref *Reference
}

type Call struct {
	Function  ID
	Arguments []CallArg
	// Settled maps the callee's type parameters to the types inferred at this call.
	Settled map[ID]TypeRef
	T       TypeRef
}

type FieldInit struct {
	Name  string
	Value Expr
}

// ObjectLit builds a struct, or an enum value when Variant is set.
type ObjectLit struct {
	Struct  ID
	Variant ID
	Fields  []FieldInit
	T       TypeRef
}

type CollectionLit struct {
	Kind  syntax.CollectionKind
	Items []Expr
	T     TypeRef
}

type IndexExpr struct {
	Collection Reference
	Key        Expr
	T          TypeRef
}

type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	T     TypeRef
}

type AssignExpr struct {
	Target Reference
	Value  Expr
	T      TypeRef
}

type IncrementExpr struct {
	Target Reference
	T      TypeRef
}

type UnaryExpr struct {
	Op      string
	Operand Expr
	T       TypeRef
}

type IdentityTestExpr struct {
	Negative bool
	Operand  Expr
	Variant  ID
	T        TypeRef
}

func (e *BoolLit) Type() TypeRef          { return e.T }
func (e *NumberLit) Type() TypeRef        { return e.T }
func (e *StringLit) Type() TypeRef        { return e.T }
func (e *CharLit) Type() TypeRef          { return e.T }
func (e *Read) Type() TypeRef             { return e.T }
func (e *Call) Type() TypeRef             { return e.T }
func (e *ObjectLit) Type() TypeRef        { return e.T }
func (e *CollectionLit) Type() TypeRef    { return e.T }
func (e *IndexExpr) Type() TypeRef        { return e.T }
func (e *BinaryExpr) Type() TypeRef       { return e.T }
func (e *AssignExpr) Type() TypeRef       { return e.T }
func (e *IncrementExpr) Type() TypeRef    { return e.T }
func (e *UnaryExpr) Type() TypeRef        { return e.T }
func (e *IdentityTestExpr) Type() TypeRef { return e.T }
