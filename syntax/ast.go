package syntax

import "strings"

// Pos is a 1-based line/column position in a source file.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) IsValid() bool { return p.Line > 0 }

// Module is the parsed contents of one source file.
type Module struct {
	Declarations []Declaration
}

// Declaration is one of *FunctionDecl, *StructDecl or *EnumDecl.
type Declaration interface {
	declNode()
	DeclName() string
	DeclPos() Pos
}

// QualifiedName is a dotted name such as ["util", "Point"].
type QualifiedName []string

func (n QualifiedName) String() string { return strings.Join(n, ".") }

// TypeExpr is a type as written in source: a name plus generic parameters.
type TypeExpr struct {
	Pos        Pos
	Name       QualifiedName
	Parameters []TypeExpr
}

func (t TypeExpr) String() string {
	if len(t.Parameters) == 0 {
		return t.Name.String()
	}
	parts := make([]string, len(t.Parameters))
	for i, p := range t.Parameters {
		parts[i] = p.String()
	}
	return t.Name.String() + "<" + strings.Join(parts, ", ") + ">"
}

type Argument struct {
	Pos           Pos
	Name          string
	Type          TypeExpr
	IsByReference bool
}

type FunctionDecl struct {
	Pos            Pos
	Name           string
	TypeParameters []string
	Arguments      []Argument
	ReturnType     *TypeExpr
	Statements     []Statement
}

type Field struct {
	Pos  Pos
	Name string
	Type TypeExpr
}

type StructDecl struct {
	Pos    Pos
	Name   string
	Fields []Field
}

type Variant struct {
	Pos    Pos
	Name   string
	Fields []Field
}

type EnumDecl struct {
	Pos      Pos
	Name     string
	Variants []Variant
}

func (*FunctionDecl) declNode() {}
func (*StructDecl) declNode()   {}
func (*EnumDecl) declNode()     {}

func (d *FunctionDecl) DeclName() string { return d.Name }
func (d *StructDecl) DeclName() string   { return d.Name }
func (d *EnumDecl) DeclName() string     { return d.Name }

func (d *FunctionDecl) DeclPos() Pos { return d.Pos }
func (d *StructDecl) DeclPos() Pos   { return d.Pos }
func (d *EnumDecl) DeclPos() Pos     { return d.Pos }

// Statement is one of the statement node types below.
type Statement interface {
	stmtNode()
	StmtPos() Pos
}

type If struct {
	Pos        Pos
	Condition  Expression
	Consequent Statement
	Alternate  Statement // nil when there is no else branch
}

type WhileLoop struct {
	Pos       Pos
	Condition Expression
	Body      Statement
}

type VariableDeclaration struct {
	Pos          Pos
	Name         string
	InitialValue Expression
}

type Return struct {
	Pos   Pos
	Value Expression // nil for a bare return
}

type Expect struct {
	Pos   Pos
	Value Expression
}

type Block struct {
	Pos        Pos
	Statements []Statement
}

type ExpressionStatement struct {
	Pos   Pos
	Value Expression
}

func (*If) stmtNode()                  {}
func (*WhileLoop) stmtNode()           {}
func (*VariableDeclaration) stmtNode() {}
func (*Return) stmtNode()              {}
func (*Expect) stmtNode()              {}
func (*Block) stmtNode()               {}
func (*ExpressionStatement) stmtNode() {}

func (s *If) StmtPos() Pos                  { return s.Pos }
func (s *WhileLoop) StmtPos() Pos           { return s.Pos }
func (s *VariableDeclaration) StmtPos() Pos { return s.Pos }
func (s *Return) StmtPos() Pos              { return s.Pos }
func (s *Expect) StmtPos() Pos              { return s.Pos }
func (s *Block) StmtPos() Pos               { return s.Pos }
func (s *ExpressionStatement) StmtPos() Pos { return s.Pos }

// Expression is one of the expression node types below.
type Expression interface {
	exprNode()
	ExprPos() Pos
}

type BinaryOperation struct {
	Pos          Pos
	Operation    string // "=", "||", "&&", "==", "!=", "<", "<=", ">", ">=", "+", "-", "*"
	LeftOperand  Expression
	RightOperand Expression
}

type CallArgument struct {
	IsByReference bool
	Value         Expression
}

type FunctionCall struct {
	Pos          Pos
	FunctionName QualifiedName
	Arguments    []CallArgument
}

type QualifiedNameExpr struct {
	Pos   Pos
	Value QualifiedName
}

// ObjectField is one field of an object literal. Value is nil for the
// shorthand form `Point { x }`, which reads the variable of the same name.
type ObjectField struct {
	Pos   Pos
	Name  string
	Value Expression
}

type ObjectLiteral struct {
	Pos      Pos
	TypeName QualifiedName
	Fields   []ObjectField
}

type CollectionKind int

const (
	Vector CollectionKind = iota
	Set
)

func (k CollectionKind) String() string {
	if k == Set {
		return "set"
	}
	return "vec"
}

type CollectionLiteral struct {
	Pos      Pos
	Kind     CollectionKind
	ItemType *TypeExpr // nil when the item type is to be inferred
	Values   []Expression
}

type CollectionAccess struct {
	Pos            Pos
	CollectionName QualifiedName
	Key            Expression
}

type IdentityTest struct {
	Pos        Pos
	IsNegative bool
	Operand    Expression
	Variant    QualifiedName
}

type InPlaceAssignment struct {
	Pos       Pos
	Operation string // "++"
	IsPrefix  bool
	Target    Expression
}

type UnaryOperation struct {
	Pos      Pos
	Operator string // "!" or "-"
	Operand  Expression
}

type BoolLiteral struct {
	Pos   Pos
	Value bool
}

// NumberLiteral keeps the literal text; range checks happen during analysis.
type NumberLiteral struct {
	Pos   Pos
	Value string
}

type StringLiteral struct {
	Pos   Pos
	Value string
}

type CharacterLiteral struct {
	Pos   Pos
	Value rune
}

func (*BinaryOperation) exprNode()   {}
func (*FunctionCall) exprNode()      {}
func (*QualifiedNameExpr) exprNode() {}
func (*ObjectLiteral) exprNode()     {}
func (*CollectionLiteral) exprNode() {}
func (*CollectionAccess) exprNode()  {}
func (*IdentityTest) exprNode()      {}
func (*InPlaceAssignment) exprNode() {}
func (*UnaryOperation) exprNode()    {}
func (*BoolLiteral) exprNode()       {}
func (*NumberLiteral) exprNode()     {}
func (*StringLiteral) exprNode()     {}
func (*CharacterLiteral) exprNode()  {}

func (e *BinaryOperation) ExprPos() Pos   { return e.Pos }
func (e *FunctionCall) ExprPos() Pos      { return e.Pos }
func (e *QualifiedNameExpr) ExprPos() Pos { return e.Pos }
func (e *ObjectLiteral) ExprPos() Pos     { return e.Pos }
func (e *CollectionLiteral) ExprPos() Pos { return e.Pos }
func (e *CollectionAccess) ExprPos() Pos  { return e.Pos }
func (e *IdentityTest) ExprPos() Pos      { return e.Pos }
func (e *InPlaceAssignment) ExprPos() Pos { return e.Pos }
func (e *UnaryOperation) ExprPos() Pos    { return e.Pos }
func (e *BoolLiteral) ExprPos() Pos       { return e.Pos }
func (e *NumberLiteral) ExprPos() Pos     { return e.Pos }
func (e *StringLiteral) ExprPos() Pos     { return e.Pos }
func (e *CharacterLiteral) ExprPos() Pos  { return e.Pos }
