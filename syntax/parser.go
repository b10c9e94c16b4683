package syntax

import "fmt"

// Parser is a recursive-descent parser over a Lexer.
type Parser struct {
	l *Lexer
}

// ParseModule parses a complete source file.
func ParseModule(src []byte) (*Module, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	return p.parseModule()
}

// ParseExpression parses a single expression and requires the input to end after it.
func ParseExpression(src []byte) (Expression, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.tok().Type != EOF {
		return nil, p.errorf("unexpected %s after expression", p.tok())
	}
	return e, nil
}

// ParseStatement parses a single statement and requires the input to end after it.
func ParseStatement(src []byte) (Statement, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	s, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.tok().Type != EOF {
		return nil, p.errorf("unexpected %s after statement", p.tok())
	}
	return s, nil
}

func newParser(src []byte) (*Parser, error) {
	l := NewLexer(src)
	if err := l.Prime(); err != nil {
		return nil, err
	}
	return &Parser{l: l}, nil
}

func (p *Parser) tok() Token { return p.l.Curr }

func (p *Parser) next() error { return p.l.NextToken() }

func (p *Parser) errorf(format string, args ...any) error {
	tok := p.tok()
	return &Error{Pos: tok.Pos, Msg: fmt.Sprintf(format, args...), Incomplete: tok.Type == EOF}
}

func (p *Parser) isOperator(op string) bool {
	t := p.tok()
	return t.Type == OPERATOR && t.Literal == op
}

func (p *Parser) isKeyword(kw string) bool {
	t := p.tok()
	return t.Type == KEYWORD && t.Literal == kw
}

func (p *Parser) expectOperator(op string) error {
	if !p.isOperator(op) {
		return p.errorf("expected %q, got %s", op, p.tok())
	}
	return p.next()
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errorf("expected %q, got %s", kw, p.tok())
	}
	return p.next()
}

func (p *Parser) expectIdentifier() (string, error) {
	t := p.tok()
	if t.Type != IDENT {
		return "", p.errorf("expected identifier, got %s", t)
	}
	return t.Literal, p.next()
}

func (p *Parser) parseModule() (*Module, error) {
	mod := &Module{}
	for p.tok().Type != EOF {
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		mod.Declarations = append(mod.Declarations, decl)
	}
	return mod, nil
}

func (p *Parser) parseDeclaration() (Declaration, error) {
	switch {
	case p.isKeyword("struct"):
		return p.parseStruct()
	case p.isKeyword("enum"):
		return p.parseEnum()
	case p.isKeyword("fn"):
		return p.parseFunction()
	}
	return nil, p.errorf("expected declaration, got %s", p.tok())
}

func (p *Parser) parseStruct() (*StructDecl, error) {
	decl := &StructDecl{Pos: p.tok().Pos}
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	decl.Name = name
	if decl.Fields, err = p.parseFieldList(); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseFieldList reads `{ name: Type, ... }`.
func (p *Parser) parseFieldList() ([]Field, error) {
	if err := p.expectOperator("{"); err != nil {
		return nil, err
	}
	var fields []Field
	for !p.isOperator("}") {
		f := Field{Pos: p.tok().Pos}
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		f.Name = name
		if err := p.expectOperator(":"); err != nil {
			return nil, err
		}
		if f.Type, err = p.parseType(); err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if p.isOperator(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if !p.isOperator("}") {
			return nil, p.errorf("expected \",\" or \"}\", got %s", p.tok())
		}
	}
	return fields, p.next()
}

func (p *Parser) parseEnum() (*EnumDecl, error) {
	decl := &EnumDecl{Pos: p.tok().Pos}
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	decl.Name = name
	if err := p.expectOperator("{"); err != nil {
		return nil, err
	}
	for !p.isOperator("}") {
		v := Variant{Pos: p.tok().Pos}
		if v.Name, err = p.expectIdentifier(); err != nil {
			return nil, err
		}
		if p.isOperator("{") {
			if v.Fields, err = p.parseFieldList(); err != nil {
				return nil, err
			}
		}
		decl.Variants = append(decl.Variants, v)
		if p.isOperator(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if !p.isOperator("}") {
			return nil, p.errorf("expected \",\" or \"}\", got %s", p.tok())
		}
	}
	return decl, p.next()
}

func (p *Parser) parseFunction() (*FunctionDecl, error) {
	decl := &FunctionDecl{Pos: p.tok().Pos}
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	decl.Name = name

	if p.isOperator("<") {
		if err := p.next(); err != nil {
			return nil, err
		}
		for !p.isOperator(">") {
			param, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			decl.TypeParameters = append(decl.TypeParameters, param)
			if p.isOperator(",") {
				if err := p.next(); err != nil {
					return nil, err
				}
			} else if !p.isOperator(">") {
				return nil, p.errorf("expected \",\" or \">\", got %s", p.tok())
			}
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if err := p.expectOperator("("); err != nil {
		return nil, err
	}
	for !p.isOperator(")") {
		arg := Argument{Pos: p.tok().Pos}
		if p.isKeyword("ref") {
			arg.IsByReference = true
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		if arg.Name, err = p.expectIdentifier(); err != nil {
			return nil, err
		}
		if err := p.expectOperator(":"); err != nil {
			return nil, err
		}
		if arg.Type, err = p.parseType(); err != nil {
			return nil, err
		}
		decl.Arguments = append(decl.Arguments, arg)
		if p.isOperator(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if !p.isOperator(")") {
			return nil, p.errorf("expected \",\" or \")\", got %s", p.tok())
		}
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	if p.isOperator(":") {
		if err := p.next(); err != nil {
			return nil, err
		}
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		decl.ReturnType = &ret
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	decl.Statements = body.Statements
	return decl, nil
}

func (p *Parser) parseQualifiedName() (QualifiedName, error) {
	first, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	name := QualifiedName{first}
	for p.isOperator(".") {
		if err := p.next(); err != nil {
			return nil, err
		}
		part, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		name = append(name, part)
	}
	return name, nil
}

func (p *Parser) parseType() (TypeExpr, error) {
	t := TypeExpr{Pos: p.tok().Pos}
	if p.isKeyword("vec") || p.isKeyword("set") {
		t.Name = QualifiedName{p.tok().Literal}
		if err := p.next(); err != nil {
			return t, err
		}
	} else {
		name, err := p.parseQualifiedName()
		if err != nil {
			return t, err
		}
		t.Name = name
	}
	if !p.isOperator("<") {
		return t, nil
	}
	if err := p.next(); err != nil {
		return t, err
	}
	for !p.isOperator(">") {
		param, err := p.parseType()
		if err != nil {
			return t, err
		}
		t.Parameters = append(t.Parameters, param)
		if p.isOperator(",") {
			if err := p.next(); err != nil {
				return t, err
			}
		} else if !p.isOperator(">") {
			return t, p.errorf("expected \",\" or \">\", got %s", p.tok())
		}
	}
	return t, p.next()
}

func (p *Parser) parseBlock() (*Block, error) {
	block := &Block{Pos: p.tok().Pos}
	if err := p.expectOperator("{"); err != nil {
		return nil, err
	}
	for !p.isOperator("}") {
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, st)
	}
	return block, p.next()
}

func (p *Parser) parseStatement() (Statement, error) {
	pos := p.tok().Pos

	switch {
	case p.isKeyword("let"):
		if err := p.next(); err != nil {
			return nil, err
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectOperator("="); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectOperator(";"); err != nil {
			return nil, err
		}
		return &VariableDeclaration{Pos: pos, Name: name, InitialValue: value}, nil

	case p.isKeyword("while"):
		if err := p.next(); err != nil {
			return nil, err
		}
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &WhileLoop{Pos: pos, Condition: cond, Body: body}, nil

	case p.isKeyword("if"):
		if err := p.next(); err != nil {
			return nil, err
		}
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		consequent, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		st := &If{Pos: pos, Condition: cond, Consequent: consequent}
		if p.isKeyword("else") {
			if err := p.next(); err != nil {
				return nil, err
			}
			if st.Alternate, err = p.parseStatement(); err != nil {
				return nil, err
			}
		}
		return st, nil

	case p.isKeyword("return"):
		if err := p.next(); err != nil {
			return nil, err
		}
		st := &Return{Pos: pos}
		if !p.isOperator(";") {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			st.Value = value
		}
		return st, p.expectOperator(";")

	case p.isKeyword("expect"):
		if err := p.next(); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &Expect{Pos: pos, Value: value}, p.expectOperator(";")

	case p.isOperator("{"):
		return p.parseBlock()
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExpressionStatement{Pos: pos, Value: value}, p.expectOperator(";")
}

// parseCondition reads a parenthesized `( expression )`.
func (p *Parser) parseCondition() (Expression, error) {
	if err := p.expectOperator("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return cond, p.expectOperator(")")
}

func (p *Parser) parseExpression() (Expression, error) {
	left, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.isOperator("=") {
		return left, nil
	}
	pos := p.tok().Pos
	if err := p.next(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &BinaryOperation{Pos: pos, Operation: "=", LeftOperand: left, RightOperand: right}, nil
}

// Binary operators by increasing precedence. All are left-associative.
var operatorsByLevel = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*"},
}

func (p *Parser) matchLevel(level int) (string, bool) {
	t := p.tok()
	if t.Type != OPERATOR {
		return "", false
	}
	for _, op := range operatorsByLevel[level] {
		if t.Literal == op {
			return op, true
		}
	}
	return "", false
}

func (p *Parser) parseBinary(level int) (Expression, error) {
	if level == len(operatorsByLevel) {
		return p.parseIdentityTest()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchLevel(level)
		if !ok {
			return left, nil
		}
		pos := p.tok().Pos
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryOperation{Pos: pos, Operation: op, LeftOperand: left, RightOperand: right}
	}
}

func (p *Parser) parseIdentityTest() (Expression, error) {
	operand, err := p.parseMethodCall()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("is") && !p.isKeyword("isnt") {
		return operand, nil
	}
	test := &IdentityTest{Pos: p.tok().Pos, IsNegative: p.tok().Literal == "isnt", Operand: operand}
	if err := p.next(); err != nil {
		return nil, err
	}
	if test.Variant, err = p.parseQualifiedName(); err != nil {
		return nil, err
	}
	return test, nil
}

// parseMethodCall handles `target->f(args)`, sugar for `f(&target, args)`.
func (p *Parser) parseMethodCall() (Expression, error) {
	target, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isOperator("->") {
		pos := p.tok().Pos
		if err := p.next(); err != nil {
			return nil, err
		}
		name, err := p.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		if err := p.expectOperator("("); err != nil {
			return nil, err
		}
		args, err := p.parseCallArguments()
		if err != nil {
			return nil, err
		}
		args = append([]CallArgument{{IsByReference: true, Value: target}}, args...)
		target = &FunctionCall{Pos: pos, FunctionName: name, Arguments: args}
	}
	return target, nil
}

// parseCallArguments reads arguments up to and including the closing ")".
func (p *Parser) parseCallArguments() ([]CallArgument, error) {
	var args []CallArgument
	for !p.isOperator(")") {
		var arg CallArgument
		if p.isOperator("&") {
			arg.IsByReference = true
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		arg.Value = value
		args = append(args, arg)
		if p.isOperator(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if !p.isOperator(")") {
			return nil, p.errorf("expected \",\" or \")\", got %s", p.tok())
		}
	}
	return args, p.next()
}

func (p *Parser) parsePrimary() (Expression, error) {
	t := p.tok()
	switch t.Type {
	case STRING:
		return &StringLiteral{Pos: t.Pos, Value: t.Literal}, p.next()
	case NUMBER:
		return &NumberLiteral{Pos: t.Pos, Value: t.Literal}, p.next()
	case CHAR:
		return &CharacterLiteral{Pos: t.Pos, Value: t.Char}, p.next()
	case EOF:
		return nil, p.errorf("expected expression, got %s", t)
	}

	switch {
	case p.isKeyword("true"), p.isKeyword("false"):
		return &BoolLiteral{Pos: t.Pos, Value: t.Literal == "true"}, p.next()

	case p.isOperator("("):
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return e, p.expectOperator(")")

	case p.isOperator("++"):
		if err := p.next(); err != nil {
			return nil, err
		}
		target, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &InPlaceAssignment{Pos: t.Pos, Operation: "++", IsPrefix: true, Target: target}, nil

	case p.isOperator("!"), p.isOperator("-"):
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &UnaryOperation{Pos: t.Pos, Operator: t.Literal, Operand: operand}, nil

	case p.isKeyword("vec"), p.isKeyword("set"):
		return p.parseCollectionLiteral()
	}

	if t.Type != IDENT {
		return nil, p.errorf("expected expression, got %s", t)
	}
	name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}

	switch {
	case p.isOperator("{"):
		return p.parseObjectLiteral(t.Pos, name)

	case p.isOperator("["):
		if err := p.next(); err != nil {
			return nil, err
		}
		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &CollectionAccess{Pos: t.Pos, CollectionName: name, Key: key}, p.expectOperator("]")

	case p.isOperator("("):
		if err := p.next(); err != nil {
			return nil, err
		}
		args, err := p.parseCallArguments()
		if err != nil {
			return nil, err
		}
		return &FunctionCall{Pos: t.Pos, FunctionName: name, Arguments: args}, nil
	}
	return &QualifiedNameExpr{Pos: t.Pos, Value: name}, nil
}

func (p *Parser) parseObjectLiteral(pos Pos, typeName QualifiedName) (Expression, error) {
	lit := &ObjectLiteral{Pos: pos, TypeName: typeName}
	if err := p.next(); err != nil {
		return nil, err
	}
	for !p.isOperator("}") {
		f := ObjectField{Pos: p.tok().Pos}
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		f.Name = name
		if p.isOperator(":") {
			if err := p.next(); err != nil {
				return nil, err
			}
			if f.Value, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		lit.Fields = append(lit.Fields, f)
		if p.isOperator(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if !p.isOperator("}") {
			return nil, p.errorf("expected \",\" or \"}\", got %s", p.tok())
		}
	}
	return lit, p.next()
}

func (p *Parser) parseCollectionLiteral() (Expression, error) {
	lit := &CollectionLiteral{Pos: p.tok().Pos, Kind: Vector}
	if p.isKeyword("set") {
		lit.Kind = Set
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.isOperator("<") {
		if err := p.next(); err != nil {
			return nil, err
		}
		itemType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		lit.ItemType = &itemType
		if err := p.expectOperator(">"); err != nil {
			return nil, err
		}
	}
	if err := p.expectOperator("["); err != nil {
		return nil, err
	}
	for !p.isOperator("]") {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		lit.Values = append(lit.Values, value)
		if p.isOperator(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if !p.isOperator("]") {
			return nil, p.errorf("expected \",\" or \"]\", got %s", p.tok())
		}
	}
	return lit, p.next()
}
