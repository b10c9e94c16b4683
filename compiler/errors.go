package compiler

import (
	"fmt"

	"github.com/jeanlauliac/indigo-lang/syntax"
)

// ErrorKind classifies compilation errors.
type ErrorKind int

const (
	DuplicateName ErrorKind = iota + 1
	UnknownName
	UnknownTypeName
	ArityMismatch
	TypeMismatch
	NoMatchingOverload
	AmbiguousOverload
	InvalidConstructor
	InvalidFieldAccess
	AmbiguousOrUnrefinedAccess
	MissingOrExtraFields
	InvalidContext
)

var errorKindNames = map[ErrorKind]string{
	DuplicateName:              "DuplicateName",
	UnknownName:                "UnknownName",
	UnknownTypeName:            "UnknownTypeName",
	ArityMismatch:              "ArityMismatch",
	TypeMismatch:               "TypeMismatch",
	NoMatchingOverload:         "NoMatchingOverload",
	AmbiguousOverload:          "AmbiguousOverload",
	InvalidConstructor:         "InvalidConstructor",
	InvalidFieldAccess:         "InvalidFieldAccess",
	AmbiguousOrUnrefinedAccess: "AmbiguousOrUnrefinedAccess",
	MissingOrExtraFields:       "MissingOrExtraFields",
	InvalidContext:             "InvalidContext",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseErrorKind is the inverse of ErrorKind.String.
func ParseErrorKind(name string) (ErrorKind, bool) {
	for k, n := range errorKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Error is a compilation error. The first one detected aborts compilation.
type Error struct {
	Kind   ErrorKind
	Module string
	Pos    syntax.Pos
	Msg    string
}

func (e *Error) Error() string {
	loc := e.Module
	if e.Pos.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d", e.Module, e.Pos.Line, e.Pos.Col)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Kind, e.Msg)
}

func errorf(kind ErrorKind, pos syntax.Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
