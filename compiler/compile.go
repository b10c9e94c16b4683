package compiler

import (
	"errors"
	"io"
	"log"
	"regexp"
	"slices"

	"github.com/jeanlauliac/indigo-lang/syntax"
)

// Options configures a compilation.
type Options struct {
	// EntryPointCall appends a call to the index module's main function.
	EntryPointCall bool
	// Logger receives progress messages. Nil disables logging.
	Logger *log.Logger
}

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Check runs the three analysis passes over a set of parsed modules, keyed
// by module name. The module named IndexModule is the root; every other
// module is bound in it as a namespace. The first error aborts the run.
func Check(modules map[string]*syntax.Module, opts Options) (*Program, error) {
	index, ok := modules[IndexModule]
	if !ok {
		return nil, &Error{Kind: InvalidContext, Msg: "missing index module"}
	}
	p := newProgram(opts.Logger)

	indexUnit := &moduleUnit{name: IndexModule, ast: index, scope: p.scopes.New(p.root)}
	indexUnit.id = p.alloc(&Module{Name: IndexModule, Scope: indexUnit.scope})
	p.modules = append(p.modules, indexUnit)

	var names []string
	for name := range modules {
		if name != IndexModule {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		if !moduleNamePattern.MatchString(name) || jsReserved[name] {
			return nil, &Error{Kind: InvalidContext, Module: name, Msg: "module name is not a valid identifier"}
		}
		m := &moduleUnit{name: name, ast: modules[name], scope: p.scopes.New(indexUnit.scope)}
		m.id = p.alloc(&Module{Name: name, Scope: m.scope})
		p.scopes.Declare(indexUnit.scope, name, ModuleBinding{ID: m.id, Scope: m.scope})
		p.modules = append(p.modules, m)
	}

	for _, m := range p.modules {
		if err := p.bindModule(m); err != nil {
			return nil, m.wrap(err)
		}
	}
	for _, m := range p.modules {
		if err := p.resolveModule(m); err != nil {
			return nil, m.wrap(err)
		}
	}
	for _, m := range p.modules {
		for _, e := range m.decls {
			if _, ok := e.decl.(*syntax.FunctionDecl); !ok {
				continue
			}
			if err := p.analyzeFunction(e.id); err != nil {
				return nil, m.wrap(err)
			}
		}
	}
	return p, nil
}

// Compile checks the modules and writes JavaScript to w. Nothing is written
// unless the whole compilation succeeds.
func Compile(modules map[string]*syntax.Module, w io.Writer, opts Options) error {
	p, err := Check(modules, opts)
	if err != nil {
		return err
	}
	return Generate(p, w, opts.EntryPointCall)
}

func (m *moduleUnit) wrap(err error) error {
	var cerr *Error
	if errors.As(err, &cerr) && cerr.Module == "" {
		cerr.Module = m.name
	}
	return err
}

// ParseModules parses source files keyed by module name.
func ParseModules(sources map[string][]byte) (map[string]*syntax.Module, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	slices.Sort(names)
	modules := make(map[string]*syntax.Module, len(sources))
	for _, name := range names {
		mod, err := syntax.ParseModule(sources[name])
		if err != nil {
			return nil, &ParseError{Module: name, Err: err}
		}
		modules[name] = mod
	}
	return modules, nil
}

// ParseError is a syntax error in one module.
type ParseError struct {
	Module string
	Err    error
}

func (e *ParseError) Error() string { return e.Module + ":" + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }
