package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/jeanlauliac/indigo-lang/syntax"
	"github.com/nalgeon/be"
)

const optionDecl = `
enum Option {
  None,
  Some { value: u32 },
}
`

func parseModules(t *testing.T, sources map[string]string) map[string]*syntax.Module {
	t.Helper()
	raw := map[string][]byte{}
	for name, src := range sources {
		raw[name] = []byte(src)
	}
	modules, err := ParseModules(raw)
	be.Err(t, err, nil)
	return modules
}

func checkSource(t *testing.T, src string) (*Program, error) {
	t.Helper()
	return Check(parseModules(t, map[string]string{IndexModule: src}), Options{})
}

func errorKind(err error) ErrorKind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return 0
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
	}{
		{"duplicate struct", `struct A { x: u32 } struct A { y: u32 }`, DuplicateName},
		{"struct shadows builtin type", `struct str { x: u32 }`, DuplicateName},
		{"function shadows builtin function", `fn println(s: str) {}`, DuplicateName},
		{"struct reuses function name", `fn f() {} struct f { x: u32 }`, DuplicateName},
		{"variant reuses struct name", `struct Some { x: u32 }` + optionDecl, DuplicateName},
		{"duplicate field", `struct A { x: u32, x: u32 }`, DuplicateName},
		{"reserved field", `struct A { __owner: u32 }`, InvalidContext},
		{"duplicate argument", `fn f(a: u32, a: u32) {}`, DuplicateName},
		{"local shadows argument", `fn f(a: u32) { let a = 1; }`, DuplicateName},
		{"local shadows function", `fn f() { let f = 1; }`, DuplicateName},
		{"local shadows outer local", `fn f() { let a = 1; { let a = 2; } }`, DuplicateName},
		{"unknown type", `fn f(a: Foo) {}`, UnknownTypeName},
		{"variant used as type", optionDecl + `fn f(a: Option.Some) {}`, UnknownTypeName},
		{"missing type parameter", `fn f(a: vec) {}`, ArityMismatch},
		{"extra type parameter", `fn f(a: u32<i32>) {}`, ArityMismatch},
		{"unknown function", `fn f() { g(); }`, UnknownName},
		{"unknown variable", `fn f() { let x = y; }`, UnknownName},
		{"unknown module member", `fn f() { let x = Option.Maybe {}; }` + optionDecl, UnknownTypeName},
		{"wrong return type", `fn f(): u32 { return true; }`, TypeMismatch},
		{"missing return value", `fn f(): u32 { return; }`, TypeMismatch},
		{"return value from void function", `fn f() { return 1; }`, TypeMismatch},
		{"mismatched operands", `fn f() { let x = 1 + true; }`, TypeMismatch},
		{"mixed signedness", `fn f() { let x = 1 + -1; }`, TypeMismatch},
		{"struct equality", `struct P { x: u32 } fn f(a: P, b: P): bool { return a == b; }`, TypeMismatch},
		{"condition is not bool", `fn f() { if (1) {} }`, TypeMismatch},
		{"literal too large", `fn f() { let x = 4294967296; }`, TypeMismatch},
		{"negative literal too small", `fn f() { let x = -2147483649; }`, TypeMismatch},
		{"void value", `fn g() {} fn f() { let x = g(); }`, TypeMismatch},
		{"empty literal without type", `fn f() { let v = vec[]; }`, TypeMismatch},
		{"mixed collection items", `fn f() { let v = vec[1, "a"]; }`, TypeMismatch},
		{"assign wrong type", `fn f() { let x = 1; x = "a"; }`, TypeMismatch},
		{"index with non-number", `fn f(v: vec<u32>): u32 { return v["a"]; }`, TypeMismatch},
		{"identity test on struct", `struct P { x: u32 } fn f(p: P): bool { return p is P; }`, TypeMismatch},
		{"unsettled return type", `fn make<T>(): vec<T> { return vec<T>[]; } fn f() { let v = make(); }`, TypeMismatch},
		{"no overload for type", `fn f() { size_of(true); }`, NoMatchingOverload},
		{"no overload for arity", `fn f() { size_of("a", "b"); }`, NoMatchingOverload},
		{"no overload for ref flag", `fn g(ref a: u32) {} fn f() { let x = 1; g(x); }`, NoMatchingOverload},
		{"inconsistent type parameter", `fn pair<T>(a: T, b: T) {} fn f() { pair(1, "a"); }`, NoMatchingOverload},
		{"ambiguous overload", `fn g<T>(a: T) {} fn g(a: u32) {} fn f() { g(1); }`, AmbiguousOverload},
		{"construct builtin", `fn f() { let x = u32 {}; }`, InvalidConstructor},
		{"construct enum", optionDecl + `fn f() { let x = Option {}; }`, InvalidConstructor},
		{"unknown literal field", `struct P { x: u32 } fn f() { let p = P { x: 1, y: 2 }; }`, InvalidFieldAccess},
		{"unknown field read", `struct P { x: u32 } fn f(p: P): u32 { return p.z; }`, InvalidFieldAccess},
		{"field of number", `fn f(n: u32): u32 { return n.x; }`, InvalidFieldAccess},
		{"missing literal field", `struct P { x: u32 } fn f() { let p = P {}; }`, MissingOrExtraFields},
		{"repeated literal field", `struct P { x: u32 } fn f() { let p = P { x: 1, x: 2 }; }`, MissingOrExtraFields},
		{"unrefined enum field", optionDecl + `fn f(o: Option): u32 { return o.value; }`, AmbiguousOrUnrefinedAccess},
		{"let in unbraced branch", `fn f() { if (true) let x = 1; }`, InvalidContext},
		{"reference to temporary", `fn f() { push(&vec<u32>[], 1); }`, InvalidContext},
		{"bare variant as value", optionDecl + `fn f() { let x = None; }`, InvalidContext},
		{"call a value", `fn f(a: u32) { a(); }`, InvalidContext},
		{"assign to literal", `fn f() { 1 = 2; }`, InvalidContext},
		{"increment literal", `fn f() { ++1; }`, InvalidContext},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := checkSource(t, test.src)
			be.Err(t, err)
			be.Equal(t, errorKind(err), test.kind)
		})
	}
}

func TestCheckErrorMessage(t *testing.T) {
	_, err := checkSource(t, `fn f() { g(); }`)
	be.Equal(t, err.Error(), `index:1:10: UnknownName: unknown name "g"`)
}

func TestCheckMissingIndexModule(t *testing.T) {
	_, err := Check(parseModules(t, map[string]string{"other": `fn f() {}`}), Options{})
	be.Equal(t, errorKind(err), InvalidContext)
}

func TestCheckInvalidModuleName(t *testing.T) {
	_, err := Check(parseModules(t, map[string]string{
		IndexModule: `fn main() {}`,
		"my-mod":    `fn f() {}`,
	}), Options{})
	be.Equal(t, errorKind(err), InvalidContext)
}

func TestCheckSubmodules(t *testing.T) {
	p, err := Check(parseModules(t, map[string]string{
		IndexModule: `
fn main() {
  let p = geo.origin();
  let q = geo.Point { x: 1 };
  let d = geo.dist(p, q);
}`,
		"geo": `
struct Point { x: u32 }

fn origin(): Point {
  return Point { x: 0 };
}

fn dist(a: Point, b: Point): u32 {
  return b.x - a.x;
}`,
	}), Options{})
	be.Err(t, err, nil)

	var names []string
	for _, fn := range p.Functions() {
		names = append(names, fn.JSName)
	}
	be.Equal(t, names, []string{"main", "geo$origin", "geo$dist"})
}

func TestCheckSubmoduleShadowsIndex(t *testing.T) {
	_, err := Check(parseModules(t, map[string]string{
		IndexModule: `fn helper() {}`,
		"util":      `fn helper() {}`,
	}), Options{})
	be.Equal(t, errorKind(err), DuplicateName)
	var cerr *Error
	be.True(t, errors.As(err, &cerr))
	be.Equal(t, cerr.Module, "util")
}

func TestCheckIndexReusesModuleName(t *testing.T) {
	_, err := Check(parseModules(t, map[string]string{
		IndexModule: `struct geo { x: u32 }`,
		"geo":       `fn f() {}`,
	}), Options{})
	be.Equal(t, errorKind(err), DuplicateName)
}

func TestRefinementNarrowing(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind // 0 when the program checks
	}{
		{"guarded by is", `
fn get(o: Option): u32 {
  if (o is Some) {
    return o.value;
  }
  return 0;
}`, 0},
		{"qualified variant", `
fn get(o: Option): u32 {
  if (o is Option.Some) {
    return o.value;
  }
  return 0;
}`, 0},
		{"outside the guard", `
fn get(o: Option): u32 {
  if (o is Some) {
    let a = 1;
  }
  return o.value;
}`, AmbiguousOrUnrefinedAccess},
		{"after a returning guard", `
fn get(o: Option): u32 {
  if (o is Some) {
    return 1;
  }
  return o.value;
}`, InvalidFieldAccess},
		{"early return on isnt", `
fn get(o: Option): u32 {
  if (o isnt Some) return 0;
  return o.value;
}`, 0},
		{"else branch of isnt", `
fn get(o: Option): u32 {
  if (o isnt Some) {
    return 0;
  } else {
    return o.value;
  }
}`, 0},
		{"negated test", `
fn get(o: Option): u32 {
  if (!(o is Some)) return 0;
  return o.value;
}`, 0},
		{"right of and", `
fn big(o: Option): bool {
  return o is Some && o.value > 10;
}`, 0},
		{"right of or", `
fn small(o: Option): bool {
  return o isnt Some || o.value < 10;
}`, 0},
		{"after failed or", `
fn get(o: Option): u32 {
  if (o isnt Some || o.value == 0) {
    return 0;
  }
  return o.value;
}`, 0},
		{"after or without exit", `
fn get(o: Option, p: Option): u32 {
  if (o is Some || p is Some) {
    return o.value;
  }
  return 0;
}`, AmbiguousOrUnrefinedAccess},
		{"expect narrows", `
fn get(o: Option): u32 {
  expect o is Some;
  return o.value;
}`, 0},
		{"literal narrows local", `
fn get(): u32 {
  let o = Option.Some { value: 3 };
  return o.value;
}`, 0},
		{"wrong variant field", `
fn get(): u32 {
  let o = None {};
  return o.value;
}`, InvalidFieldAccess},
		{"assignment forgets", `
fn get(o: Option, p: Option): u32 {
  if (o is Some) {
    o = p;
    return o.value;
  }
  return 0;
}`, AmbiguousOrUnrefinedAccess},
		{"assignment records", `
fn get(o: Option): u32 {
  o = Some { value: 2 };
  return o.value;
}`, 0},
		{"reference argument forgets", `
fn reset(ref o: Option) {
  o = None {};
}

fn get(o: Option): u32 {
  if (o is Some) {
    reset(&o);
    return o.value;
  }
  return 0;
}`, AmbiguousOrUnrefinedAccess},
		{"both branches narrow", `
fn get(o: Option, c: bool): u32 {
  if (c) {
    o = Some { value: 1 };
  } else {
    o = Some { value: 2 };
  }
  return o.value;
}`, 0},
		{"one branch narrows", `
fn get(o: Option, c: bool): u32 {
  if (c) {
    o = Some { value: 1 };
  }
  return o.value;
}`, AmbiguousOrUnrefinedAccess},
		{"loop keeps unwritten facts", `
fn get(o: Option): u32 {
  if (o isnt Some) return 0;
  let n = 0;
  while (n < 3) {
    ++n;
  }
  return o.value;
}`, 0},
		{"loop drops written facts", `
fn get(o: Option, p: Option): u32 {
  if (o isnt Some) return 0;
  let n = 0;
  while (n < 3) {
    o = p;
    ++n;
  }
  return o.value;
}`, AmbiguousOrUnrefinedAccess},
		{"loop forgets facts it rewrites", `
fn get(o: Option, c: bool): u32 {
  if (o isnt Some) return 0;
  while (c) {
    o = Some { value: 1 };
  }
  return o.value;
}`, AmbiguousOrUnrefinedAccess},
		{"loop condition narrows body and exit", `
fn get(o: Option): u32 {
  while (o is Some) {
    let v = o.value;
    o = None {};
  }
  return 0;
}`, 0},
		{"nested path", `
struct Box { inner: Option }

fn get(b: Box): u32 {
  if (b.inner is Some) {
    return b.inner.value;
  }
  return 0;
}`, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := checkSource(t, optionDecl+test.src)
			if test.kind == 0 {
				be.Err(t, err, nil)
				return
			}
			be.Equal(t, errorKind(err), test.kind)
		})
	}
}

func TestOverloadResolution(t *testing.T) {
	p, err := checkSource(t, `
fn g(ref a: u32) {}
fn g(a: u32) {}

fn first<T>(v: vec<T>): T {
  return v[0];
}

fn f(): str {
  let s = "ab";
  let v = vec[1, 2];
  let n = size_of(s) + size_of(v);
  g(&n);
  g(n);
  return first(vec["a"]);
}`)
	be.Err(t, err, nil)

	id, ok := p.FunctionID("f")
	be.True(t, ok)
	dump := p.FunctionString(p.Entity(id).(*Function))
	be.Equal(t, dump, `(fn f (let s "ab") (let v (vec<u32> 1 2)) `+
		`(let n (+ (call $size_of_str s) (call $size_of_vec v))) `+
		`(call g (ref n)) (call g$1 n) (return (call first (vec<str> "a"))))`)
}

func TestDump(t *testing.T) {
	p, err := checkSource(t, optionDecl+`
struct P { x: i32 }

fn main() {
  let p = P { x: -1 };
  let o = Some { value: 2 };
  if (o is Some) p.x = p.x * -2;
  while (false) {}
  expect !(o isnt Some);
  ++p.x;
  println(to_str('c'));
}`)
	be.Err(t, err, nil)
	be.Equal(t, p.Dump(), `(fn main (let p (new P (x -1))) (let o (new Option.Some (value 2))) `+
		`(if (is o Some) (= p.x (* p.x -2))) (while false (block)) (expect (! (isnt o Some))) `+
		`(++ p.x) (call $println (call $to_str 'c')))`+"\n")
}

func TestCheckLogs(t *testing.T) {
	var out bytes.Buffer
	_, err := Check(parseModules(t, map[string]string{IndexModule: `fn main() {}`}), Options{
		Logger: log.New(&out, "", 0),
	})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(out.String(), "bound 1 declarations in module index"))
	be.True(t, strings.Contains(out.String(), "analyzed function main (0 statements)"))
}

func TestErrorKindNames(t *testing.T) {
	for k := DuplicateName; k <= InvalidContext; k++ {
		parsed, ok := ParseErrorKind(k.String())
		be.True(t, ok)
		be.Equal(t, parsed, k)
	}
	_, ok := ParseErrorKind("Bogus")
	be.True(t, !ok)
	be.Equal(t, ErrorKind(99).String(), fmt.Sprintf("ErrorKind(%d)", 99))
}
