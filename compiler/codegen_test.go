package compiler

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func generate(t *testing.T, src string, entryPointCall bool) (*Program, string) {
	t.Helper()
	p, err := checkSource(t, src)
	be.Err(t, err, nil)
	var out bytes.Buffer
	be.Err(t, Generate(p, &out, entryPointCall), nil)
	return p, out.String()
}

// valueID finds the argument or local variable with the given name.
func valueID(t *testing.T, p *Program, name string) ID {
	t.Helper()
	for id, e := range p.entities {
		switch e := e.(type) {
		case *Variable:
			if e.Name == name {
				return id
			}
		case *Argument:
			if e.Name == name && !p.entities[e.Function].(*Function).Builtin {
				return id
			}
		}
	}
	t.Fatalf("no value named %q", name)
	return NoID
}

func expectContains(t *testing.T, js string, snippets ...string) {
	t.Helper()
	for _, s := range snippets {
		if !strings.Contains(js, s) {
			t.Errorf("generated code does not contain %q:\n%s", s, js)
		}
	}
}

func TestGenerateHeaderAndRuntime(t *testing.T) {
	_, js := generate(t, `fn main() {}`, false)
	be.True(t, strings.HasPrefix(js, "\"use strict\";\n// GENERATED, DO NOT EDIT\n\nfunction main() {\n}\n"))
	expectContains(t, js, "function $access(", "function $own(", "function $assign(")
	be.True(t, !strings.Contains(js, "main();"))
}

func TestGenerateEntryPointCall(t *testing.T) {
	_, js := generate(t, `fn main() {}`, true)
	be.True(t, strings.HasSuffix(js, "\nmain();\n"))

	p, err := checkSource(t, `fn start() {}`)
	be.Err(t, err, nil)
	var out bytes.Buffer
	err = Generate(p, &out, true)
	be.Equal(t, errorKind(err), UnknownName)
	be.Equal(t, out.Len(), 0)
}

func TestGenerateArithmetic(t *testing.T) {
	_, js := generate(t, `
fn add(a: u32, b: u32): u32 {
  return a + b;
}

fn mul(a: i32, b: i32): i32 {
  return a * b - -1;
}`, false)
	expectContains(t, js,
		"function add(a, b) {\n  return ((a + b) >>> 0);\n}",
		"return (((Math.imul(a, b) | 0) - (-1)) | 0);",
	)
}

func TestGenerateStatements(t *testing.T) {
	_, js := generate(t, `
fn count(n: u32): u32 {
  let i = 0;
  while (i < n) {
    if (i == 3) {
      return i;
    } else ++i;
  }
  expect i != 7;
  return i;
}`, false)
	expectContains(t, js, `function count(n) {
  let i = 0;
  while ((i < n)) {
    if ((i === 3)) {
      return i;
    } else {
      (i = ((i + 1) >>> 0));
    }
  }
  if (!((i !== 7))) throw new Error("expect() failed at line 9");
  return i;
}`)
}

func TestGenerateOwnedLiteral(t *testing.T) {
	p, js := generate(t, `
struct Inner { n: u32 }
struct Outer { inner: Inner }

fn main() {
  let o = Outer { inner: Inner { n: 1 } };
  o.inner.n = 2;
  let copy = o;
}`, false)
	id := valueID(t, p, "o")
	expectContains(t, js,
		fmt.Sprintf("let o = {inner: {n: 1, __owner: %d}, __owner: %d};", id, id),
		fmt.Sprintf("(($v) => (o = $own(o, %d), o.inner = $own(o.inner, %d), o.inner.n = $v))(2);", id, id),
		"let copy = $share(o);",
	)
}

func TestGenerateEnum(t *testing.T) {
	_, js := generate(t, optionDecl+`
fn get(o: Option): u32 {
  if (o isnt Some) return 0;
  return o.value;
}

fn none(): Option {
  return None {};
}`, false)
	expectContains(t, js,
		`if (!$is(o, "Some")) {`,
		"return o.value;",
		`return {__type: "None", __owner: 0};`,
	)
}

func TestGenerateReturnedReference(t *testing.T) {
	_, js := generate(t, `
fn bump(ref n: u32) {
  ++n;
}

fn main() {
  let x = 1;
  bump(&x);
  let v = vec<u32>[];
  v->push(x);
}`, false)
	expectContains(t, js,
		"function bump(n) {\n  (n = ((n + 1) >>> 0));\n  return [undefined, n];\n}",
		"(($r) => ((x = $r[1]), $r[0]))(bump(x));",
		"(($r) => ((v = $r[1]), $r[0]))($push(v, x));",
	)
}

func TestGenerateAliasedReference(t *testing.T) {
	p, js := generate(t, `
struct P { x: u32 }

fn reset(ref p: P, x: u32) {
  p.x = x;
  p = P { x: 0 };
}

fn main() {
  let q = P { x: 1 };
  reset(&q, q.x);
}`, false)
	q := valueID(t, p, "q")
	expectContains(t, js,
		"(p.x = x);",
		"$assign(p, {x: 0, __owner: 0});",
		fmt.Sprintf("(q = $own(q, %d), reset(q, q.x));", q),
	)
}

func TestGenerateByValueWithReference(t *testing.T) {
	p, js := generate(t, `
struct P { x: u32 }

fn swap(ref a: P, b: P) {
  a = b;
}

fn main() {
  let p = P { x: 1 };
  let q = P { x: 2 };
  swap(&p, q);
  swap(&q, p);
}`, false)
	expectContains(t, js,
		"$assign(a, $share(b));",
		fmt.Sprintf("(($a1) => (p = $own(p, %d), swap(p, $a1)))($copy(q));", valueID(t, p, "p")),
		fmt.Sprintf("(($a1) => (q = $own(q, %d), swap(q, $a1)))($copy(p));", valueID(t, p, "q")),
	)
}

func TestGenerateByValueEvaluatedBeforeOwnership(t *testing.T) {
	p, js := generate(t, `
struct P { x: u32 }

fn id(p: P): P {
  return p;
}

fn f(ref a: P, b: P) {
  a.x = 5;
}

fn main() {
  let l = P { x: 1 };
  let m = l;
  f(&l, id(l));
  f(&l, m = l);
}`, false)
	l := valueID(t, p, "l")
	expectContains(t, js,
		fmt.Sprintf("(($a1) => (l = $own(l, %d), f(l, $a1)))(id($share(l)));", l),
		fmt.Sprintf("(($a1) => (l = $own(l, %d), f(l, $a1)))($share((m = $share(l))));", l),
	)
}

func TestGenerateReservedNames(t *testing.T) {
	p, js := generate(t, `
fn delete(console: u32): u32 {
  return console;
}

fn main() {
  let x = delete(1);
}`, false)
	id := valueID(t, p, "console")
	expectContains(t, js,
		fmt.Sprintf("function delete$(console$%d) {", id),
		fmt.Sprintf("return console$%d;", id),
		"let x = delete$(1);",
	)
}

func TestGenerateOverloadNames(t *testing.T) {
	_, js := generate(t, `
fn show(n: u32): str { return to_str(n); }
fn show(b: bool): str { return to_str(b); }

fn main() {
  println(show(1) + show(true));
}`, false)
	expectContains(t, js,
		"function show(n) {",
		"function show$1(b) {",
		"$println((show(1) + show$1(true)));",
	)
}

func TestGenerateCollections(t *testing.T) {
	_, js := generate(t, `
fn main() {
  let s = set["a", "b"];
  let v = vec[1, 2];
  let ok = has(s, "a") && v[1] == 2;
}`, false)
	expectContains(t, js,
		`let s = new Set(["a", "b"]);`,
		"let v = [1, 2];",
		`let ok = ($has(s, "a") && ($access(v, 1) === 2));`,
	)
}
