package compiler

// runtimeJS is appended to every generated program. $access, $has and $is
// are the helpers the generated code reads through; $share, $own, $copy,
// $assign and $release maintain the owner tags that give structs and enums
// value semantics; the rest implement builtin functions.
//
// Owner tags: every struct or enum object carries __owner. 0 means the
// object may be referenced from several places and must be copied before
// it is mutated. Any other value is the ID of the variable that holds the
// only reference to it, through a chain of objects with the same owner.
const runtimeJS = `function $access(collection, index) {
  if (index >= collection.length) {
    throw new Error("index " + index + " is out of bounds");
  }
  return collection[index];
}

function $has(set, item) {
  return set.has(item);
}

function $is(value, tag) {
  return value.__type === tag;
}

function $owned(value) {
  return value !== null && typeof value === "object" && "__owner" in value;
}

function $share(value) {
  if ($owned(value)) {
    value.__owner = 0;
  }
  return value;
}

function $release(value) {
  for (const key of Object.keys(value)) {
    if (key !== "__owner" && $owned(value[key])) {
      value[key].__owner = 0;
    }
  }
}

function $own(value, owner) {
  if (value.__owner === owner) {
    return value;
  }
  const copy = Object.assign({}, value, {__owner: owner});
  $release(copy);
  return copy;
}

function $copy(value) {
  if (!$owned(value)) {
    return value;
  }
  const copy = Object.assign({}, value, {__owner: 0});
  $release(copy);
  return copy;
}

function $assign(target, value) {
  if (target === value) {
    return target;
  }
  for (const key of Object.keys(target)) {
    if (key !== "__owner") {
      delete target[key];
    }
  }
  for (const key of Object.keys(value)) {
    if (key !== "__owner") {
      target[key] = value[key];
    }
  }
  $release(target);
  return target;
}

function $push(vector, item) {
  return [undefined, [...vector, item]];
}

function $size_of_str(s) {
  return s.length;
}

function $size_of_vec(v) {
  return v.length;
}

function $size_of_set(s) {
  return s.size;
}

function $println(s) {
  console.log(s);
}

function $die(message) {
  throw new Error(message);
}

function $substring(s, start, end) {
  return s.substring(start, end);
}

function $to_str(value) {
  return String(value);
}

function $to_i32(value) {
  return value | 0;
}
`

// jsReserved lists names that generated code cannot use for its own
// functions and locals: JavaScript keywords and the globals the runtime uses.
var jsReserved = map[string]bool{
	"arguments": true, "await": true, "break": true, "case": true, "catch": true,
	"class": true, "const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "eval": true,
	"export": true, "extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "implements": true, "import": true, "in": true,
	"instanceof": true, "interface": true, "let": true, "new": true, "null": true,
	"package": true, "private": true, "protected": true, "public": true, "return": true,
	"static": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true,
	"Array": true, "Error": true, "Infinity": true, "Math": true, "NaN": true,
	"Object": true, "Set": true, "String": true, "console": true, "globalThis": true,
	"undefined": true,
}
