package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeanlauliac/indigo-lang/compiler"
	"github.com/nalgeon/be"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
		be.Err(t, err, nil)
	}
	return dir
}

func TestModuleName(t *testing.T) {
	name, ok := moduleName("/src/pkg/geo.idg")
	be.True(t, ok)
	be.Equal(t, name, "geo")

	_, ok = moduleName("README.md")
	be.True(t, !ok)
}

func TestLoadSources(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"index.idg": "fn main() {}",
		"geo.idg":   "struct Point { x: i32 }",
		"notes.txt": "ignored",
	})

	sources, err := loadSources(dir)
	be.Err(t, err, nil)
	be.Equal(t, len(sources), 2)
	be.Equal(t, string(sources["index"]), "fn main() {}")
	be.Equal(t, string(sources["geo"]), "struct Point { x: i32 }")
}

func TestLoadSourcesEmptyDir(t *testing.T) {
	_, err := loadSources(t.TempDir())
	be.Err(t, err)
}

func TestDecodeSources(t *testing.T) {
	sources, err := decodeSources(strings.NewReader(`{"index.idg": "fn main() {}", "util.idg": ""}`))
	be.Err(t, err, nil)
	be.Equal(t, len(sources), 2)
	be.Equal(t, string(sources["index"]), "fn main() {}")

	_, err = decodeSources(strings.NewReader(`{"index.js": ""}`))
	be.Err(t, err)

	_, err = decodeSources(strings.NewReader(`[1, 2]`))
	be.Err(t, err)
}

func TestCompileSources(t *testing.T) {
	sources := map[string][]byte{
		"index": []byte("fn main() { println(\"hi\"); }"),
	}
	var out bytes.Buffer
	err := compileSources(sources, &out, compiler.Options{EntryPointCall: true})
	be.Err(t, err, nil)
	be.True(t, strings.HasSuffix(out.String(), "\nmain();\n"))
}

func TestCompileSourcesParseError(t *testing.T) {
	sources := map[string][]byte{"index": []byte("fn main( {}")}
	var out bytes.Buffer
	err := compileSources(sources, &out, compiler.Options{})
	be.Err(t, err)
	be.True(t, strings.HasPrefix(err.Error(), "index:"))
	be.Equal(t, out.Len(), 0)
}

func TestCheckSourcesMissingIndex(t *testing.T) {
	_, err := checkSources(map[string][]byte{"geo": nil}, compiler.Options{})
	be.Err(t, err)
}

func TestSessionAccumulatesDeclarations(t *testing.T) {
	s := &session{}
	be.Err(t, s.add("fn twice(n: u32): u32 { return n * 2; }"), nil)
	be.Err(t, s.add("fn main() { println(to_str(twice(21))); }"), nil)

	// A rejected entry is not kept.
	be.Err(t, s.add("fn broken() { return nope; }"))
	be.Equal(t, len(s.decls), 2)

	var out bytes.Buffer
	be.Err(t, s.generate(&out, false), nil)
	be.True(t, strings.Contains(out.String(), "function twice(n) {"))
	be.True(t, !strings.Contains(out.String(), "main();"))
}

func TestExecuteJS(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not available")
	}
	var stdout, stderr bytes.Buffer
	err := executeJS([]byte("console.log(\"ok\");\n"), &stdout, &stderr)
	be.Err(t, err, nil)
	be.Equal(t, stdout.String(), "ok\n")
}
