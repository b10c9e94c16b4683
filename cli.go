package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jeanlauliac/indigo-lang/compiler"
	"github.com/jeanlauliac/indigo-lang/syntax"
	"github.com/peterh/liner"
)

const sourceExt = ".idg"

func showUsage() {
	fmt.Fprintf(os.Stderr, "Indigo compiler\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  indigo build [-o out.js] [-json] [-v] <dir>  Compile a package to JavaScript\n")
	fmt.Fprintf(os.Stderr, "  indigo run [-v] <dir>                        Compile and run a package with node\n")
	fmt.Fprintf(os.Stderr, "  indigo check [-v] <dir>                      Type-check a package\n")
	fmt.Fprintf(os.Stderr, "  indigo repl                                  Start an interactive session\n")
	fmt.Fprintf(os.Stderr, "  indigo help                                  Show this help\n\n")
	fmt.Fprintf(os.Stderr, "A package is a directory of %s files. index%s is the entry module.\n", sourceExt, sourceExt)
}

func verboseLogger(verbose bool) *log.Logger {
	if !verbose {
		return nil
	}
	return log.New(os.Stderr, "indigo: ", 0)
}

// moduleName maps a source file name to its module name.
func moduleName(file string) (string, bool) {
	base := filepath.Base(file)
	if filepath.Ext(base) != sourceExt {
		return "", false
	}
	return strings.TrimSuffix(base, sourceExt), true
}

// loadSources reads every source file of a package directory.
func loadSources(dir string) (map[string][]byte, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+sourceExt))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s", sourceExt, dir)
	}
	sources := make(map[string][]byte, len(files))
	for _, file := range files {
		name, _ := moduleName(file)
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", file, err)
		}
		sources[name] = src
	}
	return sources, nil
}

// decodeSources reads a JSON object mapping file names to source text.
func decodeSources(r io.Reader) (map[string][]byte, error) {
	var tree map[string]string
	if err := json.NewDecoder(r).Decode(&tree); err != nil {
		return nil, fmt.Errorf("decoding source tree: %w", err)
	}
	sources := make(map[string][]byte, len(tree))
	for file, src := range tree {
		name, ok := moduleName(file)
		if !ok {
			return nil, fmt.Errorf("unexpected file %q in source tree", file)
		}
		sources[name] = []byte(src)
	}
	return sources, nil
}

func compileSources(sources map[string][]byte, w io.Writer, opts compiler.Options) error {
	modules, err := compiler.ParseModules(sources)
	if err != nil {
		return err
	}
	return compiler.Compile(modules, w, opts)
}

func checkSources(sources map[string][]byte, opts compiler.Options) (*compiler.Program, error) {
	modules, err := compiler.ParseModules(sources)
	if err != nil {
		return nil, err
	}
	return compiler.Check(modules, opts)
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	outputFile := fs.String("o", "", "Output JavaScript file (default: stdout)")
	fromJSON := fs.Bool("json", false, "Read a {\"file.idg\": \"source\"} object from stdin")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: indigo build [-o out.js] [-json] [-v] <dir>\n")
		fmt.Fprintf(os.Stderr, "Compile a package to JavaScript\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	var sources map[string][]byte
	var err error
	if *fromJSON {
		if fs.NArg() != 0 {
			fmt.Fprintf(os.Stderr, "Error: -json takes no directory argument\n")
			fs.Usage()
			os.Exit(1)
		}
		sources, err = decodeSources(os.Stdin)
	} else {
		if fs.NArg() != 1 {
			fmt.Fprintf(os.Stderr, "Error: expected exactly one directory argument\n")
			fs.Usage()
			os.Exit(1)
		}
		sources, err = loadSources(fs.Arg(0))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var out bytes.Buffer
	opts := compiler.Options{Logger: verboseLogger(*verbose)}
	if err := compileSources(sources, &out, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFile == "" {
		os.Stdout.Write(out.Bytes())
		return
	}
	if err := os.WriteFile(*outputFile, out.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file %s: %v\n", *outputFile, err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Generated %s (%d bytes)\n", *outputFile, out.Len())
	}
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: indigo run [-v] <dir>\n")
		fmt.Fprintf(os.Stderr, "Compile a package and run its main function with node\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one directory argument\n")
		fs.Usage()
		os.Exit(1)
	}

	sources, err := loadSources(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var out bytes.Buffer
	opts := compiler.Options{EntryPointCall: true, Logger: verboseLogger(*verbose)}
	if err := compileSources(sources, &out, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	if err := executeJS(out.Bytes(), os.Stdout, os.Stderr); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
		os.Exit(1)
	}
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose checking details and the typed tree")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: indigo check [-v] <dir>\n")
		fmt.Fprintf(os.Stderr, "Parse and type-check a package\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one directory argument\n")
		fs.Usage()
		os.Exit(1)
	}

	dir := fs.Arg(0)
	sources, err := loadSources(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p, err := checkSources(sources, compiler.Options{Logger: verboseLogger(*verbose)})
	if err != nil {
		fmt.Printf("Errors in %s:\n%v\n", dir, err)
		os.Exit(1)
	}

	fmt.Printf("%s: no errors found\n", dir)

	if *verbose {
		fmt.Print(p.Dump())
	}
}

// executeJS runs a generated program with node.
func executeJS(js []byte, stdout, stderr io.Writer) error {
	nodeBinary, err := exec.LookPath("node")
	if err != nil {
		return fmt.Errorf("node not found: %w", err)
	}

	dir, err := os.MkdirTemp("", "indigo")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "main.js")
	if err := os.WriteFile(file, js, 0644); err != nil {
		return err
	}

	cmd := exec.Command(nodeBinary, file)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

const (
	promptMain = "indigo> "
	promptCont = "   ...> "
)

// session holds the declarations accepted so far in the REPL.
type session struct {
	decls []string
}

func (s *session) source(extra string) []byte {
	return []byte(strings.Join(append(s.decls[:len(s.decls):len(s.decls)], extra), "\n"))
}

// add type-checks the declarations together with the ones already accepted
// and keeps them on success.
func (s *session) add(code string) error {
	sources := map[string][]byte{compiler.IndexModule: s.source(code)}
	if _, err := checkSources(sources, compiler.Options{}); err != nil {
		return err
	}
	s.decls = append(s.decls, code)
	return nil
}

func (s *session) generate(w io.Writer, entryPointCall bool) error {
	sources := map[string][]byte{compiler.IndexModule: s.source("")}
	return compileSources(sources, w, compiler.Options{EntryPointCall: entryPointCall})
}

func replCommand(args []string) {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: indigo repl\n")
		fmt.Fprintf(os.Stderr, "Enter declarations one at a time; :js shows the generated code, :run calls main, :quit exits\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	s := &session{}
	for {
		code, ok := readDeclarations(ln)
		if !ok {
			fmt.Println()
			return
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		switch trimmed {
		case ":quit":
			return
		case ":js":
			if err := s.generate(os.Stdout, false); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		case ":run":
			var out bytes.Buffer
			if err := s.generate(&out, true); err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if err := executeJS(out.Bytes(), os.Stdout, os.Stderr); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			fmt.Println("unknown command. Type :js, :run or :quit.")
			continue
		}

		if err := s.add(code); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// readDeclarations reads lines until they form a complete parse or a
// syntax error that more input cannot fix.
func readDeclarations(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, err := syntax.ParseModule([]byte(src)); syntax.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}
