// Package codestyle_test enforces layout and naming rules over every
// non-test Go source file of the module.
package codestyle_test

import (
	"bufio"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"unicode"
	"unicode/utf8"
)

// generatedMarkerLines is how many leading lines are searched for the generated-code marker.
const generatedMarkerLines = 20

// maxInterfaceMethods is the largest method set an interface may declare.
const maxInterfaceMethods = 5

// sourceFile is one parsed non-test source file.
type sourceFile struct {
	rel  string // path relative to the module root.
	file *ast.File
}

// moduleSources parses the module once for all tests.
var moduleSources = sync.OnceValues(func() ([]sourceFile, error) {
	root, err := moduleRoot()
	if err != nil {
		return nil, err
	}

	return parseSources(root)
})

func sources(t *testing.T) []sourceFile {
	t.Helper()

	files, err := moduleSources()
	if err != nil {
		t.Fatalf("load module sources: %v", err)
	}

	if len(files) == 0 {
		t.Fatal("no Go sources found under the module root")
	}

	return files
}

// moduleRoot walks up from the working directory to the directory holding go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	for {
		_, statErr := os.Stat(filepath.Join(dir, "go.mod"))
		if statErr == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod above %s", dir)
		}

		dir = parent
	}
}

// skipDir reports directories the go tool would not build: vendor, testdata
// and anything starting with "_" or ".".
func skipDir(name string) bool {
	if len(name) > 1 && (name[0] == '_' || name[0] == '.') {
		return true
	}

	return name == "vendor" || name == "testdata"
}

func parseSources(root string) ([]sourceFile, error) {
	var files []sourceFile

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			if path != root && skipDir(entry.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") || isGenerated(path) {
			return nil
		}

		parsed, parseErr := parser.ParseFile(token.NewFileSet(), path, nil, parser.SkipObjectResolution)
		if parseErr != nil {
			return fmt.Errorf("parse %s: %w", path, parseErr)
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("relative path of %s: %w", path, relErr)
		}

		files = append(files, sourceFile{rel: rel, file: parsed})

		return nil
	})

	return files, err
}

// isGenerated reports whether a file carries the standard generated-code marker.
func isGenerated(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for line := 0; line < generatedMarkerLines && scanner.Scan(); line++ {
		text := scanner.Text()
		if strings.Contains(text, "Code generated") && strings.Contains(text, "DO NOT EDIT") {
			return true
		}
	}

	return false
}

// eachTypeSpec calls fn for every top-level type declaration of f.
func eachTypeSpec(f *ast.File, fn func(*ast.TypeSpec)) {
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}

		for _, spec := range gen.Specs {
			if typeSpec, isType := spec.(*ast.TypeSpec); isType {
				fn(typeSpec)
			}
		}
	}
}

// eachPackageVar calls fn for every top-level var name with its initializer, if any.
func eachPackageVar(f *ast.File, fn func(name *ast.Ident, value ast.Expr)) {
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}

		for _, spec := range gen.Specs {
			valueSpec, isValue := spec.(*ast.ValueSpec)
			if !isValue {
				continue
			}

			for i, name := range valueSpec.Names {
				var value ast.Expr
				if i < len(valueSpec.Values) {
					value = valueSpec.Values[i]
				}

				fn(name, value)
			}
		}
	}
}

func reportViolations(t *testing.T, kind string, violations []string) {
	t.Helper()

	if len(violations) == 0 {
		return
	}

	sort.Strings(violations)
	t.Errorf("found %d %s:\n\n%s", len(violations), kind, strings.Join(violations, "\n\n"))
}

// bannedFilenames maps grab-bag file names to where their contents belong.
var bannedFilenames = map[string]string{
	"types.go":     "Move each type next to the code that uses it, e.g. Stats beside the walk computing it.",
	"utils.go":     "Move each function to the file owning its concern, or into a focused package like pkg/safeconv.",
	"helpers.go":   "Move each helper to its concern: rotation helpers in rotate.go, color helpers in tree.go.",
	"common.go":    "Move each symbol to the file that owns the concept it describes.",
	"constants.go": "Move each constant to the file where it is primarily used.",
	"errors.go":    "Move each sentinel beside the function returning it, e.g. ErrInvalidSink beside Render.",
}

func TestNoBannedFilenames(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sources(t) {
		if fix, banned := bannedFilenames[filepath.Base(src.rel)]; banned {
			violations = append(violations, fmt.Sprintf("VIOLATION: %s is a grab-bag file.\n  Fix: %s", src.rel, fix))
		}
	}

	reportViolations(t, "banned filename(s)", violations)
}

// TestNoFatInterfaces keeps interfaces small: "the bigger the interface, the weaker the abstraction".
func TestNoFatInterfaces(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sources(t) {
		eachTypeSpec(src.file, func(spec *ast.TypeSpec) {
			iface, ok := spec.Type.(*ast.InterfaceType)
			if !ok {
				return
			}

			methods := 0

			for _, field := range iface.Methods.List {
				if _, isFunc := field.Type.(*ast.FuncType); isFunc {
					methods++
				}
			}

			if methods > maxInterfaceMethods {
				violations = append(violations, fmt.Sprintf(
					"VIOLATION: interface %s in %s has %d methods (max %d).\n"+
						"  Fix: split it into smaller interfaces and compose them by embedding.",
					spec.Name.Name, src.rel, methods, maxInterfaceMethods))
			}
		})
	}

	reportViolations(t, "fat interface(s)", violations)
}

// grabBagPackages lists package names that say nothing about their contents.
var grabBagPackages = map[string]bool{
	"util": true, "utils": true, "misc": true, "shared": true, "base": true, "generic": true, "helpers": true,
}

func TestNoGrabBagPackages(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	var violations []string

	for _, src := range sources(t) {
		dir := filepath.Dir(src.rel)
		name := src.file.Name.Name

		if seen[dir] || !grabBagPackages[name] {
			continue
		}

		seen[dir] = true

		violations = append(violations, fmt.Sprintf(
			"VIOLATION: package %s at %s has a generic name.\n"+
				"  Fix: name the package after what it provides, as in safeconv or observability.", name, dir))
	}

	reportViolations(t, "grab-bag package(s)", violations)
}

// stutters reports whether an exported name repeats its package name at a
// word boundary, and returns the name without the repetition:
//
//	rbtree.RbtreeNode   → "Node", true
//	config.ConfigLoader → "Loader", true
//	version.Versioned   → "", false
//	config.Config       → "", false
func stutters(pkgName, exported string) (string, bool) {
	first, size := utf8.DecodeRuneInString(pkgName)
	titled := string(unicode.ToUpper(first)) + pkgName[size:]

	rest, found := strings.CutPrefix(exported, titled)
	if !found || rest == "" {
		return "", false
	}

	next, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(next) && !unicode.IsDigit(next) {
		return "", false
	}

	return rest, true
}

func TestStutters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pkg, name, trimmed string
		stutter            bool
	}{
		{"rbtree", "RbtreeNode", "Node", true},
		{"config", "ConfigLoader", "Loader", true},
		{"observability", "Observability2", "2", true},
		{"version", "Versioned", "", false},
		{"config", "Config", "", false},
		{"rbtree", "Tree", "", false},
	}

	for _, tc := range tests {
		trimmed, stutter := stutters(tc.pkg, tc.name)

		if trimmed != tc.trimmed || stutter != tc.stutter {
			t.Errorf("stutters(%q, %q) = %q, %v; want %q, %v",
				tc.pkg, tc.name, trimmed, stutter, tc.trimmed, tc.stutter)
		}
	}
}

func TestNoStutteringExports(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sources(t) {
		pkg := src.file.Name.Name

		eachTypeSpec(src.file, func(spec *ast.TypeSpec) {
			name := spec.Name.Name
			if !ast.IsExported(name) {
				return
			}

			if trimmed, stutter := stutters(pkg, name); stutter {
				violations = append(violations, fmt.Sprintf(
					"VIOLATION: %s.%s in %s repeats the package name.\n  Fix: rename it to %s.%s.",
					pkg, name, src.rel, pkg, trimmed))
			}
		})
	}

	reportViolations(t, "stuttering export(s)", violations)
}

// isErrorsNew reports whether expr is a call to errors.New with a string literal.
func isErrorsNew(expr ast.Expr) (string, bool) {
	call, ok := expr.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return "", false
	}

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "New" {
		return "", false
	}

	pkg, ok := sel.X.(*ast.Ident)
	if !ok || pkg.Name != "errors" {
		return "", false
	}

	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}

	text, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}

	return text, true
}

// TestSentinelErrors checks package-level errors.New values: the name starts
// with Err (err when unexported) and the message is lowercase without
// trailing punctuation, so it reads well when wrapped with %w.
func TestSentinelErrors(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sources(t) {
		eachPackageVar(src.file, func(name *ast.Ident, value ast.Expr) {
			msg, ok := isErrorsNew(value)
			if !ok || name.Name == "_" {
				return
			}

			if !strings.HasPrefix(name.Name, "Err") && !strings.HasPrefix(name.Name, "err") {
				violations = append(violations, fmt.Sprintf(
					"VIOLATION: sentinel %s in %s is not prefixed with Err.", name.Name, src.rel))
			}

			first, _ := utf8.DecodeRuneInString(msg)
			if msg == "" || unicode.IsUpper(first) || strings.HasSuffix(msg, ".") || strings.HasSuffix(msg, "\n") {
				violations = append(violations, fmt.Sprintf(
					"VIOLATION: sentinel %s in %s has message %q.\n"+
						"  Fix: start lowercase and drop trailing punctuation.", name.Name, src.rel, msg))
			}
		})
	}

	reportViolations(t, "sentinel error problem(s)", violations)
}
