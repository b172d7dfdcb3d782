//go:build mage

// Package main contains Mage build targets for scholar-stats developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

// projectDirs lists the working directories the pipeline expects.
var projectDirs = []string{
	"js/data",
	".secrets",
	"var",
}

const (
	binDir  = "bin"
	binName = "scholar-stats"
	cmdPkg  = "./cmd/scholar-stats"
)

// Init creates the artifact and secrets directories.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if err := os.Chmod(".secrets", 0o700); err != nil {
		return fmt.Errorf("restricting .secrets: %w", err)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := run("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return run("go", "test", "./...")
}

// Fetch builds the CLI and runs one pipeline pass with the local config.
// Set SCHOLAR_ID (or profile_id in scholar-stats.yaml) first.
func Fetch() error {
	mg.Deps(Init, Build)
	return run(filepath.Join(binDir, binName), "fetch", "--run-log", filepath.Join("var", "runs.db"))
}

// Show prints the current artifact as YAML.
func Show() error {
	mg.Deps(Build)
	return run(filepath.Join(binDir, binName), "show", "--format", "yaml")
}

// Stats prints project metrics: Go production and test line counts.
func Stats() error {
	prod, test, err := countGoLines(".")
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", test)
	return nil
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// countGoLines counts non-blank lines in Go files under root, split into
// production and test files. Directories starting with . or _ are skipped.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if strings.TrimSpace(sc.Text()) != "" {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}
