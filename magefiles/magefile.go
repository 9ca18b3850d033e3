//go:build mage

// Package main provides build targets for the listings store using Mage.
//
// Usage:
//
//	mage build      Compile the listings binary to bin/
//	mage test       Run every package's tests
//	mage testShort  Run tests with -short and the race detector
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install listings to GOPATH/bin
//	mage stats      Print Go line counts per package
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "listings"
	binaryDir  = "bin"
	cmdDir     = "./cmd/listings"
)

// Build compiles the listings binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	ldflags := "-X main.version=" + version()
	return sh.RunV("go", "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// version reads LISTINGS_VERSION, falling back to "dev".
func version() string {
	if v := os.Getenv("LISTINGS_VERSION"); v != "" {
		return v
	}
	return "dev"
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestShort runs tests with -short and the race detector.
func TestShort() error {
	return sh.RunV("go", "test", "-short", "-race", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Stats prints production and test line counts for each package directory.
func Stats() error {
	type counts struct{ prod, test int }
	byDir := map[string]*counts{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path == "vendor" || path == ".git" || path == binaryDir || path == "magefiles" ||
				strings.HasPrefix(path, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		dir := filepath.Dir(path)
		c, ok := byDir[dir]
		if !ok {
			c = &counts{}
			byDir[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var prod, test int
	for _, d := range dirs {
		c := byDir[d]
		fmt.Printf("%-24s %6d prod %6d test\n", d, c.prod, c.test)
		prod += c.prod
		test += c.test
	}
	fmt.Printf("%-24s %6d prod %6d test\n", "total", prod, test)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
