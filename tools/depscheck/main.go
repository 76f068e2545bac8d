package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// rule forbids packages matching pattern from importing any prefix in deny.
type rule struct {
	pattern string
	deny    []string
}

// The walk and world packages stay independent of the demo host so they can
// be embedded by other hosts.
var rules = []rule{
	{pattern: "./internal/walk/...", deny: []string{"navwalk/internal/sim", "navwalk/internal/net", "navwalk/internal/app"}},
	{pattern: "./internal/world/...", deny: []string{"navwalk/internal/", "navwalk/logging"}},
}

func main() {
	var violations []string
	for _, r := range rules {
		pkgs, err := listPackages(r.pattern)
		if err != nil {
			fmt.Fprintf(os.Stderr, "depscheck: %v\n", err)
			os.Exit(1)
		}
		violations = append(violations, findViolations(pkgs, r.deny)...)
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func listPackages(pattern string) ([]packageInfo, error) {
	cmd := exec.Command("go", "list", "-json", pattern)
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return decodePackages(output)
}

func decodePackages(output []byte) ([]packageInfo, error) {
	decoder := json.NewDecoder(bytes.NewReader(output))
	var pkgs []packageInfo
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				return pkgs, nil
			}
			return nil, fmt.Errorf("failed to decode package info: %w", err)
		}
		pkgs = append(pkgs, pkg)
	}
}

func findViolations(pkgs []packageInfo, deny []string) []string {
	var violations []string
	for _, pkg := range pkgs {
		for _, imp := range pkg.Imports {
			for _, prefix := range deny {
				if strings.HasPrefix(imp, prefix) {
					violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					break
				}
			}
		}
	}
	return violations
}
