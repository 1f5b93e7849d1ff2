// Copyright 2025 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package library

import (
	"cmp"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// sqlFunctionCapture captures the library symbol name out of a
// CREATE FUNCTION ... LANGUAGE C statement. The symbol defaults to the SQL
// function name when the AS clause does not spell one out.
var sqlFunctionCapture = regexp.MustCompile(`(?is)create\s+(?:or\s+replace\s+)?function\s+(.*?)\s*\(.*?\)\s+(?:.*?language c.*?as\s+'.*?'\s*,\s*'(.*?)'.*?;|.*?as\s+'.*?'\s*,\s*'(.*?)'.*?language c.*?;|.*?language c.*?;)`)

// createFunctionStart finds the beginning of a CREATE FUNCTION statement.
var createFunctionStart = regexp.MustCompile(`(?is)create\s+(?:or\s+replace\s+)?function`)

// Extension describes the on-disk files of one installed extension: its
// control file, its version-ordered SQL scripts, and the shared library they
// reference.
type Extension struct {
	Name        string
	ControlFile string   // absolute path
	SQLFiles    []string // absolute paths, in application order
	LibraryFile string   // absolute path, empty when the extension is SQL-only
}

// DefaultInstallDirectory locates the local Postgres installation, first via
// the PGINSTALL environment variable and then by asking pg_config.
func DefaultInstallDirectory() (string, error) {
	if dir := os.Getenv("PGINSTALL"); dir != "" {
		return dir, nil
	}
	out, err := exec.Command("pg_config", "--bindir").Output()
	if err != nil {
		return "", fmt.Errorf("cannot locate a Postgres installation: set PGINSTALL or install pg_config: %w", err)
	}
	return filepath.Dir(strings.TrimSpace(string(out))), nil
}

// Discover scans a Postgres installation for extensions, keyed by extension
// name. An extension exists when a control file does; SQL scripts and the
// shared library are associated by the standard naming conventions.
func Discover(installDir string) (map[string]*Extension, error) {
	libDir := filepath.Join(installDir, "lib")
	extDir := filepath.Join(installDir, "share", "extension")
	extEntries, err := os.ReadDir(extDir)
	if err != nil {
		return nil, err
	}
	libEntries, err := os.ReadDir(libDir)
	if err != nil {
		return nil, err
	}

	extensions := make(map[string]*Extension)
	for _, entry := range extEntries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".control") {
			continue
		}
		extName := strings.TrimSuffix(name, ".control")
		extensions[extName] = &Extension{
			Name:        extName,
			ControlFile: filepath.Join(extDir, name),
		}
	}
	for _, ext := range extensions {
		for _, entry := range extEntries {
			name := entry.Name()
			if !entry.IsDir() && strings.HasPrefix(name, ext.Name+"--") && strings.HasSuffix(name, ".sql") {
				ext.SQLFiles = append(ext.SQLFiles, filepath.Join(extDir, name))
			}
		}
		for _, entry := range libEntries {
			name := entry.Name()
			if !entry.IsDir() && strings.HasPrefix(name, ext.Name+".") {
				ext.LibraryFile = filepath.Join(libDir, name)
			}
		}
		orderSQLFiles(ext)
	}
	Logger().Debug("discovered extensions", zap.String("dir", installDir), zap.Int("count", len(extensions)))
	return extensions, nil
}

// orderSQLFiles sorts an extension's SQL scripts into application order and
// drops leading upgrade scripts that have no base script to apply against.
func orderSQLFiles(ext *Extension) {
	slices.SortFunc(ext.SQLFiles, func(aPath, bPath string) int {
		a := sqlFileVersions(ext.Name, filepath.Base(aPath))
		b := sqlFileVersions(ext.Name, filepath.Base(bPath))
		return cmp.Or(
			cmp.Compare(a[0], b[0]),
			cmp.Compare(a[1], b[1]),
		)
	})
	// A base installation script has a single version in its name; upgrade
	// scripts have two. Everything before the last base script is an upgrade
	// path from a version we never installed.
	for i := len(ext.SQLFiles) - 1; i >= 0; i-- {
		if strings.Count(filepath.Base(ext.SQLFiles[i]), "--") == 1 {
			ext.SQLFiles = ext.SQLFiles[i:]
			break
		}
	}
}

// Control returns the contents of the extension's control file.
func (ext *Extension) Control() (string, error) {
	data, err := os.ReadFile(ext.ControlFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SQL returns the contents of the extension's SQL scripts, in the order they
// need to be executed.
func (ext *Extension) SQL() ([]string, error) {
	scripts := make([]string, len(ext.SQLFiles))
	for i, path := range ext.SQLFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		scripts[i] = string(data)
	}
	return scripts, nil
}

// FunctionNames returns the sorted, deduplicated library symbol names that
// the extension's SQL scripts declare with LANGUAGE C.
func (ext *Extension) FunctionNames() ([]string, error) {
	names := make(map[string]struct{})
	for _, path := range ext.SQLFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err = captureFunctionNames(string(data), names); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	slices.Sort(sorted)
	return sorted, nil
}

// captureFunctionNames adds every LANGUAGE C symbol declared in one SQL
// script to names.
func captureFunctionNames(script string, names map[string]struct{}) error {
	remaining := script
	for {
		// Advance to the next CREATE FUNCTION, if any.
		startIdx := createFunctionStart.FindStringIndex(remaining)
		if startIdx == nil {
			return nil
		}
		remaining = remaining[startIdx[0]:]
		// Capture through the ending semicolon so the regex cannot match
		// past the statement's boundary.
		endIdx := strings.IndexRune(remaining, ';')
		if endIdx == -1 {
			return nil
		}
		matches := sqlFunctionCapture.FindStringSubmatch(remaining[:endIdx+1])
		switch len(matches) {
		case 0:
			// Not a C function; skip it.
		case 4:
			if len(matches[2]) > 0 {
				names[matches[2]] = struct{}{}
			} else if len(matches[3]) > 0 {
				names[matches[3]] = struct{}{}
			} else {
				names[matches[1]] = struct{}{}
			}
		default:
			return fmt.Errorf("invalid CREATE FUNCTION statement: %s", remaining[:endIdx+1])
		}
		// Nudge forward so the next search grabs the next statement.
		remaining = remaining[len("create"):]
	}
}

// Load opens the extension's shared library with the functions its SQL
// scripts declare.
func (ext *Extension) Load() (*Library, error) {
	if ext.LibraryFile == "" {
		return nil, fmt.Errorf("extension `%s` does not reference a library", ext.Name)
	}
	funcNames, err := ext.FunctionNames()
	if err != nil {
		return nil, err
	}
	return Open(ext.LibraryFile, funcNames)
}

// sqlFileVersions decodes the version pair encoded in a SQL script's file
// name: base scripts yield the same version twice, upgrade scripts yield
// (from, to). Malformed names sort first.
func sqlFileVersions(name string, sqlFileName string) [2]uint16 {
	if !strings.HasSuffix(sqlFileName, ".sql") {
		return [2]uint16{}
	}
	versions := strings.TrimSuffix(sqlFileName[len(name)+2: /* skip the -- */], ".sql")
	var from, to string
	if dashIdx := strings.Index(versions, "--"); dashIdx == -1 {
		from = versions
		to = versions
	} else {
		from = versions[:dashIdx]
		to = versions[dashIdx+2:]
	}
	return [2]uint16{versionKey(from), versionKey(to)}
}

// versionKey packs a major.minor version string into a sortable integer.
func versionKey(v string) uint16 {
	splitIdx := strings.Index(v, ".")
	if splitIdx == -1 {
		return 0
	}
	major, err := strconv.Atoi(v[:splitIdx])
	if err != nil {
		return 0
	}
	minor, err := strconv.Atoi(v[splitIdx+1:])
	if err != nil {
		return 0
	}
	return (uint16(major) << 8) + uint16(minor)
}
