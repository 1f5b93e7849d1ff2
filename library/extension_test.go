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
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// writeInstallTree lays out a minimal Postgres install directory with one
// extension and returns its root.
func writeInstallTree(t *testing.T, name string, sqlFiles map[string]string) string {
	t.Helper()
	root := t.TempDir()
	extDir := filepath.Join(root, "share", "extension")
	libDir := filepath.Join(root, "lib")
	for _, dir := range []string{extDir, libDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	files := map[string]string{
		filepath.Join(extDir, name+".control"): "comment = 'test extension'\ndefault_version = '1.1'\n",
		filepath.Join(libDir, name+".so"):      "not a real library",
	}
	for sqlName, contents := range sqlFiles {
		files[filepath.Join(extDir, sqlName)] = contents
	}
	for path, contents := range files {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestDiscover(t *testing.T) {
	root := writeInstallTree(t, "testext", map[string]string{
		"testext--1.0.sql":      "",
		"testext--1.0--1.1.sql": "",
		"testext--1.1.sql":      "",
		"testext--1.1--1.2.sql": "",
	})
	extensions, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	ext, ok := extensions["testext"]
	if !ok {
		t.Fatalf("testext not discovered; got %v", extensions)
	}
	if filepath.Base(ext.ControlFile) != "testext.control" {
		t.Errorf("control file = %s", ext.ControlFile)
	}
	if filepath.Base(ext.LibraryFile) != "testext.so" {
		t.Errorf("library file = %s", ext.LibraryFile)
	}
	// Scripts before the newest base script are upgrade paths from versions
	// that were never installed here.
	var got []string
	for _, path := range ext.SQLFiles {
		got = append(got, filepath.Base(path))
	}
	want := []string{"testext--1.1.sql", "testext--1.1--1.2.sql"}
	if !slices.Equal(got, want) {
		t.Errorf("SQL files = %v, want %v", got, want)
	}
}

func TestFunctionNames(t *testing.T) {
	const sql = `
CREATE FUNCTION gen_id() RETURNS uuid
    AS '$libdir/testext', 'gen_id_internal'
    VOLATILE STRICT LANGUAGE C;

CREATE OR REPLACE FUNCTION plain_name(int4) RETURNS int4
    LANGUAGE C AS '$libdir/testext', 'plain_name_impl';

CREATE FUNCTION implicit_symbol(text) RETURNS text
    AS '$libdir/testext' LANGUAGE C IMMUTABLE;

CREATE FUNCTION not_c(a int4) RETURNS int4
    AS $$ SELECT a $$ LANGUAGE SQL;
`
	root := writeInstallTree(t, "testext", map[string]string{"testext--1.1.sql": sql})
	extensions, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	names, err := extensions["testext"].FunctionNames()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"gen_id_internal", "implicit_symbol", "plain_name_impl"}
	if !slices.Equal(names, want) {
		t.Errorf("FunctionNames = %v, want %v", names, want)
	}
}

func TestControlAndSQLContents(t *testing.T) {
	root := writeInstallTree(t, "testext", map[string]string{"testext--1.1.sql": "SELECT 1;"})
	extensions, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	ext := extensions["testext"]
	control, err := ext.Control()
	if err != nil {
		t.Fatal(err)
	}
	if control == "" {
		t.Error("control file came back empty")
	}
	scripts, err := ext.SQL()
	if err != nil {
		t.Fatal(err)
	}
	if len(scripts) != 1 || scripts[0] != "SELECT 1;" {
		t.Errorf("SQL() = %v", scripts)
	}
}

func TestSQLFileVersions(t *testing.T) {
	tests := []struct {
		file string
		want [2]uint16
	}{
		{"testext--1.0.sql", [2]uint16{0x0100, 0x0100}},
		{"testext--1.0--1.1.sql", [2]uint16{0x0100, 0x0101}},
		{"testext--2.10.sql", [2]uint16{0x020a, 0x020a}},
		{"testext--bogus.sql", [2]uint16{0, 0}},
		{"testext--1.0.txt", [2]uint16{0, 0}},
	}
	for _, test := range tests {
		if got := sqlFileVersions("testext", test.file); got != test.want {
			t.Errorf("sqlFileVersions(%q) = %04x, want %04x", test.file, got, test.want)
		}
	}
}

func TestLoadWithoutLibrary(t *testing.T) {
	ext := &Extension{Name: "sqlonly"}
	if _, err := ext.Load(); err == nil {
		t.Error("loading a SQL-only extension should fail")
	}
}
