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

// pgextinspect lists the extensions of a local Postgres installation and, for
// a named extension, loads its shared library and reports the magic block and
// fmgr entry points it exports.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/dolthub/pg_fmgr"
	"github.com/dolthub/pg_fmgr/library"
)

func main() {
	var (
		installDir string
		verbose    bool
		noColor    bool
	)
	flag.StringVar(&installDir, "d", "", "Postgres install directory (default: $PGINSTALL or pg_config)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&noColor, "n", false, "No color")
	flag.Parse()

	initLogging(verbose, noColor)

	if installDir == "" {
		var err error
		installDir, err = library.DefaultInstallDirectory()
		if err != nil {
			log.Fatal("could not find a Postgres installation", "err", err)
		}
	}
	extensions, err := library.Discover(installDir)
	if err != nil {
		log.Fatal("could not read the extensions directory", "err", err)
	}

	if flag.NArg() == 0 {
		listExtensions(extensions)
		return
	}
	for _, name := range flag.Args() {
		ext, ok := extensions[name]
		if !ok {
			log.Fatal("no such extension", "extension", name, "dir", installDir)
		}
		inspect(ext)
	}
}

// initLogging wires both loggers: charmbracelet/log for the tool's own
// output, zap for the library package's structured diagnostics.
func initLogging(verbose, noColor bool) {
	log.SetDefault(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "pgextinspect",
	}))
	log.SetColorProfile(termenv.ANSI256)
	if noColor {
		log.SetColorProfile(termenv.Ascii)
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
		zapLogger, err := zap.NewDevelopment()
		if err == nil {
			library.SetLogger(zapLogger)
		}
	}
}

// listExtensions prints one line per discovered extension.
func listExtensions(extensions map[string]*library.Extension) {
	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		ext := extensions[name]
		libPath := "(sql only)"
		if ext.LibraryFile != "" {
			libPath = ext.LibraryFile
		}
		fmt.Printf("%-24s %d sql script(s)  %s\n", name, len(ext.SQLFiles), libPath)
	}
}

// inspect loads one extension's library and dumps what this binary can see
// of it.
func inspect(ext *library.Extension) {
	fmt.Printf("%s\n  control: %s\n", ext.Name, ext.ControlFile)
	if ext.LibraryFile == "" {
		fmt.Println("  no shared library; nothing to load")
		return
	}
	lib, err := ext.Load()
	if err != nil {
		log.Fatal("could not load the extension library", "extension", ext.Name, "err", err)
	}
	defer func() {
		_ = lib.Close()
	}()
	fmt.Printf("  library: %s\n  magic:   version=%d  funcMaxArgs=%d  indexMaxKeys=%d  nameDataLen=%d\n",
		lib.Path, lib.Magic.Version, lib.Magic.FuncMaxArgs, lib.Magic.IndexMaxKeys, lib.Magic.NameDataLen)
	fmt.Printf("  frame layout: Postgres %d convention (%s loader)\n", pg_fmgr.ABIVersion, library.PLATFORM)
	funcs := make([]string, 0, len(lib.Funcs))
	for name := range lib.Funcs {
		funcs = append(funcs, name)
	}
	slices.Sort(funcs)
	for _, name := range funcs {
		fmt.Printf("  function: %s @ %#x\n", name, lib.Funcs[name].Ptr)
	}
}
