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

// Package library loads native Postgres extension libraries and exposes their
// fmgr-convention functions to Go callers. A library is only usable when its
// magic block agrees with the call-frame layout this binary was compiled for;
// calling a function through a mismatched frame layout corrupts memory on the
// first argument it touches, so the check is not optional.
package library

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/dolthub/pg_fmgr"
	"github.com/dolthub/pg_fmgr/mem"
)

// magicFuncName is the symbol every loadable extension module exports.
const magicFuncName = "Pg_magic_func"

// ErrABIMismatch is returned when a library was built against a server
// version whose call-frame layout differs from the one compiled into this
// binary.
var ErrABIMismatch = errors.New("library was built for an incompatible server version")

// loadedLibrary abstracts the platform dynamic loader.
type loadedLibrary interface {
	// Lookup resolves a symbol to its address.
	Lookup(sym string) (uintptr, error)
	// Close unloads the library. Any function pointers resolved from it are
	// dead afterward.
	Close() error
}

// pgMagicStruct mirrors the leading fields of the server's Pg_magic_struct,
// which are identical across the versions this package supports. Trailing
// pass-by-value flags vary by version and are not read.
type pgMagicStruct struct {
	Len          int32
	Version      int32
	FuncMaxArgs  int32
	IndexMaxKeys int32
	NameDataLen  int32
}

// MagicBlock is the decoded PG_MODULE_MAGIC data of a loaded library.
type MagicBlock struct {
	Version      int32 // server version number / 100, e.g. 1204
	FuncMaxArgs  int32
	IndexMaxKeys int32
	NameDataLen  int32
}

// MajorVersion returns the server major version the library was built
// against.
func (m MagicBlock) MajorVersion() int32 {
	return m.Version / 100
}

// Function is a resolved fmgr-convention entry point of a library.
type Function struct {
	Name string
	Ptr  uintptr
}

// Library is a loaded extension shared library whose magic block has been
// verified against the active call-frame layout.
type Library struct {
	Path  string
	Magic MagicBlock
	Funcs map[string]Function

	internal loadedLibrary
}

// Open loads the shared library at path, verifies its magic block, and
// resolves funcNames into callable entry points. Symbols that fail to resolve
// are logged and skipped rather than failing the whole library, since SQL
// scripts routinely declare functions a given build omits.
func Open(path string, funcNames []string) (*Library, error) {
	internal, err := loadLibraryInternal(path)
	if err != nil {
		return nil, err
	}
	magic, err := readMagicBlock(internal)
	if err != nil {
		_ = internal.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if magic.MajorVersion() != pg_fmgr.ABIVersion {
		_ = internal.Close()
		return nil, fmt.Errorf("%s: %w: library targets %d, this binary targets %d",
			path, ErrABIMismatch, magic.MajorVersion(), pg_fmgr.ABIVersion)
	}
	if magic.FuncMaxArgs != pg_fmgr.FuncMaxArgs {
		_ = internal.Close()
		return nil, fmt.Errorf("%s: %w: library FUNC_MAX_ARGS is %d, this binary's is %d",
			path, ErrABIMismatch, magic.FuncMaxArgs, pg_fmgr.FuncMaxArgs)
	}
	lib := &Library{
		Path:     path,
		Magic:    magic,
		Funcs:    make(map[string]Function),
		internal: internal,
	}
	for _, name := range funcNames {
		ptr, err := internal.Lookup(name)
		if err != nil {
			Logger().Warn("declared function not exported by library",
				zap.String("library", path), zap.String("function", name))
			continue
		}
		lib.Funcs[name] = Function{Name: name, Ptr: ptr}
	}
	Logger().Info("loaded extension library",
		zap.String("library", path),
		zap.Int32("version", magic.Version),
		zap.Int("functions", len(lib.Funcs)))
	return lib, nil
}

// readMagicBlock calls the library's Pg_magic_func and decodes the struct it
// returns. Pg_magic_func takes no arguments, so it is not called through a
// call frame.
func readMagicBlock(internal loadedLibrary) (MagicBlock, error) {
	ptr, err := internal.Lookup(magicFuncName)
	if err != nil {
		return MagicBlock{}, fmt.Errorf("not a loadable extension module: %w", err)
	}
	ret, _, _ := purego.SyscallN(ptr)
	if ret == 0 {
		return MagicBlock{}, fmt.Errorf("%s returned a nil magic block", magicFuncName)
	}
	raw := (*pgMagicStruct)(unsafe.Pointer(ret))
	if raw.Len < int32(unsafe.Sizeof(pgMagicStruct{})) {
		return MagicBlock{}, fmt.Errorf("magic block reports impossible length %d", raw.Len)
	}
	return MagicBlock{
		Version:      raw.Version,
		FuncMaxArgs:  raw.FuncMaxArgs,
		IndexMaxKeys: raw.IndexMaxKeys,
		NameDataLen:  raw.NameDataLen,
	}, nil
}

// Call invokes the named function synthetically, building its call frame in
// mc. The frame is reclaimed with mc, not by this call.
func (lib *Library) Call(mc *mem.MemoryContext, name string, args ...pg_fmgr.NullableDatum) (pg_fmgr.NullableDatum, error) {
	fn, ok := lib.Funcs[name]
	if !ok {
		return pg_fmgr.NullDatum(), fmt.Errorf("library %s has no function %s", lib.Path, name)
	}
	return pg_fmgr.DirectFunctionCall(mc, pg_fmgr.NativeFunction(fn.Ptr), args...), nil
}

// Close unloads the library. The Funcs map must not be used afterward.
func (lib *Library) Close() error {
	return lib.internal.Close()
}
