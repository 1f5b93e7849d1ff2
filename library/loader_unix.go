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

//go:build darwin || freebsd || linux

package library

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// PLATFORM specifies which platform applies to the current library loader. This will always be a three-letter string.
const PLATFORM = "ELF"

// unixLib is the dlopen-based implementation of loadedLibrary.
type unixLib struct{ handle uintptr }

var _ loadedLibrary = (*unixLib)(nil)

// loadLibraryInternal handles the loading of an extension's shared object.
func loadLibraryInternal(path string) (loadedLibrary, error) {
	h, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return &unixLib{handle: h}, nil
}

// Lookup implements the interface loadedLibrary.
func (u *unixLib) Lookup(sym string) (uintptr, error) {
	p, err := purego.Dlsym(u.handle, sym)
	if err != nil {
		return 0, fmt.Errorf("symbol %s not found: %w", sym, err)
	}
	return p, nil
}

// Close implements the interface loadedLibrary.
func (u *unixLib) Close() error {
	return purego.Dlclose(u.handle)
}
