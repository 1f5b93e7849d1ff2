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

// Package mem provides the arena-style allocator that call frames and other
// fmgr-adjacent allocations come from, modeled on the server's palloc
// discipline: allocations are zero-initialized, individually stable, and
// reclaimed all at once when their context is reset rather than freed one by
// one.
package mem

import "unsafe"

// MemoryContext is an arena of zero-initialized allocations. Allocations made
// from a context never move and are never individually freed; Reset drops the
// context's hold on all of them at once. A pointer handed out by Alloc0 keeps
// its backing memory alive on its own, so resetting a context with live
// pointers outstanding is safe, unlike in the server.
//
// A MemoryContext is not safe for concurrent use; the fmgr boundary is
// single-threaded per backend, and so is this.
type MemoryContext struct {
	name      string
	chunks    [][]byte
	allocated uintptr
}

// TopMemoryContext is the default context for allocations with no better
// home, named for its server counterpart.
var TopMemoryContext = NewMemoryContext("TopMemoryContext")

// NewMemoryContext returns an empty context. The name only shows up in
// diagnostics.
func NewMemoryContext(name string) *MemoryContext {
	return &MemoryContext{name: name}
}

// Name returns the name the context was created with.
func (mc *MemoryContext) Name() string {
	return mc.name
}

// Alloc0 returns size bytes of zero-initialized memory owned by the context.
// The returned pointer is stable for the life of the allocation.
func (mc *MemoryContext) Alloc0(size uintptr) unsafe.Pointer {
	if size == 0 {
		// Match palloc: a zero-size request still yields a valid,
		// distinct pointer.
		size = 1
	}
	chunk := make([]byte, size)
	mc.chunks = append(mc.chunks, chunk)
	mc.allocated += size
	return unsafe.Pointer(&chunk[0])
}

// AllocatedBytes reports the total bytes handed out since the context was
// created or last reset.
func (mc *MemoryContext) AllocatedBytes() uintptr {
	return mc.allocated
}

// Reset releases the context's hold on everything it has allocated. Calling
// Reset again is a no-op; there is no double-free to commit.
func (mc *MemoryContext) Reset() {
	mc.chunks = nil
	mc.allocated = 0
}

// Palloc0 allocates from TopMemoryContext.
func Palloc0(size uintptr) unsafe.Pointer {
	return TopMemoryContext.Alloc0(size)
}
