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

package mem

import (
	"testing"
	"unsafe"
)

func TestAlloc0ReturnsZeroedMemory(t *testing.T) {
	mc := NewMemoryContext("test")
	p := mc.Alloc0(64)
	for i, b := range unsafe.Slice((*byte)(p), 64) {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

func TestAllocationsAreDistinct(t *testing.T) {
	mc := NewMemoryContext("test")
	a := mc.Alloc0(8)
	b := mc.Alloc0(8)
	if a == b {
		t.Fatal("two allocations share an address")
	}
	*(*uint64)(a) = 0x1111111111111111
	*(*uint64)(b) = 0x2222222222222222
	if *(*uint64)(a) != 0x1111111111111111 {
		t.Error("allocations overlap")
	}
}

func TestAllocatedBytesAccounting(t *testing.T) {
	mc := NewMemoryContext("test")
	if mc.AllocatedBytes() != 0 {
		t.Fatalf("fresh context reports %d bytes", mc.AllocatedBytes())
	}
	mc.Alloc0(32)
	mc.Alloc0(16)
	if got := mc.AllocatedBytes(); got != 48 {
		t.Errorf("AllocatedBytes = %d, want 48", got)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	mc := NewMemoryContext("test")
	p := mc.Alloc0(8)
	*(*uint64)(p) = 7

	mc.Reset()
	if mc.AllocatedBytes() != 0 {
		t.Errorf("AllocatedBytes after reset = %d", mc.AllocatedBytes())
	}
	mc.Reset() // no double-free to commit

	// An outstanding pointer keeps its own memory alive across resets.
	if *(*uint64)(p) != 7 {
		t.Error("outstanding allocation was clobbered by Reset")
	}

	q := mc.Alloc0(8)
	if *(*uint64)(q) != 0 {
		t.Error("allocation after reset is not zeroed")
	}
}

func TestZeroSizeAllocation(t *testing.T) {
	mc := NewMemoryContext("test")
	if p := mc.Alloc0(0); p == nil {
		t.Error("Alloc0(0) = nil, want a valid pointer")
	}
}

func TestPalloc0(t *testing.T) {
	p := Palloc0(16)
	if p == nil {
		t.Fatal("Palloc0 returned nil")
	}
	if TopMemoryContext.Name() != "TopMemoryContext" {
		t.Errorf("TopMemoryContext.Name() = %q", TopMemoryContext.Name())
	}
}
