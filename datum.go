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

package pg_fmgr

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"

	"github.com/dolthub/pg_fmgr/mem"
)

// Datum is the server's universal value word: a pointer or a small value
// squeezed into pointer width. It is not self-describing; interpretation
// depends on the function signature it crosses.
type Datum uintptr

// Oid is a Postgres object identifier, used here only for collations.
type Oid uint32

// InvalidOid marks the absence of a collation.
const InvalidOid Oid = 0

// FromDatum converts the given datum to a pointer to the type.
func FromDatum[T any](d Datum) *T {
	if d == 0 {
		return nil
	}
	return (*T)(unsafe.Pointer(d))
}

// ToDatum converts the given pointer to a Datum.
func ToDatum[T any](val *T) Datum {
	if val == nil {
		return 0
	}
	return Datum(unsafe.Pointer(val))
}

// Int32Datum stores a pass-by-value int32 in a datum.
func Int32Datum(v int32) Datum {
	return Datum(uintptr(uint32(v)))
}

// DatumInt32 reads a pass-by-value int32 out of a datum.
func DatumInt32(d Datum) int32 {
	return int32(uint32(d))
}

// Int64Datum stores a pass-by-value int64 in a datum. Postgres only passes
// int64 by value on 64-bit targets, which is the only case this package
// supports.
func Int64Datum(v int64) Datum {
	return Datum(uintptr(uint64(v)))
}

// DatumInt64 reads a pass-by-value int64 out of a datum.
func DatumInt64(d Datum) int64 {
	return int64(uint64(d))
}

// BoolDatum stores a bool in a datum.
func BoolDatum(v bool) Datum {
	if v {
		return 1
	}
	return 0
}

// DatumBool reads a bool out of a datum.
func DatumBool(d Datum) bool {
	return d != 0
}

// CStringDatum copies s into mc as a NUL-terminated string and returns the
// datum pointing at it, for functions declared to take cstring arguments.
func CStringDatum(mc *mem.MemoryContext, s string) Datum {
	buf := mc.Alloc0(uintptr(len(s)) + 1)
	copy(unsafe.Slice((*byte)(buf), len(s)+1), s)
	return Datum(uintptr(buf))
}

// DatumCString reads a NUL-terminated string out of a cstring datum. The
// bytes are copied, so the result remains valid after the backing memory is
// reclaimed.
func DatumCString(d Datum) string {
	if d == 0 {
		return ""
	}
	p := (*byte)(unsafe.Pointer(d))
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// DatumGoBytes copies n bytes from the memory a datum points at into a Go
// slice.
func DatumGoBytes(d Datum, n int) []byte {
	if d == 0 || n <= 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(d)), n))
	return out
}

// DatumUUID decodes a 16-byte uuid datum, as returned by functions like
// uuid_generate_v4.
func DatumUUID(d Datum) (uuid.UUID, error) {
	if d == 0 {
		return uuid.UUID{}, fmt.Errorf("pg_fmgr: nil uuid datum")
	}
	return uuid.FromBytes(DatumGoBytes(d, 16))
}
