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

// Package pg_fmgr implements the Postgres fmgr function-call convention for
// Go callers, without cgo. A native extension function receives a pointer to
// a call frame holding its arguments and writes its result through the return
// value plus the frame's null flag; this package builds and reads those
// frames. The physical frame layout changed in Postgres 12, so the layout is
// chosen at build time (default Postgres 12+, the pg11 build tag selects the
// older parallel-array layout) and the accessors here are the only surface
// extension code should touch.
package pg_fmgr

import (
	"fmt"
	"unsafe"

	"github.com/dolthub/pg_fmgr/mem"
)

// PGFunction is a function callable through the fmgr convention. Native
// symbols are wrapped into this type by NativeFunction; fmgr-convention
// functions written in Go satisfy it directly.
type PGFunction func(fcinfo FunctionCallInfo) Datum

// ArgIsNull reports whether argument i of the call is null.
func ArgIsNull(fcinfo FunctionCallInfo, i int) bool {
	return argIsNull(fcinfo, i)
}

// ArgDatumRaw returns argument i's datum without consulting its null flag.
// A null argument's datum is still readable and is conventionally zero; most
// callers want ArgDatum instead. This exists for code that must match the
// server's own C semantics exactly.
func ArgDatumRaw(fcinfo FunctionCallInfo, i int) Datum {
	return getArgDatum(fcinfo, i)
}

// ArgDatum returns argument i's datum and whether it was present. The datum
// is only meaningful when the second return is true.
func ArgDatum(fcinfo FunctionCallInfo, i int) (Datum, bool) {
	if argIsNull(fcinfo, i) {
		return 0, false
	}
	return getArgDatum(fcinfo, i), true
}

// ArgNullableDatum returns argument i as a NullableDatum pair.
func ArgNullableDatum(fcinfo FunctionCallInfo, i int) NullableDatum {
	return NullableDatum{Value: getArgDatum(fcinfo, i), IsNull: argIsNull(fcinfo, i)}
}

// GetArg interprets argument i as a pointer to T, returning nil when the
// argument is null. No type checking happens here: the datum is trusted to
// point at a T, matching the server's weak typing at this boundary.
func GetArg[T any](fcinfo FunctionCallInfo, i int) *T {
	d, ok := ArgDatum(fcinfo, i)
	if !ok {
		return nil
	}
	return FromDatum[T](d)
}

// ReturnNull marks the call's result as null and returns the zero datum that
// fmgr functions conventionally hand back alongside it.
func ReturnNull(fcinfo FunctionCallInfo) Datum {
	setResultNull(fcinfo)
	return 0
}

// ReturnVoid is the conventional return value for functions declared to
// return void.
func ReturnVoid() Datum {
	return 0
}

// DirectFunctionCall invokes fn as if the server had called it: a fresh frame
// is allocated from mc, populated with args, and handed to fn, whose datum
// result is paired with the frame's null flag. Unlike the server's
// DirectFunctionCall macros the callee may return null.
//
// The frame belongs to mc and is reclaimed with it; nothing is freed here.
func DirectFunctionCall(mc *mem.MemoryContext, fn PGFunction, args ...NullableDatum) NullableDatum {
	return DirectFunctionCallColl(mc, fn, InvalidOid, args...)
}

// DirectFunctionCallColl is DirectFunctionCall with an explicit collation
// recorded in the frame header.
func DirectFunctionCallColl(mc *mem.MemoryContext, fn PGFunction, collation Oid, args ...NullableDatum) NullableDatum {
	fcinfo := allocFCInfo(mc, len(args))
	fcinfo.Fncollation = collation
	for i, arg := range args {
		setArg(fcinfo, i, arg.Value, arg.IsNull)
	}
	result := fn(fcinfo)
	return NullableDatum{Value: result, IsNull: fcinfo.IsNull}
}

// NativeFunction wraps the address of a loaded fmgr-convention C symbol as a
// PGFunction. The symbol must have the PGFunction signature: one call-frame
// pointer in, one datum out.
func NativeFunction(ptr uintptr) PGFunction {
	if ptr == 0 {
		panic("pg_fmgr: nil native function pointer")
	}
	return func(fcinfo FunctionCallInfo) Datum {
		return callNative(ptr, uintptr(unsafe.Pointer(fcinfo)))
	}
}

func checkArgIndex(nargs int16, i int) {
	if i < 0 || i >= int(nargs) {
		panic(fmt.Sprintf("pg_fmgr: argument index %d out of range for a %d-argument call", i, nargs))
	}
}
