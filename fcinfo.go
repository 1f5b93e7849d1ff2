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

//go:build !pg11

package pg_fmgr

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/dolthub/pg_fmgr/mem"
)

// ABIVersion is the Postgres major version whose call-frame layout this build
// was compiled for.
const ABIVersion = 12

// FuncMaxArgs matches FUNC_MAX_ARGS in the server's pg_config.h. Postgres 12
// frames are sized to their actual argument count, so this only bounds what a
// library's magic block may declare, not what we can allocate.
const FuncMaxArgs = 100

// FunctionCallInfoBaseData mirrors the Postgres 12+ struct of the same name.
// The fixed header is followed in memory by Nargs NullableDatum slots; the Go
// struct carries only the header, and the trailing slots are reached through
// argSlots. Layout must stay bit-exact with the server's: the server writes
// frames we read, and native functions read frames we write.
type FunctionCallInfoBaseData struct {
	Flinfo      unsafe.Pointer // *FmgrInfo, owned by the caller
	Context     unsafe.Pointer // *Node
	Resultinfo  unsafe.Pointer // *Node
	Fncollation Oid
	IsNull      bool
	Nargs       int16
}

// FunctionCallInfo is the pointer type native functions receive, matching the
// server's typedef.
type FunctionCallInfo = *FunctionCallInfoBaseData

const (
	fcinfoHeaderSize  = unsafe.Sizeof(FunctionCallInfoBaseData{})
	nullableDatumSize = unsafe.Sizeof(NullableDatum{})
)

// FCInfoSize returns the number of bytes a frame for nargs arguments occupies,
// header plus the trailing NullableDatum run.
func FCInfoSize(nargs int) uintptr {
	return fcinfoHeaderSize + uintptr(nargs)*nullableDatumSize
}

// argSlots returns a bounds-checked view over the frame's trailing argument
// slots.
func argSlots(fcinfo FunctionCallInfo) []NullableDatum {
	first := (*NullableDatum)(unsafe.Add(unsafe.Pointer(fcinfo), fcinfoHeaderSize))
	return unsafe.Slice(first, int(fcinfo.Nargs))
}

func getArgDatum(fcinfo FunctionCallInfo, i int) Datum {
	checkArgIndex(fcinfo.Nargs, i)
	return argSlots(fcinfo)[i].Value
}

func argIsNull(fcinfo FunctionCallInfo, i int) bool {
	checkArgIndex(fcinfo.Nargs, i)
	return argSlots(fcinfo)[i].IsNull
}

func setArg(fcinfo FunctionCallInfo, i int, value Datum, isnull bool) {
	checkArgIndex(fcinfo.Nargs, i)
	argSlots(fcinfo)[i] = NullableDatum{Value: value, IsNull: isnull}
}

func setResultNull(fcinfo FunctionCallInfo) {
	fcinfo.IsNull = true
}

// allocFCInfo builds a fresh zeroed frame for nargs arguments. The memory
// context owns the allocation; the frame must not outlive it.
func allocFCInfo(mc *mem.MemoryContext, nargs int) FunctionCallInfo {
	if nargs < 0 || nargs > math.MaxInt16 {
		panic(fmt.Sprintf("pg_fmgr: cannot build a call frame for %d arguments", nargs))
	}
	fcinfo := (FunctionCallInfo)(mc.Alloc0(FCInfoSize(nargs)))
	fcinfo.Nargs = int16(nargs)
	return fcinfo
}
