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

//go:build pg11

package pg_fmgr

import (
	"fmt"
	"unsafe"

	"github.com/dolthub/pg_fmgr/mem"
)

// ABIVersion is the Postgres major version whose call-frame layout this build
// was compiled for.
const ABIVersion = 11

// FuncMaxArgs matches FUNC_MAX_ARGS in the server's pg_config.h. Frames
// before Postgres 12 carry fixed arrays of this capacity regardless of the
// actual argument count, so it is also a hard ceiling on allocation.
const FuncMaxArgs = 100

// FunctionCallInfoData mirrors the Postgres 11 struct of the same name:
// a fixed header followed by parallel value and null-flag arrays, both at
// full FuncMaxArgs capacity. Layout must stay bit-exact with the server's:
// the server writes frames we read, and native functions read frames we
// write.
type FunctionCallInfoData struct {
	Flinfo      unsafe.Pointer // *FmgrInfo, owned by the caller
	Context     unsafe.Pointer // *Node
	Resultinfo  unsafe.Pointer // *Node
	Fncollation Oid
	IsNull      bool
	Nargs       int16
	Arg         [FuncMaxArgs]Datum
	ArgNull     [FuncMaxArgs]bool
}

// FunctionCallInfo is the pointer type native functions receive, matching the
// server's typedef.
type FunctionCallInfo = *FunctionCallInfoData

// FCInfoSize returns the number of bytes a frame for nargs arguments
// occupies. The pre-12 struct is fixed-size, so the argument count does not
// enter into it.
func FCInfoSize(nargs int) uintptr {
	return unsafe.Sizeof(FunctionCallInfoData{})
}

func getArgDatum(fcinfo FunctionCallInfo, i int) Datum {
	checkArgIndex(fcinfo.Nargs, i)
	return fcinfo.Arg[i]
}

func argIsNull(fcinfo FunctionCallInfo, i int) bool {
	checkArgIndex(fcinfo.Nargs, i)
	return fcinfo.ArgNull[i]
}

func setArg(fcinfo FunctionCallInfo, i int, value Datum, isnull bool) {
	checkArgIndex(fcinfo.Nargs, i)
	fcinfo.Arg[i] = value
	fcinfo.ArgNull[i] = isnull
}

func setResultNull(fcinfo FunctionCallInfo) {
	fcinfo.IsNull = true
}

// allocFCInfo builds a fresh zeroed frame for nargs arguments. The memory
// context owns the allocation; the frame must not outlive it. Argument counts
// beyond FuncMaxArgs cannot be represented by this layout and are a caller
// bug, never silently truncated.
func allocFCInfo(mc *mem.MemoryContext, nargs int) FunctionCallInfo {
	if nargs < 0 || nargs > FuncMaxArgs {
		panic(fmt.Sprintf("pg_fmgr: cannot build a call frame for %d arguments (FUNC_MAX_ARGS is %d)", nargs, FuncMaxArgs))
	}
	fcinfo := (FunctionCallInfo)(mc.Alloc0(FCInfoSize(nargs)))
	fcinfo.Nargs = int16(nargs)
	return fcinfo
}
