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

import "github.com/ebitengine/purego"

// callNative jumps to a C function pointer with the single-pointer fmgr
// signature. If the native code traps there is no recovery at this layer;
// that mirrors the server, where elog/longjmp handling lives above fmgr.
func callNative(fn uintptr, fcinfo uintptr) Datum {
	ret, _, _ := purego.SyscallN(fn, fcinfo)
	return Datum(ret)
}
