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

// NullableDatum pairs a datum with its null flag. It is both the universal
// wire format for a single argument or result at this boundary and, on
// Postgres 12+ builds, the in-memory slot type of a call frame's argument
// area, so its layout must match the server's struct exactly: 16 bytes on
// 64-bit targets, value first.
type NullableDatum struct {
	Value  Datum
	IsNull bool
}

// DatumValue wraps a non-null datum.
func DatumValue(d Datum) NullableDatum {
	return NullableDatum{Value: d}
}

// NullDatum is the null argument/result value.
func NullDatum() NullableDatum {
	return NullableDatum{IsNull: true}
}

// Datum returns the held datum and whether it is present.
func (nd NullableDatum) Datum() (Datum, bool) {
	if nd.IsNull {
		return 0, false
	}
	return nd.Value, true
}
