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
	"bytes"
	"testing"

	"github.com/google/uuid"

	"github.com/dolthub/pg_fmgr/mem"
)

func TestPointerDatumRoundTrip(t *testing.T) {
	type varlena struct{ header uint32 }
	val := &varlena{header: 0xbeef}
	if got := FromDatum[varlena](ToDatum(val)); got != val {
		t.Errorf("FromDatum(ToDatum(%p)) = %p", val, got)
	}
	if got := FromDatum[varlena](0); got != nil {
		t.Errorf("FromDatum of the zero datum = %p, want nil", got)
	}
	if got := ToDatum[varlena](nil); got != 0 {
		t.Errorf("ToDatum(nil) = %d, want 0", got)
	}
}

func TestScalarDatums(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 2147483647, -2147483648} {
		if got := DatumInt32(Int32Datum(v)); got != v {
			t.Errorf("int32 %d round-tripped to %d", v, got)
		}
	}
	for _, v := range []int64{0, -1, 1 << 40, -(1 << 40)} {
		if got := DatumInt64(Int64Datum(v)); got != v {
			t.Errorf("int64 %d round-tripped to %d", v, got)
		}
	}
	if DatumBool(BoolDatum(true)) != true || DatumBool(BoolDatum(false)) != false {
		t.Error("bool datums did not round-trip")
	}
}

func TestCStringDatum(t *testing.T) {
	mc := mem.NewMemoryContext("test")
	tests := []string{"", "a", "f8a4f22e-fb29-4a6a-b42a-e910f7cbb9a4"}
	for _, s := range tests {
		d := CStringDatum(mc, s)
		if d == 0 {
			t.Fatalf("CStringDatum(%q) = 0", s)
		}
		if got := DatumCString(d); got != s {
			t.Errorf("DatumCString = %q, want %q", got, s)
		}
	}
	if got := DatumCString(0); got != "" {
		t.Errorf("DatumCString(0) = %q, want empty", got)
	}
}

func TestDatumGoBytes(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	d := ToDatum(&src[0])
	if got := DatumGoBytes(d, 4); !bytes.Equal(got, src) {
		t.Errorf("DatumGoBytes = %v, want %v", got, src)
	}
	// The copy must be independent of the source memory.
	got := DatumGoBytes(d, 4)
	src[0] = 99
	if got[0] != 1 {
		t.Error("DatumGoBytes aliased the source memory")
	}
	if DatumGoBytes(0, 4) != nil || DatumGoBytes(d, 0) != nil {
		t.Error("degenerate DatumGoBytes calls should return nil")
	}
}

func TestDatumUUID(t *testing.T) {
	want := uuid.MustParse("f8a4f22e-fb29-4a6a-b42a-e910f7cbb9a4")
	raw := [16]byte(want)
	got, err := DatumUUID(ToDatum(&raw[0]))
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("DatumUUID = %v, want %v", got, want)
	}
	if _, err = DatumUUID(0); err == nil {
		t.Error("DatumUUID(0) should fail")
	}
}
