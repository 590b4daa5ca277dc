package tdb

import (
	"math"
	"testing"
	"time"
)

func TestKind_Names(t *testing.T) {
	want := []string{"bool", "bytes", "date", "datetime", "int", "real", "str"}
	for i, k := range Kinds {
		if k.String() != want[i] {
			t.Errorf("Kinds[%d].String() = %q, want %q", i, k.String(), want[i])
		}
		got, ok := ParseKind(want[i])
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v, want %v", want[i], got, ok, k)
		}
	}
	if _, ok := ParseKind("string"); ok {
		t.Error("ParseKind(string) should fail")
	}
	if KindInvalid.Valid() {
		t.Error("KindInvalid.Valid() = true")
	}
}

func TestValue_Typename(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Bool(true), "bool"},
		{Bytes([]byte{1}), "bytes"},
		{DateOf(2024, 1, 2), "date"},
		{DateTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), "datetime"},
		{Int(1), "int"},
		{Real(1.5), "real"},
		{Str("x"), "str"},
	}
	for _, tt := range tests {
		if got := tt.v.Typename(); got != tt.want {
			t.Errorf("Typename() = %q, want %q", got, tt.want)
		}
	}
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"bool", Bool(true), Bool(true), true},
		{"bool differ", Bool(true), Bool(false), false},
		{"bytes", Bytes([]byte{0xDE, 0xAD}), Bytes([]byte{0xDE, 0xAD}), true},
		{"bytes differ", Bytes([]byte{0xDE}), Bytes([]byte{0xDE, 0xAD}), false},
		{"int", Int(42), Int(42), true},
		{"real exact", Real(0.1), Real(0.1), true},
		{"real tolerance", Real(0.1 + 0.2), Real(0.3), true},
		{"real differ", Real(1.0), Real(1.001), false},
		{"str", Str("a"), Str("a"), true},
		{"date", DateOf(2024, 2, 29), DateOf(2024, 2, 29), true},
		{"cross int real", Int(1), Real(1), false},
		{"cross date datetime", DateOf(2024, 1, 1), DateTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), false},
		{"cross str bytes", Str("A"), Bytes([]byte("A")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	v := Int(7)
	if n, ok := v.AsInt(); !ok || n != 7 {
		t.Errorf("AsInt() = %d, %v", n, ok)
	}
	if _, ok := v.AsReal(); ok {
		t.Error("AsReal() on int should fail")
	}
	if !v.IsInt() || v.IsStr() {
		t.Error("kind predicates wrong for int")
	}

	d := Date(time.Date(2024, 5, 6, 23, 59, 0, 0, time.UTC))
	got, ok := d.AsDate()
	if !ok || got.Hour() != 0 || got.Day() != 6 {
		t.Errorf("AsDate() = %v, %v", got, ok)
	}

	dt := DateTime(time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC))
	gotDT, _ := dt.AsDateTime()
	if gotDT.Nanosecond() != 0 || gotDT.Second() != 9 {
		t.Errorf("DateTime not truncated to seconds: %v", gotDT)
	}
}

func TestSlot_Encode(t *testing.T) {
	tests := []struct {
		name     string
		slot     Slot
		decimals int
		want     string
	}{
		{"true", Present(Bool(true)), 0, "T"},
		{"false", Present(Bool(false)), 0, "F"},
		{"bytes", Present(Bytes([]byte{0xDE, 0xAD})), 0, "(DEAD)"},
		{"bytes empty", Present(Bytes(nil)), 0, "()"},
		{"date", Present(DateOf(2024, 1, 31)), 0, "2024-01-31"},
		{"datetime", Present(DateTime(time.Date(2024, 1, 31, 5, 6, 7, 0, time.UTC))), 0, "2024-01-31T05:06:07"},
		{"int", Present(Int(-12)), 0, "-12"},
		{"real 2dp", Present(Real(3.14159)), 2, "3.14"},
		{"real shortest", Present(Real(3.14159)), 0, "3.14159"},
		{"real negative zero", Present(Real(math.Copysign(0, -1))), 0, "0"},
		{"real clamped", Present(Real(1.5)), 99, "1.500000000000000"},
		{"real negative decimals", Present(Real(1.5)), -3, "1.5"},
		{"str", Present(Str("a b")), 0, "<a b>"},
		{"str escapes", Present(Str(`<x> \ y`)), 0, `<\<x\> \\ y>`},
		{"missing", Missing(), 0, "?"},
		{"sentinel str", Sentinel(KindStr), 0, "!"},
		{"reserved int", Present(Int(-1808080808)), 0, "!"},
		{"reserved real", Present(Real(-1808080808.0808)), 4, "!"},
		{"reserved date", Present(DateOf(1808, 8, 8)), 0, "!"},
		{"reserved datetime", Present(DateTime(time.Date(1808, 8, 8, 8, 8, 8, 0, time.UTC))), 0, "!"},
		{"tiny negative real rounds unsigned", Present(Real(-0.001)), 2, "0.00"},
		{"tiny negative real keeps digits", Present(Real(-0.006)), 2, "-0.01"},
		{"near reserved date", Present(DateOf(1808, 8, 9)), 0, "1808-08-09"},
		{"near reserved real above", Present(Real(-1808080807.0808)), 4, "-1808080807.0808"},
		{"near reserved real below", Present(Real(-1808080809)), 0, "-1808080809"},
		{"near reserved real fraction", Present(Real(-1808080807.5)), 1, "-1808080807.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.slot.Encode(tt.decimals); got != tt.want {
				t.Errorf("Encode(%d) = %q, want %q", tt.decimals, got, tt.want)
			}
		})
	}
}

func TestSlot_ReservedBecomesSentinel(t *testing.T) {
	s := Present(Int(-1808080808))
	if !s.IsSentinel() {
		t.Fatalf("state = %v, want sentinel", s.State())
	}
	if s.Kind() != KindInt {
		t.Errorf("Kind() = %v, want int", s.Kind())
	}
	if _, ok := s.Value(); ok {
		t.Error("Value() on sentinel should report false")
	}
	if !s.Equal(Sentinel(KindInt)) {
		t.Error("Present(reserved) should equal Sentinel(int)")
	}
}

func TestSlot_RealNearReservedStaysPresent(t *testing.T) {
	for _, f := range []float64{-1808080807.0808, -1808080809.0808, -1808080808.08, -1808080808.1} {
		s := Present(Real(f))
		if !s.IsPresent() {
			t.Errorf("Present(Real(%v)) state = %v, want present", f, s.State())
		}
	}
	if !Present(Real(-1808080808.0808)).IsSentinel() {
		t.Error("the reserved real itself should become sentinel")
	}
}

func TestSlot_MissingVsSentinel(t *testing.T) {
	if Missing().Equal(Sentinel(KindInt)) {
		t.Error("missing must not equal sentinel")
	}
	var zero Slot
	if !zero.IsMissing() {
		t.Error("zero Slot should be missing")
	}
	if Sentinel(KindInt).Equal(Sentinel(KindReal)) {
		t.Error("sentinels of different kinds should differ")
	}
}
