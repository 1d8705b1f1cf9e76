package hook

import "testing"

func TestLookupExternalNames(t *testing.T) {
	cases := map[string]Hook{
		"read-request": CReq, "creq": CReq,
		"remap":         Remap,
		"send-response": PRsp, "prsp": PRsp,
		"task": Task,
	}
	for name, want := range cases {
		got, ok := Lookup(name)
		if !ok || got != want {
			t.Errorf("Lookup(%q) = %v, %v; want %v, true", name, got, ok, want)
		}
	}
	if _, ok := Lookup("bogus"); ok {
		t.Error("Lookup(bogus) should fail")
	}
}

func TestMask(t *testing.T) {
	m := MaskOf(CReq, Remap)
	if !m.Has(CReq) || !m.Has(Remap) {
		t.Fatal("mask missing expected hooks")
	}
	if m.Has(PRsp) {
		t.Fatal("mask has unexpected hook")
	}
	m2 := m.With(PRsp)
	if !m2.Has(PRsp) {
		t.Fatal("With did not add hook")
	}
}

func TestBeforeOrdering(t *testing.T) {
	if !Before(CReq, Remap) {
		t.Error("creq should precede remap")
	}
	if Before(PRsp, PreRemap) {
		t.Error("prsp should not precede pre-remap")
	}
}
