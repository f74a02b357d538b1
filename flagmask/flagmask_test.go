package flagmask

import "testing"

func TestCompileRejectAndRequire(t *testing.T) {
	names := []string{"ATMFAIL", "LAND", "HIGLINT", "CLDICE"}
	m, err := Compile(names, "ATMFAIL,LAND,~CLDICE")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	wantReject := uint32(1<<0 | 1<<1)
	wantRequire := uint32(1 << 3)
	if m.Reject != wantReject {
		t.Errorf("Reject = %b, want %b", m.Reject, wantReject)
	}
	if m.Require != wantRequire {
		t.Errorf("Require = %b, want %b", m.Require, wantRequire)
	}
}

func TestPasses(t *testing.T) {
	m := Mask{Reject: 1 << 0, Require: 1 << 3}
	if m.Passes(1 << 0) {
		t.Error("pixel with rejected flag set should not pass")
	}
	if m.Passes(0) {
		t.Error("pixel missing required flag should not pass")
	}
	if !m.Passes(1 << 3) {
		t.Error("pixel with only the required flag set should pass")
	}
}

func TestCompileUnknownFlag(t *testing.T) {
	_, err := Compile([]string{"ATMFAIL"}, "BOGUS")
	if _, ok := err.(ErrUnknownFlag); !ok {
		t.Fatalf("err = %v, want ErrUnknownFlag", err)
	}
}

func TestCompileEmptyExpression(t *testing.T) {
	m, err := Compile([]string{"ATMFAIL"}, "")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if m.Reject != 0 || m.Require != 0 {
		t.Errorf("empty expression should compile to a no-op mask, got %+v", m)
	}
}
