package fixed

import "testing"

func TestPoint_Arithmetic(t *testing.T) {
	a := FromInt(10)
	b := FromInt(4)

	if !a.Add(b).Eq(FromInt(14)) {
		t.Errorf("expected 14, got %s", a.Add(b))
	}
	if !a.Sub(b).Eq(FromInt(6)) {
		t.Errorf("expected 6, got %s", a.Sub(b))
	}
	if !a.Mul(b).Eq(FromInt(40)) {
		t.Errorf("expected 40, got %s", a.Mul(b))
	}
	if !a.Div(b).Eq(FromFloat64(2.5)) {
		t.Errorf("expected 2.5, got %s", a.Div(b))
	}
	if !a.MulInt(3).Eq(FromInt(30)) {
		t.Errorf("expected 30, got %s", a.MulInt(3))
	}
	if !a.DivInt(4).Eq(FromFloat64(2.5)) {
		t.Errorf("expected 2.5, got %s", a.DivInt(4))
	}
}

func TestPoint_Comparisons(t *testing.T) {
	a := FromInt(1)
	b := FromInt(2)

	if !a.Lt(b) || !b.Gt(a) || !a.Lte(a) || !a.Gte(a) || a.Eq(b) {
		t.Error("comparison results inconsistent")
	}
	if !a.Min(b).Eq(a) || !b.Min(a).Eq(a) {
		t.Error("expected Min to return the smaller value")
	}
}

func TestPoint_Signs(t *testing.T) {
	if !Zero.IsZero() || Zero.IsPos() || Zero.IsNeg() {
		t.Error("zero sign checks failed")
	}
	if !NegOne.IsNeg() || !One.IsPos() {
		t.Error("sign checks failed")
	}
	if !NegOne.Abs().Eq(One) || !One.Neg().Eq(NegOne) {
		t.Error("abs/neg failed")
	}
}

func TestPoint_Parse(t *testing.T) {
	p, err := Parse("123.45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Eq(FromFloat64(123.45)) {
		t.Errorf("expected 123.45, got %s", p)
	}

	if _, err := Parse("not a number"); err == nil {
		t.Error("expected parse error")
	}
}

func TestPoint_TextRoundTrip(t *testing.T) {
	raw, err := FromFloat64(0.125).MarshalText()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var p Point
	if err := p.UnmarshalText(raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Eq(FromFloat64(0.125)) {
		t.Errorf("expected 0.125, got %s", p)
	}
}
