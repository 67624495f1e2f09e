package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12", 1200, true},
		{"0", 0, true},
		{"0,00", 0, true},
		{".5", 50, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{"10000", 1000000, true},
		{"", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
		{"12.3a", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d (%q) expected ok, got %v", i, tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d (%q) expected error", i, tc.in)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("case %d (%q) expected %d, got %d", i, tc.in, tc.want, got)
		}
	}
}

func TestMoneyAbs(t *testing.T) {
	if got := (Money{Cents: -150}).Abs().Cents; got != 150 {
		t.Fatalf("expected 150, got %d", got)
	}
	if got := (Money{Cents: 150}).Abs().Cents; got != 150 {
		t.Fatalf("expected 150, got %d", got)
	}
}

func TestMoneyBRL(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{1234, "R$ 12,34"},
		{100000, "R$ 1.000,00"},
		{123456789, "R$ 1.234.567,89"},
		{-1234, "-R$ 12,34"},
	}
	for i, tc := range cases {
		if got := (Money{Cents: tc.cents}).BRL(); got != tc.want {
			t.Fatalf("case %d expected %q, got %q", i, tc.want, got)
		}
	}
}
