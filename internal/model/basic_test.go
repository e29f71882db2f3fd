package model

import "testing"

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		desc     string
		input    string
		expected Price
		wantErr  bool
	}{
		{"integer", "100", 10000, false},
		{"two decimals", "570.40", 57040, false},
		{"one decimal", "0.5", 50, false},
		{"truncates extra digits", "1.239", 123, false},
		{"negative", "-12.34", -1234, false},
		{"leading space", " 99.05", 9905, false},
		{"garbage", "abc", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := ParsePrice(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q, err: %+v", tc.input, err)
			}
			if got != tc.expected {
				t.Fatalf("parse %q mismatch! should be %d but got %d", tc.input, tc.expected, got)
			}
		})
	}
}

func TestPriceString(t *testing.T) {
	testCases := []struct {
		input    Price
		expected string
	}{
		{57040, "570.40"},
		{5, "0.05"},
		{-1234, "-12.34"},
		{0, "0.00"},
	}

	for _, tc := range testCases {
		if got := tc.input.String(); got != tc.expected {
			t.Fatalf("string mismatch! should be %s but got %s", tc.expected, got)
		}
	}
}

func TestRoundToTick(t *testing.T) {
	testCases := []struct {
		desc     string
		price    Price
		tick     Price
		expected Price
	}{
		{"on grid", 10025, 5, 10025},
		{"below midpoint rounds down", 10027, 5, 10025},
		{"midpoint rounds up", 10028, 5, 10030},
		{"above midpoint rounds up", 10029, 5, 10030},
		{"negative price", -10027, 5, -10025},
		{"zero tick passthrough", 10027, 0, 10027},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if got := tc.price.RoundToTick(tc.tick); got != tc.expected {
				t.Fatalf("round mismatch! should be %d but got %d", tc.expected, got)
			}
		})
	}
}

func TestMulNotional(t *testing.T) {
	if n, overflow := MulNotional(2000, 100); overflow || n != 200000 {
		t.Fatalf("notional mismatch! got %d, overflow %v", n, overflow)
	}
	if _, overflow := MulNotional(Price(maxInt64), 2); !overflow {
		t.Fatal("expected overflow")
	}
	if n, overflow := MulNotional(0, 100); overflow || n != 0 {
		t.Fatalf("zero price should produce zero, got %d", n)
	}
}
