package money

import "testing"

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100.50", 10050},
		{"100.5", 10050},
		{"100", 10000},
		{"0.99", 99},
		{"0.999", 100},  // rounds half-up
		{"0.994", 99},
		{".50", 50},
		{"0", 0},
		{" 12.34 ", 1234},
	}
	for _, c := range cases {
		got, err := ToMinorUnits(c.in)
		if err != nil {
			t.Fatalf("ToMinorUnits(%q) err: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ToMinorUnits(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestToMinorUnits_Malformed(t *testing.T) {
	for _, in := range []string{"", "-1.00", "abc", "10.x", "1 0"} {
		if _, err := ToMinorUnits(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
