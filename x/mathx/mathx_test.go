package mathx

import "testing"

func TestClamp(t *testing.T) {
	if Clamp(-5, 0, 10) != 0 || Clamp(15, 0, 10) != 10 || Clamp(7, 0, 10) != 7 {
		t.Fatal("clamp failed")
	}
	if Clamp(3, 10, 0) != 3 || Clamp(uint8(200), 10, 100) != 100 {
		t.Fatal("swapped/typed clamp failed")
	}
	if !Between(5, 10, 0) || Between(11, 0, 10) {
		t.Fatal("between failed")
	}
}

func TestIntDiv(t *testing.T) {
	cases := []struct{ a, b, ceil, round, gcd uint32 }{
		{10, 3, 4, 3, 1},
		{11, 2, 6, 6, 1},
		{900000000, 25000000, 36, 36, 25000000},
		{12, 0, 0, 0, 12},
	}
	for _, c := range cases {
		if got := CeilDiv(c.a, c.b); got != c.ceil {
			t.Errorf("CeilDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.ceil)
		}
		if got := RoundDiv(c.a, c.b); got != c.round {
			t.Errorf("RoundDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.round)
		}
		if got := GCD(c.a, c.b); got != c.gcd {
			t.Errorf("GCD(%d,%d) = %d, want %d", c.a, c.b, got, c.gcd)
		}
	}
}
