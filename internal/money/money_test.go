package money

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		cents Cents
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{1234, "$12.34"},
		{100000, "$1000.00"},
		{-150, "-$1.50"},
	}
	for _, tt := range tests {
		if got := tt.cents.String(); got != tt.want {
			t.Errorf("Cents(%d).String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name           string
		pool, num, den Cents
		want           Cents
	}{
		{"full ratio returns pool", 300, 1000, 1000, 300},
		{"half ratio floors", 301, 500, 1000, 150},
		{"zero claimed", 300, 0, 1000, 0},
		{"zero basis", 300, 500, 0, 0},
		{"claimed above basis caps at pool", 300, 1500, 1000, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Scale(tt.pool, tt.num, tt.den); got != tt.want {
				t.Errorf("Scale(%d, %d, %d) = %d, want %d", tt.pool, tt.num, tt.den, got, tt.want)
			}
		})
	}
}

func TestSplitEven(t *testing.T) {
	each, rem := SplitEven(100, 3)
	if each != 33 || rem != 1 {
		t.Errorf("SplitEven(100, 3) = (%d, %d), want (33, 1)", each, rem)
	}

	each, rem = SplitEven(100, 0)
	if each != 0 || rem != 0 {
		t.Errorf("SplitEven(100, 0) = (%d, %d), want (0, 0)", each, rem)
	}
}

func TestSplitProportional(t *testing.T) {
	tests := []struct {
		name       string
		pool       Cents
		weights    []Cents
		wantShares []Cents
		wantRem    Cents
	}{
		{
			name:       "equal weights leave remainder",
			pool:       100,
			weights:    []Cents{1000, 1000, 1000},
			wantShares: []Cents{33, 33, 33},
			wantRem:    1,
		},
		{
			name:       "proportional exact",
			pool:       300,
			weights:    []Cents{2000, 1000},
			wantShares: []Cents{200, 100},
			wantRem:    0,
		},
		{
			name:       "zero weights get nothing",
			pool:       100,
			weights:    []Cents{0, 500},
			wantShares: []Cents{0, 100},
			wantRem:    0,
		},
		{
			name:       "all-zero weights return full remainder",
			pool:       100,
			weights:    []Cents{0, 0},
			wantShares: []Cents{0, 0},
			wantRem:    100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, rem := SplitProportional(tt.pool, tt.weights)
			if rem != tt.wantRem {
				t.Errorf("remainder = %d, want %d", rem, tt.wantRem)
			}
			var sum Cents
			for i, s := range shares {
				sum += s
				if s != tt.wantShares[i] {
					t.Errorf("shares[%d] = %d, want %d", i, s, tt.wantShares[i])
				}
			}
			if tt.pool > 0 && sum+rem != tt.pool {
				t.Errorf("shares + remainder = %d, want pool %d", sum+rem, tt.pool)
			}
		})
	}
}
