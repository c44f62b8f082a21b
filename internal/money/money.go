// Package money provides fixed-point cent arithmetic for settlement math.
//
// All amounts in the system are integer cents. Floating point never touches a
// settlement calculation; the only conversions are at the presentation edge.
package money

import "fmt"

// Cents is a monetary amount in integer cents. Negative values are permitted
// for intermediate arithmetic but every stored amount is non-negative.
type Cents int64

// String formats the amount as dollars, e.g. 1234 -> "$12.34".
func (c Cents) String() string {
	neg := ""
	v := int64(c)
	if v < 0 {
		neg = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", neg, v/100, v%100)
}

// Ptr returns a pointer to c. Convenient for optional amounts.
func Ptr(c Cents) *Cents { return &c }

// Scale returns floor(pool * num / den). It is the claim-ratio scaling
// primitive: den is the subtotal basis, num the claimed portion of it.
// Returns 0 when den <= 0 or num <= 0, and never returns more than pool.
func Scale(pool, num, den Cents) Cents {
	if pool <= 0 || num <= 0 || den <= 0 {
		return 0
	}
	if num >= den {
		return pool
	}
	return Cents(int64(pool) * int64(num) / int64(den))
}

// SplitEven divides pool into n floor shares plus a remainder.
// each*n + remainder == pool, 0 <= remainder < n.
func SplitEven(pool Cents, n int) (each, remainder Cents) {
	if n <= 0 || pool <= 0 {
		return 0, 0
	}
	each = pool / Cents(n)
	remainder = pool - each*Cents(n)
	return each, remainder
}

// SplitProportional allocates pool across weights using floor division.
// shares[i] = floor(pool * weights[i] / sum(weights)); the floor-rounding
// slack is returned as remainder, so sum(shares) + remainder == pool.
// A zero or negative total weight yields all-zero shares and the whole pool
// as remainder.
func SplitProportional(pool Cents, weights []Cents) (shares []Cents, remainder Cents) {
	shares = make([]Cents, len(weights))
	if pool <= 0 {
		return shares, 0
	}
	var total int64
	for _, w := range weights {
		if w > 0 {
			total += int64(w)
		}
	}
	if total <= 0 {
		return shares, pool
	}
	var allocated int64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		shares[i] = Cents(int64(pool) * int64(w) / total)
		allocated += int64(shares[i])
	}
	return shares, pool - Cents(allocated)
}
