// Package crt solves the two-congruence Chinese Remainder Theorem over
// arbitrary-precision integers: a small number-theory helper that sits
// alongside the factoring engine but is independent of its hot path.
package crt

import "math/big"

// Solve finds x and M such that x ≡ a (mod m), x ≡ b (mod n), and M is
// lcm(m, n). It reports false if no such x exists, i.e. (b-a) is not
// divisible by gcd(m, n).
func Solve(a, m, b, n *big.Int) (x, M *big.Int, ok bool) {
	x = new(big.Int).Set(a)
	M = new(big.Int).Set(m)
	ok = SolveInPlace(x, M, b, n)
	return x, M, ok
}

// SolveInPlace is the in-place variant of Solve: a and m are updated to the
// solution x and its modulus M. b and n are left untouched.
func SolveInPlace(a, m *big.Int, b, n *big.Int) bool {
	// g = gcd(m, n), with Bézout coefficients x, y such that m*x + n*y = g.
	g := new(big.Int)
	x := new(big.Int)
	g.GCD(x, nil, m, n)

	// diff = b - a must be divisible by g for a solution to exist.
	diff := new(big.Int).Sub(b, a)
	rem := new(big.Int)
	quot := new(big.Int)
	quot.QuoRem(diff, g, rem)
	if rem.Sign() != 0 {
		return false
	}

	// a += ((diff/g) * x mod n) * m
	y := new(big.Int).Mul(quot, x)
	y.Mod(y, n)
	y.Mul(y, m)
	a.Add(a, y)

	// m = m * n / g
	m.Mul(m, n)
	m.Div(m, g)

	a.Mod(a, m)
	return true
}
