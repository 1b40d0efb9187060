package crt

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolveRoundTrip(t *testing.T) {
	cases := []struct {
		a, m, b, n int64
	}{
		{2, 3, 3, 5},
		{1, 4, 1, 6},   // gcd(4,6)=2, divides b-a=0: solvable
		{0, 4, 2, 6},   // gcd(4,6)=2, divides b-a=2: solvable
		{7, 11, 3, 13},
	}
	for _, c := range cases {
		a, m, b, n := big.NewInt(c.a), big.NewInt(c.m), big.NewInt(c.b), big.NewInt(c.n)
		x, M, ok := Solve(a, m, b, n)
		require.True(t, ok, "case %+v: expected a solution", c)

		gotA := new(big.Int).Mod(x, m)
		require.Zero(t, gotA.Cmp(new(big.Int).Mod(a, m)), "x mod m mismatch for %+v", c)

		gotB := new(big.Int).Mod(x, n)
		require.Zero(t, gotB.Cmp(new(big.Int).Mod(b, n)), "x mod n mismatch for %+v", c)

		wantM := new(big.Int).Div(new(big.Int).Mul(m, n), new(big.Int).GCD(nil, nil, m, n))
		require.Zero(t, wantM.Cmp(M), "lcm mismatch for %+v", c)
	}
}

func TestSolveUnsolvable(t *testing.T) {
	// gcd(4,6)=2 must divide b-a; 1 does not.
	a, m, b, n := big.NewInt(0), big.NewInt(4), big.NewInt(1), big.NewInt(6)
	_, _, ok := Solve(a, m, b, n)
	require.False(t, ok)
}

func TestSolveRandomCoprimeModuli(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		m := big.NewInt(int64(2*rng.Intn(500) + 3))
		var n *big.Int
		for {
			n = big.NewInt(int64(2*rng.Intn(500) + 3))
			if new(big.Int).GCD(nil, nil, m, n).Cmp(big.NewInt(1)) == 0 {
				break
			}
		}
		a := big.NewInt(int64(rng.Intn(int(m.Int64()))))
		b := big.NewInt(int64(rng.Intn(int(n.Int64()))))

		x, M, ok := Solve(a, m, b, n)
		require.True(t, ok)
		require.Zero(t, M.Cmp(new(big.Int).Mul(m, n)), "coprime moduli: M must equal m*n")
		require.Zero(t, a.Cmp(new(big.Int).Mod(x, m)))
		require.Zero(t, b.Cmp(new(big.Int).Mod(x, n)))
	}
}
