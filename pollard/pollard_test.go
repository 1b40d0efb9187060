package pollard

import (
	"math/big"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/require"

	"github.com/blck-snwmn/primefactor/montgomery"
	"github.com/blck-snwmn/primefactor/prng"
)

// attemptBrent runs Brent up to the orchestrator's own retry budget of three
// attempts against n, returning the factor found and how many attempts it
// took, or ok=false if all three attempts failed.
func attemptBrent(n *big.Int, ctx *montgomery.Context, source *prng.Source) (factor *big.Int, attempts int, ok bool) {
	sc := NewScratch()
	g := new(big.Int)
	for attempts = 1; attempts <= 3; attempts++ {
		if Brent(sc, n, ctx, source, g) {
			return new(big.Int).Set(g), attempts, true
		}
	}
	return nil, attempts, false
}

func TestBrentSplitsSemiprime(t *testing.T) {
	// Unbalanced on purpose: the rho cycle modulo the smaller factor closes
	// an order of magnitude sooner than modulo the larger one, so the batched
	// gcd isolates the small factor instead of collapsing to n.
	p := big.NewInt(10007)
	q := big.NewInt(1000003)
	n := new(big.Int).Mul(p, q)
	ctx := montgomery.NewContext(n)
	source := prng.Seeded([]byte("pollard-brent-splits-semiprime"))

	factor, _, ok := attemptBrent(n, ctx, source)
	require.True(t, ok, "Brent failed to split %s within 3 attempts", n)
	require.True(t, factor.Cmp(big.NewInt(1)) > 0 && factor.Cmp(n) < 0)

	rem := new(big.Int).Mod(n, factor)
	require.Zero(t, rem.Sign(), "factor %s does not divide %s", factor, n)
	require.True(t, factor.Cmp(p) == 0 || factor.Cmp(q) == 0)
}

// TestBrentAttemptDistribution drives Brent against a batch of independent
// semiprimes and summarizes how many attempts each needed, the same
// "how many tries did this take" sanity check the rest of this numerics
// suite runs over randomized trials.
func TestBrentAttemptDistribution(t *testing.T) {
	semiprimes := []struct{ p, q int64 }{
		{1009, 104729}, {10007, 1000003}, {10009, 10000019},
		{100003, 1000000007}, {100019, 982451653}, {1013, 999983},
	}

	var counts []float64
	for i, sp := range semiprimes {
		n := big.NewInt(sp.p * sp.q)
		ctx := montgomery.NewContext(n)
		source := prng.Seeded([]byte{byte(i), 'b', 'r', 'e', 'n', 't'})

		_, attempts, ok := attemptBrent(n, ctx, source)
		require.True(t, ok, "n=%d", n)
		counts = append(counts, float64(attempts))
	}

	mean, err := stats.Mean(stats.Float64Data(counts))
	require.NoError(t, err)
	require.True(t, mean <= 3, "average attempt count %.2f exceeds the 3-attempt retry budget", mean)

	_, err = stats.StandardDeviation(stats.Float64Data(counts))
	require.NoError(t, err)
}

func TestBrentFailureIsNotFatal(t *testing.T) {
	// A prime modulus has no proper factor to find; Brent must report
	// failure rather than panicking or returning a bogus "factor".
	n := big.NewInt(1000003)
	ctx := montgomery.NewContext(n)
	source := prng.Seeded([]byte("pollard-failure-not-fatal"))

	_, _, ok := attemptBrent(n, ctx, source)
	require.False(t, ok)
}
