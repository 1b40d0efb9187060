// Package ecm implements the two-stage elliptic-curve factorization method:
// phase 1 raises a Suyama curve's base point to the scalar s (absorbing
// every prime power below B1), and phase 2 extends the search up to B2 by
// walking a precomputed block table and accumulating a single running
// difference-product for one final GCD.
package ecm

import (
	"math/big"

	"github.com/blck-snwmn/primefactor/curve"
	"github.com/blck-snwmn/primefactor/montgomery"
	"github.com/blck-snwmn/primefactor/seed"
	"github.com/blck-snwmn/primefactor/suyama"
)

// Scratch holds every temporary a single curve's phase1+phase2 pass needs.
// Like curve.Scratch and pollard.Scratch, one Scratch belongs to exactly one
// goroutine at a time.
type Scratch struct {
	curve *curve.Scratch

	table []curve.Point // precomputed [v]Q0 for v in the block's Values table

	q2, rPrev, r       curve.Point
	precompP, precompQ curve.Point
	x, y               *big.Int
}

// NewScratch allocates a Scratch sized for the larger of the two block
// sizes, so the same Scratch serves both ECM passes.
func NewScratch() *Scratch {
	maxBlock := seed.Bounds1.BlockSize
	if seed.Bounds2.BlockSize > maxBlock {
		maxBlock = seed.Bounds2.BlockSize
	}
	table := make([]curve.Point, maxBlock/2)
	for i := range table {
		table[i] = curve.NewPoint()
	}
	return &Scratch{
		curve:    curve.NewScratch(),
		table:    table,
		q2:       curve.NewPoint(),
		rPrev:    curve.NewPoint(),
		r:        curve.NewPoint(),
		precompP: curve.NewPoint(),
		precompQ: curve.NewPoint(),
		x:        new(big.Int),
		y:        new(big.Int),
	}
}

// Phase1 computes [s]Q by Montgomery ladder and reports gcd(Z_{[s]Q}, n).
// The caller inspects the returned g: 1 < g < n is a found factor, and g
// equal to 1 or n means phase 1 found nothing and phase 2 should run.
func Phase1(sc *Scratch, q curve.Point, a24 *big.Int, s []bool, ctx *montgomery.Context, n *big.Int) *big.Int {
	curve.Ladder(sc.curve, q, a24, s, ctx)
	// gcd(x, n) is invariant under multiplying x by any unit mod n, so Z's
	// Montgomery form needs no conversion before the gcd.
	g := new(big.Int)
	g.GCD(nil, nil, q.Z, n)
	return g
}

// precomputeTable fills sc.table[i] with [values[i]]*Q0 for each i, using
// the doubling step q2 = 2*Q0 to advance by 2 at a time (only odd multiples
// are ever needed, since Values never contains an even residue).
func precomputeTable(sc *Scratch, q0 curve.Point, q2 curve.Point, values []int, ctx *montgomery.Context) {
	p, q := sc.precompP, sc.precompQ
	p.Set(q0)

	j := 1
	for idx, v := range values {
		for j < v {
			q.Set(p)
			p.Set(q0)
			curve.Add(sc.curve, q0, q2, q, ctx)
			ctx.MulAssign(q0.X, q.Z)
			j += 2
		}
		sc.table[idx].Set(q0)
	}
}

// Phase2 runs the block-walk second stage for the bound pair (B1, B2) over
// the primes in [start, end) (indices into the shared prime table, with
// gaps sliced the same way), accumulating g <- g * (X_R Z_table - X_table
// Z_R) mod n for each prime, and returns gcd(g, n).
func Phase2(sc *Scratch, q curve.Point, a24 *big.Int, ctx *montgomery.Context, n *big.Int, b1, blockSize int, primes []uint32, start, end int, gapIndex []int, values []int) *big.Int {
	halfBlock := blockSize / 2

	sc.q2.Set(q)
	curve.Double(sc.curve, sc.q2, a24, ctx) // q2 = 2*Q0

	sc.r.Set(q)
	precomputeTable(sc, q, sc.q2, values, ctx)

	q.Set(sc.r)
	curve.LadderScalar(sc.curve, q, sc.rPrev, uint32(blockSize), a24, ctx) // q = blockSize * Q0 (rPrev discarded here)

	c := (b1 + halfBlock) / blockSize
	sc.q2.Set(q)
	curve.LadderScalar(sc.curve, sc.q2, sc.r, uint32(c-1), a24, ctx)
	// r = [c*blockSize]Q0 (the starting cursor), q2 = [(c-1)*blockSize]Q0
	// (one block behind).

	cScalar := c * blockSize

	g := ctx.One()
	for i := start; i < end; i++ {
		gap := gapIndex[i]
		distance := int(primes[i]) - cScalar

		for distance > halfBlock {
			sc.rPrev.Set(sc.q2)
			sc.q2.Set(sc.r)
			curve.Add(sc.curve, sc.r, q, sc.rPrev, ctx)
			ctx.MulAssign(sc.r.X, sc.rPrev.Z)

			distance -= blockSize
			cScalar += blockSize
		}

		sc.x.Set(sc.r.X)
		ctx.MulAssign(sc.x, sc.table[gap].Z)
		sc.y.Set(sc.r.Z)
		ctx.MulAssign(sc.y, sc.table[gap].X)

		ctx.SubAssign(sc.x, sc.y)
		ctx.MulAssign(g, sc.x)
	}

	out := new(big.Int)
	out.GCD(nil, nil, g, n)
	return out
}

// PerfectSquareRoot repeatedly takes the integer square root of x while x is
// a perfect square, returning the fully-rooted value. Exposed here since
// both the orchestrator's dispatch loop and ECM's trial loop need it.
func PerfectSquareRoot(x *big.Int) *big.Int {
	r := new(big.Int).Set(x)
	for {
		root, rem := new(big.Int), new(big.Int)
		root.Sqrt(r)
		rem.Mul(root, root)
		if rem.Cmp(r) != 0 || root.Cmp(r) == 0 {
			break
		}
		r.Set(root)
	}
	return r
}

// Curves is the batch of ECM starting curves for one pass, reusable across
// both rounds of a single top-level call via a fresh BatchInit per pass.
type Curves = [seed.Iterations]suyama.Curve
