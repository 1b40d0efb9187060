// Package pollard implements Pollard's rho factorization with Brent's cycle
// detection and batched GCD accumulation: the engine's first attempt at
// splitting a composite before it escalates to ECM.
package pollard

import (
	"math/big"

	"github.com/blck-snwmn/primefactor/montgomery"
	"github.com/blck-snwmn/primefactor/prng"
)

const batchSize = 4096

// Scratch holds every temporary Brent needs, so a caller driving many
// factorizations on one goroutine never allocates on the hot path. A Scratch
// is owned by exactly one goroutine at a time, mirroring curve.Scratch.
type Scratch struct {
	x, y, ys, c, t, g *big.Int
}

// NewScratch allocates a Scratch ready for use.
func NewScratch() *Scratch {
	return &Scratch{
		x: new(big.Int), y: new(big.Int), ys: new(big.Int),
		c: new(big.Int), t: new(big.Int), g: new(big.Int),
	}
}

// f advances the Pollard iterate: x <- x^2 + c (mod n), all in Montgomery
// form.
func f(x, c *big.Int, ctx *montgomery.Context) {
	ctx.SquareAssign(x)
	ctx.AddAssign(x, c)
}

// Brent attempts to split the odd composite bound to ctx via Pollard's rho
// with Brent's cycle-detection schedule, drawing its starting c and y from
// source. On success it writes a non-trivial factor into g and returns true;
// on failure it returns false and the caller may retry with a fresh draw;
// a single failed attempt carries no information about whether a further
// attempt would succeed.
func Brent(sc *Scratch, n *big.Int, ctx *montgomery.Context, source *prng.Source, g *big.Int) bool {
	g.SetInt64(0) // caller's g may hold a stale value from a prior call

	sc.c.Set(source.Bits(10))
	sc.y.Set(source.Bits(10))
	ctx.ToMontgomeryInPlace(sc.c)
	ctx.ToMontgomeryInPlace(sc.y)

	one := big.NewInt(1)

	r := 1
	for round := 0; round < 19; round++ {
		sc.x.Set(sc.y)

		for i := 0; i < r; i++ {
			f(sc.y, sc.c, ctx)
		}

		k := 0
		for k < r && g.Cmp(one) <= 0 {
			g.Set(ctx.One())
			sc.ys.Set(sc.y)

			step := r - k
			if step > batchSize {
				step = batchSize
			}
			for i := 0; i < step; i++ {
				f(sc.y, sc.c, ctx)
				sc.t.Set(sc.x)
				ctx.SubAssign(sc.t, sc.y)
				ctx.MulAssign(g, sc.t)
			}
			g.GCD(nil, nil, g, n) // g is no longer in Montgomery form from here

			k += batchSize
		}

		if g.Cmp(one) > 0 {
			break
		}
		r <<= 1
	}

	if g.Cmp(one) == 0 {
		return false
	}

	if g.Cmp(n) == 0 {
		for attempt := 0; attempt < 128; attempt++ {
			g.Set(ctx.One())
			for i := 0; i < 128; i++ {
				f(sc.ys, sc.c, ctx)
				sc.t.Set(sc.x)
				ctx.SubAssign(sc.t, sc.ys)
				ctx.MulAssign(g, sc.t)
			}
			g.GCD(nil, nil, g, n)
			if g.Cmp(one) > 0 && g.Cmp(n) < 0 {
				return true
			}
		}
	}

	return g.Cmp(one) > 0 && g.Cmp(n) < 0
}
