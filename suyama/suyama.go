// Package suyama turns a batch of (u, v) seed pairs into ECM starting curves
// using Suyama's parameterization, amortizing the one expensive operation,
// modular inversion, across the whole batch via Montgomery's batch-
// inversion trick.
package suyama

import (
	"math/big"

	"github.com/blck-snwmn/primefactor/curve"
	"github.com/blck-snwmn/primefactor/montgomery"
	"github.com/blck-snwmn/primefactor/seed"
)

// Curve is one ECM starting curve: a point P0 and the constant
// a24 = (A+2)/4, both in Montgomery form relative to the ctx passed to
// BatchInit.
type Curve struct {
	P0  curve.Point
	A24 *big.Int
}

// NewCurves allocates seed.Iterations curves ready for BatchInit to fill in.
func NewCurves() [seed.Iterations]Curve {
	var curves [seed.Iterations]Curve
	for i := range curves {
		curves[i] = Curve{P0: curve.NewPoint(), A24: new(big.Int)}
	}
	return curves
}

// BatchInit fills curves[i] from params[i] for every i, for the modulus bound
// to ctx. For seed pair (u, v):
//
//	P0.X  = (u/v)^3,  P0.Z = 1          (Montgomery form)
//	a24   = (v-u)^3 (3u+v) / (16 u^3 v) (Montgomery form)
//
// Both depend on inverting den_i = 16 u_i^3 v_i, and instead of inverting
// each one separately, BatchInit builds prefix products pi_i = den_0 *
// ... * den_i, inverts only pi_{n-1}, and unwinds right to left recovering
// each den_i^-1 as pi_{i-1} * pi_i^-1: one inversion plus O(n)
// multiplications for the whole batch. A den_i sharing a factor with the
// modulus is a programmer error here: by the time this batch runs, Pollard
// rho has already removed small factors from the residue, so a collision is
// not expected to occur and is treated as fatal rather than silently
// skipped.
func BatchInit(ctx *montgomery.Context, params *[seed.Iterations]seed.Param, curves *[seed.Iterations]Curve) {
	mont16 := ctx.ToMontgomery(big.NewInt(16))
	mont3 := ctx.ToMontgomery(big.NewInt(3))

	prefix := make([]*big.Int, seed.Iterations)
	for i := range prefix {
		prefix[i] = new(big.Int)
	}

	for i := 0; i < seed.Iterations; i++ {
		c := &curves[i]
		c.P0.X.Set(ctx.ToMontgomery(new(big.Int).SetUint64(uint64(params[i].U))))
		c.P0.Z.Set(ctx.ToMontgomery(new(big.Int).SetUint64(uint64(params[i].V))))
		// P0 now holds (u, v) in Montgomery form.

		den := ctx.Cube(c.P0.X)
		ctx.MulAssign(den, mont16)
		ctx.MulAssign(den, c.P0.Z)
		c.A24 = den // A24 temporarily holds the denominator; overwritten below.
	}

	prefix[0].Set(curves[0].A24)
	for i := 1; i < seed.Iterations; i++ {
		prefix[i].Set(prefix[i-1])
		ctx.MulAssign(prefix[i], curves[i].A24)
	}

	inv, ok := ctx.Invert(prefix[seed.Iterations-1])
	if !ok {
		panic("suyama: batch denominator not invertible modulo n")
	}

	for i := seed.Iterations - 1; i > 0; i-- {
		ctx.MulAssign(prefix[i-1], inv) // prefix[i-1] now holds den_i^-1
		ctx.MulAssign(inv, curves[i].A24)
		curves[i].A24 = prefix[i-1]
	}
	curves[0].A24 = inv

	w := new(big.Int)
	y := new(big.Int)
	for i := 0; i < seed.Iterations; i++ {
		c := &curves[i]
		w.Set(c.P0.X) // w = u
		y.Set(c.P0.Z) // y = v

		ctx.SubAssign(c.P0.Z, c.P0.X)
		ctx.CubeAssign(c.P0.Z) // Z = (v-u)^3

		ctx.MulAssign(w, mont3)
		ctx.AddAssign(w, y) // w = 3u+v
		ctx.MulAssign(c.P0.Z, w) // Z = numerator of a24

		ctx.SquareAssign(c.P0.X)
		ctx.SquareAssign(c.P0.X) // X = u^4
		ctx.MulAssign(c.P0.X, mont16)
		ctx.MulAssign(c.P0.X, c.A24) // X = 16u^4 * den^-1 = u/v
		ctx.CubeAssign(c.P0.X)       // X = (u/v)^3

		ctx.MulAssign(c.A24, c.P0.Z) // a24 = numerator / den
		c.P0.Z.Set(ctx.One())
	}
}
