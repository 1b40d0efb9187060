package suyama

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blck-snwmn/primefactor/curve"
	"github.com/blck-snwmn/primefactor/montgomery"
	"github.com/blck-snwmn/primefactor/seed"
)

// referenceCurve computes curve i's expected X and A24 directly (not via the
// batch-inversion trick), for comparison against BatchInit's output.
func referenceCurve(ctx *montgomery.Context, u, v uint32) (x, a24 *big.Int) {
	bu := new(big.Int).SetUint64(uint64(u))
	bv := new(big.Int).SetUint64(uint64(v))

	vInv := new(big.Int).ModInverse(bv, ctx.Modulus())
	uv := new(big.Int).Mul(bu, vInv)
	uv.Mod(uv, ctx.Modulus())
	x = new(big.Int).Exp(uv, big.NewInt(3), ctx.Modulus())

	vMinusU := new(big.Int).Sub(bv, bu)
	vMinusU.Mod(vMinusU, ctx.Modulus())
	num := new(big.Int).Exp(vMinusU, big.NewInt(3), ctx.Modulus())
	threeUPlusV := new(big.Int).Mul(bu, big.NewInt(3))
	threeUPlusV.Add(threeUPlusV, bv)
	threeUPlusV.Mod(threeUPlusV, ctx.Modulus())
	num.Mul(num, threeUPlusV)
	num.Mod(num, ctx.Modulus())

	den := new(big.Int).Exp(bu, big.NewInt(3), ctx.Modulus())
	den.Mul(den, big.NewInt(16))
	den.Mul(den, bv)
	den.Mod(den, ctx.Modulus())
	denInv := new(big.Int).ModInverse(den, ctx.Modulus())

	a24 = new(big.Int).Mul(num, denInv)
	a24.Mod(a24, ctx.Modulus())
	return x, a24
}

func TestBatchInitMatchesReferenceFormula(t *testing.T) {
	n, ok := new(big.Int).SetString("170141183460469231731687303715884105727", 10) // 2^127 - 1
	require.True(t, ok)
	ctx := montgomery.NewContext(n)

	var params [seed.Iterations]seed.Param
	for i := range params {
		sigma := uint32(6 + i)
		params[i] = seed.Param{U: sigma*sigma - 5, V: 4 * sigma}
	}

	curves := NewCurves()
	BatchInit(ctx, &params, &curves)

	for i := 0; i < 10; i++ {
		wantX, wantA24 := referenceCurve(ctx, params[i].U, params[i].V)

		gotX := ctx.FromMontgomery(curves[i].P0.X)
		gotA24 := ctx.FromMontgomery(curves[i].A24)

		require.Equal(t, wantX, gotX, "curve %d: X mismatch", i)
		require.Equal(t, wantA24, gotA24, "curve %d: a24 mismatch", i)
		require.Equal(t, ctx.One(), curves[i].P0.Z, "curve %d: Z must be Montgomery 1", i)
	}
}

func TestBatchInitDoublingKeepsZNonzero(t *testing.T) {
	// A weak sanity check on the curves BatchInit produces, one that phase 1
	// depends on: doubling each P0 with its a24 must not collapse Z to 0
	// (which would make every later ladder step degenerate).
	n, ok := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	require.True(t, ok)
	ctx := montgomery.NewContext(n)

	var params [seed.Iterations]seed.Param
	for i := range params {
		sigma := uint32(6 + i)
		params[i] = seed.Param{U: sigma*sigma - 5, V: 4 * sigma}
	}
	curves := NewCurves()
	BatchInit(ctx, &params, &curves)

	sc := curve.NewScratch()
	for i := 0; i < 5; i++ {
		p := curve.NewPoint()
		p.Set(curves[i].P0)
		curve.Double(sc, p, curves[i].A24, ctx)
		require.NotEqual(t, big.NewInt(0), ctx.FromMontgomery(p.Z), "curve %d: doubling collapsed Z to 0", i)
	}
}
