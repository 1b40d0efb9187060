// Package curve implements Montgomery-curve point arithmetic in projective
// (X:Z) coordinates: point doubling, differential addition, and the ladder
// that drives both ECM phases. Every operation here works purely in
// Montgomery form relative to a caller-supplied montgomery.Context. Y is
// never tracked, matching the curve equation By² = x³ + Ax² + x where only
// a24 = (A+2)/4 is needed for the arithmetic below.
package curve

import (
	"math/big"

	"github.com/blck-snwmn/primefactor/montgomery"
)

// Point is a projective Montgomery point (X:Z). (X:Z) ~ (λX:λZ) for any unit
// λ, so Z is not normalized to 1 except where the algorithm specifically
// requires it.
type Point struct {
	X, Z *big.Int
}

// NewPoint returns a point with fresh zero coordinates.
func NewPoint() Point {
	return Point{X: new(big.Int), Z: new(big.Int)}
}

// Set copies other into p.
func (p Point) Set(other Point) {
	p.X.Set(other.X)
	p.Z.Set(other.Z)
}

// Scratch holds every temporary Double, Add, Ladder and LadderScalar need, so
// none of them allocate on the hot path. A Scratch is owned by exactly one
// goroutine at a time; callers driving factorizations concurrently give
// each goroutine its own Scratch alongside its own montgomery.Context.
type Scratch struct {
	a, b, z *big.Int
	ladderP Point
	ladderQ Point
}

// NewScratch allocates a Scratch ready for use.
func NewScratch() *Scratch {
	return &Scratch{
		a:       new(big.Int),
		b:       new(big.Int),
		z:       new(big.Int),
		ladderP: NewPoint(),
		ladderQ: NewPoint(),
	}
}

// Double computes 2P in place: with A=(X+Z)², B=(X-Z)², X'=AB,
// Z'=(A-B)(B+a24(A-B)).
func Double(s *Scratch, p Point, a24 *big.Int, ctx *montgomery.Context) {
	s.a.Set(p.X)
	ctx.AddAssign(s.a, p.Z)
	ctx.SquareAssign(s.a) // a = (X+Z)^2

	s.b.Set(p.X)
	ctx.SubAssign(s.b, p.Z)
	ctx.SquareAssign(s.b) // b = (X-Z)^2

	p.X.Set(s.a)
	ctx.MulAssign(p.X, s.b) // X' = a*b

	ctx.SubAssign(s.a, s.b) // a = a - b
	p.Z.Set(s.a)

	ctx.MulAssign(s.a, a24)
	ctx.AddAssign(s.a, s.b)
	ctx.MulAssign(p.Z, s.a) // Z' = (a-b) * (b + a24*(a-b))
}

// Add computes P+Q in place into P, given R = P-Q (or Q-P): with
// CD=(X_P+Z_P)(X_Q-Z_Q), DA=(X_P-Z_P)(X_Q+Z_Q), X_{P+Q}=(CD+DA)²,
// Z_{P+Q}=X_R(CD-DA)². The result's Z coordinate is left multiplied by R.Z;
// callers that need it normalized compensate by multiplying the X coordinate
// by R.Z as well (the ladder's normalization-deferral contract).
func Add(s *Scratch, p, q, r Point, ctx *montgomery.Context) {
	s.a.Set(p.X)
	s.b.Set(p.X)
	ctx.AddAssign(s.a, p.Z) // a = X_P + Z_P
	ctx.SubAssign(s.b, p.Z) // b = X_P - Z_P

	s.z.Set(q.X)
	ctx.SubAssign(s.z, q.Z)
	ctx.MulAssign(s.a, s.z) // a = (X_Q - Z_Q)(X_P + Z_P) = CD

	s.z.Set(q.X)
	ctx.AddAssign(s.z, q.Z)
	ctx.MulAssign(s.b, s.z) // b = (X_Q + Z_Q)(X_P - Z_P) = DA

	p.X.Set(s.a)
	ctx.AddAssign(p.X, s.b)
	ctx.SquareAssign(p.X) // X' = (CD + DA)^2

	p.Z.Set(s.a)
	ctx.SubAssign(p.Z, s.b)
	ctx.SquareAssign(p.Z)
	ctx.MulAssign(p.Z, r.X) // Z' = X_R (CD - DA)^2
}

// Ladder computes [s]P0 via a most-significant-bit-first Montgomery ladder,
// overwriting P0 with the result. bits is the scalar's bit expansion,
// most-significant bit first, excluding the leading 1 (the leading 1 is
// accounted for by the initial doubling), exactly the representation
// seed.Data's s-tables store. P0 must carry Z = 1 in Montgomery form: the
// ladder's differential additions use P0 as the fixed difference and skip
// the X compensation LadderScalar performs for a general-Z difference.
func Ladder(s *Scratch, p0 Point, a24 *big.Int, bits []bool, ctx *montgomery.Context) {
	s.ladderQ.Set(p0)
	s.ladderP.Set(p0)
	Double(s, s.ladderP, a24, ctx)

	for _, b := range bits {
		if b {
			Add(s, s.ladderQ, s.ladderP, p0, ctx)
			Double(s, s.ladderP, a24, ctx)
		} else {
			Add(s, s.ladderP, s.ladderQ, p0, ctx)
			Double(s, s.ladderQ, a24, ctx)
		}
	}

	p0.Set(s.ladderQ)
}

// LadderScalar computes both [s]P0 and [s+1]P0 for a small integer scalar s,
// storing [s]P0 into p0 and [s+1]P0 into q0 (in place, both overwritten). Used
// by ECM's phase-2 setup to find the block-multiple point and its neighbor in
// one pass.
func LadderScalar(sc *Scratch, p0, q0 Point, s uint32, a24 *big.Int, ctx *montgomery.Context) {
	if s == 0 {
		// Block indices start at 1; every caller in this module passes a
		// positive scalar. [0]P0 has no well-formed (X:Z) representation in
		// this deferred-normalization scheme, so rather than fake one, the
		// precondition is enforced here instead of silently doing the wrong
		// arithmetic.
		panic("curve: LadderScalar requires s > 0")
	}

	sc.ladderQ.Set(p0)
	sc.ladderP.Set(p0)
	Double(sc, sc.ladderP, a24, ctx)

	highBit := 31
	for (s>>uint(highBit))&1 == 0 && highBit > 0 {
		highBit--
	}
	for i := highBit - 1; i >= 0; i-- {
		if (s>>uint(i))&1 != 0 {
			Add(sc, sc.ladderQ, sc.ladderP, p0, ctx)
			ctx.MulAssign(sc.ladderQ.X, p0.Z) // compensate: R=p0 may have Z != 1 here
			Double(sc, sc.ladderP, a24, ctx)
		} else {
			Add(sc, sc.ladderP, sc.ladderQ, p0, ctx)
			ctx.MulAssign(sc.ladderP.X, p0.Z)
			Double(sc, sc.ladderQ, a24, ctx)
		}
	}

	p0.Set(sc.ladderQ)
	q0.Set(sc.ladderP)
}
