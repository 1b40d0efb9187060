// Package montgomery implements Montgomery modular arithmetic over
// arbitrary-precision odd moduli: the substrate the rest of this module's
// factoring engine is built on.
//
// A Context precomputes everything multiplication-in-this-modulus needs once
// (R, R mod n, R² mod n, R³ mod n, and -n⁻¹ mod R via Hensel lifting) and then
// every operation (Mul, Square, Cube, Add, Sub, Invert, the to/from
// conversions) reuses those constants and a pair of scratch integers instead
// of allocating. Values that "are in Montgomery form" live in the lazy range
// [0, 2n), not the canonical [0, n): the margin above n built into the choice
// of R (R > 4n) licenses skipping the conditional subtract of n after every
// Montgomery reduction (Mul, Square, Cube), Add and Sub stay in range with a
// single conditional correction by 2n, and only the final FromMontgomery
// folds a value back into [0, n).
//
// This package does not support even moduli. Context is not safe for
// concurrent use; callers that need to factor on multiple goroutines should
// give each one its own Context.
package montgomery

import (
	"math/big"
	"math/bits"
)

// wordBits is the machine word size of the underlying big-integer library,
// the granularity R is aligned to. math/big represents an Int as a slice of
// big.Word, and big.Word is exactly bits.UintSize wide.
const wordBits = bits.UintSize

// Context holds the constants bound to one odd modulus n > 1.
type Context struct {
	n  *big.Int // the modulus
	n2 *big.Int // 2n, the lazy reduction cap

	rBitLen uint     // bit length of R = 2^rBitLen, a multiple of wordBits
	rMask   *big.Int // R - 1, for keeping the low rBitLen bits of a value
	rVal    *big.Int // R itself
	nInv    *big.Int // -n^-1 mod R

	rModN        *big.Int // R mod n
	rSquaredModN *big.Int // R^2 mod n
	rCubedModN   *big.Int // R^3 mod n

	t, t2 *big.Int // scratch, reused across operations
}

// NewContext builds a Montgomery context for the odd modulus n > 1. Passing
// an even modulus, or n <= 1, is a programmer error; NewContext panics
// rather than producing silently wrong arithmetic, since the orchestrator is
// responsible for never constructing one this way.
func NewContext(n *big.Int) *Context {
	if n.Sign() <= 0 || n.Cmp(big.NewInt(1)) <= 0 {
		panic("montgomery: modulus must be > 1")
	}
	if n.Bit(0) == 0 {
		panic("montgomery: modulus must be odd")
	}
	c := &Context{
		n:            new(big.Int),
		n2:           new(big.Int),
		rMask:        new(big.Int),
		rVal:         new(big.Int),
		nInv:         new(big.Int),
		rModN:        new(big.Int),
		rSquaredModN: new(big.Int),
		rCubedModN:   new(big.Int),
		t:            new(big.Int),
		t2:           new(big.Int),
	}
	c.ChangeMod(n)
	return c
}

// nextMultiple rounds bitLen up to the next multiple of word (aligning R to a
// whole number of limbs is a performance invariant, not a correctness one).
func nextMultiple(bitLen, word uint) uint {
	if bitLen%word == 0 {
		return bitLen
	}
	return (bitLen/word + 1) * word
}

// ChangeMod rebinds the context to a new odd modulus, recomputing every
// constant in place. Every operation called afterwards is relative to n.
func (c *Context) ChangeMod(n *big.Int) {
	c.n.Set(n)
	c.n2.Lsh(n, 1)

	c.rBitLen = nextMultiple(uint(n.BitLen())+2, wordBits)
	c.rVal.SetInt64(0)
	c.rVal.SetBit(c.rVal, int(c.rBitLen), 1)
	c.rMask.Sub(c.rVal, big.NewInt(1))

	// Hensel lifting: double the accuracy of n^-1 mod 2^k each round,
	// starting from the 3-bit-accurate seed n itself (n ≡ n^-1 mod 8 for odd
	// n), until the accuracy exceeds rBitLen.
	c.nInv.Set(n)
	two := big.NewInt(2)
	accuracy := 3
	for accuracy < int(c.rBitLen) {
		accuracy *= 2
		c.t.Mul(c.nInv, n)
		c.t.Sub(two, c.t)
		c.nInv.Mul(c.nInv, c.t)
	}
	c.nInv.And(c.nInv, c.rMask)
	if c.nInv.Sign() != 0 {
		c.nInv.Sub(c.rVal, c.nInv) // -n^-1 mod R, represented in [0, R)
	}

	// R^2 mod n, via the one place in this package that uses a plain
	// division instead of a Montgomery reduction (there is nothing yet to
	// reduce against).
	c.rSquaredModN.Lsh(big.NewInt(1), 2*c.rBitLen)
	c.rSquaredModN.Mod(c.rSquaredModN, n)

	// R mod n = reduce(R^2 mod n): reduce(x) = x * R^-1 mod n, and
	// (R^2 mod n) < n < R*n, so this is a single valid reduction.
	c.rModN.Set(c.rSquaredModN)
	c.reduceMut(c.rModN)

	// R^3 mod n = reduce((R^2 mod n)^2): (R^2 mod n)^2 ≡ R^4 (mod n), and is
	// bounded by n^2 < R*n since R > 4n.
	c.rCubedModN.Mul(c.rSquaredModN, c.rSquaredModN)
	c.reduceMut(c.rCubedModN)
}

// reduceMut performs one Montgomery reduction in place: x <- x * R^-1 mod n.
// Requires x < R*n; the result lies in [0, 2n). The reduction step is
// m = (x mod R) * n_inv mod R, then (x + m*n) / R.
func (c *Context) reduceMut(x *big.Int) {
	c.t.And(x, c.rMask)
	c.t.Mul(c.t, c.nInv)
	c.t.And(c.t, c.rMask)
	c.t.Mul(c.t, c.n)
	x.Add(x, c.t)
	x.Rsh(x, c.rBitLen)
}

// Modulus returns a copy of the bound modulus.
func (c *Context) Modulus() *big.Int {
	return new(big.Int).Set(c.n)
}

// BoundTo reports whether c is already bound to modulus n, letting a caller
// skip a full ChangeMod when nothing has changed.
func (c *Context) BoundTo(n *big.Int) bool {
	return c.n.Cmp(n) == 0
}

// Assign copies other's bound modulus and every precomputed constant into c
// directly, without recomputing anything: the cheap path a caller takes
// when it already knows two contexts are bound to the same modulus, instead
// of paying for a ChangeMod's Hensel lifting and reductions again.
func (c *Context) Assign(other *Context) {
	c.n.Set(other.n)
	c.n2.Set(other.n2)
	c.rBitLen = other.rBitLen
	c.rMask.Set(other.rMask)
	c.rVal.Set(other.rVal)
	c.nInv.Set(other.nInv)
	c.rModN.Set(other.rModN)
	c.rSquaredModN.Set(other.rSquaredModN)
	c.rCubedModN.Set(other.rCubedModN)
}

// One returns the Montgomery-form representation of 1 (i.e. R mod n).
func (c *Context) One() *big.Int {
	return new(big.Int).Set(c.rModN)
}

// ToMontgomery converts x (assumed < 2n) to Montgomery form: x*R mod n.
func (c *Context) ToMontgomery(x *big.Int) *big.Int {
	r := new(big.Int).Set(x)
	c.ToMontgomeryInPlace(r)
	return r
}

// ToMontgomeryInPlace converts x in place.
func (c *Context) ToMontgomeryInPlace(x *big.Int) {
	x.Mul(x, c.rSquaredModN)
	c.reduceMut(x)
}

// FromMontgomery converts x out of Montgomery form into the canonical range
// [0, n).
func (c *Context) FromMontgomery(x *big.Int) *big.Int {
	r := new(big.Int).Set(x)
	c.FromMontgomeryInPlace(r)
	return r
}

// FromMontgomeryInPlace converts x in place, folding once more into [0, n)
// after the reduction.
func (c *Context) FromMontgomeryInPlace(x *big.Int) {
	c.reduceMut(x)
	if x.Cmp(c.n) >= 0 {
		x.Sub(x, c.n)
	}
}

// Mul computes a*b in Montgomery form: a, b < 2n, result < 2n.
func (c *Context) Mul(a, b *big.Int) *big.Int {
	r := new(big.Int).Set(a)
	c.MulAssign(r, b)
	return r
}

// MulAssign computes a <- a*b in Montgomery form.
func (c *Context) MulAssign(a, b *big.Int) {
	a.Mul(a, b)
	c.reduceMut(a)
}

// Square computes x*x in Montgomery form.
func (c *Context) Square(x *big.Int) *big.Int {
	r := new(big.Int).Set(x)
	c.SquareAssign(r)
	return r
}

// SquareAssign computes x <- x*x in Montgomery form.
func (c *Context) SquareAssign(x *big.Int) {
	x.Mul(x, x)
	c.reduceMut(x)
}

// Cube computes x*x*x in Montgomery form, fused: one scratch copy, a square
// in place, then a multiply-reduce by the copy.
func (c *Context) Cube(x *big.Int) *big.Int {
	r := new(big.Int).Set(x)
	c.CubeAssign(r)
	return r
}

// CubeAssign computes x <- x*x*x in Montgomery form.
func (c *Context) CubeAssign(x *big.Int) {
	c.t2.Set(x)
	c.SquareAssign(x)
	x.Mul(x, c.t2)
	c.reduceMut(x)
}

// Add computes a+b in Montgomery form, staying within [0, 2n).
func (c *Context) Add(a, b *big.Int) *big.Int {
	r := new(big.Int).Set(a)
	c.AddAssign(r, b)
	return r
}

// AddAssign computes a <- a+b, subtracting 2n once if the sum overflows it.
func (c *Context) AddAssign(a, b *big.Int) {
	a.Add(a, b)
	if a.Cmp(c.n2) >= 0 {
		a.Sub(a, c.n2)
	}
}

// Sub computes a-b in Montgomery form, staying within [0, 2n).
func (c *Context) Sub(a, b *big.Int) *big.Int {
	r := new(big.Int).Set(a)
	c.SubAssign(r, b)
	return r
}

// SubAssign computes a <- a-b, adding 2n once if the difference went negative.
func (c *Context) SubAssign(a, b *big.Int) {
	a.Sub(a, b)
	if a.Sign() < 0 {
		a.Add(a, c.n2)
	}
}

// Increment adds 1 in Montgomery form.
func (c *Context) Increment(x *big.Int) *big.Int {
	r := new(big.Int).Set(x)
	c.IncrementAssign(r)
	return r
}

// IncrementAssign adds 1 in Montgomery form in place: x <- x + (R mod n),
// folding back into [0, 2n) the same way AddAssign does (x ranges over the
// whole lazy range here, not just values below n, so the wrap can trigger
// anywhere above 2n, not only at exact equality).
func (c *Context) IncrementAssign(x *big.Int) {
	c.AddAssign(x, c.rModN)
}

// Decrement subtracts 1 in Montgomery form.
func (c *Context) Decrement(x *big.Int) *big.Int {
	r := new(big.Int).Set(x)
	c.DecrementAssign(r)
	return r
}

// DecrementAssign subtracts 1 in Montgomery form in place: x <- x - (R mod
// n), folding back into [0, 2n) the same way SubAssign does.
func (c *Context) DecrementAssign(x *big.Int) {
	c.SubAssign(x, c.rModN)
}

// Invert computes the Montgomery-form inverse of a (itself in Montgomery
// form), returning ok=false if a is not a unit mod n, i.e. gcd(a, n) != 1.
// The caller can recover a candidate factor of n from that gcd if needed;
// Invert itself only reports the yes/no.
func (c *Context) Invert(a *big.Int) (inv *big.Int, ok bool) {
	r := new(big.Int).Set(a)
	if !c.InvertAssign(r) {
		return nil, false
	}
	return r, true
}

// InvertAssign inverts a in place (Montgomery form in, Montgomery form out).
// Internally this inverts the raw Montgomery representation as if it were a
// standard-form integer via the library's modular inverse, then multiplies by
// R^3 mod n and reduces: (xR)^-1 * R^3 * R^-1 = x^-1 * R mod n.
func (c *Context) InvertAssign(a *big.Int) bool {
	inv := new(big.Int).ModInverse(a, c.n)
	if inv == nil {
		return false
	}
	a.Mul(inv, c.rCubedModN)
	c.reduceMut(a)
	return true
}
