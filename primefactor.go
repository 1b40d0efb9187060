// Package primefactor factors arbitrary positive integers into their prime
// decomposition: trial division for small factors, Pollard's rho (Brent's
// variant) for medium ones, and two passes of the elliptic-curve method at
// increasing bounds for the rest.
package primefactor

import (
	"math/big"
	"sort"

	"github.com/blck-snwmn/primefactor/ecm"
	"github.com/blck-snwmn/primefactor/montgomery"
	"github.com/blck-snwmn/primefactor/pollard"
	"github.com/blck-snwmn/primefactor/prng"
	"github.com/blck-snwmn/primefactor/seed"
	"github.com/blck-snwmn/primefactor/stack"
	"github.com/blck-snwmn/primefactor/suyama"
)

var one = big.NewInt(1)

// Factor is one prime power of a factorization result.
type Factor struct {
	Prime    *big.Int
	Exponent uint32
}

// subProblem is a residue still being worked on: its own Montgomery context
// bound to n, and idx marking how far through the discovered-primes list it
// has already been reduced.
type subProblem struct {
	n   *big.Int
	idx int
	ctx *montgomery.Context
}

func newSubProblem() subProblem {
	return subProblem{n: new(big.Int), ctx: montgomery.NewContext(big.NewInt(3))}
}

// updateAll rebinds a subProblem slot to a fresh residue, recomputing its
// Montgomery context from scratch.
func (f *subProblem) updateAll(n *big.Int, idx int) {
	f.n.Set(n)
	f.idx = idx
	f.ctx.ChangeMod(n)
}

// updateNAndIndex rebinds only the residue and cursor; the context is left
// alone and picked up lazily the next time this slot is dispatched.
func (f *subProblem) updateNAndIndex(n *big.Int, idx int) {
	f.idx = idx
	f.n.Set(n)
}

// PrimeFactorize returns n's prime decomposition as an ordered list of
// (prime, exponent) pairs, primes in the order the engine discovered them.
// n must be positive; a non-positive n is a caller error and panics.
//
// Success is not guaranteed beyond two ECM passes at the bounds seed.Bounds1
// and seed.Bounds2: the product of the returned powers may be a proper
// divisor of n rather than n itself if the residue resists both Pollard rho
// and ECM at these bounds. Callers needing a completeness guarantee must
// check the product themselves and may retry with fresh randomness.
func PrimeFactorize(nInput *big.Int) []Factor {
	if nInput.Sign() <= 0 {
		panic("primefactor: n must be positive")
	}

	data := seed.Get()
	primes := data.Primes

	var factors []Factor
	n := new(big.Int).Set(nInput)

	if n.Bit(0) == 0 {
		exp := uint32(0)
		for n.Bit(0) == 0 {
			n.Rsh(n, 1)
			exp++
		}
		factors = append(factors, Factor{Prime: big.NewInt(2), Exponent: exp})
	}

	trialDivision(n, &factors, primes)

	if n.Cmp(one) == 0 {
		return factors
	}

	temporaryFactors := stack.New(seed.StackSize, newSubProblem)
	primeFactors := stack.New(seed.StackSize, func() *big.Int { return new(big.Int) })

	top := temporaryFactors.Next()
	top.updateAll(n, primeFactors.Len())
	temporaryFactors.Inc()

	dispatchPollard(temporaryFactors, primeFactors)

	findExponents(n, primeFactors, &factors, temporaryFactors)

	ecmCtx := montgomery.NewContext(big.NewInt(3))
	ecmScratch := ecm.NewScratch()

	ecmCtx.ChangeMod(n)
	curves1 := suyama.NewCurves()
	suyama.BatchInit(ecmCtx, &data.Params1, &curves1)
	ecmTrial(n, ecmCtx, ecmScratch, seed.Bounds1, &curves1, data.S1,
		temporaryFactors, primeFactors, primes, data.Gaps1)

	findExponents(n, primeFactors, &factors, temporaryFactors)
	if n.Cmp(one) == 0 {
		return factors
	}

	ecmCtx.ChangeMod(n)
	curves2 := suyama.NewCurves()
	suyama.BatchInit(ecmCtx, &data.Params2, &curves2)
	ecmTrial(n, ecmCtx, ecmScratch, seed.Bounds2, &curves2, data.S2,
		temporaryFactors, primeFactors, primes, data.Gaps2)

	findExponents(n, primeFactors, &factors, temporaryFactors)

	return factors
}

// trialDivision peels primes[1:1230] (3 through 10007: every odd prime below
// 1e4 plus 10007; 2 is skipped, already handled) out of n with multiplicity,
// appending a Factor per prime that divides it.
func trialDivision(n *big.Int, factors *[]Factor, primes []uint32) {
	p := new(big.Int)
	rem := new(big.Int)
	for _, prime := range primes[1:1230] {
		p.SetUint64(uint64(prime))
		rem.Mod(n, p)
		if rem.Sign() != 0 {
			continue
		}

		exp := uint32(0)
		for rem.Sign() == 0 {
			n.Quo(n, p)
			exp++
			rem.Mod(n, p)
		}
		*factors = append(*factors, Factor{Prime: new(big.Int).SetUint64(uint64(prime)), Exponent: exp})
	}
}

// dispatchPollard drains temporaryFactors with Brent's rho, splitting every
// sub-problem it can and leaving the rest (confirmed primes moved to
// primeFactors, the remainder parked for the ECM passes that follow).
//
// The cursor walks the stack from its current top down to index 0,
// re-starting from the new top whenever a split pushes fresh sub-problems;
// failedPollard is a flat, never-reindexed flag array exactly mirroring the
// sub-problem positions at the moment each flag was set. A position that
// gets swap-removed into can inherit a stale flag from whatever used to
// occupy that slot, which only costs a redundant reduction pass, not
// correctness, since the reduction check runs again before the flag is
// trusted.
func dispatchPollard(temporaryFactors *stack.Stack[subProblem], primeFactors *stack.Stack[*big.Int]) {
	failedPollard := make([]bool, seed.StackSize)

	sc := pollard.NewScratch()
	source := prng.FromCryptoRand()

	current := new(big.Int)
	currentCtx := montgomery.NewContext(big.NewInt(3))
	foundFactor := new(big.Int)
	rem := new(big.Int)

	index := 1
	for index > 0 {
		index--
		sp := temporaryFactors.Get(index)

		valueChanged := false
		for idx := sp.idx; idx < primeFactors.Len(); idx++ {
			p := *primeFactors.Get(idx)
			for {
				rem.Mod(sp.n, p)
				if rem.Sign() != 0 {
					break
				}
				valueChanged = true
				sp.n.Quo(sp.n, p)
			}
		}
		sp.idx = primeFactors.Len()

		if sp.n.Cmp(one) == 0 {
			temporaryFactors.Dec()
			temporaryFactors.Swap(index, temporaryFactors.Len())
			continue
		}

		// A perfect-square residue collapses to its root here; the exponent
		// bookkeeping is deferred to findExponents, which divides the input by
		// each discovered prime with full multiplicity anyway.
		root := ecm.PerfectSquareRoot(sp.n)
		if root.Cmp(sp.n) != 0 {
			sp.n.Set(root)
			valueChanged = true
		}

		if sp.n.ProbablyPrime(30) {
			pf := primeFactors.Next()
			(*pf).Set(sp.n)
			primeFactors.Inc()

			failedPollard[index] = true
			temporaryFactors.Dec()
			temporaryFactors.Swap(index, temporaryFactors.Len())
			continue
		}

		if failedPollard[index] && !valueChanged {
			continue
		}
		failedPollard[index] = true

		current.Set(sp.n)
		if sp.ctx.BoundTo(current) {
			currentCtx.Assign(sp.ctx)
		} else {
			currentCtx.ChangeMod(current)
		}

		for attempt := 0; attempt < 3; attempt++ {
			if !pollard.Brent(sc, current, currentCtx, source, foundFactor) {
				continue
			}

			current.Quo(current, foundFactor)
			failedPollard[index] = false

			sp.n.Set(current)
			sp.idx = primeFactors.Len()

			split := temporaryFactors.Next()
			split.updateNAndIndex(foundFactor, primeFactors.Len())
			temporaryFactors.Inc()

			length := temporaryFactors.Len()
			if length > 1 {
				a := temporaryFactors.Get(index)
				b := temporaryFactors.Get(length - 1)
				if a.n.Cmp(b.n) < 0 {
					temporaryFactors.Swap(index, length-1)
				}
			}

			index = length
			failedPollard[index-1] = false
			break
		}
	}
}

// findExponents reduces every pending sub-problem by the primes discovered
// since its last visit, then divides every discovered prime out of n with
// multiplicity to produce its final Factor entry.
func findExponents(n *big.Int, primeFactors *stack.Stack[*big.Int], factors *[]Factor, temporaryFactors *stack.Stack[subProblem]) {
	rem := new(big.Int)
	for i := 0; i < temporaryFactors.Len(); i++ {
		f := temporaryFactors.Get(i)
		for idx := f.idx; idx < primeFactors.Len(); idx++ {
			p := *primeFactors.Get(idx)
			for {
				rem.Mod(f.n, p)
				if rem.Sign() != 0 {
					break
				}
				f.n.Quo(f.n, p)
			}
		}
		f.idx = 0
	}

	for i := 0; i < primeFactors.Len(); i++ {
		p := *primeFactors.Get(i)
		exponent := uint32(1)
		n.Quo(n, p)
		for {
			rem.Mod(n, p)
			if rem.Sign() != 0 {
				break
			}
			n.Quo(n, p)
			exponent++
		}
		*factors = append(*factors, Factor{Prime: new(big.Int).Set(p), Exponent: exponent})
	}

	primeFactors.Clear()
}

// ecmTrial runs up to seed.Iterations curves of one ECM pass, consuming
// sub-problems from temporaryFactors and moving confirmed primes into
// primeFactors. n is the modulus the curves in curves were generated
// against; a sub-problem whose residue has since shrunk below n gets its
// curve coordinates re-mapped into the sub-problem's own Montgomery form
// before the curve is used.
func ecmTrial(n *big.Int, ctxN *montgomery.Context, sc *ecm.Scratch, bounds seed.Bounds,
	curves *[seed.Iterations]suyama.Curve, sBits []bool,
	temporaryFactors *stack.Stack[subProblem], primeFactors *stack.Stack[*big.Int],
	primes []uint32, gaps seed.GapTable) {

	start := sort.Search(len(primes), func(i int) bool { return primes[i] >= uint32(bounds.B1) })
	end := sort.Search(len(primes), func(i int) bool { return primes[i] > uint32(bounds.B2) })

	rem := new(big.Int)

	i := 0
	for i < seed.Iterations && !temporaryFactors.IsEmpty() {
		cur := &curves[i]
		i++

		sp := temporaryFactors.Top()
		curval := sp.n

		for idx := sp.idx; idx < primeFactors.Len(); idx++ {
			p := *primeFactors.Get(idx)
			for {
				rem.Mod(curval, p)
				if rem.Sign() != 0 {
					break
				}
				curval.Quo(curval, p)
			}
		}

		if curval.Cmp(one) == 0 {
			temporaryFactors.Dec()
			i--
			continue
		}
		sp.idx = primeFactors.Len()

		curval.Set(ecm.PerfectSquareRoot(curval))

		if curval.ProbablyPrime(20) {
			pf := primeFactors.Next()
			(*pf).Set(curval)
			primeFactors.Inc()
			temporaryFactors.Dec()
			i--
			continue
		}
		sp.idx = primeFactors.Len()

		if !sp.ctx.BoundTo(curval) {
			sp.ctx.ChangeMod(curval)
		}

		if curval.Cmp(n) != 0 {
			ctxN.FromMontgomeryInPlace(cur.P0.X)
			ctxN.FromMontgomeryInPlace(cur.P0.Z)
			ctxN.FromMontgomeryInPlace(cur.A24)
			cur.P0.X.Mod(cur.P0.X, curval)
			cur.P0.Z.Mod(cur.P0.Z, curval)
			cur.A24.Mod(cur.A24, curval)
			sp.ctx.ToMontgomeryInPlace(cur.P0.X)
			sp.ctx.ToMontgomeryInPlace(cur.P0.Z)
			sp.ctx.ToMontgomeryInPlace(cur.A24)
		}

		g := ecm.Phase1(sc, cur.P0, cur.A24, sBits, sp.ctx, curval)
		if g.Cmp(one) == 0 || g.Cmp(curval) == 0 {
			g = ecm.Phase2(sc, cur.P0, cur.A24, sp.ctx, curval, bounds.B1, bounds.BlockSize,
				primes, start, end, gaps.Index, gaps.Values)
		}

		if g.Cmp(one) == 0 || g.Cmp(curval) == 0 {
			continue // this curve found nothing, try the next one
		}

		curval.Quo(curval, g)

		split := temporaryFactors.Next()
		split.updateNAndIndex(g, primeFactors.Len())
		temporaryFactors.Inc()

		length := temporaryFactors.Len()
		if length > 1 {
			a := temporaryFactors.Get(length - 2)
			b := temporaryFactors.Get(length - 1)
			if a.n.Cmp(b.n) < 0 {
				temporaryFactors.Swap(length-2, length-1)
			}
		}
	}
}
