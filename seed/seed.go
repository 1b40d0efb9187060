// Package seed builds the process-wide, build-once tables the factoring
// engine treats as an external collaborator: the prime sieve, the phase-2 gap
// tables, the phase-1 scalar bit-expansions, and the Suyama parameter sets.
// None of it depends on any particular composite being factored: it is
// computed lazily on first use and shared as a read-only reference across
// every call afterward.
package seed

import (
	"math"
	"math/big"
	"sync"

	"github.com/blck-snwmn/primefactor/prng"
)

const (
	// Iterations is the number of Suyama curves attempted per ECM pass.
	Iterations = 200
	// StackSize bounds both the sub-problem and discovered-primes stacks.
	StackSize = 128

	sieveLimit = 25_000_000

	infGap = 1_000_000 // sentinel: residue ruled out (even, or multiple of 5)
)

// Bounds pairs a phase-1 bound B1 with the derived phase-2 bound B2 = 50*B1
// and the block size used for that pass's gap table.
type Bounds struct {
	B1, B2    int
	BlockSize int
}

var (
	Bounds1 = Bounds{B1: 50_000, B2: 50 * 50_000, BlockSize: 2000}
	Bounds2 = Bounds{B1: 500_000, B2: 50 * 500_000, BlockSize: 5000}
)

// GapTable is the phase-2 lookup structure: Values is the ordered list of
// residues in [1, block/2] coprime to the block size, and Index maps a
// prime's reduced residue to its position in Values (or to a sentinel for
// residues automatically ruled out).
type GapTable struct {
	Values []int
	Index  []int
}

// Param is one Suyama seed: u = sigma^2 - 5, v = 4*sigma, sigma >= 6.
type Param struct {
	U, V uint32
}

// Data is the complete set of precomputed, read-only tables.
type Data struct {
	Primes []uint32

	Gaps1   GapTable
	S1      []bool
	Params1 [Iterations]Param

	Gaps2   GapTable
	S2      []bool
	Params2 [Iterations]Param
}

var (
	once sync.Once
	data *Data
)

// Get returns the process-wide seed data, building it on the first call.
func Get() *Data {
	once.Do(func() {
		primes := Primes()
		source := prng.FromCryptoRand()
		data = &Data{
			Primes:  primes,
			Gaps1:   CalculateGaps(primes, Bounds1.BlockSize, uint32(Bounds1.B2)),
			S1:      FindS(uint64(Bounds1.B1), primes),
			Params1: GenerateParameters(source),
			Gaps2:   CalculateGaps(primes, Bounds2.BlockSize, uint32(Bounds2.B2)),
			S2:      FindS(uint64(Bounds2.B1), primes),
			Params2: GenerateParameters(source),
		}
	})
	return data
}

// Primes returns every prime below 2.5e7 via a segmented, odd-only sieve of
// Eratosthenes: the classic low-memory construction (sieve only odd
// candidates, process the range in cache-sized blocks) that keeps this
// usable as a build-once step rather than a per-call cost.
func Primes() []uint32 {
	s := isqrt(sieveLimit)
	r := sieveLimit / 2

	estCount := float64(sieveLimit) / 11.5
	primes := make([]uint32, 0, int(estCount))
	primes = append(primes, 2)

	composite := make([]bool, s+1)
	type cullPrime struct {
		p   uint32
		idx int
	}
	var cp []cullPrime
	for i := 3; i <= s; i += 2 {
		if !composite[i] {
			idx := i * i / 2
			cp = append(cp, cullPrime{p: uint32(i), idx: idx})
			for j := i * i; j <= s; j += 2 * i {
				composite[j] = true
			}
		}
	}

	block := make([]bool, s)
	for l := 1; l <= r; l += s {
		blockSize := s
		if l+s-1 > r {
			blockSize = r - l + 1
		}
		for i := range block[:blockSize] {
			block[i] = false
		}
		for k := range cp {
			p := int(cp[k].p)
			idx := cp[k].idx
			if idx < l {
				diff := l - idx
				idx += ((diff + p - 1) / p) * p
			}
			i := idx
			for i < l+blockSize {
				block[i-l] = true
				i += p
			}
			cp[k].idx = i
		}

		for i := 0; i < blockSize; i++ {
			if !block[i] {
				primes = append(primes, uint32((l+i)*2+1))
			}
		}
	}

	return primes
}

// isqrt returns floor(sqrt(n)) for a non-negative n, nudging the
// float-derived estimate to cover last-bit rounding error.
func isqrt(n int) int {
	x := int(math.Round(math.Sqrt(float64(n))))
	for x*x > n {
		x--
	}
	for (x+1)*(x+1) <= n {
		x++
	}
	return x
}

// CalculateGaps builds the gap table for one block size, restricted to
// primes <= B2: Values holds every residue in [1, block/2] coprime to
// blockSize (multiples of 2 and 5 are excluded since both block sizes used
// here are multiples of 10), and the returned slice indexes, per prime in
// ascending order, which entry of Values that prime's reduced distance from
// its block multiple corresponds to.
func CalculateGaps(primes []uint32, blockSize int, b2 uint32) GapTable {
	halfBlock := blockSize / 2

	values := make([]int, 0, halfBlock)
	index := make([]int, halfBlock+1)

	for i := 0; i < halfBlock; i += 2 {
		index[i] = infGap
	}
	for i := 5; i < halfBlock; i += 10 {
		index[i] = infGap
	}
	for i := 1; i < halfBlock; i++ {
		if index[i] == 0 {
			index[i] = len(values)
			values = append(values, i)
		}
	}

	gaps := make([]int, 0, len(primes))
	multiple := 0
	for _, p := range primes {
		if p > b2 {
			break
		}
		for multiple+blockSize < int(p) {
			multiple += blockSize
		}
		v := int(p) - multiple
		if v > halfBlock {
			v = blockSize - v
		}
		gaps = append(gaps, index[v])
	}

	return GapTable{Values: values, Index: gaps}
}

// FindS computes the bit expansion, most-significant bit first and excluding
// the leading 1, of s = product over primes p <= B1 of p^floor(log_p(B1)):
// the scalar phase 1's ladder raises the base point to.
func FindS(b1 uint64, primes []uint32) []bool {
	s := big.NewInt(1)
	for _, p := range primes {
		pPow := uint64(p)
		if pPow > b1 {
			break
		}
		for pPow*uint64(p) <= b1 {
			pPow *= uint64(p)
		}
		s.Mul(s, new(big.Int).SetUint64(pPow))
	}

	n := s.BitLen() - 1
	bits := make([]bool, 0, n)
	for i := n - 1; i >= 0; i-- {
		bits = append(bits, s.Bit(i) != 0)
	}
	return bits
}

// GenerateParameters draws Iterations Suyama seeds from source: sigma is a
// uniformly random 16-bit value, floored at 6 (Suyama's parameterization
// requires sigma > 5), mapped to u = sigma^2 - 5, v = 4*sigma.
func GenerateParameters(source *prng.Source) [Iterations]Param {
	var params [Iterations]Param
	for i := range params {
		sigma := uint32(source.Uint64() & 0xFFFF)
		if sigma < 6 {
			sigma = 6
		}
		v := 4 * sigma
		u := sigma*sigma - 5
		params[i] = Param{U: u, V: v}
	}
	return params
}
