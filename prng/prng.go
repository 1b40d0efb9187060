// Package prng provides the seedable bit generator behind the engine's
// random draws: Pollard's (c, y) starting values and the Suyama sigma seeds.
//
// Rather than reseed math/rand globally (a shared, lock-guarded bottleneck
// once factorizations run on multiple goroutines), each Source is an
// independent byte stream: a keyed BLAKE2b counter-mode expansion of a single
// 32-byte seed. Two ways to obtain that seed are provided: FromCryptoRand
// draws it from the OS CSPRNG (the production path), and Seeded derives it
// deterministically from caller-supplied bytes via BLAKE3 (used by tests that
// need reproducible factoring runs).
package prng

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Source is a stream of uniformly distributed bits.
type Source struct {
	key     [32]byte
	counter uint64
	buf     []byte
	pos     int
}

// FromCryptoRand seeds a Source from the operating system's CSPRNG.
func FromCryptoRand() *Source {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic("prng: failed to read from crypto/rand: " + err.Error())
	}
	return fromSeed(seed)
}

// Seeded derives a deterministic Source from arbitrary seed bytes, for
// reproducible tests. Equal seeds always produce equal streams.
func Seeded(seed []byte) *Source {
	return fromSeed(blake3.Sum256(seed))
}

func fromSeed(seed [32]byte) *Source {
	return &Source{key: seed}
}

// refill expands one more 32-byte block of keystream: BLAKE2b keyed on the
// seed, hashing an incrementing counter. This is a minimal CTR-DRBG, not a
// certified one, but adequate for seeding Pollard's c, y and Suyama's sigma,
// which need statistical uniformity, not cryptographic unpredictability.
func (s *Source) refill() {
	var ctr [8]byte
	binary.LittleEndian.PutUint64(ctr[:], s.counter)
	s.counter++

	h, err := blake2b.New256(s.key[:])
	if err != nil {
		panic("prng: blake2b.New256: " + err.Error())
	}
	h.Write(ctr[:])
	s.buf = h.Sum(nil)
	s.pos = 0
}

func (s *Source) nextByte() byte {
	if s.pos >= len(s.buf) {
		s.refill()
	}
	b := s.buf[s.pos]
	s.pos++
	return b
}

// Uint64 returns the next 64 bits of the stream.
func (s *Source) Uint64() uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(s.nextByte())
	}
	return v
}

// Bits returns a uniformly random non-negative integer in [0, 2^n). n may be
// zero, in which case the result is always zero.
func (s *Source) Bits(n int) *big.Int {
	if n <= 0 {
		return new(big.Int)
	}
	numBytes := (n + 7) / 8
	buf := make([]byte, numBytes)
	for i := range buf {
		buf[i] = s.nextByte()
	}
	// Mask off the excess high bits of the top byte so the result has at
	// most n significant bits.
	excess := numBytes*8 - n
	if excess > 0 {
		buf[0] &= 0xFF >> excess
	}
	return new(big.Int).SetBytes(buf)
}
