package ecsim

import (
	"crypto/sha256"
	"errors"
	"math/big"

	"golang.org/x/crypto/chacha20"
)

// DRBG is a deterministic random bit generator backed by the ChaCha20
// keystream. Supplying the same seed reproduces the same byte stream,
// which gives simulations their replay property.
type DRBG struct {
	cipher *chacha20.Cipher
}

// NewDRBG creates a generator keyed by SHA-256 of the seed bytes.
func NewDRBG(seed []byte) *DRBG {
	key := sha256.Sum256(seed)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		// Key and nonce sizes are fixed above, this cannot happen.
		panic(err)
	}
	return &DRBG{cipher: c}
}

// NewDRBGUint64 creates a generator from an integer seed.
func NewDRBGUint64(seed uint64) *DRBG {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(seed >> (8 * (7 - i)))
	}
	return NewDRBG(buf[:])
}

// Read fills b with keystream bytes. It never fails.
func (d *DRBG) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = 0
	}
	d.cipher.XORKeyStream(b, b)
	return len(b), nil
}

// UniformMod samples a uniform integer in [0, n) by rejection.
func (d *DRBG) UniformMod(n *big.Int) (*big.Int, error) {
	if n == nil || n.Sign() <= 0 {
		return nil, errors.New("uniform sample needs a positive bound")
	}
	bits := n.BitLen()
	bytes := (bits + 7) / 8
	excess := uint(bytes*8 - bits)
	buf := make([]byte, bytes)
	for {
		_, _ = d.Read(buf)
		buf[0] &= 0xff >> excess
		v := new(big.Int).SetBytes(buf)
		if v.Cmp(n) < 0 {
			return v, nil
		}
	}
}

// UniformNonZeroMod samples a uniform integer in [1, n).
func (d *DRBG) UniformNonZeroMod(n *big.Int) (*big.Int, error) {
	for {
		v, err := d.UniformMod(n)
		if err != nil {
			return nil, err
		}
		if v.Sign() != 0 {
			return v, nil
		}
	}
}
