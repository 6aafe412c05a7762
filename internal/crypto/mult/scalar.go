package mult

import "math/big"

// Scalar recodings. All functions leave the input untouched and work
// on copies.

// convertBase returns the digits of k in the given base, least
// significant first.
func convertBase(k *big.Int, base int) []int {
	if k.Sign() == 0 {
		return []int{0}
	}
	b := big.NewInt(int64(base))
	n := new(big.Int).Set(k)
	r := new(big.Int)
	var digits []int
	for n.Sign() > 0 {
		n.QuoRem(n, b, r)
		digits = append(digits, int(r.Int64()))
	}
	return digits
}

// naf returns the non-adjacent form of k, least significant digit
// first, digits in {-1, 0, 1}.
func naf(k *big.Int) []int {
	n := new(big.Int).Set(k)
	var digits []int
	four := big.NewInt(4)
	m := new(big.Int)
	for n.Sign() > 0 {
		if n.Bit(0) == 1 {
			m.Mod(n, four)
			d := 2 - int(m.Int64())
			digits = append(digits, d)
			n.Sub(n, big.NewInt(int64(d)))
		} else {
			digits = append(digits, 0)
		}
		n.Rsh(n, 1)
	}
	return digits
}

// wnaf returns the width-w non-adjacent form of k, least significant
// digit first. Nonzero digits are odd and lie in (-2^(w-1), 2^(w-1)).
func wnaf(k *big.Int, w int) []int {
	n := new(big.Int).Set(k)
	var digits []int
	mod := big.NewInt(1 << uint(w))
	half := int64(1) << uint(w-1)
	m := new(big.Int)
	for n.Sign() > 0 {
		if n.Bit(0) == 1 {
			m.Mod(n, mod)
			d := m.Int64()
			if d >= half {
				d -= int64(1) << uint(w)
			}
			digits = append(digits, int(d))
			n.Sub(n, big.NewInt(d))
		} else {
			digits = append(digits, 0)
		}
		n.Rsh(n, 1)
	}
	return digits
}

// slidingWindowLTR recodes k for left-to-right sliding window
// multiplication: the result is processed one digit per doubling, most
// significant first, nonzero digits are odd and at most w bits wide.
func slidingWindowLTR(k *big.Int, w int) []int {
	var out []int
	i := k.BitLen() - 1
	for i >= 0 {
		if k.Bit(i) == 0 {
			out = append(out, 0)
			i--
			continue
		}
		l := w
		if i+1 < l {
			l = i + 1
		}
		// Shrink the window so it ends on a set bit, keeping the digit odd.
		for k.Bit(i-l+1) == 0 {
			l--
		}
		v := 0
		for j := 0; j < l; j++ {
			v = v<<1 | int(k.Bit(i-j))
		}
		for j := 0; j < l-1; j++ {
			out = append(out, 0)
		}
		out = append(out, v)
		i -= l
	}
	return out
}

// reverse flips a digit slice from least-significant-first to
// most-significant-first order.
func reverse(d []int) []int {
	out := make([]int, len(d))
	for i, v := range d {
		out[len(d)-1-i] = v
	}
	return out
}
