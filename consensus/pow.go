package consensus

import "math/big"

// Compact "nBits" target representation, bit-for-bit identical to
// Bitcoin's nBits: the high byte is an exponent (bytes of the mantissa),
// the low three bytes are the mantissa, interpreted as
// mantissa * 256^(exponent-3). The sign bit (bit 23 of the mantissa) is
// never set by a valid target; a compact value with it set is rejected.
//
// math/big is used here on the stdlib directly: none of the retrieved
// pack repos ship an idiomatic third-party 256-bit integer type (the
// closest, a generated math/uint256 package, isn't part of the
// retrieval pack), so this is the one domain concern built on the
// standard library rather than an ecosystem dependency. See DESIGN.md.

// BitsToTarget decodes a compact target. ok is false if bits encodes a
// negative or overflowing target.
func BitsToTarget(bits uint32) (*big.Int, bool) {
	exp := bits >> 24
	mant := bits & 0x007fffff
	if bits&0x00800000 != 0 {
		return nil, false
	}
	target := new(big.Int).SetUint64(uint64(mant))
	if exp <= 3 {
		shift := uint(8 * (3 - exp))
		target.Rsh(target, shift)
	} else {
		shift := uint(8 * (exp - 3))
		target.Lsh(target, shift)
	}
	if target.Sign() == 0 {
		return target, true
	}
	if target.BitLen() > 256 {
		return nil, false
	}
	return target, true
}

// TargetToBits encodes target into the compact representation, rounding
// down (choosing the representable value ≤ target) the same way
// Bitcoin's GetCompact does.
func TargetToBits(target *big.Int) uint32 {
	if target.Sign() <= 0 {
		return 0
	}
	b := target.Bytes()
	size := uint32(len(b))
	var mant uint32
	switch {
	case size <= 3:
		var padded [3]byte
		copy(padded[3-size:], b)
		mant = uint32(padded[0])<<16 | uint32(padded[1])<<8 | uint32(padded[2])
	default:
		mant = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	}
	if mant&0x00800000 != 0 {
		mant >>= 8
		size++
	}
	return mant | size<<24
}

func hashExceedsTarget(h Hash, target *big.Int) bool {
	v := new(big.Int).SetBytes(h[:])
	return v.Cmp(target) > 0
}

// Retarget computes the new compact bits for the block following a
// window of TargetWindow ancestors, given the timestamp of the first
// and last block in that window. Actual elapsed time is clamped to
// [0.75x, 1.5x] of the target window duration before being applied,
// per CANONICAL §6.4.
func Retarget(p Params, firstTime, lastTime uint64, prevBits uint32) uint32 {
	actualTimespan := int64(lastTime) - int64(firstTime)
	targetTimespan := int64(p.TargetWindow) * int64(p.TargetSpacing)

	lo := targetTimespan * p.RetargetDampingLo / 4
	hi := targetTimespan * p.RetargetDampingHi / 2
	if actualTimespan < lo {
		actualTimespan = lo
	}
	if actualTimespan > hi {
		actualTimespan = hi
	}

	prevTarget, ok := BitsToTarget(prevBits)
	if !ok {
		prevTarget, _ = BitsToTarget(TargetToBits(new(big.Int).SetBytes(p.PowLimit[:])))
	}
	newTarget := new(big.Int).Mul(prevTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))

	limit := new(big.Int).SetBytes(p.PowLimit[:])
	if newTarget.Cmp(limit) > 0 {
		newTarget = limit
	}
	return TargetToBits(newTarget)
}
