package consensus

import "strings"

// Address string encoding, CANONICAL §6.3: a network-specific
// human-readable prefix ("hs"/"ts"/"rs"/"ss"), a body encoding
// version||program, and a 6-symbol checksum. The retrieval pack has no
// example repo with an actual importable bech32 implementation (only
// config references to bech32 prefixes, no library source) to ground a
// third-party dependency on, so the checksum is built from the
// blake2b256 hash already used throughout this package rather than
// inventing an unverified import — see DESIGN.md.

const addrCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

func addrConvertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	var out []byte
	maxv := uint32(1)<<toBits - 1
	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, newErr(InvalidEncoding, "address data value out of range for fromBits")
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte(acc>>bits)&byte(maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(toBits-bits))&byte(maxv))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxv != 0 {
		return nil, newErr(InvalidEncoding, "address data has non-zero padding")
	}
	return out, nil
}

func addrChecksum(prefix string, payload []byte) [6]byte {
	h := blake2b256([]byte(prefix), payload)
	var out [6]byte
	for i := range out {
		out[i] = h[i] % 32
	}
	return out
}

// EncodeString renders a per network prefix (e.g. Params.AddressPrefix).
func (a Address) EncodeString(prefix string) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	payload := append([]byte{a.Version}, a.Program...)
	conv, err := addrConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	checksum := addrChecksum(prefix, conv)

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte('1')
	for _, b := range conv {
		sb.WriteByte(addrCharset[b])
	}
	for _, b := range checksum {
		sb.WriteByte(addrCharset[b])
	}
	return sb.String(), nil
}

// DecodeAddressString parses a string produced by EncodeString, failing
// if the prefix doesn't match wantPrefix or the checksum is invalid.
func DecodeAddressString(s, wantPrefix string) (Address, error) {
	sep := strings.LastIndexByte(s, '1')
	if sep < 1 || sep+7 > len(s) {
		return Address{}, newErr(InvalidEncoding, "malformed address string")
	}
	prefix := s[:sep]
	if prefix != wantPrefix {
		return Address{}, newErrf(InvalidEncoding, "address prefix %q does not match network prefix %q", prefix, wantPrefix)
	}
	body := s[sep+1:]
	values := make([]byte, len(body))
	for i, r := range body {
		idx := strings.IndexRune(addrCharset, r)
		if idx < 0 {
			return Address{}, newErr(InvalidEncoding, "invalid address character")
		}
		values[i] = byte(idx)
	}
	dataPart := values[:len(values)-6]
	gotChecksum := values[len(values)-6:]
	wantChecksum := addrChecksum(prefix, dataPart)
	for i := range wantChecksum {
		if gotChecksum[i] != wantChecksum[i] {
			return Address{}, newErr(InvalidEncoding, "address checksum mismatch")
		}
	}
	payload, err := addrConvertBits(dataPart, 5, 8, false)
	if err != nil {
		return Address{}, err
	}
	if len(payload) < 1 {
		return Address{}, newErr(InvalidEncoding, "address payload too short")
	}
	a := Address{Version: payload[0], Program: payload[1:]}
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	return a, nil
}
