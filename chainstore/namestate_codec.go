package chainstore

import (
	"encoding/binary"

	"github.com/handshake-org/hsd-sub011/consensus"
)

// encodeNameState and decodeNameState give NameState a persisted
// encoding. This is a store-internal concern (consensus.NameState has
// no wire format of its own, since it is never exchanged over the
// network — only its tree commitment is), so the layout lives here
// rather than in the consensus package.
func encodeNameState(ns consensus.NameState) []byte {
	out := append([]byte(nil), ns.NameHash[:]...)
	out = consensus.AppendVarbytes(out, ns.Name)
	out = append(out, byte(ns.Phase))
	out = binary.BigEndian.AppendUint32(out, ns.StartHeight)
	out = binary.BigEndian.AppendUint64(out, ns.HighestReveal)
	out = binary.BigEndian.AppendUint64(out, ns.SecondHighestReveal)
	out = append(out, ns.WinningOutpoint.Encode()...)
	out = binary.BigEndian.AppendUint32(out, ns.LastRenewalHeight)
	out = binary.BigEndian.AppendUint32(out, ns.TransferStartHeight)
	out = consensus.AppendVarbytes(out, ns.PendingTransferAddr)
	out = consensus.AppendVarbytes(out, ns.Resource)
	return out
}

func decodeNameState(b []byte) (consensus.NameState, error) {
	var ns consensus.NameState
	if len(b) < 32 {
		return ns, errShortCoinRecord
	}
	copy(ns.NameHash[:], b[:32])
	rest := b[32:]

	name, n, err := consensus.DecodeVarint(rest)
	if err != nil {
		return ns, err
	}
	rest = rest[n:]
	if uint64(len(rest)) < name {
		return ns, errShortCoinRecord
	}
	ns.Name = append([]byte(nil), rest[:name]...)
	rest = rest[name:]

	if len(rest) < 1+4+8+8 {
		return ns, errShortCoinRecord
	}
	ns.Phase = consensus.NamePhase(rest[0])
	rest = rest[1:]
	ns.StartHeight = binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]
	ns.HighestReveal = binary.BigEndian.Uint64(rest[:8])
	rest = rest[8:]
	ns.SecondHighestReveal = binary.BigEndian.Uint64(rest[:8])
	rest = rest[8:]

	if len(rest) < 36 {
		return ns, errShortCoinRecord
	}
	var opHash consensus.Hash
	copy(opHash[:], rest[:32])
	idx := binary.BigEndian.Uint32(rest[32:36])
	ns.WinningOutpoint = consensus.Outpoint{Hash: opHash, Index: idx}
	rest = rest[36:]

	if len(rest) < 8 {
		return ns, errShortCoinRecord
	}
	ns.LastRenewalHeight = binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]
	ns.TransferStartHeight = binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]

	addrLen, n, err := consensus.DecodeVarint(rest)
	if err != nil {
		return ns, err
	}
	rest = rest[n:]
	if uint64(len(rest)) < addrLen {
		return ns, errShortCoinRecord
	}
	ns.PendingTransferAddr = append([]byte(nil), rest[:addrLen]...)
	rest = rest[addrLen:]

	resLen, n, err := consensus.DecodeVarint(rest)
	if err != nil {
		return ns, err
	}
	rest = rest[n:]
	if uint64(len(rest)) < resLen {
		return ns, errShortCoinRecord
	}
	ns.Resource = append([]byte(nil), rest[:resLen]...)
	return ns, nil
}
