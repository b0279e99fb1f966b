package consensus

// Network identifies one of the four Handshake-style network instances
// from CANONICAL §6.4. Network parameters are passed explicitly as a
// constructor-time value — there is no global mutable singleton (§9).
type Network string

const (
	NetworkMain    Network = "main"
	NetworkTestnet Network = "testnet"
	NetworkRegtest Network = "regtest"
	NetworkSimnet  Network = "simnet"
)

// Params bundles every consensus constant that varies by network. A
// Params value is threaded explicitly through validation and connect
// calls; nothing here is read from a global.
type Params struct {
	Network Network
	Port    uint16
	Magic   uint32

	AddressPrefix string // bech32-style human-readable prefix ("hs", "ts", "rs", "ss")

	HalvingInterval uint32 // blocks per subsidy halving
	InitialSubsidy  uint64 // base units, height 1 subsidy before any halving

	// PoW retarget (CANONICAL §6.4).
	TargetWindow       uint32 // number of blocks in the retarget window
	TargetSpacing      uint64 // seconds per block
	RetargetDampingLo  int64  // numerator for the 0.75x clamp, denominator 4
	RetargetDampingHi  int64  // numerator for the 1.5x clamp, denominator 2
	PowLimit           Hash   // maximum (easiest) target

	CoinbaseMaturity uint32
	PowLimitBits     uint32 // compact target stamped into the genesis header; not the compact form of PowLimit, which Retarget clamps against directly
	GenesisTime      uint64 // unix seconds stamped into the genesis header

	// Name auction windows (blocks), CANONICAL §4.6.
	BiddingWindow     uint32
	RevealWindow      uint32
	TransferLockup    uint32
	RenewalWindow     uint32
	RevocationWindow  uint32
}

// MaxMoney is the consensus-wide maximum value representable by a single
// output or transaction, in base units (CANONICAL §3 invariants, §8
// boundary behaviors).
const MaxMoney uint64 = 1 << 53 // 9,007,199,254,740,992 base units: about 9.007 billion coins at 6 decimal places.

// MainParams returns the main-network parameter set.
func MainParams() Params {
	return Params{
		Network:           NetworkMain,
		Port:              12038,
		Magic:             0xebf10ad8,
		AddressPrefix:     "hs",
		HalvingInterval:   170_000,
		InitialSubsidy:    2000 * 1_000_000, // 2000 coins, 6 decimal base units
		TargetWindow:      17,
		TargetSpacing:     600,
		RetargetDampingLo: 3,
		RetargetDampingHi: 3,
		PowLimit:          maxTargetHash(),
		PowLimitBits:      0x207fffff,
		GenesisTime:       1580745078,
		CoinbaseMaturity:  100,
		BiddingWindow:     36,
		RevealWindow:      36,
		TransferLockup:    288,
		RenewalWindow:     170_000,
		RevocationWindow:  96,
	}
}

// TestnetParams returns the test-network parameter set.
func TestnetParams() Params {
	p := MainParams()
	p.Network = NetworkTestnet
	p.Port = 13038
	p.Magic = 0x8efa1fbe
	p.AddressPrefix = "ts"
	return p
}

// RegtestParams returns the regression-test parameter set used by the
// deterministic scenario tests in §8 (shorter halving interval).
func RegtestParams() Params {
	p := MainParams()
	p.Network = NetworkRegtest
	p.Port = 14038
	p.Magic = 0xbcf173aa
	p.AddressPrefix = "rs"
	p.HalvingInterval = 2_500
	return p
}

// SimnetParams returns the simulation-network parameter set.
func SimnetParams() Params {
	p := MainParams()
	p.Network = NetworkSimnet
	p.Port = 15038
	p.Magic = 0x473bd012
	p.AddressPrefix = "ss"
	return p
}

func maxTargetHash() Hash {
	var h Hash
	for i := range h {
		h[i] = 0xff
	}
	return h
}
