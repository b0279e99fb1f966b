package consensus

// Subsidy returns the block reward at height: InitialSubsidy halved
// every HalvingInterval blocks, floor division, reaching zero once
// halved past 63 times (avoids an undefined shift).
func Subsidy(p Params, height uint32) uint64 {
	halvings := height / p.HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return p.InitialSubsidy >> halvings
}
