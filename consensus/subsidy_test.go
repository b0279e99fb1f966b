package consensus

import "testing"

func TestSubsidyHalves(t *testing.T) {
	p := RegtestParams()
	base := Subsidy(p, 0)
	if base != p.InitialSubsidy {
		t.Fatalf("subsidy at height 0 = %d, want %d", base, p.InitialSubsidy)
	}
	half := Subsidy(p, p.HalvingInterval)
	if half != base/2 {
		t.Fatalf("subsidy after one halving = %d, want %d", half, base/2)
	}
	quarter := Subsidy(p, 2*p.HalvingInterval)
	if quarter != base/4 {
		t.Fatalf("subsidy after two halvings = %d, want %d", quarter, base/4)
	}
}

func TestSubsidyReachesZero(t *testing.T) {
	p := RegtestParams()
	far := Subsidy(p, p.HalvingInterval*64)
	if far != 0 {
		t.Fatalf("subsidy after 64 halvings = %d, want 0", far)
	}
}
