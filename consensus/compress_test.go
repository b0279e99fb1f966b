package consensus

import "testing"

func TestCompressValueBijection(t *testing.T) {
	values := []uint64{
		0, 1, 2, 9, 10, 11, 99, 100, 101, 1000,
		12345, 50_000_000, 1_999_999_999, 1 << 32,
		MaxMoney, MaxMoney - 1,
	}
	seen := make(map[uint64]uint64, len(values))
	for _, v := range values {
		c := CompressValue(v)
		d := DecompressValue(c)
		if d != v {
			t.Fatalf("CompressValue/DecompressValue(%d) = %d via compressed %d, want %d", v, d, c, v)
		}
		if prior, ok := seen[c]; ok && prior != v {
			t.Fatalf("compressed value %d collides between %d and %d", c, prior, v)
		}
		seen[c] = v
	}
}

func TestCompressValueZero(t *testing.T) {
	if CompressValue(0) != 0 {
		t.Fatalf("CompressValue(0) = %d, want 0", CompressValue(0))
	}
	if DecompressValue(0) != 0 {
		t.Fatalf("DecompressValue(0) = %d, want 0", DecompressValue(0))
	}
}

func TestCompressValueExhaustiveSmallRange(t *testing.T) {
	for v := uint64(0); v < 5000; v++ {
		if got := DecompressValue(CompressValue(v)); got != v {
			t.Fatalf("round trip failed for %d: got %d", v, got)
		}
	}
}
