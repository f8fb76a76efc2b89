package backend

import "testing"

func TestReadinessTruthTable(t *testing.T) {
	cases := []struct {
		name  string
		state Readiness
		fr    bool
		fw    bool
		br    bool
		bw    bool
	}{
		{"FrontNoneBackNone", FrontNoneBackNone, false, false, false, false},
		{"FrontReadBackNone", FrontReadBackNone, true, false, false, false},
		{"FrontWriteBackNone", FrontWriteBackNone, false, true, false, false},
		{"FrontReadWriteBackNone", FrontReadWriteBackNone, true, true, false, false},
		{"FrontNoneBackRead", FrontNoneBackRead, false, false, true, false},
		{"FrontReadBackRead", FrontReadBackRead, true, false, true, false},
		{"FrontWriteBackRead", FrontWriteBackRead, false, true, true, false},
		{"FrontReadWriteBackRead", FrontReadWriteBackRead, true, true, true, false},
		{"FrontNoneBackWrite", FrontNoneBackWrite, false, false, false, true},
		{"FrontReadBackWrite", FrontReadBackWrite, true, false, false, true},
		{"FrontWriteBackWrite", FrontWriteBackWrite, false, true, false, true},
		{"FrontReadWriteBackWrite", FrontReadWriteBackWrite, true, true, false, true},
		{"FrontNoneBackReadWrite", FrontNoneBackReadWrite, false, false, true, true},
		{"FrontReadBackReadWrite", FrontReadBackReadWrite, true, false, true, true},
		{"FrontWriteBackReadWrite", FrontWriteBackReadWrite, false, true, true, true},
		{"FrontReadWriteBackReadWrite", FrontReadWriteBackReadWrite, true, true, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.state.FrontReadable(); got != tc.fr {
				t.Errorf("FrontReadable() = %v, want %v", got, tc.fr)
			}
			if got := tc.state.FrontWritable(); got != tc.fw {
				t.Errorf("FrontWritable() = %v, want %v", got, tc.fw)
			}
			if got := tc.state.BackReadable(); got != tc.br {
				t.Errorf("BackReadable() = %v, want %v", got, tc.br)
			}
			if got := tc.state.BackWritable(); got != tc.bw {
				t.Errorf("BackWritable() = %v, want %v", got, tc.bw)
			}
		})
	}
}

func TestReadinessStatesDistinct(t *testing.T) {
	states := []Readiness{
		FrontNoneBackNone, FrontReadBackNone, FrontWriteBackNone, FrontReadWriteBackNone,
		FrontNoneBackRead, FrontReadBackRead, FrontWriteBackRead, FrontReadWriteBackRead,
		FrontNoneBackWrite, FrontReadBackWrite, FrontWriteBackWrite, FrontReadWriteBackWrite,
		FrontNoneBackReadWrite, FrontReadBackReadWrite, FrontWriteBackReadWrite, FrontReadWriteBackReadWrite,
	}

	seen := make(map[Readiness]bool, len(states))
	for _, s := range states {
		if seen[s] {
			t.Fatalf("duplicate readiness state %04b", s)
		}
		seen[s] = true
	}
	if len(seen) != 16 {
		t.Errorf("got %d distinct states, want 16", len(seen))
	}
}
