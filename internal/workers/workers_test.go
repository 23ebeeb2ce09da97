package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")

	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"cpu bound", 1.0, 0, procs},
		{"io bound", 2.0, 0, procs * 2},
		{"capped", 2.0, 1, 1},
		{"tiny multiplier floors at one", 0.0001, 0, 1},
		{"negative multiplier floors at one", -3, 0, 1},
		{"limit above computed", 1.0, procs + 100, procs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{"valid", "8", 0, 8},
		{"capped by limit", "20", 10, 10},
		{"below limit", "5", 10, 5},
		{"non-numeric ignored", "many", 0, procs},
		{"zero ignored", "0", 0, procs},
		{"negative ignored", "-5", 0, procs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.env)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count(1.0, %d) with %s=%q = %d, want %d", tt.limit, EnvOverride, tt.env, got, tt.want)
			}
		})
	}
}

func TestForIO(t *testing.T) {
	t.Setenv(EnvOverride, "")

	for _, limit := range []int{1, 2, 8} {
		if got := ForIO(limit); got < 1 || got > limit {
			t.Errorf("ForIO(%d) = %d, want within [1, %d]", limit, got, limit)
		}
	}
	if got, want := ForIO(0), 2*runtime.GOMAXPROCS(0); got != want {
		t.Errorf("ForIO(0) = %d, want %d", got, want)
	}
}

func BenchmarkCount(b *testing.B) {
	b.Setenv(EnvOverride, "")
	for i := 0; i < b.N; i++ {
		_ = Count(1.5, 10)
	}
}
