package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestMilliseconds(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want float64
	}{
		{0, 0},
		{250 * time.Microsecond, 0.25},
		{1500 * time.Microsecond, 1.5},
		{2 * time.Second, 2000},
	}
	for _, tt := range tests {
		if got := Milliseconds(tt.d); got != tt.want {
			t.Errorf("Milliseconds(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestResult(t *testing.T) {
	if Result(nil) != "ok" || Result(errors.New("boom")) != "fail" {
		t.Error("Unexpected result labels")
	}
}
