package ratelimit

import (
	"testing"
	"time"
)

func TestPerSecond(t *testing.T) {
	cases := []struct {
		rate, burst int
		want        Limit
	}{
		{20, 40, Limit{Rate: 20, Period: time.Second, Burst: 40}},
		{20, 5, Limit{Rate: 20, Period: time.Second, Burst: 20}},
	}
	for _, tc := range cases {
		if got := PerSecond(tc.rate, tc.burst); got != tc.want {
			t.Errorf("PerSecond(%d, %d) = %+v, want %+v", tc.rate, tc.burst, got, tc.want)
		}
	}
}
