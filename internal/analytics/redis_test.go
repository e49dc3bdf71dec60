package analytics

import (
	"testing"
	"time"
)

func TestBuildKey_HourlyBucket(t *testing.T) {
	at := time.Date(2024, 6, 1, 18, 42, 7, 0, time.UTC)

	got := buildKey("truth-dare-all", at)
	want := "t:truth-dare-all:2024060118"
	if got != want {
		t.Errorf("buildKey = %q, want %q", got, want)
	}
}

func TestBuildKey_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2024, 6, 1, 23, 30, 0, 0, loc) // 18:00 UTC

	got := buildKey("truth-dare-all", at)
	want := "t:truth-dare-all:2024060118"
	if got != want {
		t.Errorf("buildKey = %q, want %q", got, want)
	}
}

func TestBuildKey_SameHourSameKey(t *testing.T) {
	a := buildKey("truth-dare-all", time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC))
	b := buildKey("truth-dare-all", time.Date(2024, 6, 1, 18, 59, 59, 0, time.UTC))
	if a != b {
		t.Errorf("keys differ within one hour: %q vs %q", a, b)
	}

	c := buildKey("truth-dare-all", time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC))
	if a == c {
		t.Error("keys should differ across hour boundary")
	}
}

func TestNewRedisSink_DefaultRetention(t *testing.T) {
	s := NewRedisSink(nil, 0)
	if s.retention != 30*24*time.Hour {
		t.Errorf("retention = %v, want 720h default", s.retention)
	}

	s = NewRedisSink(nil, time.Hour)
	if s.retention != time.Hour {
		t.Errorf("retention = %v, want 1h", s.retention)
	}
}
