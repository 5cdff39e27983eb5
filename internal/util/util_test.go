package util

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantMS int64
	}{
		{"All components", "1d 2h 3m 4s", 93784000},
		{"Minutes only", "5m", 300000},
		{"Explicit zeros", "0d 0h 5m 0s", 300000},
		{"Hours and seconds", "2h 30s", 7230000},
		{"Days only", "3d", 259200000},
		{"Zero seconds", "0s", 0},
		{"Surrounding whitespace", "  1h 1m  ", 3660000},
		{"Large minutes", "120000m", 7200000000},
		{"Large seconds", "0d 0h 0m 100001s", 100001000},
		{"Large days", "36500d", 3153600000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if err != nil {
				t.Fatalf("ParseDuration(%q) error = %v", tt.input, err)
			}
			if got.Milliseconds() != tt.wantMS {
				t.Errorf("ParseDuration(%q) = %dms, want %dms", tt.input, got.Milliseconds(), tt.wantMS)
			}
		})
	}
}

func TestParseDuration_Unparseable(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"garbage",
		"Ended",
		"1d  2h",      // double space
		"2h 1d",       // out of order
		"1h 1h",       // repeated unit
		"1d 2h extra", // trailing text
		"-1h",
		"1.5h",
		"Starts in: 1d",
		"999999999d",
		"9223372036854775807s",
		"106751d 23h 47m 17s", // one second past the largest time.Duration
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDuration(in)
			if !errors.Is(err, ErrUnparseableDuration) {
				t.Errorf("ParseDuration(%q) = %v, %v; want ErrUnparseableDuration", in, got, err)
			}
			if got != 0 {
				t.Errorf("ParseDuration(%q) returned non-zero duration %v on error", in, got)
			}
		})
	}
}

func TestParseDuration_MatchesFormula(t *testing.T) {
	for _, c := range []struct{ d, h, m, s int64 }{{0, 0, 0, 1}, {2, 23, 59, 59}, {10, 0, 0, 0}} {
		in := fmt.Sprintf("%dd %dh %dm %ds", c.d, c.h, c.m, c.s)
		got, err := ParseDuration(in)
		if err != nil {
			t.Fatalf("ParseDuration(%q) error = %v", in, err)
		}
		want := (((c.d*24+c.h)*60+c.m)*60 + c.s) * 1000
		if got != time.Duration(want)*time.Millisecond {
			t.Errorf("ParseDuration(%q) = %v, want %dms", in, got, want)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	const base = "https://cphelper.online/"
	tests := []struct {
		name    string
		href    string
		want    string
		wantErr bool
	}{
		{
			name: "Absolute URL untouched",
			href: "https://codeforces.com/contest/1900",
			want: "https://codeforces.com/contest/1900",
		},
		{
			name: "Relative URL resolved",
			href: "/contest/abc",
			want: "https://cphelper.online/contest/abc",
		},
		{
			name: "Tracking params and fragment removed",
			href: "https://leetcode.com/contest/weekly-400/?utm_source=cphelper&ref=x#top",
			want: "https://leetcode.com/contest/weekly-400/",
		},
		{
			name: "Other params kept",
			href: "https://atcoder.jp/contests/abc300?lang=en&utm_medium=web",
			want: "https://atcoder.jp/contests/abc300?lang=en",
		},
		{
			name:    "Javascript scheme rejected",
			href:    "javascript:void(0)",
			wantErr: true,
		},
		{
			name:    "Empty href rejected",
			href:    "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(base, tt.href)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL() = %v, want %v", got, tt.want)
			}
		})
	}
}
