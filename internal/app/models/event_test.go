package models

import "testing"

func ptr(f float64) *float64 { return &f }

func TestDeriveMapLink(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "coordinates win over address",
			event: Event{Latitude: ptr(52.52), Longitude: ptr(13.405), Address: "Alexanderplatz 1"},
			want:  "https://maps.google.com/?q=52.52,13.405",
		},
		{
			name:  "whole coordinates keep a fractional digit",
			event: Event{Latitude: ptr(40), Longitude: ptr(-3)},
			want:  "https://maps.google.com/?q=40.0,-3.0",
		},
		{
			name:  "address is query escaped",
			event: Event{Address: "10 Downing St, London"},
			want:  "https://maps.google.com/?q=10+Downing+St%2C+London",
		},
		{
			name:  "only one coordinate falls back to address",
			event: Event{Latitude: ptr(1), Address: "Main St"},
			want:  "https://maps.google.com/?q=Main+St",
		},
		{
			name:  "explicit link is kept",
			event: Event{MapLink: "https://example.com/map", Address: "Main St"},
			want:  "https://example.com/map",
		},
		{
			name:  "nothing to derive from",
			event: Event{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tt.event
			ev.DeriveMapLink()
			if ev.MapLink != tt.want {
				t.Fatalf("MapLink = %q, want %q", ev.MapLink, tt.want)
			}
		})
	}
}

func TestRSVPStatusValid(t *testing.T) {
	for _, s := range []RSVPStatus{RSVPGoing, RSVPMaybe, RSVPNotGoing} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []RSVPStatus{"", "yes", "Going"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}
