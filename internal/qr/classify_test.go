package qr

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Type
	}{
		{name: "https url", content: "https://example.com", want: TypeURL},
		{name: "http url upper case", content: "HTTP://EXAMPLE.COM/path", want: TypeURL},
		{name: "wifi", content: "WIFI:T:WPA;S:home;P:secret;;", want: TypeWiFi},
		{name: "vcard", content: "BEGIN:VCARD\nVERSION:3.0\nFN:Ada\nEND:VCARD", want: TypeVCard},
		{name: "email", content: "mailto:ada@example.com", want: TypeEmail},
		{name: "sms", content: "sms:+15551234567", want: TypeSMS},
		{name: "smsto", content: "SMSTO:+15551234567:hi", want: TypeSMS},
		{name: "phone", content: "tel:+15551234567", want: TypePhone},
		{name: "geo", content: "geo:52.37,4.89", want: TypeGeo},
		{name: "calendar", content: "BEGIN:VEVENT\nSUMMARY:Launch\nEND:VEVENT", want: TypeCalendar},
		{name: "plain text", content: "hello world", want: TypeText},
		{name: "empty", content: "", want: TypeText},
		{name: "prefix not at start", content: " https://example.com", want: TypeText},
		{name: "scheme without slashes", content: "https:example.com", want: TypeText},
		{name: "ftp is text", content: "ftp://example.com", want: TypeText},
		{name: "partial prefix", content: "wifi", want: TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.content); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

// Earlier rules win when an input is contrived to look like several types.
func TestClassify_RuleOrder(t *testing.T) {
	tests := []struct {
		content string
		want    Type
	}{
		{content: "geo:https://example.com", want: TypeGeo},
		{content: "wifi:begin:vcard", want: TypeWiFi},
		{content: "mailto:tel:123", want: TypeEmail},
		{content: "tel:geo:1,2", want: TypePhone},
		{content: "sms:mailto:x", want: TypeSMS},
	}

	for _, tt := range tests {
		if got := Classify(tt.content); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	inputs := []string{"", "x", "https://a", strings.Repeat("a", 10000), "BEGIN:VEVENT"}
	for _, in := range inputs {
		first := Classify(in)
		for i := 0; i < 5; i++ {
			if got := Classify(in); got != first {
				t.Fatalf("Classify(%q) changed between calls: %q then %q", in, first, got)
			}
		}
	}
}

func TestTypes(t *testing.T) {
	types := Types()
	if len(types) != 9 {
		t.Fatalf("Types() returned %d types, want 9", len(types))
	}
	if types[len(types)-1] != TypeText {
		t.Errorf("last type = %q, want %q", types[len(types)-1], TypeText)
	}
	seen := make(map[Type]bool)
	for _, typ := range types {
		if seen[typ] {
			t.Errorf("duplicate type %q", typ)
		}
		seen[typ] = true
	}
}
