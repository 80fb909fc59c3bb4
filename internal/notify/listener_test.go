package notify

import (
	"errors"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	event, err := decodeEvent([]byte(`{"key":"PRJ-001","operation":"UPDATE"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Key != "PRJ-001" || event.Operation != OpUpdate {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "???"},
		{"missing key", `{"operation":"INSERT"}`},
		{"empty key", `{"key":"","operation":"INSERT"}`},
		{"unknown operation", `{"key":"PRJ-001","operation":"TRUNCATE"}`},
		{"empty payload", ""},
	}
	for _, tc := range cases {
		if _, err := decodeEvent([]byte(tc.payload)); !errors.Is(err, errMalformedPayload) {
			t.Fatalf("%s: err = %v, want malformed payload", tc.name, err)
		}
	}
}
