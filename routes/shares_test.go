// SPDX-FileCopyrightText: 2025 The Labtrail Authors
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"crypto/tls"
	"encoding/base64"
	"net/http/httptest"
	"testing"
)

func TestRequestBaseURL(t *testing.T) {
	t.Parallel()

	plain := httptest.NewRequest("GET", "http://labtrail.local/shares", nil)
	if got := requestBaseURL(plain); got != "http://labtrail.local" {
		t.Fatalf("unexpected base URL: %q", got)
	}

	secure := httptest.NewRequest("GET", "https://labtrail.local/shares", nil)
	secure.TLS = &tls.ConnectionState{}
	if got := requestBaseURL(secure); got != "https://labtrail.local" {
		t.Fatalf("unexpected TLS base URL: %q", got)
	}

	proxied := httptest.NewRequest("GET", "http://labtrail.local/shares", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	if got := requestBaseURL(proxied); got != "https://labtrail.local" {
		t.Fatalf("unexpected proxied base URL: %q", got)
	}
}

func TestGenerateShareQRCode(t *testing.T) {
	t.Parallel()

	encoded, err := generateShareQRCode("https://labtrail.local/share/abc123")
	if err != nil {
		t.Fatalf("generateShareQRCode failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}

	// PNG magic bytes.
	if len(raw) < 8 || raw[1] != 'P' || raw[2] != 'N' || raw[3] != 'G' {
		t.Fatal("result does not look like a PNG")
	}
}

func TestValidCategory(t *testing.T) {
	t.Parallel()

	for _, c := range eventCategories {
		if !validCategory(string(c)) {
			t.Fatalf("category %q should be valid", c)
		}
	}

	if validCategory("Witchcraft") {
		t.Fatal("unknown category should be rejected")
	}
	if validCategory("") {
		t.Fatal("empty category should be rejected")
	}
}
