//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestLiveness(t *testing.T) {
	resp := doGet(t, "/livez", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	health := decodeJSON[healthResponse](t, resp)
	if health.Status != "ok" {
		t.Errorf("status: got %q, want %q", health.Status, "ok")
	}
}

func TestReadiness(t *testing.T) {
	resp := doGet(t, "/readyz", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	health := decodeJSON[healthResponse](t, resp)
	if health.Status != "ok" {
		t.Errorf("status: got %q, want %q", health.Status, "ok")
	}
}
