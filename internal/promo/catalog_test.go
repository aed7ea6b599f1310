package promo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "promos.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, `
promo_codes:
  - code: WELCOME10
    percent: 10
    description: Welcome bonus
  - code: spring25
    percent: 25
`)

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if catalog.Len() != 2 {
		t.Errorf("Expected 2 codes, got %d", catalog.Len())
	}

	p, err := catalog.Lookup(" welcome10 ")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if p.Code != "WELCOME10" || p.Percent != 10 {
		t.Errorf("Unexpected promo %+v", p)
	}

	if p, err := catalog.Lookup("SPRING25"); err != nil || p.Percent != 25 {
		t.Errorf("Expected SPRING25 at 25%%, got %+v / %v", p, err)
	}

	if _, err := catalog.Lookup("NOPE"); !errors.Is(err, ErrUnknownCode) {
		t.Errorf("Expected ErrUnknownCode, got %v", err)
	}
}

func TestLoadCatalog_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing code":   "promo_codes:\n  - percent: 10\n",
		"zero percent":   "promo_codes:\n  - code: A\n    percent: 0\n",
		"too large":      "promo_codes:\n  - code: A\n    percent: 101\n",
		"duplicate":      "promo_codes:\n  - code: A\n    percent: 5\n  - code: a\n    percent: 6\n",
		"malformed yaml": "promo_codes: [",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadCatalog(writeCatalog(t, content)); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
