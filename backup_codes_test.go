package authguard

import (
	"strings"
	"testing"
)

func TestBackupCodeBatchShape(t *testing.T) {
	codes, records, err := newBackupCodeBatch("u1", 10, 10)
	if err != nil {
		t.Fatalf("batch generation failed: %v", err)
	}
	if len(codes) != 10 || len(records) != 10 {
		t.Fatalf("expected 10 codes and records, got %d/%d", len(codes), len(records))
	}

	seen := make(map[string]bool)
	for i, code := range codes {
		canonical := canonicalizeBackupCode(code)
		if len(canonical) != 10 {
			t.Fatalf("code %d: expected 10 significant characters, got %q", i, code)
		}
		for _, r := range canonical {
			if !strings.ContainsRune(backupCodeAlphabet, r) {
				t.Fatalf("code %d contains %q outside the alphabet", i, r)
			}
		}
		if seen[canonical] {
			t.Fatalf("duplicate code in batch: %s", code)
		}
		seen[canonical] = true

		if records[i].Used {
			t.Fatalf("record %d born used", i)
		}
		if records[i].Hash != backupCodeHash("u1", canonical) {
			t.Fatalf("record %d hash does not match its code", i)
		}
	}
}

func TestFormatBackupCodeInsertsSeparator(t *testing.T) {
	formatted := formatBackupCode("ABCDEFGHJK")
	if formatted != "ABCDE-FGHJK" {
		t.Fatalf("expected ABCDE-FGHJK, got %s", formatted)
	}
	if canonicalizeBackupCode(formatted) != "ABCDEFGHJK" {
		t.Fatalf("canonicalize must undo formatting, got %s", canonicalizeBackupCode(formatted))
	}
}

func TestCanonicalizeBackupCode(t *testing.T) {
	cases := map[string]string{
		"abcde-fghjk":     "ABCDEFGHJK",
		"  ABCDE FGHJK  ": "ABCDEFGHJK",
		"ab-cd-ef":        "ABCDEF",
	}
	for in, want := range cases {
		if got := canonicalizeBackupCode(in); got != want {
			t.Fatalf("canonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBackupCodeHashIsSaltedByUser(t *testing.T) {
	if backupCodeHash("u1", "ABCDEFGHJK") == backupCodeHash("u2", "ABCDEFGHJK") {
		t.Fatal("expected different users to produce different hashes for the same code")
	}
	if backupCodeHash("u1", "ABCDEFGHJK") != backupCodeHash("u1", "ABCDEFGHJK") {
		t.Fatal("expected the hash to be deterministic")
	}
}

func TestBackupCodeAlphabetExcludesLookalikes(t *testing.T) {
	for _, r := range "01OIl" {
		if strings.ContainsRune(backupCodeAlphabet, r) {
			t.Fatalf("alphabet contains lookalike %q", r)
		}
	}
}
