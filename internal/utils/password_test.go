package utils

import (
	"strings"
	"testing"
)

func TestHashPassword_DefaultAdmin(t *testing.T) {
	// The bootstrap admin is created with this password.
	hash, err := HashPassword("admin")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", hash)
	}
	if !CheckPassword("admin", hash) {
		t.Error("default admin password should verify against its hash")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	first, _ := HashPassword("dcops-rack-42")
	second, _ := HashPassword("dcops-rack-42")

	if first == second {
		t.Error("hashing the same password twice should give different hashes")
	}
	if !CheckPassword("dcops-rack-42", first) || !CheckPassword("dcops-rack-42", second) {
		t.Error("both hashes should verify")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("scl3-sysadmin")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		expected bool
	}{
		{"matching password", "scl3-sysadmin", hash, true},
		{"other user's password", "phx1-netops", hash, false},
		{"trailing space", "scl3-sysadmin ", hash, false},
		{"upper case", "SCL3-SYSADMIN", hash, false},
		{"empty password", "", hash, false},
		{"ldap user without local hash", "scl3-sysadmin", "", false},
		{"corrupt hash", "scl3-sysadmin", "not-a-bcrypt-hash", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.expected {
				t.Errorf("CheckPassword(%q) = %v, expected %v", tt.password, got, tt.expected)
			}
		})
	}
}
