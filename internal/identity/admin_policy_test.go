package identity

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestAdministratorPolicy_IsAdmin(t *testing.T) {
	policy := PolicyFromCSV(" Coach@Example.com, ,owner@example.com", "user_admin")

	tests := []struct {
		name      string
		principal Principal
		want      bool
	}{
		{"email match is case insensitive", Principal{ID: "user_1", Email: "coach@example.com"}, true},
		{"second email", Principal{ID: "user_2", Email: "OWNER@example.com"}, true},
		{"id match without email", Principal{ID: "user_admin"}, true},
		{"unrelated parent", Principal{ID: "user_3", Email: "parent@example.com"}, false},
		{"zero principal", Principal{Email: "coach@example.com"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.IsAdmin(tt.principal); got != tt.want {
				t.Errorf("IsAdmin(%+v) = %v, want %v", tt.principal, got, tt.want)
			}
		})
	}
}

func TestAdministratorPolicy_Require(t *testing.T) {
	policy := NewAdministratorPolicy([]string{"coach@example.com"}, nil)

	if err := policy.Require(Principal{ID: "a", Email: "coach@example.com"}); err != nil {
		t.Fatalf("Require(admin) error = %v", err)
	}
	if err := policy.Require(Principal{ID: "b", Email: "parent@example.com"}); !errors.Is(err, ErrNotAdministrator) {
		t.Fatalf("Require(parent) error = %v, want ErrNotAdministrator", err)
	}

	var nilPolicy *AdministratorPolicy
	if nilPolicy.IsAdmin(Principal{ID: "a", Email: "coach@example.com"}) {
		t.Fatal("nil policy must not grant admin")
	}
}

func TestFromClaims(t *testing.T) {
	p, err := FromClaims(jwt.MapClaims{"sub": "user_9", "email": " Parent@Example.com "})
	if err != nil {
		t.Fatalf("FromClaims() error = %v", err)
	}
	if p.ID != "user_9" || p.Email != "parent@example.com" {
		t.Errorf("FromClaims() = %+v", p)
	}

	if _, err := FromClaims(jwt.MapClaims{"email": "x@example.com"}); err == nil {
		t.Fatal("expected error for missing sub")
	}
}
