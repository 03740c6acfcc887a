package session

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFromProbes(t *testing.T) {
	tests := []struct {
		admin, user bool
		want        Role
	}{
		{false, false, RoleAnonymous},
		{false, true, RoleUser},
		{true, false, RoleAdmin},
		{true, true, RoleAdmin},
	}
	for _, tt := range tests {
		if got := FromProbes(tt.admin, tt.user); got != tt.want {
			t.Errorf("FromProbes(%v, %v) = %s, want %s", tt.admin, tt.user, got, tt.want)
		}
	}
}

func TestProbeRole_FailedChecksCountAsNegative(t *testing.T) {
	p := Probe{AdminErr: errors.New("boom"), User: true}
	if p.Role() != RoleUser {
		t.Errorf("got %s, want user", p.Role())
	}
	p = Probe{AdminErr: errors.New("boom"), UserErr: errors.New("boom")}
	if p.Role() != RoleAnonymous {
		t.Errorf("got %s, want anonymous", p.Role())
	}
}

func TestRoleJSON(t *testing.T) {
	var r Role
	if err := json.Unmarshal([]byte(`"admin"`), &r); err != nil || r != RoleAdmin {
		t.Fatalf("got %q, %v", r, err)
	}
	if err := json.Unmarshal([]byte(`"root"`), &r); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestRoleHelpers(t *testing.T) {
	if RoleAnonymous.IsAuthenticated() {
		t.Error("anonymous is not authenticated")
	}
	if !RoleUser.IsAuthenticated() || RoleUser.IsAdmin() {
		t.Error("user helpers wrong")
	}
	if RoleAdmin.DisplayName() != "Admin" {
		t.Errorf("display = %q", RoleAdmin.DisplayName())
	}
}
