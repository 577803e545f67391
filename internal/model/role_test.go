package model

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"COMMUNITY", RoleCommunity, true},
		{"community", RoleCommunity, true},
		{"  Driver ", RoleDriver, true},
		{"HEALTH_OFFICER", RoleHealthOfficer, true},
		{"DEVELOPER", RoleDeveloper, true},
		{"", "", false},
		{"SUPERUSER", "", false},
		{"HEALTH OFFICER", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

// Valid is exact-match: the lenient forms ParseRole accepts for user
// input must not validate as stored or claimed roles.
func TestRoleValidIsExact(t *testing.T) {
	for _, r := range AllRoles {
		if !r.Valid() {
			t.Errorf("%s.Valid() = false", r)
		}
	}
	for _, r := range []Role{"", "community", " COMMUNITY", "COMMUNITY ", "Driver", "SUPERUSER"} {
		if r.Valid() {
			t.Errorf("Role(%q).Valid() = true, want false", r)
		}
	}
}

func TestRoleScoping(t *testing.T) {
	for _, r := range AllRoles {
		if r.SelfScoped() && r.BypassesOwnership() {
			t.Errorf("%s is both self-scoped and ownership-bypassing", r)
		}
	}
	if !Role("INTRUDER").SelfScoped() {
		t.Error("unknown roles must default to the most restrictive scope")
	}
	if Role("INTRUDER").BypassesOwnership() {
		t.Error("unknown roles must never bypass ownership")
	}
}
