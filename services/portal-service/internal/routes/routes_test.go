package routes

import (
	"testing"

	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/session"
	"github.com/stretchr/testify/assert"
)

func ident(role session.Role) *session.Identity {
	return &session.Identity{ID: "u1", Role: role}
}

func TestDoctorCannotReachAdminStaff(t *testing.T) {
	doctor := ident(session.RoleDoctor)
	assert.False(t, session.Authorize(*doctor, session.RoleAdmin))
	assert.Equal(t, Decision{Action: ActionRedirect, Location: "/login"}, Guard("/admin/staff", doctor))
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name string
		path string
		id   *session.Identity
		want Decision
	}{
		{"unknown path", "/nowhere", ident(session.RoleAdmin), redirect("/")},
		{"unknown path anonymous", "/nowhere", nil, redirect("/")},
		{"login anonymous", "/login", nil, render("login")},
		{"login authenticated", "/login", ident(session.RoleNurse), redirect("/nurse")},
		{"root anonymous", "/", nil, redirect("/login")},
		{"root authenticated", "/", ident(session.RolePharmacist), redirect("/pharmacist")},
		{"gated anonymous", "/doctor/reports", nil, redirect("/login")},
		{"gated allowed", "/doctor/reports", ident(session.RoleDoctor), render("doctor.reports")},
		{"param route", "/receptionist/edit-patient/42", ident(session.RoleReceptionist), render("receptionist.edit-patient")},
		{"param route wrong role", "/receptionist/edit-patient/42", ident(session.RoleDoctor), redirect("/login")},
		{"param missing", "/doctor/edit-patient/", ident(session.RoleDoctor), redirect("/")},
		{"trailing slash and query", "/admin/staff/?tab=2", ident(session.RoleAdmin), render("admin.staff")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.path, tt.id))
		})
	}
}

func TestHomeForMatchesGuard(t *testing.T) {
	for _, role := range []session.Role{session.RoleAdmin, session.RoleDoctor, session.RoleNurse, session.RoleReceptionist, session.RolePharmacist} {
		home := HomeFor(role)
		assert.Equal(t, "/"+string(role), home)
		assert.Equal(t, ActionRender, Guard(home, ident(role)).Action, "home of %s must be reachable", role)
	}
	assert.Equal(t, "/", HomeFor("janitor"))
}

func TestTableReturnsCopy(t *testing.T) {
	rt := Table()
	rt[0].Path = "/changed"
	_, ok := Lookup("/login")
	assert.True(t, ok)
}

func TestAllowAPI(t *testing.T) {
	known, ok := AllowAPI("/admin/staff/7", *ident(session.RoleDoctor))
	assert.True(t, known)
	assert.False(t, ok)

	known, ok = AllowAPI("/admin/staff", *ident(session.RoleAdmin))
	assert.True(t, known)
	assert.True(t, ok)

	known, ok = AllowAPI("/pharmacy/inventory", *ident(session.RoleNurse))
	assert.True(t, known)
	assert.True(t, ok)

	known, _ = AllowAPI("/staff/patientsX", *ident(session.RoleAdmin))
	assert.False(t, known)
}

func TestCanPerform(t *testing.T) {
	assert.True(t, CanPerform(*ident(session.RoleNurse), IntentView))
	assert.False(t, CanPerform(*ident(session.RolePharmacist), IntentView))
	assert.False(t, CanPerform(*ident(session.RoleDoctor), IntentBook))
	assert.True(t, CanPerform(*ident(session.RoleDoctor), IntentCancel))
	assert.True(t, CanPerform(*ident(session.RoleReceptionist), IntentPay))
	assert.False(t, CanPerform(*ident(session.RoleAdmin), Intent("delete")))
}
