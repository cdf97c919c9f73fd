package routes

import (
	"strings"

	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/session"
)

// APIRule gates a backend path prefix. Nil Roles means any authenticated staff.
type APIRule struct {
	Prefix string
	Roles  []session.Role
}

var apiTable = []APIRule{
	{Prefix: "/staff/patients"},
	{Prefix: "/staff/appointments"},
	{Prefix: "/staff/analytics"},
	{Prefix: "/admin/staff", Roles: admin},
	{Prefix: "/pharmacy/prescriptions"},
	{Prefix: "/pharmacy/inventory"},
}

// AllowAPI reports whether the path is a known backend path and whether id may call it.
func AllowAPI(path string, id session.Identity) (known bool, allowed bool) {
	path = normalize(path)
	for _, rule := range apiTable {
		if path == rule.Prefix || strings.HasPrefix(path, rule.Prefix+"/") {
			return true, session.Authorize(id, rule.Roles...)
		}
	}
	return false, false
}

// Intent is a portal appointment action.
type Intent string

const (
	IntentView       Intent = "view"
	IntentBook       Intent = "book"
	IntentCancel     Intent = "cancel"
	IntentReschedule Intent = "reschedule"
	IntentPay        Intent = "pay"
)

var intentTable = map[Intent][]session.Role{
	IntentView:       {session.RoleAdmin, session.RoleDoctor, session.RoleNurse, session.RoleReceptionist},
	IntentBook:       {session.RoleReceptionist, session.RoleAdmin},
	IntentCancel:     {session.RoleDoctor, session.RoleReceptionist, session.RoleAdmin},
	IntentReschedule: {session.RoleDoctor, session.RoleReceptionist, session.RoleAdmin},
	IntentPay:        {session.RoleReceptionist, session.RoleAdmin},
}

// CanPerform reports whether id may run intent. Unknown intents are denied.
func CanPerform(id session.Identity, intent Intent) bool {
	roles, ok := intentTable[intent]
	if !ok {
		return false
	}
	return session.Authorize(id, roles...)
}
