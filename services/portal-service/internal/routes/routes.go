// Package routes holds the single role-to-route table used by both the
// post-login redirect and the screen guard, plus the API and intent
// permissions checked by the portal handlers.
package routes

import (
	"strings"

	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/session"
)

const (
	LoginPath = "/login"
	RootPath  = "/"
)

// Route maps a path pattern to a screen. Segments starting with ':' match
// any single segment. A nil Roles slice on a gated route admits any
// authenticated identity.
type Route struct {
	Path   string         `json:"path"`
	Screen string         `json:"screen"`
	Roles  []session.Role `json:"roles,omitempty"`
	Public bool           `json:"public,omitempty"`
	Home   bool           `json:"home,omitempty"`
}

var (
	admin        = []session.Role{session.RoleAdmin}
	doctor       = []session.Role{session.RoleDoctor}
	nurse        = []session.Role{session.RoleNurse}
	receptionist = []session.Role{session.RoleReceptionist}
	pharmacist   = []session.Role{session.RolePharmacist}
)

var table = []Route{
	{Path: LoginPath, Screen: "login", Public: true},
	{Path: RootPath, Screen: "dashboard"},

	{Path: "/admin", Screen: "admin.home", Roles: admin, Home: true},
	{Path: "/admin/dashboard", Screen: "admin.dashboard", Roles: admin},
	{Path: "/admin/management", Screen: "admin.management", Roles: admin},
	{Path: "/admin/staff", Screen: "admin.staff", Roles: admin},

	{Path: "/doctor", Screen: "doctor.home", Roles: doctor, Home: true},
	{Path: "/doctor/dashboard", Screen: "doctor.dashboard", Roles: doctor},
	{Path: "/doctor/appointments", Screen: "doctor.appointments", Roles: doctor},
	{Path: "/doctor/edit-patient/:id", Screen: "doctor.edit-patient", Roles: doctor},
	{Path: "/doctor/reports", Screen: "doctor.reports", Roles: doctor},

	{Path: "/nurse", Screen: "nurse.home", Roles: nurse, Home: true},
	{Path: "/nurse/dashboard", Screen: "nurse.dashboard", Roles: nurse},
	{Path: "/nurse/patient-care", Screen: "nurse.patient-care", Roles: nurse},

	{Path: "/receptionist", Screen: "receptionist.home", Roles: receptionist, Home: true},
	{Path: "/receptionist/dashboard", Screen: "receptionist.dashboard", Roles: receptionist},
	{Path: "/receptionist/patients", Screen: "receptionist.patients", Roles: receptionist},
	{Path: "/receptionist/add-patient", Screen: "receptionist.add-patient", Roles: receptionist},
	{Path: "/receptionist/edit-patient/:id", Screen: "receptionist.edit-patient", Roles: receptionist},
	{Path: "/receptionist/add-appointment", Screen: "receptionist.add-appointment", Roles: receptionist},

	{Path: "/pharmacist", Screen: "pharmacist.home", Roles: pharmacist, Home: true},
	{Path: "/pharmacist/dashboard", Screen: "pharmacist.dashboard", Roles: pharmacist},
}

// Table returns a copy of the route table.
func Table() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}

// HomeFor is the post-login landing path for role. Unknown roles land on "/".
func HomeFor(role session.Role) string {
	for _, r := range table {
		if r.Home && len(r.Roles) == 1 && r.Roles[0] == role {
			return r.Path
		}
	}
	return RootPath
}

type Action string

const (
	ActionRender   Action = "render"
	ActionRedirect Action = "redirect"
)

type Decision struct {
	Action   Action `json:"action"`
	Location string `json:"location,omitempty"`
	Screen   string `json:"screen,omitempty"`
}

func render(screen string) Decision { return Decision{Action: ActionRender, Screen: screen} }

func redirect(to string) Decision { return Decision{Action: ActionRedirect, Location: to} }

// Guard decides what a navigation to path resolves to. A role mismatch gets
// the same redirect as no identity at all.
func Guard(path string, id *session.Identity) Decision {
	route, ok := Lookup(path)
	if !ok {
		return redirect(RootPath)
	}
	if route.Public {
		if id != nil && route.Path == LoginPath {
			return redirect(HomeFor(id.Role))
		}
		return render(route.Screen)
	}
	if id == nil {
		return redirect(LoginPath)
	}
	if route.Path == RootPath {
		return redirect(HomeFor(id.Role))
	}
	if !session.Authorize(*id, route.Roles...) {
		return redirect(LoginPath)
	}
	return render(route.Screen)
}

// Lookup finds the route whose pattern matches path.
func Lookup(path string) (Route, bool) {
	path = normalize(path)
	for _, r := range table {
		if match(r.Path, path) {
			return r, true
		}
	}
	return Route{}, false
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return RootPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func match(pattern, path string) bool {
	if !strings.Contains(pattern, ":") {
		return pattern == path
	}
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
