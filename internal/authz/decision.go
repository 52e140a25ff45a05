package authz

import "github.com/baechuer/eprocure-portal/internal/domain"

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	RedirectParam = "redirect"
)

type Outcome string

const (
	Allow             Outcome = "allow"
	RedirectLogin     Outcome = "redirect_login"
	RedirectDashboard Outcome = "redirect_dashboard"
)

// Input is the shared decision input for every enforcement point.
// Role is ignored when HasSession is false.
type Input struct {
	HasSession bool
	Role       domain.Role
	Class      RouteClass
	Path       string
	RawQuery   string
}

type Decision struct {
	Outcome  Outcome
	Location string // empty when Outcome is Allow
	Reason   string
}

func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Decide evaluates the authorization table. Rules are applied in order and
// the first match wins.
//
// Both roles land on the same dashboard after sign-in even though admin and
// supplier route sets differ. No role-specific landing page is implied.
func Decide(in Input) Decision {
	public := in.Class == ClassPublic

	switch {
	case !in.HasSession && !public:
		return Decision{
			Outcome:  RedirectLogin,
			Location: LoginLocation(in.Path, in.RawQuery),
			Reason:   "no_session",
		}
	case !in.HasSession:
		return Decision{Outcome: Allow, Reason: "public"}
	case public:
		return Decision{Outcome: RedirectDashboard, Location: DashboardPath, Reason: "already_authenticated"}
	case in.Class == ClassAdmin && in.Role != domain.RoleAdmin:
		return Decision{Outcome: RedirectDashboard, Location: DashboardPath, Reason: "admin_only"}
	case in.Class == ClassSupplier && in.Role != domain.RoleSupplier:
		return Decision{Outcome: RedirectDashboard, Location: DashboardPath, Reason: "supplier_only"}
	default:
		return Decision{Outcome: Allow, Reason: "authorized"}
	}
}

// FailClosed is the outcome for an unexpected error anywhere in the
// resolution path: anonymous treatment, so protected routes go to login.
func FailClosed(class RouteClass, p, rawQuery string) Decision {
	d := Decide(Input{HasSession: false, Class: class, Path: p, RawQuery: rawQuery})
	if d.Allowed() {
		d.Reason = "resolution_failed_public"
	} else {
		d.Reason = "resolution_failed"
	}
	return d
}
