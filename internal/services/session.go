package services

import "mercado/internal/models"

// Role is the derived privilege classification. It is computed from the
// stored user record, never persisted: the stored type field alone does
// not grant anything, approval factors in.
type Role int

const (
	RoleAnonymous Role = iota
	RoleRegular
	RoleAdministrator
)

func (r Role) String() string {
	switch r {
	case RoleRegular:
		return "regular"
	case RoleAdministrator:
		return "administrator"
	default:
		return "anonymous"
	}
}

// PageKind classifies a page for access control purposes.
type PageKind int

const (
	PagePublic PageKind = iota
	PageRequiresAuth
	PageRequiresAdmin
)

// Canonical page targets used by redirect decisions.
const (
	PageLogin     = "/login"
	PageDashboard = "/dashboard"
	PageAdmin     = "/admin"
)

// Decision is the outcome of a page authorization check.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Session is the resolved identity for one request. A zero Session is a
// valid anonymous session.
type Session struct {
	UserID string
	Role   Role
	User   *models.User
}

// IsLoggedIn reports whether the session carries an authenticated principal.
func (s Session) IsLoggedIn() bool {
	return s.Role != RoleAnonymous && s.User != nil
}

// OwnerID returns the order attribution id for this session, falling
// back to the anonymous sentinel.
func (s Session) OwnerID() string {
	if s.IsLoggedIn() {
		return s.UserID
	}
	return models.AnonymousUserID
}

// ResolveRole derives the privilege role from a stored user record.
// A nil record is anonymous. An admin record without approval resolves
// to regular privilege: it must be indistinguishable from a plain user
// for every gated check.
func ResolveRole(user *models.User) Role {
	if user == nil {
		return RoleAnonymous
	}
	if user.Type == models.UserTypeAdmin && user.Approved {
		return RoleAdministrator
	}
	return RoleRegular
}

// AuthorizePage decides whether role may view a page of the given kind.
// Beyond pure denial it also enforces the canonical landing per role:
// an administrator hitting the regular dashboard is sent to the admin
// panel.
func AuthorizePage(kind PageKind, role Role) Decision {
	switch kind {
	case PageRequiresAuth:
		switch role {
		case RoleAnonymous:
			return Decision{RedirectTo: PageLogin}
		case RoleAdministrator:
			return Decision{RedirectTo: PageAdmin}
		}
	case PageRequiresAdmin:
		switch role {
		case RoleAnonymous:
			return Decision{RedirectTo: PageLogin}
		case RoleRegular:
			return Decision{RedirectTo: PageDashboard}
		}
	}
	return Decision{Allow: true}
}

// LandingPage returns the canonical landing target for a role after a
// successful login.
func LandingPage(role Role) string {
	switch role {
	case RoleAdministrator:
		return PageAdmin
	case RoleRegular:
		return PageDashboard
	default:
		return PageLogin
	}
}
