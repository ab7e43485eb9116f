package shopsdk

import "slices"

// Decision is the outcome of an access check.
type Decision int

const (
	// Admit lets the caller through.
	Admit Decision = iota
	// RedirectLogin sends an anonymous caller to the login page.
	RedirectLogin
	// RedirectHome sends an authenticated caller without the role home.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Admit:
		return "admit"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Path is where the caller should be sent. It is empty for Admit.
func (d Decision) Path() string {
	switch d {
	case RedirectLogin:
		return "/login"
	case RedirectHome:
		return "/"
	default:
		return ""
	}
}

// Gate decides whether identity may enter a resource restricted to the
// required roles. With no roles listed any authenticated identity is admitted.
func Gate(identity *Identity, required ...Role) Decision {
	if identity == nil {
		return RedirectLogin
	}
	if len(required) > 0 && !slices.Contains(required, identity.Role) {
		return RedirectHome
	}
	return Admit
}
