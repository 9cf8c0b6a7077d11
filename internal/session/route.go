package session

// Route names a screen of the UI shell.
type Route string

const (
	RouteLogin    Route = "login"
	RouteRegister Route = "register"
	RouteLists    Route = "lists"
	RouteItems    Route = "items"
)

// IsAuthRoute reports whether r is reachable only without a session.
func (r Route) IsAuthRoute() bool {
	return r == RouteLogin || r == RouteRegister
}

// Decision is the outcome of a route-access check.
type Decision int

const (
	// Wait means the credential check has not happened yet; render a
	// neutral loading state.
	Wait Decision = iota
	Allow
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "wait"
	}
}

// Decide maps a state and a requested route to an access decision.
func Decide(state State, route Route) Decision {
	switch state {
	case StateUnknown:
		return Wait
	case StateAnonymous:
		if route.IsAuthRoute() {
			return Allow
		}
		return RedirectLogin
	default:
		if route.IsAuthRoute() {
			return RedirectHome
		}
		return Allow
	}
}

// Resolve returns the route to show for a requested one.
func Resolve(state State, route Route) (Route, Decision) {
	d := Decide(state, route)
	switch d {
	case RedirectLogin:
		return RouteLogin, d
	case RedirectHome:
		return RouteLists, d
	default:
		return route, d
	}
}

// Decide checks route against the session's current state.
func (s *Session) Decide(route Route) Decision {
	return Decide(s.State(), route)
}
