package access

import domainauth "github.com/target/petalcart/internal/domain/auth"

// State is the authentication state of the actor on a navigation.
type State string

const (
	StateAnonymous           State = "anonymous"
	StateAuthenticatedClient State = "authenticated_client"
	StateAuthenticatedAdmin  State = "authenticated_admin"
)

// EventKind identifies a transition trigger.
type EventKind string

const (
	// EventLogin fires on successful login or registration.
	EventLogin EventKind = "login"
	// EventLogout fires on explicit logout.
	EventLogout EventKind = "logout"
	// EventOrphanToken fires when a credential has no matching principal data.
	EventOrphanToken EventKind = "orphan_token"
)

// Event is a transition trigger. Principal is only consulted for EventLogin.
type Event struct {
	Kind      EventKind
	Principal *domainauth.Principal
}

// StateOf derives the state for principal.
func StateOf(principal *domainauth.Principal) State {
	switch {
	case principal.IsAnonymous():
		return StateAnonymous
	case principal.IsAdmin():
		return StateAuthenticatedAdmin
	default:
		return StateAuthenticatedClient
	}
}

// Next returns the state reached from `from` on ev.
// Login targets the state named by the server-issued role; logout and orphaned
// credentials always land on StateAnonymous. Unknown events leave the state unchanged.
func Next(from State, ev Event) State {
	switch ev.Kind {
	case EventLogin:
		return StateOf(ev.Principal)
	case EventLogout, EventOrphanToken:
		return StateAnonymous
	default:
		return from
	}
}
