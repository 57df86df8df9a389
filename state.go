package session

// Phase is the top-level session lifecycle state
type Phase string

const (
	// PhaseInitializing covers the window before the first identity callback
	PhaseInitializing Phase = "initializing"
	// PhaseUnauthenticated means the stream resolved to no identity
	PhaseUnauthenticated Phase = "unauthenticated"
	// PhaseAuthenticated means an identity is present
	PhaseAuthenticated Phase = "authenticated"
)

// ProfileStatus is the sub-state of the profile document while authenticated
type ProfileStatus string

const (
	// ProfileNone applies outside the authenticated phase
	ProfileNone ProfileStatus = "none"
	// ProfileLoading means the keyed watch is open but has not resolved
	ProfileLoading ProfileStatus = "loading"
	// ProfileReady means the watch delivered an existing document
	ProfileReady ProfileStatus = "ready"
	// ProfileError means the document is missing or the watch failed
	ProfileError ProfileStatus = "error"
)

// State is a point-in-time snapshot of the session. Snapshots are copies;
// mutating one has no effect on the Manager.
type State struct {
	Identity      Identity
	Profile       Document
	Loading       bool
	Errors        []string
	Phase         Phase
	ProfileStatus ProfileStatus
}

// Authenticated reports whether an identity is present
func (s State) Authenticated() bool {
	return s.Identity != nil
}

// phaseMachine centralizes the allowed phase graph so callback handlers
// cannot drift into states the session contract does not have.
type phaseMachine struct {
	transitions map[Phase]map[Phase]struct{}
}

func newPhaseMachine() *phaseMachine {
	return &phaseMachine{
		transitions: map[Phase]map[Phase]struct{}{
			PhaseInitializing: {
				PhaseAuthenticated:   {},
				PhaseUnauthenticated: {},
			},
			PhaseAuthenticated: {
				PhaseAuthenticated:   {}, // identity switch without sign-out
				PhaseUnauthenticated: {},
			},
			PhaseUnauthenticated: {
				PhaseAuthenticated:   {},
				PhaseUnauthenticated: {},
			},
		},
	}
}

func (m *phaseMachine) transition(from, to Phase) (Phase, error) {
	if from == to && from != PhaseInitializing {
		return to, nil
	}

	if allowed, ok := m.transitions[from]; ok {
		if _, ok := allowed[to]; ok {
			return to, nil
		}
	}

	return from, ErrInvalidPhaseTransition.WithMetadata(map[string]any{
		"from": from,
		"to":   to,
	})
}
