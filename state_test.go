package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseMachineTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Phase
		to      Phase
		wantErr bool
	}{
		{"initializing to authenticated", PhaseInitializing, PhaseAuthenticated, false},
		{"initializing to unauthenticated", PhaseInitializing, PhaseUnauthenticated, false},
		{"authenticated to unauthenticated", PhaseAuthenticated, PhaseUnauthenticated, false},
		{"unauthenticated to authenticated", PhaseUnauthenticated, PhaseAuthenticated, false},
		{"identity switch", PhaseAuthenticated, PhaseAuthenticated, false},
		{"repeated sign-out", PhaseUnauthenticated, PhaseUnauthenticated, false},
		{"back to initializing", PhaseAuthenticated, PhaseInitializing, true},
		{"unknown phase", Phase("bogus"), PhaseAuthenticated, true},
	}

	m := newPhaseMachine()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := m.transition(tc.from, tc.to)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tc.from, next, "invalid transitions keep the current phase")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.to, next)
			}
		})
	}
}

func TestStateAuthenticated(t *testing.T) {
	assert.False(t, State{}.Authenticated())
	assert.True(t, State{Identity: stubIdentity{}}.Authenticated())
}

type stubIdentity struct{}

func (stubIdentity) ID() string          { return "u1" }
func (stubIdentity) Email() string       { return "u1@x.com" }
func (stubIdentity) DisplayName() string { return "" }
