package session

import (
	"context"
	"fmt"
	"sync"
)

// DefaultProfileCollection is where profile documents live, keyed by the
// identity id.
const DefaultProfileCollection = "users"

type ManagerOption func(*Manager)

// WithProfileCollection overrides the collection profile documents are read
// from and written to.
func WithProfileCollection(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.collection = name
		}
	}
}

func WithManagerLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager owns the reactive session state derived from the identity stream
// and the keyed profile-document watch. All state mutations go through its
// handlers; consumers read copies via State or OnState.
type Manager struct {
	auth       IdentityService
	store      DocumentStore
	logger     Logger
	collection string
	machine    *phaseMachine

	mu          sync.Mutex
	state       State
	authUnsub   Unsubscribe
	docUnsub    Unsubscribe
	watchUID    string
	observers   map[int]func(State)
	observerSeq int
	started     bool
	closed      bool
}

// NewManager builds a Manager from an initialized Client. The client is a
// required constructor dependency; a client that has not finished Initialize
// yields ErrClientNotReady instead of a manager holding nil handles.
func NewManager(client *Client, opts ...ManagerOption) (*Manager, error) {
	auth, ok := client.Auth()
	if !ok {
		return nil, ErrClientNotReady
	}

	store, ok := client.Store()
	if !ok {
		return nil, ErrClientNotReady
	}

	m := NewManagerFromServices(auth, store, opts...)
	return m, nil
}

// NewManagerFromServices builds a Manager from explicit service handles
func NewManagerFromServices(auth IdentityService, store DocumentStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		auth:       auth,
		store:      store,
		logger:     defLogger{},
		collection: DefaultProfileCollection,
		machine:    newPhaseMachine(),
		observers:  map[int]func(State){},
		state: State{
			Loading:       true,
			Phase:         PhaseInitializing,
			ProfileStatus: ProfileNone,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Start subscribes to the identity change stream. It is idempotent. When ctx
// is cancelable the manager closes itself on cancellation, so the
// subscription lifetime is scoped to the context.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	unsub := m.auth.OnChange(m.handleIdentity)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		unsub()
		return ErrManagerClosed
	}
	m.authUnsub = unsub
	m.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			m.Close()
		}()
	}

	return nil
}

// Close tears down the identity subscription and any open document watch.
// No callbacks mutate state after Close returns.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	authUnsub, docUnsub := m.authUnsub, m.docUnsub
	m.authUnsub, m.docUnsub = nil, nil
	m.watchUID = ""
	m.mu.Unlock()

	if docUnsub != nil {
		docUnsub()
	}
	if authUnsub != nil {
		authUnsub()
	}
}

// State returns a copy of the current session snapshot
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// OnState registers an observer. It receives the current snapshot
// immediately, then one snapshot per state change, in order.
func (m *Manager) OnState(fn func(State)) Unsubscribe {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	id := m.observerSeq
	m.observerSeq++
	m.observers[id] = fn
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	fn(snapshot)

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// Login verifies credentials against the identity service. On success the
// identity is applied locally before returning, without waiting for the
// stream callback; the stream write converges to the same value. On failure
// the message is recorded and existing identity state is untouched.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	ident, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		m.logger.Error("login failed", "email", email, "error", err)
		m.recordError(err.Error())
		return false
	}

	m.handleIdentity(ident)
	return true
}

// Logout drops local identity state first so dependent subscriptions stop,
// then signs out remotely. A remote failure is recorded but local state
// stays cleared; sign-out is best-effort once the session is dropped.
func (m *Manager) Logout(ctx context.Context) bool {
	m.handleIdentity(nil)

	if err := m.auth.SignOut(ctx); err != nil {
		m.logger.Error("sign-out failed", "error", err)
		m.recordError(err.Error())
		return false
	}

	return true
}

// handleIdentity is the single writer for identity transitions, shared by
// the stream subscription and the explicit operations.
func (m *Manager) handleIdentity(ident Identity) {
	var closeWatch Unsubscribe
	var openUID string

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	if ident == nil {
		closeWatch = m.docUnsub
		m.docUnsub = nil
		m.watchUID = ""
		m.state.Identity = nil
		m.state.Profile = nil
		m.state.Errors = nil
		m.state.Loading = true
		m.state.ProfileStatus = ProfileNone
		m.setPhaseLocked(PhaseUnauthenticated)
	} else {
		m.state.Identity = ident
		m.state.Loading = false
		m.setPhaseLocked(PhaseAuthenticated)

		if m.watchUID != ident.ID() {
			closeWatch = m.docUnsub
			m.docUnsub = nil
			m.watchUID = ident.ID()
			m.state.Profile = nil
			m.state.ProfileStatus = ProfileLoading
			openUID = ident.ID()
		}
	}

	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if closeWatch != nil {
		closeWatch()
	}

	m.notify(snapshot)

	if openUID != "" {
		m.openWatch(openUID)
	}
}

// openWatch runs outside the state lock because stores may deliver the
// initial snapshot synchronously from Watch.
func (m *Manager) openWatch(uid string) {
	path := m.collection + "/" + uid

	unsub := m.store.Watch(m.collection, uid,
		func(doc Document, exists bool) {
			m.handleProfile(uid, path, doc, exists)
		},
		func(err error) {
			m.handleProfileError(uid, err)
		},
	)

	m.mu.Lock()
	if m.closed || m.watchUID != uid {
		m.mu.Unlock()
		unsub()
		return
	}
	m.docUnsub = unsub
	m.mu.Unlock()
}

func (m *Manager) handleProfile(uid, path string, doc Document, exists bool) {
	m.mu.Lock()
	if m.closed || m.watchUID != uid {
		// stale callback for a previous identity
		m.mu.Unlock()
		return
	}

	if exists {
		m.state.Profile = doc
		m.state.ProfileStatus = ProfileReady
	} else {
		m.state.Profile = nil
		m.state.ProfileStatus = ProfileError
		m.state.Errors = append(m.state.Errors, fmt.Sprintf("no profile document found at %s", path))
	}

	snapshot := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snapshot)
}

func (m *Manager) handleProfileError(uid string, err error) {
	m.mu.Lock()
	if m.closed || m.watchUID != uid {
		m.mu.Unlock()
		return
	}

	m.state.Profile = nil
	m.state.ProfileStatus = ProfileError
	m.state.Errors = append(m.state.Errors, err.Error()+" (the document store may not be provisioned for this project)")

	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Error("profile watch failed", "uid", uid, "error", err)
	m.notify(snapshot)
}

func (m *Manager) setPhaseLocked(target Phase) {
	next, err := m.machine.transition(m.state.Phase, target)
	if err != nil {
		m.logger.Warn("refused phase transition", "from", m.state.Phase, "to", target, "error", err)
	}
	m.state.Phase = next
}

func (m *Manager) recordError(msg string) {
	m.mu.Lock()
	m.state.Errors = append(m.state.Errors, msg)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snapshot)
}

func (m *Manager) snapshotLocked() State {
	st := m.state

	if len(m.state.Errors) > 0 {
		st.Errors = append([]string(nil), m.state.Errors...)
	}

	if m.state.Profile != nil {
		p := make(Document, len(m.state.Profile))
		for k, v := range m.state.Profile {
			p[k] = v
		}
		st.Profile = p
	}

	return st
}

func (m *Manager) notify(st State) {
	m.mu.Lock()
	fns := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
