package session_test

import (
	"context"
	"sync"

	session "github.com/BustosAndrew/go-session"
)

// testIdentity implements session.Identity
type testIdentity struct {
	id    string
	email string
	name  string
}

func (t testIdentity) ID() string          { return t.id }
func (t testIdentity) Email() string       { return t.email }
func (t testIdentity) DisplayName() string { return t.name }

// fakeAuth is a scriptable identity service. Tests drive the change stream
// through emit.
type fakeAuth struct {
	mu       sync.Mutex
	handlers map[int]func(session.Identity)
	seq      int

	signInFn   func(ctx context.Context, email, password string) (session.Identity, error)
	signUpFn   func(ctx context.Context, email, password string) (session.Identity, error)
	signOutErr error

	signUpCalls  int
	signInCalls  int
	signOutCalls int
	unsubscribes int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{handlers: map[int]func(session.Identity){}}
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (session.Identity, error) {
	f.mu.Lock()
	f.signUpCalls++
	fn := f.signUpFn
	f.mu.Unlock()

	if fn == nil {
		return testIdentity{id: "new", email: email}, nil
	}
	return fn(ctx, email, password)
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (session.Identity, error) {
	f.mu.Lock()
	f.signInCalls++
	fn := f.signInFn
	f.mu.Unlock()

	if fn == nil {
		return testIdentity{id: "signed-in", email: email}, nil
	}
	return fn(ctx, email, password)
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeAuth) OnChange(handler func(session.Identity)) session.Unsubscribe {
	f.mu.Lock()
	id := f.seq
	f.seq++
	f.handlers[id] = handler
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.handlers, id)
		f.unsubscribes++
		f.mu.Unlock()
	}
}

func (f *fakeAuth) emit(ident session.Identity) {
	f.mu.Lock()
	handlers := make([]func(session.Identity), 0, len(f.handlers))
	for _, fn := range f.handlers {
		handlers = append(handlers, fn)
	}
	f.mu.Unlock()

	for _, fn := range handlers {
		fn(ident)
	}
}

type storeWatcher struct {
	onData  func(session.Document, bool)
	onError func(error)
}

// fakeStore keeps documents in a map and pushes writes to registered
// watchers, mirroring the contract of the real store.
type fakeStore struct {
	mu       sync.Mutex
	docs     map[string]session.Document
	watchers map[string]map[int]storeWatcher
	seq      int

	putErr   error
	watchErr error

	putCalls    int
	watchOpens  int
	watchCloses int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     map[string]session.Document{},
		watchers: map[string]map[int]storeWatcher{},
	}
}

func (f *fakeStore) path(collection, id string) string {
	return collection + "/" + id
}

func (f *fakeStore) Put(ctx context.Context, collection, id string, fields session.Document) error {
	f.mu.Lock()
	f.putCalls++
	if f.putErr != nil {
		err := f.putErr
		f.mu.Unlock()
		return err
	}

	path := f.path(collection, id)
	doc := make(session.Document, len(fields))
	for k, v := range fields {
		doc[k] = v
	}
	f.docs[path] = doc

	targets := make([]storeWatcher, 0, len(f.watchers[path]))
	for _, w := range f.watchers[path] {
		targets = append(targets, w)
	}
	f.mu.Unlock()

	for _, w := range targets {
		if w.onData != nil {
			w.onData(doc, true)
		}
	}
	return nil
}

func (f *fakeStore) Watch(collection, id string, onData func(session.Document, bool), onError func(error)) session.Unsubscribe {
	path := f.path(collection, id)

	f.mu.Lock()
	f.watchOpens++
	if f.watchers[path] == nil {
		f.watchers[path] = map[int]storeWatcher{}
	}
	wid := f.seq
	f.seq++
	f.watchers[path][wid] = storeWatcher{onData: onData, onError: onError}
	doc, exists := f.docs[path]
	watchErr := f.watchErr
	f.mu.Unlock()

	if watchErr != nil {
		if onError != nil {
			onError(watchErr)
		}
	} else if onData != nil {
		onData(doc, exists)
	}

	return func() {
		f.mu.Lock()
		if ws, ok := f.watchers[path]; ok {
			if _, open := ws[wid]; open {
				delete(ws, wid)
				f.watchCloses++
			}
		}
		f.mu.Unlock()
	}
}

// fakeBackend hands out fixed handles and counts factory calls
type fakeBackend struct {
	auth  session.IdentityService
	store session.DocumentStore

	authErr  error
	storeErr error

	authCalls  int
	storeCalls int
}

func (f *fakeBackend) NewIdentityService(session.Config) (session.IdentityService, error) {
	f.authCalls++
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.auth, nil
}

func (f *fakeBackend) NewDocumentStore(session.Config) (session.DocumentStore, error) {
	f.storeCalls++
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	return f.store, nil
}

// recordingLogger captures log lines for assertions
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}

func (l *recordingLogger) Warn(format string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, format)
}

func (l *recordingLogger) Error(format string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, format)
}
