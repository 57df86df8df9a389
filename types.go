package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated principal
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
}

// Unsubscribe releases a live subscription. Safe to call more than once.
type Unsubscribe func()

// Document is the field set of a single document-store record
type Document map[string]any

// ServerTimestamp is a sentinel field value replaced by the document store
// with its own clock at write time.
var ServerTimestamp = serverTimestamp{}

type serverTimestamp struct{}

// IdentityService is the remote authentication collaborator. Implementations
// own credential verification and session persistence; this library only
// consumes the change stream and the three account operations.
type IdentityService interface {
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	// OnChange registers a handler for identity changes. The handler receives
	// the current identity immediately, then again on every transition. A nil
	// identity means signed out.
	OnChange(handler func(Identity)) Unsubscribe
}

// DocumentStore is the remote document collaborator
type DocumentStore interface {
	// Watch opens a live subscription on collection/id. onData receives the
	// current snapshot immediately (exists=false when the document is
	// missing), then every subsequent write. onError receives store-level
	// failures; the subscription stays registered after an error.
	Watch(collection, id string, onData func(doc Document, exists bool), onError func(err error)) Unsubscribe
	Put(ctx context.Context, collection, id string, fields Document) error
}

// Backend constructs the two service handles owned by a Client
type Backend interface {
	NewIdentityService(cfg Config) (IdentityService, error)
	NewDocumentStore(cfg Config) (DocumentStore, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
