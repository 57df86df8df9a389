package localbackend

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	session "github.com/BustosAndrew/go-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type watcher struct {
	onData  func(session.Document, bool)
	onError func(error)
}

// documentStore keeps documents in the documents table and pushes every
// write to the watchers registered for that document's path.
type documentStore struct {
	db     *bun.DB
	logger session.Logger
	now    func() time.Time

	mu       sync.Mutex
	watchers map[string]map[int]watcher
	seq      int
}

var _ session.DocumentStore = (*documentStore)(nil)

func newDocumentStore(db *bun.DB, logger session.Logger) *documentStore {
	return &documentStore{
		db:       db,
		logger:   logger,
		now:      time.Now,
		watchers: map[string]map[int]watcher{},
	}
}

func docPath(collection, id string) string {
	return collection + "/" + id
}

func (s *documentStore) Put(ctx context.Context, collection, id string, fields session.Document) error {
	stamp := s.now().UTC()

	resolved := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == session.ServerTimestamp {
			resolved[k] = stamp.Format(time.RFC3339Nano)
			continue
		}
		resolved[k] = v
	}

	rec := &DocumentRecord{
		ID:         uuid.New(),
		Collection: collection,
		DocID:      id,
		Fields:     resolved,
		CreatedAt:  stamp,
		UpdatedAt:  stamp,
	}

	_, err := s.db.NewInsert().Model(rec).
		On("CONFLICT (collection, doc_id) DO UPDATE").
		Set("fields = EXCLUDED.fields").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write document")
	}

	s.broadcast(collection, id, resolved)
	return nil
}

// Watch delivers the current snapshot synchronously, then every write until
// unsubscribed.
func (s *documentStore) Watch(collection, id string, onData func(session.Document, bool), onError func(error)) session.Unsubscribe {
	path := docPath(collection, id)

	s.mu.Lock()
	if s.watchers[path] == nil {
		s.watchers[path] = map[int]watcher{}
	}
	wid := s.seq
	s.seq++
	s.watchers[path][wid] = watcher{onData: onData, onError: onError}
	s.mu.Unlock()

	doc, exists, err := s.load(context.Background(), collection, id)
	switch {
	case err != nil:
		s.logger.Error("watch snapshot read failed", "path", path, "error", err)
		if onError != nil {
			onError(err)
		}
	case onData != nil:
		onData(doc, exists)
	}

	return func() {
		s.mu.Lock()
		if ws, ok := s.watchers[path]; ok {
			delete(ws, wid)
			if len(ws) == 0 {
				delete(s.watchers, path)
			}
		}
		s.mu.Unlock()
	}
}

func (s *documentStore) load(ctx context.Context, collection, id string) (session.Document, bool, error) {
	rec := new(DocumentRecord)

	err := s.db.NewSelect().Model(rec).
		Where("collection = ?", collection).
		Where("doc_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read document")
	}

	return session.Document(rec.Fields), true, nil
}

func (s *documentStore) broadcast(collection, id string, fields map[string]any) {
	path := docPath(collection, id)

	s.mu.Lock()
	targets := make([]watcher, 0, len(s.watchers[path]))
	for _, w := range s.watchers[path] {
		targets = append(targets, w)
	}
	s.mu.Unlock()

	for _, w := range targets {
		if w.onData == nil {
			continue
		}
		snapshot := make(session.Document, len(fields))
		for k, v := range fields {
			snapshot[k] = v
		}
		w.onData(snapshot, true)
	}
}
