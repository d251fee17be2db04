package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Document is a decoded document body. Values follow encoding/json
// conventions: numbers are float64, arrays are []any, objects map[string]any.
type Document map[string]any

// Write is one element of a batch update.
type Write struct {
	Collection string
	ID         string
	Patch      Document
}

// Client is the document-store contract the rest of the app programs
// against. Get returns (nil, nil) when the document does not exist.
type Client interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	Update(ctx context.Context, collection, id string, patch Document) error
	BatchUpdate(ctx context.Context, writes []Write) error
	Subscribe(collection string, filter Filter, onChange func([]Document)) *Subscription
}

// Subscription is a standing query. After every committed write to the
// collection the query re-runs and onChange receives the fresh result set,
// until Cancel is called. Cancel is idempotent.
type Subscription struct {
	collection string
	filter     Filter
	onChange   func([]Document)

	mu        sync.Mutex
	cancelled bool
	detach    func()
}

func (s *Subscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.cancelled = true
	if s.detach != nil {
		s.detach()
	}
}

func (s *Subscription) deliver(docs []Document) {
	s.mu.Lock()
	cancelled := s.cancelled
	s.mu.Unlock()
	if !cancelled {
		s.onChange(docs)
	}
}

// notifier tracks live subscriptions per collection and re-runs their
// queries after writes.
type notifier struct {
	runQuery func(ctx context.Context, collection string, filter Filter) ([]Document, error)

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func newNotifier(runQuery func(context.Context, string, Filter) ([]Document, error)) *notifier {
	return &notifier{
		runQuery: runQuery,
		subs:     map[string]map[*Subscription]struct{}{},
	}
}

func (n *notifier) subscribe(collection string, filter Filter, onChange func([]Document)) *Subscription {
	sub := &Subscription{
		collection: collection,
		filter:     filter,
		onChange:   onChange,
	}
	sub.detach = func() { n.remove(sub) }

	n.mu.Lock()
	if n.subs[collection] == nil {
		n.subs[collection] = map[*Subscription]struct{}{}
	}
	n.subs[collection][sub] = struct{}{}
	n.mu.Unlock()

	// Initial snapshot, matching listener semantics where the first
	// callback fires with the current result set.
	go n.run(sub)
	return sub
}

func (n *notifier) remove(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if collSubs, ok := n.subs[sub.collection]; ok {
		delete(collSubs, sub)
		if len(collSubs) == 0 {
			delete(n.subs, sub.collection)
		}
	}
}

func (n *notifier) notify(collection string) {
	n.mu.RLock()
	subs := make([]*Subscription, 0, len(n.subs[collection]))
	for sub := range n.subs[collection] {
		subs = append(subs, sub)
	}
	n.mu.RUnlock()

	for _, sub := range subs {
		go n.run(sub)
	}
}

func (n *notifier) run(sub *Subscription) {
	docs, err := n.runQuery(context.Background(), sub.collection, sub.filter)
	if err != nil {
		log.Printf("live query on %s failed: %v", sub.collection, err)
		return
	}
	sub.deliver(docs)
}

// Encode converts a struct into a Document via its JSON form.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Decode fills a struct from a Document via its JSON form.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// DecodeAll decodes a result set into a slice of T.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := Decode(doc, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
