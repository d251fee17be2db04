package store

import (
	"context"
	"sync"
)

// Memory is a map-backed Client used in tests and as a dev backend. It
// evaluates the same filter algebra the Postgres backend compiles to SQL.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]map[string]Document
	notifier *notifier
}

func NewMemory() *Memory {
	m := &Memory{data: map[string]map[string]Document{}}
	m.notifier = newNotifier(m.Query)
	return m
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.data[collection][id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

func (m *Memory) Query(_ context.Context, collection string, filter Filter) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Document
	for _, doc := range m.data[collection] {
		if filter.Match(doc) {
			out = append(out, cloneDoc(doc))
		}
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, collection, id string, doc Document) error {
	m.mu.Lock()
	if m.data[collection] == nil {
		m.data[collection] = map[string]Document{}
	}
	m.data[collection][id] = normalizeDoc(doc)
	m.mu.Unlock()

	m.notifier.notify(collection)
	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, patch Document) error {
	if err := m.apply(collection, id, patch); err != nil {
		return err
	}
	m.notifier.notify(collection)
	return nil
}

func (m *Memory) BatchUpdate(_ context.Context, writes []Write) error {
	touched := map[string]struct{}{}
	for _, w := range writes {
		if err := m.apply(w.Collection, w.ID, w.Patch); err != nil {
			return err
		}
		touched[w.Collection] = struct{}{}
	}
	for collection := range touched {
		m.notifier.notify(collection)
	}
	return nil
}

func (m *Memory) Subscribe(collection string, filter Filter, onChange func([]Document)) *Subscription {
	return m.notifier.subscribe(collection, filter, onChange)
}

func (m *Memory) apply(collection, id string, patch Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[collection] == nil {
		m.data[collection] = map[string]Document{}
	}
	doc, ok := m.data[collection][id]
	if !ok {
		doc = Document{}
	}
	doc = cloneDoc(doc)
	for k, v := range normalizeDoc(patch) {
		doc[k] = v
	}
	m.data[collection][id] = doc
	return nil
}

// normalizeDoc pushes a document through its JSON form so stored values use
// the same representation the Postgres backend returns (float64 numbers,
// []any arrays).
func normalizeDoc(doc Document) Document {
	norm, err := Encode(map[string]any(doc))
	if err != nil {
		return cloneDoc(doc)
	}
	return norm
}

func cloneDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}
