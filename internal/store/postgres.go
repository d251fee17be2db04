package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/Parimal-b/InstagramCloneApp/internal/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

// Pool is the pgx surface the Postgres backend needs. Both *pgxpool.Pool
// and pgxmock pools satisfy it.
type Pool interface {
	db.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres keeps every collection in one JSONB table and compiles the
// filter algebra to JSONB predicates. Commits notify local subscriptions
// directly and peer instances through a redis channel per collection.
type Postgres struct {
	pool     Pool
	redis    *redis.Client
	origin   string
	notifier *notifier
}

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL,
	PRIMARY KEY (collection, id)
)`

func NewPostgres(pool Pool, redisClient *redis.Client) *Postgres {
	p := &Postgres{
		pool:   pool,
		redis:  redisClient,
		origin: uuid.NewString(),
	}
	p.notifier = newNotifier(p.Query)

	if redisClient != nil {
		go p.subscribeRedis()
	}
	return p
}

func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, documentsSchema)
	return err
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	row := p.pool.QueryRow(ctx, `
		SELECT data FROM documents WHERE collection=$1 AND id=$2
	`, collection, id)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Postgres) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	args := []any{collection}
	pred := compileFilter(filter, &args)

	rows, err := p.pool.Query(ctx, `
		SELECT data FROM documents WHERE collection=$1 AND `+pred, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *Postgres) Set(ctx context.Context, collection, id string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1,$2,$3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
	`, collection, id, raw)
	if err != nil {
		return err
	}
	p.broadcast(collection)
	return nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, patch Document) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, mergeSQL, collection, id, raw)
	if err != nil {
		return err
	}
	p.broadcast(collection)
	return nil
}

// mergeSQL upserts a shallow field merge into an existing document.
const mergeSQL = `
		INSERT INTO documents (collection, id, data)
		VALUES ($1,$2,$3)
		ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data
`

func (p *Postgres) BatchUpdate(ctx context.Context, writes []Write) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	touched := map[string]struct{}{}
	for _, w := range writes {
		raw, err := json.Marshal(w.Patch)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, mergeSQL, w.Collection, w.ID, raw); err != nil {
			return err
		}
		touched[w.Collection] = struct{}{}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	for collection := range touched {
		p.broadcast(collection)
	}
	return nil
}

func (p *Postgres) Subscribe(collection string, filter Filter, onChange func([]Document)) *Subscription {
	return p.notifier.subscribe(collection, filter, onChange)
}

func (p *Postgres) broadcast(collection string) {
	p.notifier.notify(collection)

	if p.redis != nil {
		err := p.redis.Publish(context.Background(), changeChannel(collection), p.origin).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (p *Postgres) subscribeRedis() {
	ctx := context.Background()
	pubsub := p.redis.PSubscribe(ctx, "store:*:changed")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		if msg.Payload == p.origin {
			continue
		}
		if collection := collectionFromChannel(msg.Channel); collection != "" {
			p.notifier.notify(collection)
		}
	}
}

func changeChannel(collection string) string {
	return "store:" + collection + ":changed"
}

func collectionFromChannel(ch string) string {
	// store:{collection}:changed
	const prefix = "store:"
	const suffix = ":changed"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}

// compileFilter renders a filter as a SQL predicate over the data column,
// appending bind arguments as it goes.
func compileFilter(f Filter, args *[]any) string {
	switch f.op {
	case opAll:
		return "TRUE"
	case opEq:
		path := bind(args, fieldPath(f.field))
		val := bind(args, jsonArg(f.value))
		return "data #> " + path + "::text[] = " + val + "::jsonb"
	case opArrayContains:
		path := bind(args, fieldPath(f.field))
		val := bind(args, jsonArg([]any{f.value}))
		return "data #> " + path + "::text[] @> " + val + "::jsonb"
	case opIn:
		if len(f.values) == 0 {
			return "FALSE"
		}
		parts := make([]string, len(f.values))
		for i, v := range f.values {
			parts[i] = compileFilter(Eq(f.field, v), args)
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	case opGt:
		path := bind(args, fieldPath(f.field))
		val := bind(args, f.value)
		return "(data #>> " + path + "::text[])::numeric > " + val
	case opAnd, opOr:
		// Match the in-memory evaluator: an empty conjunction is
		// vacuously true, an empty disjunction matches nothing.
		if len(f.subs) == 0 {
			if f.op == opOr {
				return "FALSE"
			}
			return "TRUE"
		}
		parts := make([]string, len(f.subs))
		for i, sub := range f.subs {
			parts[i] = compileFilter(sub, args)
		}
		sep := " AND "
		if f.op == opOr {
			sep = " OR "
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
	return "FALSE"
}

func bind(args *[]any, value any) string {
	*args = append(*args, value)
	return "$" + strconv.Itoa(len(*args))
}

func jsonArg(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(raw)
}
