package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	leadsByCreatedKey = "leads:by_created"
	maxUpdateAttempts = 3
)

// RedisRepository stores each lead as a JSON document keyed by ID and keeps a
// sorted set of IDs scored by creation time for ordered listing. Writes use
// WATCH so concurrent updates to the same lead never overwrite each other.
type RedisRepository struct {
	redis  *redis.Client
	tracer trace.Tracer
	now    func() time.Time
}

// NewRedisRepository wires a repository onto an existing client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	if client == nil {
		panic("leads: redis client cannot be nil")
	}
	return &RedisRepository{
		redis:  client,
		tracer: otel.Tracer("frontdesk.internal.leads.redis"),
		now:    time.Now,
	}
}

func (r *RedisRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	ctx, span := r.tracer.Start(ctx, "leads.redis.create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	lead := newLead(req, r.now())
	span.SetAttributes(attribute.String("lead.id", lead.ID))

	data, err := json.Marshal(lead)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("leads: failed to marshal lead: %w", err)
	}
	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, leadKey(lead.ID), data, 0)
		pipe.ZAdd(ctx, leadsByCreatedKey, redis.Z{
			Score:  float64(lead.CreatedAt.UnixMicro()),
			Member: lead.ID,
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("leads: failed to persist lead: %w", err)
	}
	return lead, nil
}

func (r *RedisRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	ctx, span := r.tracer.Start(ctx, "leads.redis.get")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	lead, err := r.load(ctx, r.redis, id)
	if err != nil && !errors.Is(err, ErrLeadNotFound) {
		span.RecordError(err)
	}
	return lead, err
}

func (r *RedisRepository) List(ctx context.Context) ([]*Lead, error) {
	ctx, span := r.tracer.Start(ctx, "leads.redis.list")
	defer span.End()

	ids, err := r.redis.ZRange(ctx, leadsByCreatedKey, 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("leads: failed to list ids: %w", err)
	}
	if len(ids) == 0 {
		return []*Lead{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = leadKey(id)
	}
	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("leads: failed to load leads: %w", err)
	}

	out := make([]*Lead, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// index entry without a document; skip rather than fail the listing
			continue
		}
		var lead Lead
		if err := json.Unmarshal([]byte(s), &lead); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("leads: failed to decode lead %s: %w", ids[i], err)
		}
		out = append(out, &lead)
	}
	sortByCreated(out)
	return out, nil
}

func (r *RedisRepository) Update(ctx context.Context, id string, patch Patch) (*Lead, error) {
	ctx, span := r.tracer.Start(ctx, "leads.redis.update")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	lead, err := r.mutate(ctx, id, func(l *Lead) { patch.Apply(l) })
	if err != nil && !errors.Is(err, ErrLeadNotFound) {
		span.RecordError(err)
	}
	return lead, err
}

func (r *RedisRepository) AppendMessage(ctx context.Context, id string, from Sender, body string) (*Lead, error) {
	ctx, span := r.tracer.Start(ctx, "leads.redis.append_message")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id), attribute.String("message.from", string(from)))

	msg := newMessage(from, body, r.now())
	lead, err := r.mutate(ctx, id, func(l *Lead) { l.Messages = append(l.Messages, msg) })
	if err != nil && !errors.Is(err, ErrLeadNotFound) {
		span.RecordError(err)
	}
	return lead, err
}

// mutate runs a read-modify-write under WATCH, retrying when another writer
// touched the key between the read and the commit.
func (r *RedisRepository) mutate(ctx context.Context, id string, fn func(*Lead)) (*Lead, error) {
	key := leadKey(id)
	var result *Lead
	txf := func(tx *redis.Tx) error {
		lead, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		fn(lead)
		lead.Version++
		data, err := json.Marshal(lead)
		if err != nil {
			return fmt.Errorf("leads: failed to marshal lead: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			result = lead
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.redis.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

func (r *RedisRepository) load(ctx context.Context, c stringGetter, id string) (*Lead, error) {
	data, err := c.Get(ctx, leadKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: failed to load lead: %w", err)
	}
	var lead Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, fmt.Errorf("leads: failed to decode lead: %w", err)
	}
	if lead.Messages == nil {
		lead.Messages = []Message{}
	}
	return &lead, nil
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func leadKey(id string) string {
	return fmt.Sprintf("lead:%s", id)
}
