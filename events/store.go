package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no event exists for the id.
	ErrNotFound = errors.New("event not found")
	// ErrUnavailable wraps Redis transport failures so callers can
	// distinguish an outage from a miss.
	ErrUnavailable = errors.New("event store unavailable")
)

// Store persists event records. Records live at <prefix>event:<id> as JSON;
// a set <prefix>events:owner:<uid> indexes each owner's event ids.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) eventKey(id string) string      { return s.prefix + "event:" + id }
func (s *Store) ownerKey(ownerID string) string { return s.prefix + "events:owner:" + ownerID }

func encode(e *Event) ([]byte, error) {
	return json.Marshal(e)
}

func decode(raw []byte) (*Event, error) {
	e := &Event{}
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, fmt.Errorf("decode event record: %w", err)
	}
	return e, nil
}

// Create writes a new event and adds it to the owner's index in one
// transaction.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Event, error) {
	now := time.Now().UTC()
	e := &Event{
		ID:          uuid.NewString(),
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Venue:       in.Venue,
		Budget:      in.Budget,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if e.Status == "" {
		e.Status = StatusDraft
	}

	raw, err := encode(e)
	if err != nil {
		return nil, err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.eventKey(e.ID), raw, 0)
		pipe.SAdd(ctx, s.ownerKey(e.OwnerID), e.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return e, nil
}

// FindByID loads one event.
func (s *Store) FindByID(ctx context.Context, id string) (*Event, error) {
	raw, err := s.rdb.Get(ctx, s.eventKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decode(raw)
}

// ListByOwner returns the owner's events ordered by creation time. An owner
// with no events gets an empty slice, not an error.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*Event, error) {
	ids, err := s.rdb.SMembers(ctx, s.ownerKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return []*Event{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.eventKey(id)
	}
	raws, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make([]*Event, 0, len(raws))
	for _, raw := range raws {
		data, ok := raw.(string)
		if !ok {
			// Index entry without a record: deleted mid-list. Skip it.
			continue
		}
		e, err := decode([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// Update merges the patch into the record and bumps UpdatedAt. Last write
// wins; event data has no single-use invariant to defend.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (*Event, error) {
	e, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.apply(e)
	e.UpdatedAt = time.Now().UTC()

	raw, err := encode(e)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, s.eventKey(id), raw, 0).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return e, nil
}

// Delete removes the record and its index entry. Deleting an absent event
// returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	e, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.eventKey(id))
		pipe.SRem(ctx, s.ownerKey(e.OwnerID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
