package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ferryhook/relay/filter"
	"github.com/ferryhook/relay/plan"
	"github.com/ferryhook/relay/signature"
	"github.com/ferryhook/relay/source"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of source.Store
 * Uses hashes for source/connection/owner records and a set per source
 * for its connection ids. The management API writes these records; the
 * relay core reads them and bumps counters.
 */

const (
	sourcePrefix     = "src"  // src:{source_id}
	connectionPrefix = "conn" // conn:{connection_id}
	ownerPrefix      = "own"  // own:{owner_id}
	connSetSuffix    = "conns"
)

type Store struct {
	client *redis.Client
}

// NewStore creates a Redis-backed entity store
func NewStore(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing client; used when several
// components share one connection pool.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// GetSource retrieves a source by id; nil when absent
func (s *Store) GetSource(ctx context.Context, id string) (*source.Source, error) {
	key := fmt.Sprintf("%s:%s", sourcePrefix, id)

	data, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("getting source: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	// An absent algorithm field means verification was never configured;
	// a present but unrecognized one stays invalid so verification can
	// fail closed downstream
	alg := signature.None
	if raw := data["signing_algorithm"]; raw != "" {
		alg = signature.NewAlgorithm(raw)
	}

	src := &source.Source{
		ID:               data["id"],
		OwnerID:          data["owner_id"],
		Name:             data["name"],
		Provider:         data["provider"],
		SigningSecret:    data["signing_secret"],
		SigningAlgorithm: alg,
		Status:           source.NewStatus(data["status"]),
		EventCount:       parseInt64(data["event_count"]),
		CreatedAt:        time.Unix(parseInt64(data["created_at"]), 0),
	}
	if ts := parseInt64(data["last_event_at"]); ts > 0 {
		at := time.Unix(ts, 0)
		src.LastEventAt = &at
	}
	return src, nil
}

// PutSource stores a source record. Called by the management write paths.
func (s *Store) PutSource(ctx context.Context, src source.Source) error {
	key := fmt.Sprintf("%s:%s", sourcePrefix, src.ID)

	fields := map[string]interface{}{
		"id":                src.ID,
		"owner_id":          src.OwnerID,
		"name":              src.Name,
		"provider":          src.Provider,
		"signing_secret":    src.SigningSecret,
		"signing_algorithm": src.SigningAlgorithm.String(),
		"status":            src.Status.String(),
		"event_count":       src.EventCount,
		"created_at":        src.CreatedAt.Unix(),
	}
	if src.LastEventAt != nil {
		fields["last_event_at"] = src.LastEventAt.Unix()
	}

	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("storing source: %w", err)
	}
	return nil
}

// ListConnectionsBySource returns all connections attached to a source
func (s *Store) ListConnectionsBySource(ctx context.Context, sourceID string) ([]source.Connection, error) {
	setKey := fmt.Sprintf("%s:%s:%s", sourcePrefix, sourceID, connSetSuffix)

	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing connection ids: %w", err)
	}

	conns := make([]source.Connection, 0, len(ids))
	for _, id := range ids {
		conn, err := s.getConnection(ctx, id)
		if err != nil {
			return nil, err
		}
		if conn != nil {
			conns = append(conns, *conn)
		}
	}
	return conns, nil
}

func (s *Store) getConnection(ctx context.Context, id string) (*source.Connection, error) {
	key := fmt.Sprintf("%s:%s", connectionPrefix, id)

	data, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("getting connection: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	conn := &source.Connection{
		ID:             data["id"],
		SourceID:       data["source_id"],
		OwnerID:        data["owner_id"],
		Name:           data["name"],
		DestinationURL: data["destination_url"],
		SigningSecret:  data["signing_secret"],
		Status:         source.NewStatus(data["status"]),
		DeliveryCount:  parseInt64(data["delivery_count"]),
		FailureCount:   parseInt64(data["failure_count"]),
		CreatedAt:      time.Unix(parseInt64(data["created_at"]), 0),
		UpdatedAt:      time.Unix(parseInt64(data["updated_at"]), 0),
	}

	if raw := data["filters"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &conn.Filters); err != nil {
			return nil, fmt.Errorf("unmarshaling connection filters: %w", err)
		}
	}
	if raw := data["transform"]; raw != "" {
		var tr filter.Transform
		if err := json.Unmarshal([]byte(raw), &tr); err != nil {
			return nil, fmt.Errorf("unmarshaling connection transform: %w", err)
		}
		conn.Transform = &tr
	}
	return conn, nil
}

// PutConnection stores a connection record and indexes it under its source
func (s *Store) PutConnection(ctx context.Context, conn source.Connection) error {
	key := fmt.Sprintf("%s:%s", connectionPrefix, conn.ID)

	fields := map[string]interface{}{
		"id":              conn.ID,
		"source_id":       conn.SourceID,
		"owner_id":        conn.OwnerID,
		"name":            conn.Name,
		"destination_url": conn.DestinationURL,
		"signing_secret":  conn.SigningSecret,
		"status":          conn.Status.String(),
		"delivery_count":  conn.DeliveryCount,
		"failure_count":   conn.FailureCount,
		"created_at":      conn.CreatedAt.Unix(),
		"updated_at":      conn.UpdatedAt.Unix(),
	}

	if conn.Filters != nil {
		raw, err := json.Marshal(conn.Filters)
		if err != nil {
			return fmt.Errorf("marshaling connection filters: %w", err)
		}
		fields["filters"] = string(raw)
	}
	if conn.Transform != nil {
		raw, err := json.Marshal(conn.Transform)
		if err != nil {
			return fmt.Errorf("marshaling connection transform: %w", err)
		}
		fields["transform"] = string(raw)
	}

	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("storing connection: %w", err)
	}

	setKey := fmt.Sprintf("%s:%s:%s", sourcePrefix, conn.SourceID, connSetSuffix)
	if err := s.client.SAdd(ctx, setKey, conn.ID).Err(); err != nil {
		return fmt.Errorf("indexing connection: %w", err)
	}
	return nil
}

// GetOwner retrieves an owner by id; nil when absent
func (s *Store) GetOwner(ctx context.Context, ownerID string) (*source.Owner, error) {
	key := fmt.Sprintf("%s:%s", ownerPrefix, ownerID)

	data, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("getting owner: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &source.Owner{
		ID:             data["id"],
		Plan:           plan.NewPlan(data["plan"]),
		UsageThisMonth: parseInt64(data["usage_this_month"]),
	}, nil
}

// PutOwner stores an owner record
func (s *Store) PutOwner(ctx context.Context, owner source.Owner) error {
	key := fmt.Sprintf("%s:%s", ownerPrefix, owner.ID)

	err := s.client.HSet(ctx, key, map[string]interface{}{
		"id":               owner.ID,
		"plan":             owner.Plan.String(),
		"usage_this_month": owner.UsageThisMonth,
	}).Err()
	if err != nil {
		return fmt.Errorf("storing owner: %w", err)
	}
	return nil
}

// IncrementUsage bumps the owner's monthly usage counter
func (s *Store) IncrementUsage(ctx context.Context, ownerID string) error {
	key := fmt.Sprintf("%s:%s", ownerPrefix, ownerID)

	if err := s.client.HIncrBy(ctx, key, "usage_this_month", 1).Err(); err != nil {
		return fmt.Errorf("incrementing usage: %w", err)
	}
	return nil
}

// RecordSourceEvent bumps the source's event counter and last-event time
func (s *Store) RecordSourceEvent(ctx context.Context, sourceID string, at time.Time) error {
	key := fmt.Sprintf("%s:%s", sourcePrefix, sourceID)

	if err := s.client.HIncrBy(ctx, key, "event_count", 1).Err(); err != nil {
		return fmt.Errorf("incrementing event count: %w", err)
	}
	if err := s.client.HSet(ctx, key, "last_event_at", at.Unix()).Err(); err != nil {
		return fmt.Errorf("updating last event time: %w", err)
	}
	return nil
}

// RecordDeliveryResult bumps a connection's delivery or failure counter
func (s *Store) RecordDeliveryResult(ctx context.Context, connectionID string, delivered bool) error {
	key := fmt.Sprintf("%s:%s", connectionPrefix, connectionID)

	field := "delivery_count"
	if !delivered {
		field = "failure_count"
	}
	if err := s.client.HIncrBy(ctx, key, field, 1).Err(); err != nil {
		return fmt.Errorf("incrementing %s: %w", field, err)
	}
	return nil
}

// Close closes the underlying Redis connection
func (s *Store) Close(ctx context.Context) error {
	return s.client.Close()
}

func parseInt64(s string) int64 {
	var result int64
	fmt.Sscanf(s, "%d", &result)
	return result
}
