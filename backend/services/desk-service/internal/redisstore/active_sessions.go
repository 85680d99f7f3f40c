package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession is the slice of a running session the dashboard needs at a
// glance, cached per station.
type ActiveSession struct {
	SessionID    int64   `json:"session_id"`
	StationID    int64   `json:"station_id"`
	StationName  string  `json:"station_name"`
	CustomerName string  `json:"customer_name"`
	LoginMinutes int     `json:"login_minutes"`
	HourlyRate   float64 `json:"hourly_rate"`
}

// Store manages the active session cache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(stationID int64) string {
	return fmt.Sprintf("desk:active:%d", stationID)
}

// Save caches the active session for its station.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.StationID), data, s.ttl).Err()
}

// Get returns the cached session for a station.
func (s *Store) Get(ctx context.Context, stationID int64) (*ActiveSession, error) {
	result, err := s.client.Get(ctx, s.key(stationID)).Result()
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes the cached session for a station.
func (s *Store) Delete(ctx context.Context, stationID int64) error {
	return s.client.Del(ctx, s.key(stationID)).Err()
}
