package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const (
	coursesKey          = "courses"           // String: courses document
	studentsKey         = "students"          // String: students document
	studentsRevisionKey = "students:revision" // Counter: bumped on every students write
)

// RedisStore keeps the two documents as string values in Redis
type RedisStore struct {
	Client *redis.Client
	Prefix string
	log    zerolog.Logger
}

// NewRedisStore creates a new RedisStore instance
func NewRedisStore(client *redis.Client, prefix string, lgr zerolog.Logger) *RedisStore {
	return &RedisStore{
		Client: client,
		Prefix: prefix,
		log:    lgr,
	}
}

func (s *RedisStore) key(name string) string {
	return s.Prefix + name
}

func (s *RedisStore) ReadCourses(ctx context.Context) ([]byte, error) {
	return s.get(ctx, s.key(coursesKey))
}

func (s *RedisStore) ReadStudents(ctx context.Context) ([]byte, error) {
	return s.get(ctx, s.key(studentsKey))
}

// WriteStudents replaces the students document and bumps its revision in a
// single pipeline.
func (s *RedisStore) WriteStudents(ctx context.Context, data []byte) error {
	pipe := s.Client.TxPipeline()
	pipe.Set(ctx, s.key(studentsKey), data, 0)
	rev := pipe.Incr(ctx, s.key(studentsRevisionKey))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write students to Redis: %w", err)
	}
	s.log.Info().Int64("revision", rev.Val()).Int("bytes", len(data)).Msg("Students document written to Redis")
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", key, ErrDocumentMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}
	return data, nil
}

// Seed copies both documents from src when Redis does not hold them yet.
// It reports whether anything was written.
func (s *RedisStore) Seed(ctx context.Context, src Store) (bool, error) {
	count, err := s.Client.Exists(ctx, s.key(coursesKey), s.key(studentsKey)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existing documents: %w", err)
	}
	if count == 2 {
		s.log.Info().Str("prefix", s.Prefix).Msg("Found existing documents in Redis, skipping seed")
		return false, nil
	}

	courses, err := src.ReadCourses(ctx)
	if err != nil {
		return false, fmt.Errorf("read seed courses: %w", err)
	}
	students, err := src.ReadStudents(ctx)
	if err != nil {
		return false, fmt.Errorf("read seed students: %w", err)
	}

	pipe := s.Client.TxPipeline()
	pipe.SetNX(ctx, s.key(coursesKey), courses, 0)
	pipe.SetNX(ctx, s.key(studentsKey), students, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to seed Redis: %w", err)
	}
	s.log.Info().Str("prefix", s.Prefix).Msg("Seeded Redis with documents from disk")
	return true, nil
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, database int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}
