package repositories

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/tberg/doorbell/internal/models"
)

const visitListKey = "doorbell:visits"

// VisitListRepository is the shared list of recent visits in the durable
// store, appended in arrival order.
type VisitListRepository interface {
	Push(ctx context.Context, rec models.VisitRecord) error
	// Recent returns up to n of the newest records, oldest first.
	Recent(ctx context.Context, n int) ([]models.VisitRecord, error)
}

// RedisVisitListRepository keeps JSON-serialized visits in a redis list.
type RedisVisitListRepository struct {
	client *redis.Client
}

func NewRedisVisitListRepository(client *redis.Client) *RedisVisitListRepository {
	return &RedisVisitListRepository{client: client}
}

func (r *RedisVisitListRepository) Push(ctx context.Context, rec models.VisitRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode visit record: %w", err)
	}
	if err := r.client.RPush(ctx, visitListKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push visit record: %w", err)
	}
	return nil
}

func (r *RedisVisitListRepository) Recent(ctx context.Context, n int) ([]models.VisitRecord, error) {
	raw, err := r.client.LRange(ctx, visitListKey, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read visit list: %w", err)
	}

	records := make([]models.VisitRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.VisitRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			// Skip malformed entries rather than losing the whole window.
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// VisitLogRepository is the append-only visit log on local disk, one JSON
// object per line.
type VisitLogRepository struct {
	path string
	mu   sync.Mutex
}

func NewVisitLogRepository(path string) *VisitLogRepository {
	return &VisitLogRepository{path: path}
}

func (r *VisitLogRepository) Append(rec models.VisitRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode visit record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create visit log directory: %w", err)
		}
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open visit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append visit record: %w", err)
	}
	return nil
}

// Tail returns up to n of the newest log records, oldest first. A missing log
// file yields an empty slice.
func (r *VisitLogRepository) Tail(n int) ([]models.VisitRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open visit log: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan visit log: %w", err)
	}

	records := make([]models.VisitRecord, 0, len(lines))
	for _, line := range lines {
		var rec models.VisitRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
