package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard-api/domain"
)

type backend interface {
	domain.WorkspaceStore
	domain.MemberStore
	domain.ProjectStore
	domain.TaskStore
	EnqueueEvent(ctx context.Context, ev domain.Event) error
}

// Cache wraps a Storage instance with Redis-backed caching for the two hot
// board reads: the full workspace task list and the member directory. Every
// task or member mutation evicts the workspace's entries; filtered queries
// bypass the cache entirely.
type Cache struct {
	backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{backend: base, redis: client, ttl: ttl}
}

// QueryTasks serves the unfiltered workspace listing from Redis when fresh;
// anything narrower goes straight to the backing storage.
func (c *Cache) QueryTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	if !cacheableTaskFilter(f) {
		return c.backend.QueryTasks(ctx, f)
	}

	if tasks, ok := c.loadTasks(ctx, f.WorkspaceID); ok {
		return tasks, nil
	}
	tasks, err := c.backend.QueryTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	c.store(ctx, tasksCacheKey(f.WorkspaceID), tasks)
	return tasks, nil
}

// ListMembers serves the member directory from Redis when fresh.
func (c *Cache) ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	if members, ok := c.loadMembers(ctx, workspaceID); ok {
		return members, nil
	}
	members, err := c.backend.ListMembers(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, membersCacheKey(workspaceID), members)
	return members, nil
}

func cacheableTaskFilter(f domain.TaskFilter) bool {
	return f.WorkspaceID != "" && f.ProjectID == "" && f.AssigneeID == "" &&
		f.Status == nil && f.DueDate == nil && f.Search == ""
}

func (c *Cache) InsertTask(ctx context.Context, t domain.Task) error {
	if err := c.backend.InsertTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(t.WorkspaceID))
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, t domain.Task) error {
	if err := c.backend.UpdateTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(t.WorkspaceID))
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, workspaceID, id string) error {
	if err := c.backend.DeleteTask(ctx, workspaceID, id); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(workspaceID))
	return nil
}

func (c *Cache) DeleteWorkspaceTasks(ctx context.Context, workspaceID string) error {
	if err := c.backend.DeleteWorkspaceTasks(ctx, workspaceID); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(workspaceID))
	return nil
}

func (c *Cache) DeleteProjectTasks(ctx context.Context, workspaceID, projectID string) error {
	if err := c.backend.DeleteProjectTasks(ctx, workspaceID, projectID); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(workspaceID))
	return nil
}

func (c *Cache) InsertMember(ctx context.Context, m domain.Member) error {
	if err := c.backend.InsertMember(ctx, m); err != nil {
		return err
	}
	c.evict(ctx, membersCacheKey(m.WorkspaceID))
	return nil
}

func (c *Cache) UpdateMember(ctx context.Context, m domain.Member) error {
	if err := c.backend.UpdateMember(ctx, m); err != nil {
		return err
	}
	c.evict(ctx, membersCacheKey(m.WorkspaceID))
	return nil
}

func (c *Cache) DeleteMember(ctx context.Context, workspaceID, memberID string) error {
	if err := c.backend.DeleteMember(ctx, workspaceID, memberID); err != nil {
		return err
	}
	c.evict(ctx, membersCacheKey(workspaceID))
	return nil
}

func (c *Cache) DeleteWorkspaceMembers(ctx context.Context, workspaceID string) error {
	if err := c.backend.DeleteWorkspaceMembers(ctx, workspaceID); err != nil {
		return err
	}
	c.evict(ctx, membersCacheKey(workspaceID))
	return nil
}

func (c *Cache) loadTasks(ctx context.Context, workspaceID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	key := tasksCacheKey(workspaceID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) loadMembers(ctx context.Context, workspaceID string) ([]domain.Member, bool) {
	if c.redis == nil {
		return nil, false
	}
	key := membersCacheKey(workspaceID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var members []domain.Member
	if err := json.Unmarshal(data, &members); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return members, true
}

func (c *Cache) store(ctx context.Context, key string, value any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func tasksCacheKey(workspaceID string) string {
	return "tasks:" + workspaceID
}

func membersCacheKey(workspaceID string) string {
	return "members:" + workspaceID
}
