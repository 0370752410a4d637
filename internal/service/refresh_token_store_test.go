package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRefreshClient struct {
	lastSetKey  string
	lastSetVal  interface{}
	lastSetTTL  time.Duration
	lastExists  []string
	lastDel     []string
	lastSAddKey string
	lastSAdd    []interface{}
	members     []string

	setErr    error
	existsErr error
	delErr    error
	existsN   int64
}

func (m *mockRefreshClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetVal = value
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRefreshClient) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastExists = keys
	cmd := redis.NewIntCmd(ctx)
	if m.existsErr != nil {
		cmd.SetErr(m.existsErr)
		return cmd
	}
	cmd.SetVal(m.existsN)
	return cmd
}

func (m *mockRefreshClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	if m.delErr != nil {
		cmd.SetErr(m.delErr)
		return cmd
	}
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func (m *mockRefreshClient) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	m.lastSAddKey = key
	m.lastSAdd = members
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(members)))
	return cmd
}

func (m *mockRefreshClient) SMembers(ctx context.Context, _ string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	cmd.SetVal(m.members)
	return cmd
}

func (m *mockRefreshClient) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func TestMemoryRefreshTokenStore_Basics(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	ok, err := store.Exists("missing")
	if err != nil || ok {
		t.Fatalf("expected missing token false,nil; got %v,%v", ok, err)
	}

	if err := store.Store("jti-1", "u1", 50*time.Millisecond); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	ok, err = store.Exists("jti-1")
	if err != nil || !ok {
		t.Fatalf("expected token exists, got %v,%v", ok, err)
	}

	time.Sleep(70 * time.Millisecond)
	ok, err = store.Exists("jti-1")
	if err != nil || ok {
		t.Fatalf("expected token expired, got %v,%v", ok, err)
	}
}

func TestMemoryRefreshTokenStore_RevokeAndEmptyJTI(t *testing.T) {
	store := NewMemoryRefreshTokenStore()
	if err := store.Store("", "u1", time.Minute); err != nil {
		t.Fatalf("empty jti store should be no-op, got %v", err)
	}
	if err := store.Store("jti-2", "u1", time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := store.Revoke("jti-2"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	ok, err := store.Exists("jti-2")
	if err != nil || ok {
		t.Fatalf("expected revoked token absent, got %v,%v", ok, err)
	}
}

func TestMemoryRefreshTokenStore_RevokeAllForUser(t *testing.T) {
	store := NewMemoryRefreshTokenStore()
	for _, jti := range []string{"a1", "a2"} {
		if err := store.Store(jti, "u1", time.Minute); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}
	if err := store.Store("b1", "u2", time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	if err := store.RevokeAllForUser("u1"); err != nil {
		t.Fatalf("revoke all failed: %v", err)
	}
	for _, jti := range []string{"a1", "a2"} {
		if ok, _ := store.Exists(jti); ok {
			t.Fatalf("expected %s revoked", jti)
		}
	}
	// Los tokens de otros usuarios no se tocan.
	if ok, _ := store.Exists("b1"); !ok {
		t.Fatal("expected other user token to survive")
	}
}

func TestRedisRefreshTokenStore_Basics(t *testing.T) {
	mock := &mockRefreshClient{existsN: 1}
	store := &redisRefreshTokenStore{
		client: mock,
		prefix: "auth:refresh:",
	}

	if err := store.Store(" j1 ", "u1", 0); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if mock.lastSetKey != "auth:refresh:j1" {
		t.Fatalf("unexpected key, got %q", mock.lastSetKey)
	}
	if mock.lastSetTTL <= 0 {
		t.Fatalf("expected positive TTL fallback, got %v", mock.lastSetTTL)
	}
	if mock.lastSAddKey != "auth:refresh:user:u1" {
		t.Fatalf("unexpected user set key, got %q", mock.lastSAddKey)
	}

	ok, err := store.Exists(" j1 ")
	if err != nil || !ok {
		t.Fatalf("expected exists true,nil; got %v,%v", ok, err)
	}
	if len(mock.lastExists) != 1 || mock.lastExists[0] != "auth:refresh:j1" {
		t.Fatalf("unexpected exists key: %+v", mock.lastExists)
	}

	if err := store.Revoke(" j1 "); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "auth:refresh:j1" {
		t.Fatalf("unexpected del key: %+v", mock.lastDel)
	}
}

func TestRedisRefreshTokenStore_RevokeAllForUser(t *testing.T) {
	mock := &mockRefreshClient{members: []string{"j1", "j2"}}
	store := &redisRefreshTokenStore{
		client: mock,
		prefix: "auth:refresh:",
	}

	if err := store.RevokeAllForUser("u1"); err != nil {
		t.Fatalf("revoke all failed: %v", err)
	}
	want := []string{"auth:refresh:j1", "auth:refresh:j2", "auth:refresh:user:u1"}
	if len(mock.lastDel) != len(want) {
		t.Fatalf("unexpected del keys: %+v", mock.lastDel)
	}
	for i, key := range want {
		if mock.lastDel[i] != key {
			t.Fatalf("expected del key %q at %d, got %+v", key, i, mock.lastDel)
		}
	}

	if err := store.RevokeAllForUser("  "); err != nil {
		t.Fatalf("blank user revoke should be no-op, got %v", err)
	}
}

func TestRedisRefreshTokenStore_ErrorPathsAndEmptyJTI(t *testing.T) {
	mock := &mockRefreshClient{
		setErr:    errors.New("set failed"),
		existsErr: errors.New("exists failed"),
		delErr:    errors.New("del failed"),
	}
	store := &redisRefreshTokenStore{
		client: mock,
		prefix: "auth:refresh:",
	}

	if err := store.Store("", "u1", time.Minute); err != nil {
		t.Fatalf("empty jti store should be no-op, got %v", err)
	}
	ok, err := store.Exists("")
	if err != nil || ok {
		t.Fatalf("empty jti exists should be false,nil; got %v,%v", ok, err)
	}
	if err := store.Revoke(""); err != nil {
		t.Fatalf("empty jti revoke should be no-op, got %v", err)
	}

	if err := store.Store("j2", "u1", time.Minute); err == nil {
		t.Fatalf("expected store error")
	}
	if _, err := store.Exists("j2"); err == nil {
		t.Fatalf("expected exists error")
	}
	if err := store.Revoke("j2"); err == nil {
		t.Fatalf("expected revoke error")
	}
}
