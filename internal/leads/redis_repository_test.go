package leads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisRepository(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client), mr
}

func TestRedisRepository(t *testing.T) {
	repo, _ := newTestRedisRepository(t)
	repo.now = steppingClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	exerciseRepository(t, repo)
}

func TestRedisRepository_ListSkipsDanglingIndexEntries(t *testing.T) {
	repo, mr := newTestRedisRepository(t)
	ctx := context.Background()

	lead, err := repo.Create(ctx, &CreateLeadRequest{Name: "Ana"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mr.ZAdd(leadsByCreatedKey, 1, "ghost"); err != nil {
		t.Fatalf("seed index: %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].ID != lead.ID {
		t.Fatalf("expected only the real lead, got %+v", all)
	}
}

func TestRedisRepository_ConcurrentAppendsKeepEveryMessage(t *testing.T) {
	repo, _ := newTestRedisRepository(t)
	ctx := context.Background()

	lead, err := repo.Create(ctx, &CreateLeadRequest{Name: "Ana"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		conflicts int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AppendMessage(ctx, lead.ID, SenderUser, "hello"); err != nil {
				if errors.Is(err, ErrConflict) {
					mu.Lock()
					conflicts++
					mu.Unlock()
					return
				}
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := repo.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := len(stored.Messages) + conflicts; got != 4 {
		t.Fatalf("expected every append to land or report a conflict, got %d messages and %d conflicts", len(stored.Messages), conflicts)
	}
	if stored.Version != int64(1+len(stored.Messages)) {
		t.Fatalf("version %d does not match %d writes", stored.Version, len(stored.Messages))
	}
}
