package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/wolfman30/frontdesk/internal/config"
	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

func TestBuildLeadRepositoryMemory(t *testing.T) {
	repo, closeFn, err := BuildLeadRepository(context.Background(), &appconfig.Config{}, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if _, ok := repo.(*leads.InMemoryRepository); !ok {
		t.Fatalf("expected in-memory repository, got %T", repo)
	}
}

func TestBuildLeadRepositoryRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{LeadStore: LeadStoreRedis, RedisAddr: mr.Addr()}

	repo, closeFn, err := BuildLeadRepository(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if _, ok := repo.(*leads.RedisRepository); !ok {
		t.Fatalf("expected redis repository, got %T", repo)
	}

	lead, err := repo.Create(context.Background(), &leads.CreateLeadRequest{Name: "Sarah Jones"})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), lead.ID); err != nil {
		t.Fatalf("get lead: %v", err)
	}
}

func TestBuildLeadRepositoryRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &appconfig.Config{LeadStore: LeadStoreRedis, RedisAddr: addr}
	if _, _, err := BuildLeadRepository(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestBuildLeadRepositoryPostgresRequiresURL(t *testing.T) {
	cfg := &appconfig.Config{LeadStore: LeadStorePostgres}
	if _, _, err := BuildLeadRepository(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestBuildLeadRepositoryUnknownStore(t *testing.T) {
	cfg := &appconfig.Config{LeadStore: "dynamo"}
	if _, _, err := BuildLeadRepository(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, nil, false); client != nil {
		t.Fatalf("expected nil client without address")
	}
}
