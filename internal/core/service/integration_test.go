package service_test

import (
	"context"
	"database/sql"
	"io"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/stock-tracker/internal/adapter/storage"
	"github.com/rl1809/stock-tracker/internal/core/service"
	"github.com/rl1809/stock-tracker/internal/port"
)

type backend struct {
	name    string
	repo    port.SnapshotRepository
	cleanup func()
}

func setupBackends(t *testing.T) []backend {
	backends := []backend{{
		name:    "file",
		repo:    storage.NewFileAdapter(t.TempDir()),
		cleanup: func() {},
	}}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Logf("Redis not available, skipping backend: %v", err)
		rdb.Close()
	} else {
		backends = append(backends, backend{
			name:    "redis",
			repo:    storage.NewRedisAdapter(rdb, "inventory-it:"),
			cleanup: func() { rdb.Close() },
		})
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/inventory?parseTime=true"
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err == nil {
		err = db.Ping()
	}
	if err != nil {
		t.Logf("MySQL not available, skipping backend: %v", err)
		if db != nil {
			db.Close()
		}
	} else {
		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(context.Background()); err != nil {
			db.Close()
			t.Fatalf("EnsureSchema failed: %v", err)
		}
		backends = append(backends, backend{
			name:    "mysql",
			repo:    adapter,
			cleanup: func() { db.Close() },
		})
	}

	return backends
}

func TestIntegration_ScenarioOnEveryBackend(t *testing.T) {
	for _, b := range setupBackends(t) {
		t.Run(b.name, func(t *testing.T) {
			defer b.cleanup()

			ctx := context.Background()
			snapshot := "it-" + uuid.NewString() + ".json"
			svc := service.NewInventoryService(b.repo, nil, io.Discard)

			svc.AddItem("apple", 10, nil)
			svc.AddItem("banana", 8, nil)
			svc.AddItem("oranges", 4, nil)
			svc.RemoveItem("apple", 3)
			svc.RemoveItem("orange", 1)

			if got := svc.GetQuantity("apple"); got != 7 {
				t.Errorf("expected apple=7, got %d", got)
			}

			if err := svc.SaveData(ctx, snapshot); err != nil {
				t.Fatalf("SaveData failed: %v", err)
			}
			saved := svc.Items()

			svc.RemoveItem("banana", 8)
			if err := svc.LoadData(ctx, snapshot); err != nil {
				t.Fatalf("LoadData failed: %v", err)
			}

			loaded := svc.Items()
			if len(loaded) != len(saved) {
				t.Fatalf("expected %d items after reload, got %d", len(saved), len(loaded))
			}
			for i := range saved {
				if loaded[i] != saved[i] {
					t.Errorf("item %d: expected %+v, got %+v", i, saved[i], loaded[i])
				}
			}

			low := svc.CheckLowItems(service.DefaultLowThreshold)
			if len(low) != 1 || low[0] != "oranges" {
				t.Errorf("expected [oranges], got %v", low)
			}
		})
	}
}

func TestIntegration_MissingSnapshotStartsEmpty(t *testing.T) {
	for _, b := range setupBackends(t) {
		t.Run(b.name, func(t *testing.T) {
			defer b.cleanup()

			svc := service.NewInventoryService(b.repo, nil, io.Discard)
			svc.AddItem("apple", 1, nil)

			if err := svc.LoadData(context.Background(), "never-saved-"+uuid.NewString()); err != nil {
				t.Fatalf("expected missing snapshot to be tolerated, got: %v", err)
			}
			if n := len(svc.Items()); n != 0 {
				t.Errorf("expected empty inventory, got %d items", n)
			}
		})
	}
}
