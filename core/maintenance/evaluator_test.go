package maintenance_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/mahudhurio/core/maintenance"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func TestEvaluator(t *testing.T) {
	conf := testutil.NewConfig()
	conf.Maintenance.CheckInterval = 10 * time.Millisecond
	logger := testutil.NewLogger(conf)

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewMaintenanceRepository(db)
	svc := maintenance.NewService(repo, conf, logger)

	ctx := context.Background()
	if _, err := svc.Set(ctx, maintenance.UpdateWindow{StartAt: "2020-01-01T00:00"}); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	ev := maintenance.NewEvaluator(svc, conf, logger)
	ev.Start(ctx)
	ev.Start(ctx) // second Start is a no-op
	defer ev.Stop()

	// the elapsed schedule must be picked up within a few ticks
	deadline := time.Now().Add(2 * time.Second)
	for {
		w, err := repo.GetSettings(ctx)
		if err != nil {
			t.Fatalf("GetSettings() failed: %v", err)
		}
		if w.Active {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("evaluator never activated the window")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ev.Stop()
	ev.Stop() // repeated Stop is a no-op
}

func TestEvaluator_stopsWithContext(t *testing.T) {
	conf := testutil.NewConfig()
	conf.Maintenance.CheckInterval = 10 * time.Millisecond
	logger := testutil.NewLogger(conf)

	db, _ := dummydb.Open()
	svc := maintenance.NewService(dummydb.NewMaintenanceRepository(db), conf, logger)

	ctx, cancel := context.WithCancel(context.Background())
	ev := maintenance.NewEvaluator(svc, conf, logger)
	ev.Start(ctx)

	cancel()
	time.Sleep(30 * time.Millisecond) // let the goroutine drain
	ev.Stop()
}
