package main

import (
	"sync"
	"testing"

	"chatbar/internal/config"
	"chatbar/internal/testutil"
)

func TestGetConfigSnapshotReturnsIndependentCopy(t *testing.T) {
	app := &App{}
	base := config.DefaultConfig()
	base.Limits.MaxTotalWindows = testutil.Ptr(3)
	app.setConfigSnapshot(base)

	snapshot := app.getConfigSnapshot()
	snapshot.Platforms[0].URL = "https://example.invalid/"
	*snapshot.Limits.MaxTotalWindows = 99

	latest := app.getConfigSnapshot()
	if latest.Platforms[0].URL != base.Platforms[0].URL {
		t.Fatal("getConfigSnapshot returned shared platforms slice")
	}
	if *latest.Limits.MaxTotalWindows != 3 {
		t.Fatal("getConfigSnapshot returned shared limit pointer")
	}
}

func TestConfigSnapshotConcurrency(t *testing.T) {
	app := &App{}
	app.setConfigSnapshot(config.DefaultConfig())

	const goroutines = 12
	const iterations = 200

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range goroutines {
		wg.Go(func() {
			<-start
			for j := range iterations {
				cfg := app.getConfigSnapshot()
				if i%2 == 0 {
					cfg.Window.Width = 400 + j
					app.setConfigSnapshot(cfg)
					continue
				}
				_ = cfg.Platforms[0].ID
			}
		})
	}
	close(start)
	wg.Wait()

	final := app.getConfigSnapshot()
	if len(final.Platforms) == 0 || final.DefaultPlatform == "" {
		t.Fatalf("config corruption detected: %+v", final)
	}
}
