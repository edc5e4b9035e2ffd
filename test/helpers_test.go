//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
)

// backendMode describes which Redis backend the suite runs against.
// miniredis is always available; a real standalone Redis is used when
// REDIS_ADDR is set (e.g. "127.0.0.1:6379").
type backendMode struct {
	name  string
	setup func(t *testing.T) (addr string, cleanup func())
}

func backendModes(t *testing.T) []backendMode {
	t.Helper()
	modes := []backendMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (string, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				return mr.Addr(), mr.Close
			},
		},
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, backendMode{
			name:  "redis",
			setup: func(t *testing.T) (string, func()) { return addr, func() {} },
		})
	}
	return modes
}

func newIntegrationCore(t *testing.T, addr string) *goSession.Core {
	t.Helper()

	cfg := goSession.DefaultConfig()
	cfg.Store.Addr = addr
	cfg.Store.ConnectTimeout = 2 * time.Second

	core, err := goSession.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := core.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })
	return core
}
