package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
)

type sessionState struct {
	sid      string
	rawToken string
	mu       sync.Mutex
}

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (read + rotate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goSession.DefaultConfig()
	cfg.Store.Addr = addr
	cfg.Session.TTL = 24 * time.Hour

	core, err := goSession.New().WithConfig(cfg).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	if err := core.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = core.Close() }()

	states := make([]sessionState, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := 0; i < *sessions; i++ {
		userID := fmt.Sprintf("u-%d", i%1000)
		sid, err := core.CreateSession(ctx, goSession.Session{
			UserID:    userID,
			Email:     fmt.Sprintf("user-%d@example.com", i),
			IP:        "127.0.0.1",
			UserAgent: "loadtest",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create session failed: %v\n", err)
			os.Exit(1)
		}
		raw := fmt.Sprintf("raw-token-%d", i)
		if _, err := core.StoreRefreshToken(ctx, userID, raw); err != nil {
			fmt.Fprintf(os.Stderr, "store token failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = sessionState{sid: sid, rawToken: raw}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	readStats := runReadPhase(ctx, core, states, *ops, *concurrency)
	rotateStats := runRotatePhase(ctx, core, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("read", readStats)
	printStats("rotate", rotateStats)

	snapshot := core.MetricsSnapshot()
	fmt.Printf("session reads=%d misses=%d refresh stored=%d\n",
		snapshot.Counters[goSession.MetricSessionRead],
		snapshot.Counters[goSession.MetricSessionMiss],
		snapshot.Counters[goSession.MetricRefreshStored],
	)
}

func runReadPhase(ctx context.Context, core *goSession.Core, states []sessionState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				t0 := time.Now()
				_, err := core.GetSession(ctx, states[idx].sid)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runRotatePhase(ctx context.Context, core *goSession.Core, states []sessionState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := &states[idx]

				state.mu.Lock()
				t0 := time.Now()
				rec, err := core.GetRefreshToken(ctx, state.rawToken)
				if err == nil {
					next := fmt.Sprintf("%s.%d.%d", state.rawToken, i, worker)
					if _, err = core.StoreRefreshToken(ctx, rec.UserID, next); err == nil {
						if err = core.DeleteRefreshToken(ctx, state.rawToken); err == nil {
							state.rawToken = next
						}
					}
				}
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
