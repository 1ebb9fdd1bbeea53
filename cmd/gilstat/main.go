// Command gilstat exercises a gil.GIL under synthetic contention from a
// configurable number of worker goroutines and reports how fairly
// acquisitions were distributed among them. It is a runnable version of
// the contention harness dijkstracula/go-ilock exercises from
// ilock_test.go's benchmarkLocking, generalized from read/write lock
// mode selection to plain contending-identity counting.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cobalt-lang/gil"
)

func main() {
	workers := flag.Int("workers", 4, "number of contending goroutines")
	rounds := flag.Int("rounds", 1000, "total acquisitions to run before reporting")
	hold := flag.Duration("hold", 200*time.Microsecond, "simulated work duration per acquisition")
	interval := flag.Duration("switch-interval", gil.DefaultSwitchInterval, "scheduling quantum")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gilstat: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	gil.SetLogger(sugar)

	gil.Initialize()
	g := gil.Default()
	g.SetSwitchInterval(*interval)

	idents := make([]*gil.ThreadState, *workers)
	counts := make([]int, *workers)
	for i := range idents {
		idents[i] = gil.NewThreadState(fmt.Sprintf("worker-%d", i))
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	total := 0

	start := time.Now()
	for i := range idents {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				if total >= *rounds {
					mu.Unlock()
					return
				}
				mu.Unlock()

				g.Take(idents[i])
				mu.Lock()
				counts[i]++
				total++
				mu.Unlock()
				time.Sleep(*hold)
				g.Drop(idents[i])
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	sugar.Infow("gilstat: run complete",
		"workers", *workers,
		"rounds", total,
		"elapsed", elapsed,
		"switchCount", g.Stats().SwitchCount,
	)
	for i, c := range counts {
		fmt.Printf("%s: %d acquisitions (%.1f%%)\n", idents[i], c, 100*float64(c)/float64(total))
	}
}
