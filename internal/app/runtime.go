package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// TestModeEnv is set to "1" by test harnesses so binaries skip startup.
const TestModeEnv = "RENTDESK_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func loadTestMode() {
	testMode.Store(os.Getenv(TestModeEnv) == "1")
}

// InTestMode reports whether the process should skip runtime side effects
// such as listening or connecting to Redis.
func InTestMode() bool {
	testModeOnce.Do(loadTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads the flag after the environment changed.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	loadTestMode()
}
