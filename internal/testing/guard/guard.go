// Package guard flips binaries into test mode when blank-imported from tests.
package guard

import (
	"os"
	"sync"
)

// Env mirrors app.TestModeEnv.
const Env = "RENTDESK_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(Env) == "" {
			_ = os.Setenv(Env, "1")
		}
	})
}
