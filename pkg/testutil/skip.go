package testutil

import (
	"os"
	"testing"
)

// SkipIfShort skips container-backed tests under -short, and in CI unless
// PORTALCFG_INTEGRATION is set.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("CI") != "" && os.Getenv("PORTALCFG_INTEGRATION") == "" {
		t.Skip("skipping integration test in CI (set PORTALCFG_INTEGRATION=1 to run)")
	}
}
