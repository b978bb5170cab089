// Command afrelay-check verifies a deployment before first boot: config,
// signing material, state database, NTP reachability and the log sink. It
// exits non-zero when any check fails so init scripts can gate on it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/afrelay/afrelay/internal/afiptime"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/config"
	"github.com/afrelay/afrelay/internal/signing"
	"github.com/afrelay/afrelay/internal/state"
)

type component struct {
	name string
	test func() error
}

func main() {
	fmt.Println("\033[96mafrelay Pre-Flight Diagnostic\033[0m")
	fmt.Println("---------------------------------------------------------")

	// Check against the same environment the service would boot with.
	_ = godotenv.Load()

	cfg := config.DefaultConfig()

	components := []component{
		{"Configuration", func() error {
			loaded, err := config.LoadConfig(os.Getenv("AFRELAY_CONFIG"))
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		}},
		{"Signing credential", func() error {
			_, err := signing.Load(cfg.Tickets)
			return err
		}},
		{"State database", func() error {
			store, err := state.Open(cfg.State.DBPath, clock.System())
			if err != nil {
				return err
			}
			return store.Close()
		}},
		{"AFIP NTP server", func() error {
			_, err := afiptime.NewSource(cfg.AFIP.NTPHost).Now()
			return err
		}},
		{"Log directory", func() error {
			if err := os.MkdirAll(cfg.Logging.Dir, 0o755); err != nil {
				return err
			}
			probe := filepath.Join(cfg.Logging.Dir, ".afrelay-check")
			if err := os.WriteFile(probe, []byte("ok\n"), 0o644); err != nil {
				return err
			}
			return os.Remove(probe)
		}},
	}

	failed := 0
	for _, c := range components {
		fmt.Printf("Checking %-22s ", c.name+"...")
		if err := c.test(); err != nil {
			failed++
			fmt.Println("\033[31m[FAIL]\033[0m")
			fmt.Printf("  >> Error: %v\n", err)
		} else {
			fmt.Println("\033[32m[OK]\033[0m")
		}
	}

	fmt.Println("---------------------------------------------------------")
	if failed > 0 {
		fmt.Printf("\033[31mStatus: %d check(s) failed.\033[0m\n", failed)
		os.Exit(1)
	}
	fmt.Println("\033[96mStatus: Ready to relay AFIP traffic.\033[0m")
}
