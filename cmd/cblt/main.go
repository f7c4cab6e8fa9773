package main

import (
	"fmt"
	"os"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// Sets GOMAXPROCS and GOMEMLIMIT from the surrounding cgroup before
	// anything else runs, so the scheduler's worker pool and the
	// garbage collector are sized for the container this process
	// actually has, not the host's. Connection admission control is
	// sized separately, by --max-connections.
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintf(os.Stderr, "cblt: adjusting GOMAXPROCS: %v\n", err)
	}
	if _, err := memlimit.SetGoMemLimitWithOpts(); err != nil {
		fmt.Fprintf(os.Stderr, "cblt: adjusting GOMEMLIMIT: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
