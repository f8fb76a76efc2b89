package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
)

var workerFlags struct {
	workerID uint32
	tag      string
}

// workerCmd is the entry point the supervisor re-executes this binary with.
// The data plane (session proxying, event loop) lives behind this command;
// here it holds the process slot and exits cleanly on SIGTERM so lifecycle
// orchestration is exercised end to end.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Hidden: true,
	Short:  "Run as a worker process (launched by the supervisor)",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(os.Stderr, "ganymede worker %d started (pid %d, tag %q)\n",
			workerFlags.workerID, os.Getpid(), workerFlags.tag)
		<-cli.SetupSignalHandler().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().Uint32Var(&workerFlags.workerID, "worker-id", 0, "worker id assigned by the supervisor")
	workerCmd.Flags().StringVar(&workerFlags.tag, "tag", "", "launch tag")
}
