////////////////////////////////////////////////////////////////////////////////
// daoctl: drive a policy based DAO (roles, proposals, bounties, delegation)
// against a local data directory
////////////////////////////////////////////////////////////////////////////////

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sputnik_dao/contract"
	"sputnik_dao/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if class := contract.ClassOf(err); class != contract.ClassUnknown {
			fmt.Fprintf(os.Stderr, "class: %s\n", class)
		}
		os.Exit(1)
	}
}
