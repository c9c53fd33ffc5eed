// Package cli is the daoctl command tree. Every invocation opens the data directory,
// runs one call against the DAO and closes it again.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sputnik_dao/internal/config"
	"sputnik_dao/sdk"
)

type app struct {
	configPath  string
	as          string
	at          string
	showEvents  bool
	showMetrics bool

	out    io.Writer
	errOut io.Writer
	rt     *runtime
}

// Execute runs daoctl with args and returns the first error.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	a := &app{out: out, errOut: errOut}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if a.rt != nil {
		if a.showEvents {
			for _, line := range a.rt.events {
				fmt.Fprintln(out, "event", line)
			}
		}
		if a.showMetrics {
			if merr := a.rt.writeMetrics(out); merr != nil && err == nil {
				err = merr
			}
		}
		if cerr := a.rt.close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "daoctl",
		Short:         "Drive a policy based DAO stored in a local data directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			at, err := parseAt(a.at)
			if err != nil {
				return err
			}
			a.rt, err = openRuntime(cfg, at, a.errOut)
			return err
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to the daoctl YAML config")
	pf.StringVar(&a.as, "as", "", "account making the call")
	pf.StringVar(&a.at, "at", "", "block time: unix nanoseconds or RFC3339 (default now)")
	pf.BoolVar(&a.showEvents, "events", false, "print the event lines the call committed")
	pf.BoolVar(&a.showMetrics, "metrics", false, "print engine metrics after the call")

	root.AddCommand(
		a.initCmd(),
		a.infoCmd(),
		a.policyCmd(),
		a.proposeCmd(),
		a.actCmd(),
		a.proposalCmd(),
		a.proposalsCmd(),
		a.bountyCmd(),
		a.fundCmd(),
		a.balanceCmd(),
		a.outboxCmd(),
		a.resolveCmd(),
		a.delegationCmd(),
		a.stakeCmd(),
	)
	return root
}

// caller is the --as account, which every state changing command needs.
func (a *app) caller() (sdk.Address, error) {
	addr := sdk.Address(a.as)
	if addr.IsEmpty() {
		return "", errors.New("--as is required")
	}
	if !addr.IsValid() {
		return "", errors.Errorf("invalid --as account %q", a.as)
	}
	return addr, nil
}

func parseAt(s string) (uint64, error) {
	if s == "" {
		return nowNanos(), nil
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, errors.Errorf("invalid --at %q", s)
	}
	return uint64(t.UnixNano()), nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	return id, errors.Wrapf(err, "invalid id %q", s)
}

func parseAmount(s string) (sdk.Balance, error) {
	return sdk.ParseBalance(s)
}
