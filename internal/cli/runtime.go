package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/CosmWasm/tinyjson"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"sputnik_dao/contract"
	"sputnik_dao/internal/config"
	"sputnik_dao/internal/host"
	"sputnik_dao/internal/logging"
	"sputnik_dao/internal/store"
	"sputnik_dao/sdk"
	"sputnik_dao/staking"
)

// runtime is everything one daoctl invocation opens: the store, the local host, the
// engine and, when enabled, the staking collaborator. They all share one store.
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *store.Badger
	host     *host.Local
	dao      *contract.Contract
	staking  *staking.Staking
	registry *prometheus.Registry
	events   []string
	// at is the block time every call of this invocation runs at.
	at uint64
}

func openRuntime(cfg *config.Config, at uint64, errOut io.Writer) (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	log, err := logging.New(cfg.Logging, errOut)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(store.Options{Dir: cfg.DataDir, InMemory: cfg.InMemory, SyncWrites: cfg.SyncWrites}, log.Named("store"))
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, log: log, store: st, registry: prometheus.NewRegistry(), at: at}
	daoID := sdk.Address(cfg.DAO.Account)
	rt.host = host.New(st, daoID, log.Named("host"))
	rt.dao = contract.New(st, rt.host,
		contract.WithLogger(log.Named("dao")),
		contract.WithMetrics(contract.NewMetrics(rt.registry)),
		contract.WithEventSink(func(_, line string) { rt.events = append(rt.events, line) }),
	)
	rt.host.OnResolve(func(ctx context.Context, id string, success bool) error {
		self := sdk.Env{CurrentAccount: daoID, Predecessor: daoID, BlockTimestamp: rt.at}
		return rt.dao.OnProposalCallback(ctx, self, id, success)
	})
	if cfg.Staking.Enabled {
		rt.staking = staking.New(staking.Config{
			Self:          sdk.Address(cfg.Staking.Account),
			DAO:           daoID,
			Token:         sdk.Asset(cfg.Staking.Token),
			UnstakePeriod: cfg.UnstakePeriod(),
		}, st, rt.dao, rt.host, log.Named("staking"))
	}
	return rt, nil
}

func (rt *runtime) close() error {
	_ = rt.log.Sync()
	return rt.store.Close()
}

// env is what the engine sees for a call made by caller with deposit attached.
func (rt *runtime) env(caller sdk.Address, deposit sdk.Balance) sdk.Env {
	return sdk.Env{
		CurrentAccount:  sdk.Address(rt.cfg.DAO.Account),
		Predecessor:     caller,
		AttachedDeposit: deposit,
		BlockTimestamp:  rt.at,
	}
}

// withDeposit moves deposit from caller into the DAO account, runs fn and sends the
// deposit back when fn fails, the way a refused call refunds its attachment.
func (rt *runtime) withDeposit(caller sdk.Address, deposit sdk.Balance, fn func() error) error {
	daoID := sdk.Address(rt.cfg.DAO.Account)
	if !deposit.IsZero() {
		if err := rt.host.Transfer(caller, daoID, sdk.AssetNative, deposit); err != nil {
			return errors.Wrap(err, "attach deposit")
		}
	}
	err := fn()
	if err != nil && !deposit.IsZero() {
		if rerr := rt.host.Transfer(daoID, caller, sdk.AssetNative, deposit); rerr != nil {
			rt.log.Error("deposit refund failed", zap.String("caller", caller.String()), zap.Error(rerr))
		}
	}
	return err
}

func (rt *runtime) writeMetrics(w io.Writer) error {
	families, err := rt.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}
	return nil
}

func nowNanos() uint64 {
	return uint64(time.Now().UnixNano())
}

func printJSON(w io.Writer, v tinyjson.Marshaler) error {
	raw, err := tinyjson.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func readFileOrValue(file, value string) ([]byte, error) {
	if file == "" {
		return []byte(value), nil
	}
	data, err := os.ReadFile(file)
	return data, errors.Wrapf(err, "read %s", file)
}
