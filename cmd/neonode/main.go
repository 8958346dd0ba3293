package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"neonode.dev/core/admission"
	"neonode.dev/core/config"
	"neonode.dev/core/consensus"
	"neonode.dev/core/cryptoimpl"
	"neonode.dev/core/ledger"
	"neonode.dev/core/netpolicy"
	"neonode.dev/core/storage"
	"neonode.dev/core/tasks"
	"neonode.dev/core/types"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := config.Default()

	fs := flag.NewFlagSet("neonode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dataDir := fs.String("datadir", "./data", "node data directory")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	network := fs.Uint("network", uint(defaults.Network), "network magic")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	settings := defaults
	settings.Network = uint32(*network)
	if err := config.Validate(settings); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stdout, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))

	if *dryRun {
		if _, err := fmt.Fprintf(stdout, "effective config network=%v datadir=%s validators=%v\n", settings.Network, *dataDir, settings.ValidatorsCount); err != nil {
			fmt.Fprintf(stderr, "write config failed: %v\n", err)
			return 2
		}
		return 0
	}

	store, err := storage.OpenBolt(*dataDir, settings.Network)
	if err != nil {
		fmt.Fprintf(stderr, "store open failed: %v\n", err)
		return 2
	}
	defer store.Close()

	cache, err := storage.New(store, storage.Config{})
	if err != nil {
		fmt.Fprintf(stderr, "cache init failed: %v\n", err)
		return 2
	}

	provider := cryptoimpl.Provider{}
	chain := ledger.Open(cache, provider)

	if err := chain.EnsureGenesis(ledger.GenesisParams{
		Network:       settings.Network,
		Timestamp:     0,
		NextConsensus: types.UInt160{},
	}); err != nil {
		fmt.Fprintf(stderr, "genesis init failed: %v\n", err)
		return 2
	}

	oracle := admission.New(nil, chain, nil, settings.MaxTraceableBlocks)
	_ = oracle

	handler := netpolicy.NewHandler(nil, nil, func() int { return 0 })
	handler.SetGroupHasher(provider)

	scheduler := tasks.New(chain, nil, settings.MemoryPoolMaxTransactions)
	scheduler.SetThrottlePolicy(handler)
	_ = scheduler

	validators := types.NewValidatorSet(settings.ActiveValidators())
	checkpointPath := storage.CheckpointPath(*dataDir)
	engine, err := loadOrCreateEngine(validators, provider, checkpointPath)
	if err != nil {
		fmt.Fprintf(stderr, "consensus checkpoint load failed: %v\n", err)
		return 2
	}
	defer func() {
		if err := storage.SaveCheckpoint(checkpointPath, engine.Snapshot()); err != nil {
			logger.Warn("consensus checkpoint save failed", "error", err)
		}
	}()

	current, ok, err := chain.CurrentIndex()
	if err != nil {
		fmt.Fprintf(stderr, "ledger read failed: %v\n", err)
		return 2
	}
	if ok {
		header, _, err := chain.GetTrimmedBlock(ledger.ByIndex(current), settings.MaxTraceableBlocks)
		if err != nil {
			fmt.Fprintf(stderr, "ledger read failed: %v\n", err)
			return 2
		}
		address := provider.Address(header.Header.NextConsensus, settings.AddressVersion)
		logger.Info("node ready", "height", current, "next_consensus", address)
	}

	return 0
}

// loadOrCreateEngine restores a consensus engine from a prior checkpoint if
// one exists, falling back to a fresh height-0/view-0 engine otherwise.
func loadOrCreateEngine(validators types.ValidatorSet, provider cryptoimpl.Provider, checkpointPath string) (*consensus.Engine, error) {
	snapshot, ok, err := storage.LoadCheckpoint(checkpointPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return consensus.NewEngine(validators, provider, provider, "secp256r1"), nil
	}
	return consensus.FromSnapshot(validators, provider, provider, "secp256r1", snapshot)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
