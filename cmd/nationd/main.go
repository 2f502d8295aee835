// Command nationd runs the nation simulation engine standalone: it loads
// the persisted world, wires the subsystems to local collaborator stand-ins,
// and drives the periodic ticks until interrupted.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/nationsim/internal/alliance"
	"github.com/talgya/nationsim/internal/border"
	"github.com/talgya/nationsim/internal/config"
	"github.com/talgya/nationsim/internal/confirm"
	"github.com/talgya/nationsim/internal/coup"
	"github.com/talgya/nationsim/internal/economy"
	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/entropy"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/persistence"
	"github.com/talgya/nationsim/internal/religion"
	"github.com/talgya/nationsim/internal/resource"
	"github.com/talgya/nationsim/internal/stats"
	"github.com/talgya/nationsim/internal/trade"
	"github.com/talgya/nationsim/internal/treaty"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		slog.Error("tuning load failed", "error", err)
		os.Exit(1)
	}

	// ── Stores ────────────────────────────────────────────────────────
	open := func(sub string) *persistence.FileStore {
		fs, err := persistence.OpenFileStore(filepath.Join(cfg.DataDir, sub))
		if err != nil {
			slog.Error("store open failed", "subsystem", sub, "error", err)
			os.Exit(1)
		}
		return fs
	}

	nations, err := nation.Open(open("nations"))
	if err != nil {
		slog.Error("nation store load failed", "error", err)
		os.Exit(1)
	}

	archive, err := persistence.OpenArchive(cfg.ArchivePath)
	if err != nil {
		slog.Error("archive open failed", "error", err)
		os.Exit(1)
	}
	defer archive.Close()

	events := engine.NewEventLog()

	var random entropy.Source = entropy.Crypto()
	if cfg.RandomSeed != 0 {
		random = entropy.Seeded(cfg.RandomSeed)
		slog.Warn("running with a fixed random seed", "seed", cfg.RandomSeed)
	}

	// ── Collaborator stand-ins ────────────────────────────────────────
	// The hosting game server normally supplies these. Standalone, the
	// daemon runs with a file-backed wallet and logging side effects so
	// every subsystem stays exercisable.
	wallet := &fileWallet{files: open("wallets")}
	happiness := constantHappiness(50)
	diplomacy := &loggingDiplomacy{}
	chat := &loggingMessenger{}
	presence := &emptyPresence{}

	// ── Subsystems ────────────────────────────────────────────────────
	coups, err := coup.New(nations, happiness, random, open("coups"), events, tuning.CoupCooldown, tuning.CoupFloorChance)
	if err != nil {
		slog.Error("coup service load failed", "error", err)
		os.Exit(1)
	}

	stocks, err := resource.OpenStocks(open("resources"))
	if err != nil {
		slog.Error("stockpile load failed", "error", err)
		os.Exit(1)
	}
	processor, err := resource.OpenProcessor(stocks, nations, open("facilities"), tuning.ProcessingYield)
	if err != nil {
		slog.Error("facility load failed", "error", err)
		os.Exit(1)
	}

	trades, err := trade.Open(nations, stocks, open("tradeagreements"), events, tuning.TradePeriod)
	if err != nil {
		slog.Error("trade agreement load failed", "error", err)
		os.Exit(1)
	}

	treaties, err := treaty.Open(nations, diplomacy, open("violations"), events, tuning.ViolationRepDelta, tuning.ViolationWarLimit)
	if err != nil {
		slog.Error("violation log load failed", "error", err)
		os.Exit(1)
	}

	wars, err := religion.Open(nations, diplomacy, open("religiouswars"), events, tuning.ReligiousWarCost)
	if err != nil {
		slog.Error("religious war load failed", "error", err)
		os.Exit(1)
	}

	exchanger := economy.NewExchanger(nations, wallet, events, tuning.ExchangeFeeRate)
	allies := alliance.New(nations, chat, presence, nil)
	confirms := confirm.New()
	borders := border.New(nations, presence, &loggingMarkerSink{})
	overview := stats.New(nations, coups, allies, exchanger, stocks, trades, treaties, wars)

	// ── Ticks ─────────────────────────────────────────────────────────
	sched := engine.NewScheduler()
	sched.Every("trade-agreements", tuning.TradeTickEvery, trades.Tick)
	sched.Every("resource-processing", tuning.ProcessingTickEvery, processor.Tick)
	sched.Every("war-expiry", tuning.WarSweepEvery, func(now time.Time) { wars.Sweep(now) })
	sched.Every("confirm-expiry", tuning.ConfirmSweepEvery, func(now time.Time) {
		if n := confirms.Sweep(tuning.ConfirmTimeout); n > 0 {
			slog.Debug("stale confirmations evicted", "count", n)
		}
	})
	sched.Every("border-redraw", tuning.BorderTickEvery, borders.Tick)
	sched.Every("archive-flush", tuning.ArchiveFlushEvery, func(now time.Time) { archive.Flush(events, now) })
	sched.Start()

	o := overview.Global()
	slog.Info("world ready",
		"nations", o.Nations,
		"total_treasury", o.TotalTreasury,
		"alliances", o.Alliances.TotalRelations,
		"active_wars", o.ActiveWars,
		"active_agreements", o.ActiveAgreements,
	)

	// ── Run until interrupted ─────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	sched.Stop()
	archive.Flush(events, time.Now())
	slog.Info("shutdown complete")
}
