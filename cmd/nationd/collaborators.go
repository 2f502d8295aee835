package main

import (
	"errors"
	"log/slog"

	"github.com/talgya/nationsim/internal/border"
	"github.com/talgya/nationsim/internal/persistence"
)

// fileWallet is a file-backed stand-in for the external wallet service.
type fileWallet struct {
	files *persistence.FileStore
}

type walletRecord struct {
	Balance float64 `json:"balance"`
}

func (w *fileWallet) Balance(playerID string) float64 {
	var rec walletRecord
	if err := w.files.Load(playerID, &rec); err != nil {
		return 0
	}
	return rec.Balance
}

func (w *fileWallet) Withdraw(playerID string, amount float64) error {
	var rec walletRecord
	if err := w.files.Load(playerID, &rec); err != nil {
		return err
	}
	if rec.Balance < amount {
		return errors.New("insufficient balance")
	}
	rec.Balance -= amount
	return w.files.Save(playerID, rec)
}

func (w *fileWallet) Deposit(playerID string, amount float64) error {
	var rec walletRecord
	if err := w.files.Load(playerID, &rec); err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return err
	}
	rec.Balance += amount
	return w.files.Save(playerID, rec)
}

// constantHappiness reports the same happiness for every nation.
type constantHappiness float64

func (c constantHappiness) NationHappiness(string) float64 { return float64(c) }

// loggingDiplomacy records diplomatic side effects in the log.
type loggingDiplomacy struct{}

func (loggingDiplomacy) SetReputation(a, b string, delta float64) {
	slog.Info("reputation changed", "nation", a, "toward", b, "delta", delta)
}

func (loggingDiplomacy) DeclareWar(attacker, target string) {
	slog.Info("war declared", "attacker", attacker, "target", target)
}

// loggingMessenger logs chat lines instead of delivering them.
type loggingMessenger struct{}

func (loggingMessenger) Send(playerID, message string) bool {
	slog.Debug("chat", "player", playerID, "message", message)
	return false // nobody is online in standalone mode
}

// emptyPresence reports no online players and no memberships.
type emptyPresence struct{}

func (emptyPresence) Online() []border.Actor          { return nil }
func (emptyPresence) NationOf(playerID string) string { return "" }

// loggingMarkerSink logs border markers.
type loggingMarkerSink struct{}

func (loggingMarkerSink) Mark(playerID string, m border.Marker) {
	slog.Debug("border marker", "player", playerID, "world", m.World, "x", m.X, "z", m.Z, "owned", m.Owned)
}
