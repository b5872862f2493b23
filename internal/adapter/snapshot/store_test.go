package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pverdier/patrimoine-backend/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWriteTotals_ReadTotals_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), "Cours_Marches.csv", "ValeurMarcheJour.csv")

	totals := []domain.DailyTotal{
		{Date: day(2024, 1, 2), MarketValue: decimal.NewFromFloat(105), Invested: decimal.NewFromInt(100)},
		{Date: day(2024, 1, 3), MarketValue: decimal.NewFromFloat(110), Invested: decimal.NewFromInt(100)},
	}
	require.NoError(t, store.WriteTotals(totals))

	got, err := store.ReadTotals()

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, totals[0].Date, got[0].Date)
	assert.True(t, got[0].MarketValue.Equal(totals[0].MarketValue))
	assert.True(t, got[0].Invested.Equal(totals[0].Invested))
	assert.Equal(t, totals[1].Date, got[1].Date)
	assert.True(t, got[1].MarketValue.Equal(totals[1].MarketValue))
}

func TestReadTotals_MissingArtifact(t *testing.T) {
	store := NewStore(t.TempDir(), "detail.csv", "totals.csv")

	_, err := store.ReadTotals()

	assert.ErrorIs(t, err, domain.ErrSnapshotMissing)
}

func TestReadTotals_CorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "detail.csv", "totals.csv")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "totals.csv"),
		[]byte("Date,Valeur marché,Montant investi euro\nnot-a-date,1,2\n"), 0o644))

	_, err := store.ReadTotals()

	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSnapshotMissing)
}

func TestWriteTotals_OverwritesPreviousRun(t *testing.T) {
	store := NewStore(t.TempDir(), "detail.csv", "totals.csv")

	require.NoError(t, store.WriteTotals([]domain.DailyTotal{
		{Date: day(2024, 1, 2), MarketValue: decimal.NewFromInt(1), Invested: decimal.NewFromInt(1)},
		{Date: day(2024, 1, 3), MarketValue: decimal.NewFromInt(2), Invested: decimal.NewFromInt(2)},
	}))
	require.NoError(t, store.WriteTotals([]domain.DailyTotal{
		{Date: day(2024, 1, 4), MarketValue: decimal.NewFromInt(3), Invested: decimal.NewFromInt(3)},
	}))

	got, err := store.ReadTotals()

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day(2024, 1, 4), got[0].Date)
}

func TestWriteDetail_WritesExpectedColumns(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "detail.csv", "totals.csv")

	require.NoError(t, store.WriteDetail([]domain.ValuationRow{
		{
			Security:     "XYZ",
			Date:         day(2024, 1, 2),
			Close:        decimal.NewFromFloat(10.5),
			UnitsHeld:    decimal.NewFromInt(10),
			CashInvested: decimal.NewFromInt(100),
			MarketValue:  decimal.NewFromInt(105),
		},
	}))

	raw, err := os.ReadFile(filepath.Join(dir, "detail.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Symbole,Date,Close,Nombre de parts,Montant investi euro,Valeur marché", lines[0])
	assert.Equal(t, "XYZ,2024-01-02,10.5,10,100,105", lines[1])
}

func TestWriteAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "detail.csv", "totals.csv")

	require.NoError(t, store.WriteTotals(nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "totals.csv", entries[0].Name())
}
