//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pverdier/patrimoine-backend/internal/adapter/ledger"
	"github.com/pverdier/patrimoine-backend/internal/adapter/marketdata"
	"github.com/pverdier/patrimoine-backend/internal/adapter/repository/sqldb"
	"github.com/pverdier/patrimoine-backend/internal/adapter/rest"
	"github.com/pverdier/patrimoine-backend/internal/adapter/snapshot"
	"github.com/pverdier/patrimoine-backend/internal/usecase/backfill"
	"github.com/pverdier/patrimoine-backend/internal/usecase/pipeline"
	"github.com/pverdier/patrimoine-backend/internal/usecase/valuation"
)

// TestPipelineEndToEnd drives the full stack: CSV ledger on disk, SQLite
// price store, fake market data endpoint, CSV snapshots, then reads the
// result back through the HTTP API.
func TestPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()

	// Ledger: one contribution of 10 units of XYZ on 2024-01-02; DEAD has a
	// position but the market knows nothing about it.
	ledgerPath := filepath.Join(dir, "operations.csv")
	require.NoError(t, os.WriteFile(ledgerPath, []byte(
		"Symbole,Date de valeur,Type opération,Nombre de parts,Montant net en euros\n"+
			"XYZ,2024-01-02,Versement libre complémentaire,10,100\n"+
			"DEAD,2024-01-02,Versement libre complémentaire,1,10\n"), 0o644))

	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	market := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v8/finance/chart/DEAD" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
			return
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d],
			"indicators":{"quote":[{"close":[10.5,11.0]}]}}],"error":null}}`,
			jan2.Unix(), jan3.Unix())
	}))
	defer market.Close()

	db, err := sqldb.Open("sqlite3", filepath.Join(dir, "patrimoine.db"))
	require.NoError(t, err)
	defer db.Close()

	priceRepo := sqldb.NewPriceRepository(db)
	snapshots := snapshot.NewStore(dir, "Cours_Marches.csv", "ValeurMarcheJour.csv")

	service := pipeline.NewPipelineService(
		ledger.NewLoader(""),
		backfill.NewBackfillService(priceRepo, marketdata.NewClient(market.URL, time.Second)),
		valuation.NewValuationService(priceRepo),
		snapshots,
	)
	service.Today = func() time.Time { return time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, service.Run(context.Background(), ledgerPath))

	// Running again with the same inputs must not change the outputs.
	require.NoError(t, service.Run(context.Background(), ledgerPath))

	router := rest.NewRouter(rest.NewHandler(snapshots))

	rec := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/api/valeurmarche", nil)
	require.NoError(t, err)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var series []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Len(t, series, 2)
	assert.JSONEq(t, `"2024-01-02"`, string(series[0]["date"]))
	assert.JSONEq(t, `"105"`, string(series[0]["market_value"]))
	assert.JSONEq(t, `"100"`, string(series[0]["invested"]))
	assert.JSONEq(t, `"2024-01-03"`, string(series[1]["date"]))
	assert.JSONEq(t, `"110"`, string(series[1]["market_value"]))

	rec = httptest.NewRecorder()
	req, err = http.NewRequest(http.MethodGet, "/api/valeurmarche/last", nil)
	require.NoError(t, err)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var last map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &last))
	assert.JSONEq(t, `"2024-01-03"`, string(last["date"]))

	// DEAD produced no rows anywhere.
	detail, err := os.ReadFile(filepath.Join(dir, "Cours_Marches.csv"))
	require.NoError(t, err)
	assert.NotContains(t, string(detail), "DEAD")
}
