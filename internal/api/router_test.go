package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/model"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/predict"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/training"
)

// newTestRouter trains a small model where high recency means churn and
// mounts it behind the router.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	snap := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	var examples []*domain.SnapshotExample
	for i := 0; i < 80; i++ {
		e := &domain.SnapshotExample{
			AccountID:    fmt.Sprintf("a%03d", i),
			SnapshotDate: snap,
			TenureDays:   300,
			NTxnPast:     4,
			SumAmtPast:   400,
			AvgAmtPast:   100,
		}
		if i%2 == 0 {
			e.RecencyDays = 85
			e.ChurnLabel = 1
		} else {
			e.RecencyDays = 3
			e.ChurnLabel = 0
		}
		examples = append(examples, e)
	}

	opts := training.DefaultOptions()
	opts.Model = model.GBTParams{NEstimators: 30, LearningRate: 0.1, MaxDepth: 2, Subsample: 1.0, Seed: 1}
	res, err := training.NewTrainer(nil, opts, nil).Run(examples)
	require.NoError(t, err)

	p, err := predict.NewPredictor(res.Model, res.Schema, nil, predict.DefaultOptions())
	require.NoError(t, err)

	return NewRouter(Deps{
		Predictor: p,
		TrainedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_Status(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.NotEmpty(t, status["schema_fingerprint"])
	assert.Equal(t, 0.5, status["threshold"])
	assert.Equal(t, "2024-01-01T00:00:00Z", status["trained_at"])
}

func TestRouter_Predict(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(PredictRequest{
		AccountID:    "donor-1",
		SnapshotDate: "2024-02-01",
		TenureDays:   300,
		RecencyDays:  85,
		NTxnPast:     4,
		SumAmtPast:   400,
		AvgAmtPast:   100,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "donor-1", resp.AccountID)
	assert.Equal(t, "2024-02-01", resp.SnapshotDate)
	assert.Equal(t, predict.RiskLikely, resp.Risk)
	assert.Greater(t, resp.Probability, 0.5)

	// A recently active donor scores as unlikely.
	body, _ = json.Marshal(PredictRequest{
		AccountID:   "donor-2",
		TenureDays:  300,
		RecencyDays: 3,
		NTxnPast:    4,
		SumAmtPast:  400,
		AvgAmtPast:  100,
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, predict.RiskUnlikely, resp.Risk)
}

func TestRouter_PredictBatch(t *testing.T) {
	router := newTestRouter(t)

	reqs := []PredictRequest{
		{AccountID: "a", RecencyDays: 85, TenureDays: 300, NTxnPast: 4, SumAmtPast: 400, AvgAmtPast: 100},
		{AccountID: "b", RecencyDays: 3, TenureDays: 300, NTxnPast: 4, SumAmtPast: 400, AvgAmtPast: 100},
	}
	body, _ := json.Marshal(reqs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict/batch", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, predict.RiskLikely, resp[0].Risk)
	assert.Equal(t, predict.RiskUnlikely, resp[1].Risk)
}

func TestRouter_PredictBadInput(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader([]byte("{"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body := []byte(`{"account_id":"a","snapshot_date":"not-a-date"}`)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict/batch", bytes.NewReader([]byte("[]"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_UnknownCategoryStillScores(t *testing.T) {
	router := newTestRouter(t)

	employer := "Never Seen LLC"
	body, _ := json.Marshal(PredictRequest{
		AccountID:   "donor-3",
		RecencyDays: 85,
		TenureDays:  300,
		NTxnPast:    4,
		SumAmtPast:  400,
		AvgAmtPast:  100,
		Employer:    &employer,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
