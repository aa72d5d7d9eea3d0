// Package api exposes the trained churn model over HTTP: a scoring endpoint,
// model status, health, and Prometheus metrics.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/api/httpx"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/observability"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/predict"
)

// Deps are the router's dependencies.
type Deps struct {
	Predictor *predict.Predictor
	TrainedAt time.Time
	Logger    *log.Logger
}

// PredictRequest is one donor's feature snapshot to score. The snapshot date
// defaults to today when omitted.
type PredictRequest struct {
	AccountID    string   `json:"account_id"`
	SnapshotDate string   `json:"snapshot_date,omitempty"`
	TenureDays   int      `json:"tenure_days"`
	RecencyDays  int      `json:"recency_days"`
	NTxnPast     int      `json:"n_txn_past"`
	SumAmtPast   float64  `json:"sum_amt_past"`
	AvgAmtPast   float64  `json:"avg_amt_past"`
	StdAmtPast   float64  `json:"std_amt_past"`
	State        *string  `json:"state,omitempty"`
	Zip          *string  `json:"zip,omitempty"`
	Gender       *string  `json:"gender,omitempty"`
	Employer     *string  `json:"employer,omitempty"`
	Groups       *string  `json:"groups,omitempty"`
}

// PredictResponse is one scored donor.
type PredictResponse struct {
	AccountID    string  `json:"account_id"`
	SnapshotDate string  `json:"snapshot_date"`
	Probability  float64 `json:"probability"`
	Risk         string  `json:"risk"`
	Threshold    float64 `json:"threshold"`
}

// NewRouter builds the HTTP handler.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestID, Recover(logger), HTTPMetrics)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", observability.Handler())

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"schema_fingerprint": deps.Predictor.Schema().Fingerprint(),
			"schema_columns":     len(deps.Predictor.Schema().Columns),
			"threshold":          deps.Predictor.Threshold(),
			"trained_at":         deps.TrainedAt.Format(time.RFC3339),
		})
	})

	r.Post("/predict", func(w http.ResponseWriter, r *http.Request) {
		var req PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
			return
		}
		resp, err := score(deps.Predictor, []PredictRequest{req})
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, resp[0])
	})

	r.Post("/predict/batch", func(w http.ResponseWriter, r *http.Request) {
		var reqs []PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
			return
		}
		if len(reqs) == 0 {
			httpx.WriteError(w, http.StatusBadRequest, "bad_request", "empty batch", nil)
			return
		}
		resp, err := score(deps.Predictor, reqs)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	})

	return r
}

// score conforms the requests to the model schema and labels them.
func score(p *predict.Predictor, reqs []PredictRequest) ([]PredictResponse, error) {
	examples := make([]*domain.SnapshotExample, len(reqs))
	for i, req := range reqs {
		snap := time.Now().UTC().Truncate(24 * time.Hour)
		if req.SnapshotDate != "" {
			parsed, err := time.Parse("2006-01-02", req.SnapshotDate)
			if err != nil {
				return nil, err
			}
			snap = parsed
		}
		examples[i] = &domain.SnapshotExample{
			AccountID:    req.AccountID,
			SnapshotDate: snap,
			TenureDays:   req.TenureDays,
			RecencyDays:  req.RecencyDays,
			NTxnPast:     req.NTxnPast,
			SumAmtPast:   req.SumAmtPast,
			AvgAmtPast:   req.AvgAmtPast,
			StdAmtPast:   req.StdAmtPast,
			State:        req.State,
			Zip:          req.Zip,
			Gender:       req.Gender,
			Employer:     req.Employer,
			Groups:       req.Groups,
		}
	}

	preds, err := p.Predict(examples)
	if err != nil {
		return nil, err
	}

	out := make([]PredictResponse, len(preds))
	for i, pr := range preds {
		out[i] = PredictResponse{
			AccountID:    pr.AccountID,
			SnapshotDate: pr.SnapshotDate.Format("2006-01-02"),
			Probability:  pr.Probability,
			Risk:         pr.Risk,
			Threshold:    p.Threshold(),
		}
	}
	return out, nil
}
