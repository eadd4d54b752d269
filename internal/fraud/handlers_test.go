package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fingaurd/fraudscore/internal/anomaly"
)

type stubPredictor struct {
	score float64
	err   error
}

func (p *stubPredictor) Predict(ctx context.Context, f anomaly.Features) (float64, error) {
	return p.score, p.err
}

func setupRouter(predictor anomaly.Predictor, store Store) (*gin.Engine, *Engine) {
	gin.SetMode(gin.TestMode)

	engine := NewEngine(NewVelocityTracker(60 * time.Second))
	handler := NewHandler(engine, predictor, store, nil)

	r := gin.New()
	v1 := r.Group("/api/v1")
	handler.RegisterRoutes(v1)
	handler.RegisterLegacyRoutes(r)
	return r, engine
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeEndpoint(t *testing.T) {
	router, _ := setupRouter(nil, nil)

	w := postJSON(router, "/api/v1/fraud/analyze", AnalyzeRequest{
		TransactionID: "tx-1",
		UserID:        "user-1",
		Amount:        6000,
		Category:      "cryptocurrency",
		Description:   "urgent bitcoin transfer",
		Timestamp:     "2024-05-01T02:00:00Z",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var res Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.TransactionID != "tx-1" {
		t.Errorf("transaction_id = %q", res.TransactionID)
	}
	if res.RiskScore != 0.5325 {
		t.Errorf("risk_score = %v, want 0.5325", res.RiskScore)
	}
	if res.IsFraud {
		t.Error("below-threshold transaction flagged")
	}
	if len(res.DetectedAnomalies) != 4 {
		t.Errorf("anomalies = %v", res.DetectedAnomalies)
	}
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	router, _ := setupRouter(nil, nil)

	tests := []struct {
		name string
		body AnalyzeRequest
	}{
		{"missing user_id", AnalyzeRequest{Amount: 100}},
		{"zero amount", AnalyzeRequest{UserID: "u", Amount: 0}},
		{"negative amount", AnalyzeRequest{UserID: "u", Amount: -5}},
		{"bad timestamp", AnalyzeRequest{UserID: "u", Amount: 100, Timestamp: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/v1/fraud/analyze", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestAnalyzeEndpointMalformedJSON(t *testing.T) {
	router, _ := setupRouter(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fraud/analyze", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyzeEndpointBlendsAnomalyScore(t *testing.T) {
	router, _ := setupRouter(&stubPredictor{score: 1.0}, nil)

	w := postJSON(router, "/api/v1/fraud/analyze", AnalyzeRequest{
		UserID:    "user-1",
		Amount:    19.99,
		Timestamp: "2024-05-01T14:00:00Z",
	})

	var res Result
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	// rule score 0.0 blended with anomaly 1.0: 0.0*0.7 + 1.0*0.3
	if res.RiskScore != 0.3 {
		t.Errorf("blended risk_score = %v, want 0.3", res.RiskScore)
	}
}

func TestAnalyzeEndpointSkipsBlendWhenModelUnavailable(t *testing.T) {
	router, _ := setupRouter(&stubPredictor{err: errors.New("down")}, nil)

	w := postJSON(router, "/api/v1/fraud/analyze", AnalyzeRequest{
		UserID:    "user-1",
		Amount:    19.99,
		Timestamp: "2024-05-01T14:00:00Z",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, unavailable model must not fail the request", w.Code)
	}
	var res Result
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.RiskScore != 0.0 {
		t.Errorf("risk_score = %v, want unblended 0.0", res.RiskScore)
	}
}

func TestAnalyzeEndpointArchives(t *testing.T) {
	store := NewMemoryStore()
	router, _ := setupRouter(nil, store)

	w := postJSON(router, "/api/v1/fraud/analyze", AnalyzeRequest{
		UserID: "user-1",
		Amount: 50,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	// Archival is asynchronous and best-effort
	deadline := time.Now().Add(2 * time.Second)
	for store.AnalysisCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("analysis never archived")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBatchEndpoint(t *testing.T) {
	router, _ := setupRouter(nil, nil)

	w := postJSON(router, "/api/v1/fraud/batch", BatchRequest{
		Transactions: []AnalyzeRequest{
			{UserID: "u1", Amount: 19.99, Timestamp: "2024-05-01T14:00:00Z"},
			{UserID: "u2", Amount: 6000, Category: "cryptocurrency", Description: "urgent bitcoin", Timestamp: "2024-05-01T02:00:00Z"},
			{UserID: "", Amount: 100}, // invalid entry gets the fail-safe result
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results    []Result `json:"results"`
		Count      int      `json:"count"`
		FraudCount int      `json:"fraud_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Count != 3 || len(resp.Results) != 3 {
		t.Fatalf("count = %d, results = %d", resp.Count, len(resp.Results))
	}
	if resp.Results[0].RiskScore != 0.0 {
		t.Errorf("clean tx score = %v", resp.Results[0].RiskScore)
	}
	if resp.Results[2].RiskScore != 0.0 ||
		len(resp.Results[2].DetectedAnomalies) != 1 ||
		resp.Results[2].DetectedAnomalies[0] != "Analysis error occurred" {
		t.Errorf("invalid entry did not fail safe: %+v", resp.Results[2])
	}
}

func TestBatchEndpointLimits(t *testing.T) {
	router, _ := setupRouter(nil, nil)

	w := postJSON(router, "/api/v1/fraud/batch", BatchRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", w.Code)
	}

	big := BatchRequest{Transactions: make([]AnalyzeRequest, maxBatchSize+1)}
	for i := range big.Transactions {
		big.Transactions[i] = AnalyzeRequest{UserID: "u", Amount: 1}
	}
	w = postJSON(router, "/api/v1/fraud/batch", big)
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized batch status = %d, want 400", w.Code)
	}
}

func TestModelsEndpoint(t *testing.T) {
	router, engine := setupRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fraud/models", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		ModelVersion   string             `json:"model_version"`
		FraudThreshold float64            `json:"fraud_threshold"`
		Factors        map[string]float64 `json:"factors"`
		AnomalyModel   string             `json:"anomaly_model"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.ModelVersion != engine.ModelVersion() {
		t.Errorf("model_version = %q", resp.ModelVersion)
	}
	if resp.FraudThreshold != engine.Threshold() {
		t.Errorf("fraud_threshold = %v", resp.FraudThreshold)
	}
	sum := 0.0
	for _, v := range resp.Factors {
		sum += v
	}
	if sum != 1.0 {
		t.Errorf("factor weights sum to %v", sum)
	}
	if resp.AnomalyModel != "disabled" {
		t.Errorf("anomaly_model = %q, want disabled", resp.AnomalyModel)
	}
}

func TestAlertsEndpoint(t *testing.T) {
	store := NewMemoryStore()
	_ = store.RecordAlert(context.Background(), &Result{TransactionID: "tx-1", RiskScore: 0.8, IsFraud: true})
	router, _ := setupRouter(nil, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fraud/alerts?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Alerts []Result `json:"alerts"`
		Count  int      `json:"count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 || len(resp.Alerts) != 1 || resp.Alerts[0].TransactionID != "tx-1" {
		t.Errorf("unexpected alerts response: %s", w.Body.String())
	}
}

func TestAlertsEndpointWithoutStore(t *testing.T) {
	router, _ := setupRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fraud/alerts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", w.Code)
	}
}

func TestDetectEndpoint(t *testing.T) {
	router, _ := setupRouter(nil, nil)

	w := postJSON(router, "/detect", DetectRequest{
		UserID:    42,
		Amount:    30000,
		Timestamp: "2024-05-01T02:00:00Z",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res LegacyResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if res.IsFraudulent {
		t.Error("single-factor transaction flagged")
	}
	if res.RiskScore != 0.4425 {
		t.Errorf("risk_score = %v, want 0.4425", res.RiskScore)
	}
	if res.Reason == "" {
		t.Error("expected a reason for a high amount at 02:00 UTC")
	}
}
