package fraud

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fingaurd/fraudscore/internal/anomaly"
	"github.com/fingaurd/fraudscore/internal/logging"
	"github.com/fingaurd/fraudscore/internal/metrics"
	"github.com/fingaurd/fraudscore/internal/realtime"
	"github.com/fingaurd/fraudscore/internal/traces"
	"github.com/fingaurd/fraudscore/internal/validation"
)

// maxBatchSize caps transactions per batch request.
const maxBatchSize = 100

// archiveTimeout bounds the background store writes spawned per analysis.
const archiveTimeout = 5 * time.Second

// Handler provides the HTTP endpoints for fraud analysis.
type Handler struct {
	engine    *Engine
	predictor anomaly.Predictor
	store     Store
	hub       *realtime.Hub
}

// NewHandler creates a fraud API handler. predictor, store, and hub are
// all optional; a nil value disables the corresponding behavior.
func NewHandler(engine *Engine, predictor anomaly.Predictor, store Store, hub *realtime.Hub) *Handler {
	return &Handler{
		engine:    engine,
		predictor: predictor,
		store:     store,
		hub:       hub,
	}
}

// RegisterRoutes sets up the fraud analysis endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/fraud/analyze", h.Analyze)
	r.POST("/fraud/batch", h.AnalyzeBatch)
	r.GET("/fraud/models", h.ModelInfo)
	r.GET("/fraud/alerts", h.ListAlerts)
}

// RegisterLegacyRoutes sets up the backward-compatible detect endpoint
// at the router root, outside the versioned API group.
func (h *Handler) RegisterLegacyRoutes(r gin.IRouter) {
	r.POST("/detect", h.Detect)
}

// AnalyzeRequest is the body of POST /fraud/analyze.
type AnalyzeRequest struct {
	TransactionID string  `json:"transaction_id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	Category      string  `json:"category"`
	Timestamp     string  `json:"timestamp"`
	Description   string  `json:"description"`
}

func (r *AnalyzeRequest) validate() validation.ValidationErrors {
	return validation.Validate(
		validation.Required("user_id", r.UserID),
		validation.PositiveAmount("amount", r.Amount),
		validation.MaxLength("user_id", r.UserID, validation.MaxUserIDLength),
		validation.MaxLength("category", r.Category, validation.MaxCategoryLength),
		validation.MaxLength("description", r.Description, validation.MaxDescriptionLength),
	)
}

func (r *AnalyzeRequest) toTransaction() (Transaction, error) {
	tx := Transaction{
		ID:          validation.SanitizeString(r.TransactionID, validation.MaxUserIDLength),
		UserID:      validation.SanitizeString(r.UserID, validation.MaxUserIDLength),
		Amount:      r.Amount,
		Type:        TransactionType(r.Type),
		Category:    validation.SanitizeString(r.Category, validation.MaxCategoryLength),
		Description: validation.SanitizeString(r.Description, validation.MaxDescriptionLength),
	}
	if r.Timestamp != "" {
		ts, err := parseISOTimestamp(r.Timestamp)
		if err != nil {
			return tx, errors.New("timestamp must be ISO 8601")
		}
		tx.Timestamp = ts
	}
	return tx, nil
}

// Analyze scores a single transaction.
// POST /api/v1/fraud/analyze
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must be valid JSON",
		})
		return
	}

	if errs := req.validate(); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	tx, err := req.toTransaction()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	res := h.analyzeOne(c.Request.Context(), tx)
	c.JSON(http.StatusOK, res)
}

// analyzeOne runs the full pipeline for one transaction: rule scoring,
// optional anomaly blend, archival, and alert fan-out.
func (h *Handler) analyzeOne(ctx context.Context, tx Transaction) *Result {
	ctx, span := traces.StartSpan(ctx, "fraud.analyze",
		traces.UserID(tx.UserID),
		traces.Amount(tx.Amount),
		traces.Category(tx.Category),
	)
	defer span.End()

	start := time.Now()
	res := h.engine.Analyze(ctx, tx)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	if h.predictor != nil {
		ts := tx.Timestamp
		if ts.IsZero() {
			ts = res.EvaluatedAt
		}
		score, err := h.predictor.Predict(ctx, anomaly.FeaturesFrom(tx.Amount, ts))
		if err != nil {
			metrics.AnomalyBlendsTotal.WithLabelValues("unavailable").Inc()
			logging.L(ctx).Debug("anomaly model unavailable, using rule score only",
				"transaction_id", tx.ID, "error", err)
		} else {
			metrics.AnomalyBlendsTotal.WithLabelValues("blended").Inc()
			res = ApplyAnomaly(res, score, h.engine.Threshold())
		}
	}

	span.SetAttributes(traces.RiskScore(res.RiskScore), traces.FraudDecision(res.IsFraud))

	decision := "legit"
	if res.IsFraud {
		decision = "fraud"
		metrics.AlertsTotal.Inc()
	}
	metrics.AnalysesTotal.WithLabelValues(decision).Inc()

	logging.L(ctx).Info("transaction analyzed",
		"transaction_id", res.TransactionID,
		"user_id", tx.UserID,
		"risk_score", res.RiskScore,
		"is_fraud", res.IsFraud,
	)

	h.archive(ctx, tx, res)

	if res.IsFraud && h.hub != nil {
		h.hub.BroadcastAlert(map[string]interface{}{
			"transaction_id": res.TransactionID,
			"user_id":        tx.UserID,
			"risk_score":     res.RiskScore,
			"anomalies":      res.DetectedAnomalies,
			"confidence":     res.Confidence,
			"detected_at":    res.EvaluatedAt,
		})
	}

	return res
}

// archive writes the result to the store in the background. Failures are
// logged, never surfaced.
func (h *Handler) archive(ctx context.Context, tx Transaction, res *Result) {
	if h.store == nil {
		return
	}
	logger := logging.L(ctx)
	go func() {
		rctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := h.store.RecordAnalysis(rctx, res); err != nil {
			logger.Warn("failed to archive analysis", "transaction_id", res.TransactionID, "error", err)
		}
		if res.IsFraud {
			if err := h.store.RecordAlert(rctx, res); err != nil {
				logger.Warn("failed to archive alert", "transaction_id", res.TransactionID, "error", err)
			}
		}
	}()
}

// BatchRequest is the body of POST /fraud/batch.
type BatchRequest struct {
	Transactions []AnalyzeRequest `json:"transactions"`
}

// AnalyzeBatch scores up to maxBatchSize transactions in one call.
// POST /api/v1/fraud/batch
func (h *Handler) AnalyzeBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain 'transactions' array",
		})
		return
	}

	if len(req.Transactions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "At least one transaction is required",
		})
		return
	}
	if len(req.Transactions) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "too_many_transactions",
			"message": "Maximum " + strconv.Itoa(maxBatchSize) + " transactions per batch request",
		})
		return
	}

	results := make([]*Result, 0, len(req.Transactions))
	fraudCount := 0
	for _, txReq := range req.Transactions {
		if errs := txReq.validate(); len(errs) > 0 {
			results = append(results, h.engine.failSafe(txReq.TransactionID))
			continue
		}
		tx, err := txReq.toTransaction()
		if err != nil {
			results = append(results, h.engine.failSafe(txReq.TransactionID))
			continue
		}
		res := h.analyzeOne(c.Request.Context(), tx)
		if res.IsFraud {
			fraudCount++
		}
		results = append(results, res)
	}

	c.JSON(http.StatusOK, gin.H{
		"results":     results,
		"count":       len(results),
		"fraud_count": fraudCount,
	})
}

// ModelInfo describes the scoring model in use.
// GET /api/v1/fraud/models
func (h *Handler) ModelInfo(c *gin.Context) {
	anomalyModel := "disabled"
	if h.predictor != nil {
		anomalyModel = "enabled"
	}
	c.JSON(http.StatusOK, gin.H{
		"model_version":   h.engine.ModelVersion(),
		"model_type":      "weighted_rules",
		"fraud_threshold": h.engine.Threshold(),
		"factors": gin.H{
			"amount":      weightAmount,
			"time_of_day": weightTimeOfDay,
			"velocity":    weightVelocity,
			"category":    weightCategory,
			"pattern":     weightPattern,
		},
		"anomaly_model": anomalyModel,
	})
}

// ListAlerts returns recently archived fraud alerts, most recent first.
// GET /api/v1/fraud/alerts?limit=
func (h *Handler) ListAlerts(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":   "not_available",
			"message": "Alert history is not available",
		})
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > 1000 {
				limit = 1000
			}
		}
	}

	alerts, err := h.store.ListAlerts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query_failed",
			"message": "Failed to query fraud alerts",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// DetectRequest is the body of the legacy POST /detect endpoint.
type DetectRequest struct {
	UserID    int64   `json:"user_id"`
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp"`
}

// Detect scores a transaction in the legacy request shape.
// POST /detect
func (h *Handler) Detect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must be valid JSON",
		})
		return
	}

	res := h.engine.AnalyzeLegacy(c.Request.Context(), req.UserID, req.Amount, req.Timestamp)
	c.JSON(http.StatusOK, res)
}
