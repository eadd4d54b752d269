package fraud

// Blend weights for combining the rule-based score with an external
// anomaly model score: 70% rules, 30% model.
const (
	blendRuleWeight    = 0.7
	blendAnomalyWeight = 0.3
)

// ApplyAnomaly recomputes a result's score as a weighted blend of the
// rule-based score and an externally supplied anomaly score in [0,1],
// then re-evaluates the fraud decision against the threshold. The input
// result is not mutated; the blended copy is returned.
//
// Callers that could not obtain an anomaly score simply skip this call —
// the adapter never computes, retries, or waits for the model itself.
func ApplyAnomaly(res *Result, anomalyScore, threshold float64) *Result {
	if res == nil {
		return nil
	}
	blended := *res
	blended.RiskScore = round4(res.RiskScore*blendRuleWeight + anomalyScore*blendAnomalyWeight)
	blended.IsFraud = blended.RiskScore >= threshold
	return &blended
}
