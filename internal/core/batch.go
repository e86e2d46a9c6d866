package core

// SafetyFactor is the fraction of the parameter ceiling a single
// statement may use.
const SafetyFactor = 0.9

// PlanBatch picks how many rows go into one multi-row INSERT so that
// columnCount * batchSize stays under paramCeiling with headroom.
//
// A preferred size within the safe limit is used as is. A larger one is
// cut down to floor(paramCeiling/columnCount * SafetyFactor), never below 1.
// A non-positive preferred size means "as large as is safe".
func PlanBatch(columnCount, preferred, paramCeiling int) BatchPlan {
	if columnCount <= 0 || paramCeiling <= 0 {
		return BatchPlan{BatchSize: max(preferred, 1), MaxRowsPerStatement: max(preferred, 1)}
	}

	maxPossible := paramCeiling / columnCount
	safe := int(float64(maxPossible) * SafetyFactor)
	if safe < 1 {
		safe = 1
	}

	if preferred <= 0 {
		return BatchPlan{BatchSize: safe, MaxRowsPerStatement: safe}
	}
	if preferred > safe {
		return BatchPlan{BatchSize: safe, WasReduced: true, MaxRowsPerStatement: safe}
	}
	return BatchPlan{BatchSize: preferred, MaxRowsPerStatement: safe}
}
