package telemetry

// EMA applies a single-pole exponential moving average with smoothing factor
// alpha in (0, 1]:
//
//	y[0] = x[0]
//	y[i] = alpha*x[i] + (1-alpha)*y[i-1]
//
// The filter is causal (no lookahead) and O(n). An empty input returns an
// empty output. Alpha values come from Config per channel; call sites never
// hard-code them.
func EMA(x []float64, alpha float64) []float64 {
	y := make([]float64, len(x))
	if len(x) == 0 {
		return y
	}
	y[0] = x[0]
	for i := 1; i < len(x); i++ {
		y[i] = alpha*x[i] + (1.0-alpha)*y[i-1]
	}
	return y
}
