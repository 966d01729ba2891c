package telemetry

import "math"

// SmoothAccel filters the three accelerometer axes with the accel alpha and
// derives the acceleration magnitude from the smoothed axes (smoothing the
// axes first keeps the magnitude consistent with what is plotted per axis).
func SmoothAccel(samples []Sample, cfg Config) (ax, ay, az, mag []float64) {
	n := len(samples)
	rawX := make([]float64, n)
	rawY := make([]float64, n)
	rawZ := make([]float64, n)
	for i, s := range samples {
		rawX[i] = s.AccelXG
		rawY[i] = s.AccelYG
		rawZ[i] = s.AccelZG
	}

	ax = EMA(rawX, cfg.AccelAlpha)
	ay = EMA(rawY, cfg.AccelAlpha)
	az = EMA(rawZ, cfg.AccelAlpha)

	mag = make([]float64, n)
	for i := range mag {
		mag[i] = math.Sqrt(ax[i]*ax[i] + ay[i]*ay[i] + az[i]*az[i])
	}
	return ax, ay, az, mag
}
