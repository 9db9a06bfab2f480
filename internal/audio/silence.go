package audio

import "math"

// SilenceMetrics summarizes the loudness of a sample stream.
type SilenceMetrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// IsSilent reports whether samples fall below thresholdDBFS. The peak gate
// sits 6 dB above the RMS threshold so brief clicks do not count as speech.
func IsSilent(samples []float32, thresholdDBFS float64) (bool, SilenceMetrics) {
	metrics := Measure(samples)

	if metrics.Samples == 0 {
		return true, metrics
	}
	if math.IsInf(metrics.RMSdBFS, -1) && math.IsInf(metrics.PeakdBFS, -1) {
		return true, metrics
	}

	peakGate := thresholdDBFS + 6
	return metrics.RMSdBFS <= thresholdDBFS && metrics.PeakdBFS <= peakGate, metrics
}

// Measure computes RMS and peak levels in dBFS over samples.
func Measure(samples []float32) SilenceMetrics {
	if len(samples) == 0 {
		return SilenceMetrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}
	}

	var peak float64
	var sumSquares float64
	for _, sample := range samples {
		value := float64(sample)
		abs := math.Abs(value)
		if abs > peak {
			peak = abs
		}
		sumSquares += value * value
	}

	rms := math.Sqrt(sumSquares / float64(len(samples)))
	return SilenceMetrics{
		RMSdBFS:  amplitudeToDBFS(rms),
		PeakdBFS: amplitudeToDBFS(peak),
		Samples:  int64(len(samples)),
	}
}

func amplitudeToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}
