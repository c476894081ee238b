package wind

// Evaluate reports whether a reading meets the alert rule: the bearing lies
// in the qualifying arc and the speed is at or above the threshold.
func Evaluate(speedKmh, directionDeg, thresholdKmh float64) bool {
	return Classify(directionDeg).Qualifies && speedKmh >= thresholdKmh
}
