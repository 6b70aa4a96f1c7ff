package billing

// PeakMetric returns the larger of the inbound and outbound maxima,
// skipping missing values. It is nil only when both inputs are nil.
func PeakMetric(maxIn, maxOut *float64) *float64 {
	switch {
	case maxIn == nil && maxOut == nil:
		return nil
	case maxIn == nil:
		v := *maxOut
		return &v
	case maxOut == nil:
		v := *maxIn
		return &v
	}
	v := *maxIn
	if *maxOut > v {
		v = *maxOut
	}
	return &v
}
