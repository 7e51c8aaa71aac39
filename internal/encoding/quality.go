package encoding

// QualityTier is an x264 preset/crf pair.
type QualityTier struct {
	Preset string
	CRF    int
}

// QualityFor picks a tier from the render duration in seconds. Short renders
// get a slower preset and lower crf.
func QualityFor(duration float64) QualityTier {
	switch {
	case duration < 30:
		return QualityTier{Preset: "medium", CRF: 18}
	case duration < 120:
		return QualityTier{Preset: "fast", CRF: 23}
	default:
		return QualityTier{Preset: "faster", CRF: 28}
	}
}
