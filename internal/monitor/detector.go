package monitor

import "stockpulse/internal/models"

// Signal is the per-observation output of the boom predicate.
type Signal struct {
	PriceChangePct float64
	VolumeRatio    float64
	IsBoom         bool
}

// Evaluate computes the boom predicate for one observation against the
// current thresholds. The price change is measured from the prior trading
// day's close, the volume ratio against the rolling average volume; a
// non-positive baseline zeroes the corresponding term.
func Evaluate(currentPrice, previousClose float64, volume, avgVolume int64, settings models.AlertSettings) Signal {
	var priceChangePct float64
	if previousClose > 0 {
		priceChangePct = (currentPrice - previousClose) / previousClose * 100
	}

	var volumeRatio float64
	if avgVolume > 0 {
		volumeRatio = float64(volume) / float64(avgVolume)
	}

	return Signal{
		PriceChangePct: priceChangePct,
		VolumeRatio:    volumeRatio,
		IsBoom: priceChangePct >= settings.PriceChangeThresholdPct &&
			volumeRatio >= settings.VolumeRatioThreshold,
	}
}
