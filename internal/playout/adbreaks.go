package playout

// FillerAd is the process-wide fallback ad used when a channel has no house
// inventory. Duration is in seconds; it comes straight from configuration.
type FillerAd struct {
	URL      string
	Duration int
}

const msPerSecond = 1000

// PlanBreaks expands an asset's break offsets into an ordered insertion
// timeline for the stitcher. All positions and durations in the result are
// milliseconds; break offsets, house-ad durations, and the filler duration
// are all declared in seconds and scaled here, in one place.
//
// When the channel has house ads, every break offset is expanded into one
// descriptor per house ad, placed back-to-back starting at the offset and
// keeping inventory order. Otherwise each break gets a single filler slate.
// The result is ordered break-by-break, ascending by source offset.
func PlanBreaks(asset Asset, houseAds []HouseAd, filler FillerAd) []Break {
	if len(asset.Breaks) == 0 {
		return nil
	}

	if len(houseAds) == 0 {
		breaks := make([]Break, 0, len(asset.Breaks))
		for _, offset := range asset.Breaks {
			breaks = append(breaks, Break{
				Pos:      int64(offset) * msPerSecond,
				Duration: int64(filler.Duration) * msPerSecond,
				URL:      filler.URL,
			})
		}
		return breaks
	}

	breaks := make([]Break, 0, len(asset.Breaks)*len(houseAds))
	for _, offset := range asset.Breaks {
		pos := int64(offset) * msPerSecond
		for _, ad := range houseAds {
			dur := int64(ad.Duration) * msPerSecond
			breaks = append(breaks, Break{Pos: pos, Duration: dur, URL: ad.URL})
			pos += dur
		}
	}
	return breaks
}
