package playout

import "encoding/json"

// PositionNeverPlayed is the position of a channel that has not served any
// asset yet. The advancer maps it to index 0 on the first request.
const PositionNeverPlayed = -1

// HouseAd is one item of a channel's own ad inventory.
// Duration is in seconds, as stored in the channel document.
type HouseAd struct {
	URL      string `json:"url"`
	Duration int    `json:"duration"`
}

// Asset is one playable video item in a channel's playlist.
// Breaks are offsets in seconds from the start of the asset where ad breaks
// are inserted. Assets are immutable from this service's perspective.
type Asset struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Breaks []int  `json:"breaks,omitempty"`
}

// Channel is a virtual linear feed: an ordered playlist plus a cursor.
// Position is always PositionNeverPlayed or a valid index into Assets; the
// advancer never writes a position >= len(Assets). HouseAds, when non-empty,
// are preferred over the configured filler when planning ad breaks.
type Channel struct {
	ChannelID string    `json:"channelId"`
	Position  int       `json:"position"`
	Assets    []Asset   `json:"assets"`
	HouseAds  []HouseAd `json:"houseAdUrls,omitempty"`
}

// UnmarshalJSON defaults an absent position field to PositionNeverPlayed so
// that a freshly provisioned channel document starts at the beginning of its
// playlist instead of index 0's successor.
func (c *Channel) UnmarshalJSON(b []byte) error {
	type alias Channel
	a := alias{Position: PositionNeverPlayed}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = Channel(a)
	return nil
}

// Break is one computed ad insertion: where in the asset timeline it starts,
// how long it runs, and which ad plays. Pos and Duration are milliseconds.
// Breaks are ephemeral; they exist only for the duration of one stitch call.
type Break struct {
	Pos      int64  `json:"pos"`
	Duration int64  `json:"duration"`
	URL      string `json:"url"`
}

// NextVod is the response value for one advancement of a channel.
type NextVod struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	HlsURL string `json:"hlsUrl"`
}
