package playout

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// SeedChannelsFromFile loads a JSON array of channel documents into the store.
// It lets the service run without an external provisioner; documents use the
// same shape as the store (channelId, assets, houseAdUrls, optional position).
// Returns the number of channels loaded.
func SeedChannelsFromFile(ctx context.Context, store ChannelStore, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read channels file: %w", err)
	}

	var channels []Channel
	if err := json.Unmarshal(raw, &channels); err != nil {
		return 0, fmt.Errorf("parse channels file %s: %w", path, err)
	}

	for i := range channels {
		if channels[i].ChannelID == "" {
			return 0, fmt.Errorf("channels file %s: entry %d has no channelId", path, i)
		}
		if err := store.PutChannel(ctx, &channels[i]); err != nil {
			return 0, err
		}
	}
	return len(channels), nil
}
