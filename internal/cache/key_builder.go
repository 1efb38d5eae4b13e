package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"notcringe/internal/reply"
)

// BuildExactCacheKey builds the key for a generation request from:
//   - the defaulted settings (post text plus every style field),
//   - modelID (backend model the ladder came from),
//   - versionID (app version for invalidation).
//
// Anchors are not part of the key: they are derived from PostText.
func BuildExactCacheKey(s reply.Settings, modelID, versionID string) (ExactCacheKey, error) {
	// Settings marshals with a fixed field order, so the encoding is stable.
	body, err := json.Marshal(s)
	if err != nil {
		return ExactCacheKey{}, err
	}

	sum := sha256.Sum256(body)

	return ExactCacheKey{
		VersionID: strings.TrimSpace(versionID),
		ModelID:   strings.TrimSpace(modelID),
		Hash:      hex.EncodeToString(sum[:]),
	}, nil
}
