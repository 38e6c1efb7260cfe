package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const liveKeyPrefix = apiKeyPrefix + "live_"

// GenerateAPIKey returns a new random key and the hash it is stored under.
func GenerateAPIKey() (key, keyHash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate API key: %w", err)
	}
	key = liveKeyPrefix + hex.EncodeToString(buf)
	return key, hashAPIKey(key), nil
}

// hashAPIKey creates a SHA256 hash of an API key for storage
func hashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return fmt.Sprintf("%x", hash)
}

// truncateHash returns the first 16 chars of hash followed by "...",
// or hash itself if it is shorter.
func truncateHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}
