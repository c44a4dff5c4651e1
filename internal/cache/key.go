package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// KeyParams identifies a cacheable query.
type KeyParams struct {
	Operation string `json:"operation"`
	Search    string `json:"search,omitempty"`
	SortKey   string `json:"sort_key,omitempty"`
	SortDesc  bool   `json:"sort_desc,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
}

// normalize lowercases and trims the free-text fields so equivalent queries
// share a key.
func (p KeyParams) normalize() KeyParams {
	p.Operation = strings.ToLower(strings.TrimSpace(p.Operation))
	p.Search = strings.ToLower(strings.TrimSpace(p.Search))
	p.SortKey = strings.TrimSpace(p.SortKey)
	return p
}

// GenerateKey returns the hex SHA-256 of the normalized params.
func GenerateKey(p KeyParams) (string, error) {
	p = p.normalize()
	if p.Operation == "" {
		return "", fmt.Errorf("%w: operation is required", ErrInvalidCacheKey)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal key params: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
