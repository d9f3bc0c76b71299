// Package persistence contains helpers shared by repository implementations.
package persistence

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/densign01/baby-tracker/internal/domain"
)

// EncodeCursor serialises the cursor to an opaque page token.
func EncodeCursor(c *domain.Cursor) string {
	if c == nil {
		return ""
	}
	raw := fmt.Sprintf("%s|%s", c.OccurredAt.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a page token. An empty token means the first page.
func DecodeCursor(token string) (*domain.Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", domain.ErrValidation)
	}
	occurredAt, id, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid cursor format: %w", domain.ErrValidation)
	}
	ts, err := time.Parse(time.RFC3339Nano, occurredAt)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", domain.ErrValidation)
	}
	return &domain.Cursor{OccurredAt: ts, ID: id}, nil
}
