package store

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CursorPage struct {
	Items      interface{} `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// SaleCursor points at the last sale of a page; the next page starts
// strictly after it in (created_at DESC, id DESC) order.
type SaleCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

// cursorHorizon sorts after every real sale so an empty cursor starts at the
// newest row even when the database clock runs ahead of ours.
var cursorHorizon = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

func EncodeCursor(cursor SaleCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

func DecodeCursor(encoded string) (SaleCursor, error) {
	var cursor SaleCursor
	if encoded == "" {
		return SaleCursor{
			CreatedAt: cursorHorizon,
			ID:        math.MaxInt64,
		}, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, err
	}

	err = json.Unmarshal(data, &cursor)
	return cursor, err
}

// ClampPageSize maps a requested page size into [1, MaxPageSize], using
// DefaultPageSize for zero or negative input.
func ClampPageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
