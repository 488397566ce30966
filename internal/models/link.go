package models

import (
	"net/url"
	"strings"
	"time"
)

// Link is a tracked product page.
type Link struct {
	ID          int64     `json:"id"                     db:"id"`
	ProductID   *string   `json:"product_id,omitempty"   db:"product_id"`
	URL         string    `json:"url"                    db:"url"`
	Category    string    `json:"category"               db:"category"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name"`
	AddedAt     time.Time `json:"added_at"               db:"added_at"`
}

// ProductIDValue returns the product id or "" when it could not be derived.
func (l *Link) ProductIDValue() string {
	if l.ProductID == nil {
		return ""
	}
	return *l.ProductID
}

// DisplayNameValue returns the display name or "" when unset.
func (l *Link) DisplayNameValue() string {
	if l.DisplayName == nil {
		return ""
	}
	return *l.DisplayName
}

// ValidateLinkURL trims raw and checks that it is an absolute http(s) URL.
func ValidateLinkURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidURL
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return "", ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrInvalidURL
	}
	return trimmed, nil
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
