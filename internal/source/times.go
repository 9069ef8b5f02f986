package source

import "time"

// upstream timestamp shapes seen across the three APIs
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102", // yt-dlp upload_date
}

// ParseTime parses an upstream timestamp, returning nil for empty or
// unrecognized input so the caller's fallback chain decides what to do.
func ParseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
