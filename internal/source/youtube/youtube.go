// Package youtube resolves YouTube URLs to channel and episode metadata by
// shelling out to yt-dlp.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"casterd/internal/apperr"
	"casterd/internal/models"
	"casterd/internal/source"
)

var execCommandContext = exec.CommandContext

// shortsMaxDuration is the cutoff under which an item is treated as a
// short-form clip even when its URL does not say so.
const shortsMaxDuration = 60

// URLType classifies what a YouTube URL points at.
type URLType string

const (
	URLTypeVideo    URLType = "video"
	URLTypePlaylist URLType = "playlist"
	URLTypeChannel  URLType = "channel"
	URLTypeUnknown  URLType = "unknown"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([^&]+)`),
	regexp.MustCompile(`youtu\.be/([^?]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^?]+)`),
}

// DetectURLType classifies a YouTube URL.
func DetectURLType(url string) URLType {
	if strings.Contains(url, "playlist?list=") {
		return URLTypePlaylist
	}
	if strings.Contains(url, "/channel/") || strings.Contains(url, "/@") || strings.Contains(url, "/c/") {
		return URLTypeChannel
	}
	if strings.Contains(url, "watch?v=") || strings.Contains(url, "youtu.be/") {
		return URLTypeVideo
	}
	return URLTypeUnknown
}

// ExtractVideoID pulls the video id out of a watch/share/embed URL.
func ExtractVideoID(url string) (string, error) {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", &apperr.ValidationError{Field: "url", Reason: "not a YouTube video URL"}
}

// WatchURL is the canonical playback URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// Client runs yt-dlp. The zero value uses the binary from PATH.
type Client struct {
	Bin string
}

func NewClient() *Client {
	return &Client{Bin: "yt-dlp"}
}

// ChannelInfo is a playlist's or channel's metadata plus its native id.
type ChannelInfo struct {
	NativeID    string
	Title       string
	Description string
	Thumbnail   string
	Author      string
	Type        URLType
}

// VideoInfo is one video's full metadata from a non-flat dump.
type VideoInfo struct {
	ID          string
	Title       string
	Description string
	Thumbnail   string
	Author      string
	UploadDate  string
	Duration    int
}

// Episode converts the dump into the canonical episode shape. audioPath
// stays empty until the media pipeline attaches a hosted asset.
func (v VideoInfo) Episode() models.Episode {
	ep := models.Episode{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		URL:         WatchURL(v.ID),
		Thumbnail:   v.Thumbnail,
		UploadDate:  source.ParseTime(v.UploadDate),
		Duration:    v.Duration,
	}
	if ep.Title == "" {
		ep.Title = "Untitled Video"
	}
	return ep
}

type flatEntry struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	UploadDate string  `json:"upload_date"`
	Duration   float64 `json:"duration"`
}

type singleDump struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Uploader    string  `json:"uploader"`
	Channel     string  `json:"channel"`
	UploadDate  string  `json:"upload_date"`
	Duration    float64 `json:"duration"`

	// flat-playlist channel probe fields
	ChannelID         string `json:"channel_id"`
	UploaderID        string `json:"uploader_id"`
	PlaylistChannel   string `json:"playlist_channel"`
	PlaylistChannelID string `json:"playlist_channel_id"`
	Thumbnails        []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

// FetchVideos lists a channel's or playlist's videos via a flat-playlist
// dump, newest first. limit > 0 cuts the dump off after that many entries.
// Short-form clips are excluded: a /shorts/ URL or a duration of sixty
// seconds or less drops the item.
func (c *Client) FetchVideos(ctx context.Context, url string, limit int) ([]models.Episode, error) {
	args := []string{url, "--flat-playlist", "--dump-json", "--no-warnings"}
	if limit > 0 {
		args = append(args, fmt.Sprintf("--playlist-end=%d", limit))
	}

	output, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}

	var episodes []models.Episode
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line == "" {
			continue
		}
		var entry flatEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if isShort(entry) {
			continue
		}
		ep := models.Episode{
			ID:         entry.ID,
			Title:      entry.Title,
			URL:        WatchURL(entry.ID),
			UploadDate: source.ParseTime(entry.UploadDate),
			Duration:   int(entry.Duration),
		}
		if ep.Title == "" {
			ep.Title = "Untitled Video"
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

// FetchChannelInfo resolves a playlist or channel URL to its display
// metadata. Playlists get a single-json dump; channels are probed through
// their first entry.
func (c *Client) FetchChannelInfo(ctx context.Context, url string) (ChannelInfo, error) {
	if DetectURLType(url) == URLTypePlaylist {
		output, err := c.run(ctx, []string{url, "--flat-playlist", "--dump-single-json", "--no-warnings"})
		if err != nil {
			return ChannelInfo{}, err
		}
		var dump singleDump
		if err := json.Unmarshal(output, &dump); err != nil {
			return ChannelInfo{}, &apperr.SourceFetchError{Source: "youtube", Err: fmt.Errorf("decode playlist dump: %w", err)}
		}
		info := ChannelInfo{
			NativeID:    dump.ID,
			Title:       dump.Title,
			Description: dump.Description,
			Author:      firstNonEmpty(dump.Channel, dump.Uploader, "Unknown Channel"),
			Type:        URLTypePlaylist,
		}
		if info.Title == "" {
			info.Title = "Unknown Playlist"
		}
		if len(dump.Thumbnails) > 0 {
			info.Thumbnail = dump.Thumbnails[0].URL
		}
		return info, nil
	}

	output, err := c.run(ctx, []string{url, "--flat-playlist", "--dump-json", "--playlist-end=1", "--no-warnings"})
	if err != nil {
		return ChannelInfo{}, err
	}
	firstLine := ""
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) != "" {
			firstLine = line
			break
		}
	}
	if firstLine == "" {
		return ChannelInfo{}, &apperr.SourceFetchError{Source: "youtube", Err: fmt.Errorf("empty channel dump")}
	}
	var dump singleDump
	if err := json.Unmarshal([]byte(firstLine), &dump); err != nil {
		return ChannelInfo{}, &apperr.SourceFetchError{Source: "youtube", Err: fmt.Errorf("decode channel probe: %w", err)}
	}
	info := ChannelInfo{
		NativeID:    firstNonEmpty(dump.PlaylistChannelID, dump.ChannelID, dump.UploaderID),
		Title:       firstNonEmpty(dump.PlaylistChannel, dump.Channel, dump.Uploader, "Unknown Channel"),
		Description: dump.Description,
		Author:      firstNonEmpty(dump.PlaylistChannel, dump.Channel, dump.Uploader),
		Type:        URLTypeChannel,
	}
	if len(dump.Thumbnails) > 0 {
		info.Thumbnail = dump.Thumbnails[0].URL
	}
	if info.NativeID == "" {
		return ChannelInfo{}, &apperr.SourceFetchError{Source: "youtube", Err: fmt.Errorf("channel id missing from probe")}
	}
	return info, nil
}

// FetchVideoInfo dumps one video's full metadata.
func (c *Client) FetchVideoInfo(ctx context.Context, videoID string) (VideoInfo, error) {
	output, err := c.run(ctx, []string{"--dump-json", "--no-playlist", WatchURL(videoID)})
	if err != nil {
		return VideoInfo{}, err
	}
	var dump singleDump
	if err := json.Unmarshal(output, &dump); err != nil {
		return VideoInfo{}, &apperr.SourceFetchError{Source: "youtube", Err: fmt.Errorf("decode video dump: %w", err)}
	}
	return VideoInfo{
		ID:          dump.ID,
		Title:       dump.Title,
		Description: dump.Description,
		Thumbnail:   dump.Thumbnail,
		Author:      firstNonEmpty(dump.Uploader, dump.Channel, "Unknown"),
		UploadDate:  dump.UploadDate,
		Duration:    int(dump.Duration),
	}, nil
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	bin := c.Bin
	if bin == "" {
		bin = "yt-dlp"
	}
	cmd := execCommandContext(ctx, bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &apperr.SourceFetchError{
			Source: "youtube",
			Err:    fmt.Errorf("yt-dlp: %w, output: %s", err, string(output)),
		}
	}
	return output, nil
}

func isShort(entry flatEntry) bool {
	if strings.Contains(entry.URL, "/shorts/") {
		return true
	}
	return entry.Duration > 0 && entry.Duration <= shortsMaxDuration
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
