// Package podbbang fetches show and episode metadata from the Podbbang API.
package podbbang

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"casterd/internal/apperr"
	"casterd/internal/models"
	"casterd/internal/source"
)

// pageSize is fixed by the upstream API; the episode listing is fetched page
// by page, sequentially, until totalCount is covered.
const pageSize = 20

const (
	defaultBaseURL = "https://app-api6.podbbang.com"
	siteURL        = "https://www.podbbang.com"
)

type Config struct {
	BaseURL string        // Default: https://app-api6.podbbang.com
	Timeout time.Duration // Default: 15s
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
	}
}

type episodesResponse struct {
	Data    []episodeJSON `json:"data"`
	Summary *struct {
		TotalCount int `json:"totalCount"`
	} `json:"summary"`
}

type episodeJSON struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Media       *struct {
		URL string `json:"url"`
	} `json:"media"`
	Thumbnail *struct {
		URL string `json:"url"`
	} `json:"thumbnail"`
	Image *struct {
		URL string `json:"url"`
	} `json:"image"`
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
	Duration    int    `json:"duration"`
}

type channelResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
	Image       string `json:"image"`
	Thumbnail   *struct {
		URL string `json:"url"`
	} `json:"thumbnail"`
	MC        string `json:"mc"`
	Copyright string `json:"copyright"`
	Contacts  *struct {
		Email string `json:"email"`
	} `json:"contacts"`
}

// FetchChannel returns the show metadata and its complete episode list.
func (c *Client) FetchChannel(ctx context.Context, channelID string) (source.ChannelInfo, []models.Episode, error) {
	first, err := c.fetchEpisodePage(ctx, channelID, 0)
	if err != nil {
		return source.ChannelInfo{}, nil, err
	}

	all := first.Data
	totalCount := 0
	if first.Summary != nil {
		totalCount = first.Summary.TotalCount
	}
	if totalCount > pageSize {
		numPages := (totalCount + pageSize - 1) / pageSize
		for page := 1; page < numPages; page++ {
			pageData, err := c.fetchEpisodePage(ctx, channelID, page)
			if err != nil {
				return source.ChannelInfo{}, nil, err
			}
			if len(pageData.Data) == 0 {
				break
			}
			all = append(all, pageData.Data...)
		}
	}

	var chResp channelResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/channels/%s", c.baseURL, channelID), &chResp); err != nil {
		return source.ChannelInfo{}, nil, err
	}

	info := source.ChannelInfo{
		NativeID:    channelID,
		Title:       chResp.Title,
		Description: firstNonEmpty(chResp.Description, chResp.Summary),
		Summary:     firstNonEmpty(chResp.Summary, chResp.Description),
		URL:         fmt.Sprintf("%s/channels/%s", siteURL, channelID),
		Thumbnail:   chResp.Image,
		Author:      firstNonEmpty(chResp.MC, chResp.Copyright, "Unknown"),
		Copyright:   chResp.Copyright,
		OwnerName:   firstNonEmpty(chResp.MC, chResp.Copyright, "Unknown"),
	}
	if info.Title == "" {
		info.Title = "Podbbang Channel"
	}
	if info.Thumbnail == "" && chResp.Thumbnail != nil {
		info.Thumbnail = chResp.Thumbnail.URL
	}
	if chResp.Contacts != nil {
		info.OwnerEmail = chResp.Contacts.Email
	}

	episodes := make([]models.Episode, 0, len(all))
	for _, ep := range all {
		if ep.ID == 0 {
			return source.ChannelInfo{}, nil, &apperr.SourceFetchError{
				Source: "podbbang",
				Err:    fmt.Errorf("episode id missing for channel %s", channelID),
			}
		}
		episodes = append(episodes, mapEpisode(channelID, ep))
	}
	return info, episodes, nil
}

// FetchEpisodes returns only the complete episode list, for refresh cycles
// that replace the stored list wholesale.
func (c *Client) FetchEpisodes(ctx context.Context, channelID string) ([]models.Episode, error) {
	_, episodes, err := c.FetchChannel(ctx, channelID)
	return episodes, err
}

// fetchEpisodePage fetches one page. The upstream offset parameter takes the
// page index, not an item offset.
func (c *Client) fetchEpisodePage(ctx context.Context, channelID string, page int) (*episodesResponse, error) {
	url := fmt.Sprintf("%s/channels/%s/episodes?offset=%d&limit=%d&sort=desc&episode_id=0&focus_center=0&with=image",
		c.baseURL, channelID, page, pageSize)
	var resp episodesResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &apperr.SourceFetchError{Source: "podbbang", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.SourceFetchError{Source: "podbbang", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &apperr.SourceFetchError{
			Source: "podbbang",
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status for %s", url),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperr.SourceFetchError{Source: "podbbang", Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func mapEpisode(channelID string, ep episodeJSON) models.Episode {
	e := models.Episode{
		ID:          strconv.FormatInt(ep.ID, 10),
		Title:       ep.Title,
		Description: ep.Description,
		URL:         fmt.Sprintf("%s/channels/%s/episodes/%d", siteURL, channelID, ep.ID),
		PublishedAt: source.ParseTime(firstNonEmpty(ep.PublishedAt, ep.CreatedAt)),
		Duration:    ep.Duration,
	}
	if e.Title == "" {
		e.Title = "Untitled Episode"
	}
	if ep.Media != nil {
		e.AudioPath = ep.Media.URL
	}
	if ep.Thumbnail != nil {
		e.Thumbnail = ep.Thumbnail.URL
	} else if ep.Image != nil {
		e.Thumbnail = ep.Image.URL
	}
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
