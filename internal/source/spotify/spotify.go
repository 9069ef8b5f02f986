// Package spotify fetches show and episode metadata from the Spotify Web
// API using the client-credentials flow.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"casterd/internal/apperr"
	"casterd/internal/models"
	"casterd/internal/source"
)

// pageSize is the episode pagination window. Pages are fetched sequentially
// with a 100ms pause in between to stay under upstream throttling.
const (
	pageSize  = 50
	pagePause = 100 * time.Millisecond
)

const (
	defaultAPIURL      = "https://api.spotify.com"
	defaultAccountsURL = "https://accounts.spotify.com"
)

var showIDPattern = regexp.MustCompile(`show/([a-zA-Z0-9]+)`)

type Config struct {
	ClientID     string
	ClientSecret string
	APIURL       string        // Default: https://api.spotify.com
	AccountsURL  string        // Default: https://accounts.spotify.com
	Timeout      time.Duration // Default: 15s
}

type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	apiURL       string
	accountsURL  string
	pager        *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = defaultAccountsURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		apiURL:       cfg.APIURL,
		accountsURL:  cfg.AccountsURL,
		pager:        rate.NewLimiter(rate.Every(pagePause), 1),
	}
}

// ExtractShowID pulls the show id out of an open.spotify.com show URL.
func ExtractShowID(showURL string) (string, error) {
	m := showIDPattern.FindStringSubmatch(showURL)
	if m == nil {
		return "", &apperr.ValidationError{Field: "showUrl", Reason: "not a Spotify show URL"}
	}
	return m[1], nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type imageJSON struct {
	URL string `json:"url"`
}

type showJSON struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Publisher     string      `json:"publisher"`
	Images        []imageJSON `json:"images"`
	TotalEpisodes int         `json:"total_episodes"`
}

type episodeJSON struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	HTMLDescription string      `json:"html_description"`
	AudioPreviewURL string      `json:"audio_preview_url"`
	DurationMS      int         `json:"duration_ms"`
	ReleaseDate     string      `json:"release_date"`
	Images          []imageJSON `json:"images"`
	ExternalURLs    *struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type episodesPage struct {
	Items []episodeJSON `json:"items"`
}

// FetchShow resolves the show URL and returns its metadata plus the complete
// episode list.
func (c *Client) FetchShow(ctx context.Context, showURL string) (source.ChannelInfo, []models.Episode, error) {
	showID, err := ExtractShowID(showURL)
	if err != nil {
		return source.ChannelInfo{}, nil, err
	}

	token, err := c.token(ctx)
	if err != nil {
		return source.ChannelInfo{}, nil, err
	}

	var show showJSON
	if err := c.getJSON(ctx, token, fmt.Sprintf("%s/v1/shows/%s", c.apiURL, showID), &show); err != nil {
		return source.ChannelInfo{}, nil, err
	}

	info := source.ChannelInfo{
		NativeID:    showID,
		Title:       show.Name,
		Description: show.Description,
		Summary:     show.Description,
		URL:         showURL,
		Author:      show.Publisher,
		Copyright:   show.Publisher,
		OwnerName:   show.Publisher,
	}
	if info.Title == "" {
		info.Title = "Spotify Podcast"
	}
	if info.Author == "" {
		info.Author = "Unknown"
		info.OwnerName = "Unknown"
	}
	if len(show.Images) > 0 {
		info.Thumbnail = show.Images[0].URL
	}

	var all []episodeJSON
	for offset := 0; offset < show.TotalEpisodes; offset += pageSize {
		if err := c.pager.Wait(ctx); err != nil {
			return source.ChannelInfo{}, nil, err
		}
		var page episodesPage
		pageURL := fmt.Sprintf("%s/v1/shows/%s/episodes?limit=%d&offset=%d", c.apiURL, showID, pageSize, offset)
		if err := c.getJSON(ctx, token, pageURL, &page); err != nil {
			return source.ChannelInfo{}, nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		all = append(all, page.Items...)
	}

	episodes := make([]models.Episode, 0, len(all))
	for _, ep := range all {
		episodes = append(episodes, mapEpisode(ep, info.Thumbnail))
	}
	return info, episodes, nil
}

// FetchEpisodes returns only the complete episode list for a show id, for
// refresh cycles that replace the stored list wholesale.
func (c *Client) FetchEpisodes(ctx context.Context, showID string) ([]models.Episode, error) {
	_, episodes, err := c.FetchShow(ctx, "https://open.spotify.com/show/"+showID)
	return episodes, err
}

func (c *Client) token(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &apperr.SourceFetchError{Source: "spotify", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &apperr.SourceFetchError{Source: "spotify", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &apperr.SourceFetchError{
			Source: "spotify",
			Status: resp.StatusCode,
			Err:    fmt.Errorf("token request rejected"),
		}
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", &apperr.SourceFetchError{Source: "spotify", Err: fmt.Errorf("decode token: %w", err)}
	}
	if tok.AccessToken == "" {
		return "", &apperr.SourceFetchError{Source: "spotify", Err: fmt.Errorf("empty access token")}
	}
	return tok.AccessToken, nil
}

func (c *Client) getJSON(ctx context.Context, token, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &apperr.SourceFetchError{Source: "spotify", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.SourceFetchError{Source: "spotify", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &apperr.SourceFetchError{
			Source: "spotify",
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status for %s", rawURL),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperr.SourceFetchError{Source: "spotify", Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func mapEpisode(ep episodeJSON, showThumbnail string) models.Episode {
	e := models.Episode{
		ID:          ep.ID,
		Title:       ep.Name,
		Description: ep.Description,
		URL:         "https://open.spotify.com/episode/" + ep.ID,
		AudioPath:   ep.AudioPreviewURL,
		Thumbnail:   showThumbnail,
		PublishedAt: source.ParseTime(ep.ReleaseDate),
		Duration:    ep.DurationMS / 1000,
	}
	if e.Title == "" {
		e.Title = "Untitled Episode"
	}
	if e.Description == "" {
		e.Description = ep.HTMLDescription
	}
	if ep.ExternalURLs != nil && ep.ExternalURLs.Spotify != "" {
		e.URL = ep.ExternalURLs.Spotify
	}
	if len(ep.Images) > 0 {
		e.Thumbnail = ep.Images[0].URL
	}
	return e
}
