package graphapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/orgball2608/hashtag-discovery/internal/cache"
	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/instagram"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"github.com/orgball2608/hashtag-discovery/pkg/retry"
)

const (
	name = "graph"

	// recent_media refuses larger pages.
	maxPageSize = 50

	timestampLayout = "2006-01-02T15:04:05-0700"
	mediaFields     = "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp,like_count,comments_count"
)

var ErrNotConfigured = errors.New("graph api access token or user id not configured")

// Client reads hashtag media through the Instagram Graph API.
type Client struct {
	baseURL     string
	accessToken string
	userID      string

	http       *http.Client
	hashtagIDs *cache.TTL[string, string]
	logger     logger.Logger
	retryCfg   retry.Config
}

var _ instagram.Client = (*Client)(nil)

func New(cfg *config.Config, log logger.Logger) *Client {
	timeout := cfg.Instagram.FetchTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.Instagram.GraphBaseURL, "/") + "/" + cfg.Instagram.GraphVersion,
		accessToken: cfg.Instagram.AccessToken,
		userID:      cfg.Instagram.UserID,
		http:        &http.Client{Timeout: timeout},
		hashtagIDs:  cache.NewTTL[string, string](cfg.Instagram.CacheSize, cfg.Instagram.CacheTTL),
		logger:      log.WithComponent("GraphAPI"),
		retryCfg:    retry.DefaultConfig(),
	}
}

func (c *Client) Name() string { return name }

func (c *Client) FetchHashtag(ctx context.Context, tag string, count int) ([]domain.CandidatePost, error) {
	if c.accessToken == "" || c.userID == "" {
		return nil, ErrNotConfigured
	}

	hashtagID, err := c.hashtagID(ctx, tag)
	if err != nil {
		return nil, err
	}

	if count <= 0 || count > maxPageSize {
		count = maxPageSize
	}

	query := url.Values{}
	query.Set("user_id", c.userID)
	query.Set("fields", mediaFields)
	query.Set("limit", strconv.Itoa(count))

	var resp mediaResponse
	if err := c.get(ctx, "/"+hashtagID+"/recent_media", query, &resp); err != nil {
		if staleHashtagID(err) {
			c.hashtagIDs.Delete(tag)
		}
		return nil, fmt.Errorf("recent media for #%s: %w", tag, err)
	}

	posts := make([]domain.CandidatePost, 0, len(resp.Data))
	for _, m := range resp.Data {
		posts = append(posts, m.toCandidate())
	}
	return posts, nil
}

func (c *Client) hashtagID(ctx context.Context, tag string) (string, error) {
	if id, ok := c.hashtagIDs.Get(tag); ok {
		return id, nil
	}

	query := url.Values{}
	query.Set("user_id", c.userID)
	query.Set("q", tag)

	var resp hashtagSearchResponse
	if err := c.get(ctx, "/ig_hashtag_search", query, &resp); err != nil {
		return "", fmt.Errorf("hashtag search for #%s: %w", tag, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].ID == "" {
		return "", fmt.Errorf("#%s: %w", tag, instagram.ErrHashtagNotFound)
	}

	id := resp.Data[0].ID
	c.hashtagIDs.Set(tag, id)
	return id, nil
}

// staleHashtagID reports a recent_media rejection of the cached id itself, so
// the next fetch looks the hashtag up again.
func staleHashtagID(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusBadRequest
}

// get issues a GET against the versioned Graph endpoint and decodes the JSON
// body into out. Server errors and 429 are retried; other 4xx are not.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("access_token", c.accessToken)
	endpoint := c.baseURL + path + "?" + query.Encode()

	return retry.Do(ctx, c.logger, "GraphGet"+path, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return retry.Permanent(err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return err
		}

		if resp.StatusCode >= http.StatusBadRequest {
			statusErr := newStatusError(resp.StatusCode, body)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return statusErr
			}
			return retry.Permanent(statusErr)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return retry.Permanent(fmt.Errorf("decode graph response: %w", err))
		}
		return nil
	}, c.retryCfg)
}

// StatusError is a non-2xx Graph API reply.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graph api status %d: %s", e.StatusCode, e.Message)
}

func newStatusError(status int, body []byte) *StatusError {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := http.StatusText(status)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	return &StatusError{StatusCode: status, Message: msg}
}

type hashtagSearchResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type mediaResponse struct {
	Data []media `json:"data"`
}

type media struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Permalink     string `json:"permalink"`
	Timestamp     string `json:"timestamp"`
	LikeCount     *int64 `json:"like_count"`
	CommentsCount *int64 `json:"comments_count"`
}

func (m media) toCandidate() domain.CandidatePost {
	image := m.MediaURL
	if m.MediaType == "VIDEO" && m.ThumbnailURL != "" {
		image = m.ThumbnailURL
	}

	var ts *time.Time
	if m.Timestamp != "" {
		if t, err := time.Parse(timestampLayout, m.Timestamp); err == nil {
			ts = &t
		} else if t, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
			ts = &t
		}
	}

	return domain.CandidatePost{
		SourceID:  m.ID,
		Caption:   m.Caption,
		LikeCount: m.LikeCount,
		// Graph API does not expose views for hashtag media.
		ViewCount: nil,
		Timestamp: ts,
		ImageURL:  image,
		Permalink: m.Permalink,
		Hashtags:  domain.ParseHashtags(m.Caption),
	}
}
