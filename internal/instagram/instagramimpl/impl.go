package instagramimpl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Davincible/goinsta/v3"
	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/instagram"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"go.uber.org/fx"
)

const name = "goinsta"

var ErrNotLoggedIn = errors.New("instagram session is not logged in")

type Opts struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Logger logger.Logger
}

// IgImpl reads hashtag feeds through the private mobile API.
type IgImpl struct {
	mu       sync.RWMutex
	client   *goinsta.Instagram
	loggedIn bool

	config *config.Config
	logger logger.Logger
}

var _ instagram.Client = (*IgImpl)(nil)

func New(opts Opts) *IgImpl {
	ig := &IgImpl{
		client: goinsta.New(opts.Config.Instagram.User, opts.Config.Instagram.Pass),
		config: opts.Config,
		logger: opts.Logger.WithComponent("Goinsta"),
	}

	opts.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// Login can take a while; fetches fail with ErrNotLoggedIn until it is done.
			go func() {
				if err := ig.Login(); err != nil {
					ig.logger.Error("Instagram login error", "error", err)
				}
			}()
			return nil
		},
	})

	return ig
}

func (ig *IgImpl) Name() string { return name }

func (ig *IgImpl) FetchHashtag(ctx context.Context, tag string, count int) ([]domain.CandidatePost, error) {
	ig.mu.RLock()
	client, loggedIn := ig.client, ig.loggedIn
	ig.mu.RUnlock()
	if !loggedIn {
		return nil, ErrNotLoggedIn
	}

	type result struct {
		posts []domain.CandidatePost
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic in goinsta hashtag feed: %v", r)}
			}
		}()
		posts, err := readHashtag(client, tag, count)
		done <- result{posts: posts, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.posts, res.err
	}
}

func readHashtag(client *goinsta.Instagram, tag string, count int) ([]domain.CandidatePost, error) {
	h := client.NewHashtag(tag)

	var posts []domain.CandidatePost
	for len(posts) < count && h.Next() {
		for _, item := range h.Items {
			if item == nil {
				continue
			}
			posts = append(posts, toCandidate(item))
			if len(posts) >= count {
				break
			}
		}
	}

	if err := h.Error(); err != nil && !errors.Is(err, goinsta.ErrNoMore) {
		if len(posts) == 0 {
			return nil, fmt.Errorf("hashtag feed #%s: %w", tag, err)
		}
	}
	return posts, nil
}

func toCandidate(item *goinsta.Item) domain.CandidatePost {
	id := item.Code
	if id == "" {
		id = strconv.FormatInt(item.Pk, 10)
	}

	var image string
	if len(item.Images.Versions) > 0 {
		image = item.Images.Versions[0].URL
	}

	likes := int64(item.Likes)
	post := domain.CandidatePost{
		SourceID:  id,
		Caption:   item.Caption.Text,
		LikeCount: &likes,
		ImageURL:  image,
		Hashtags:  domain.ParseHashtags(item.Caption.Text),
	}
	if item.Code != "" {
		post.Permalink = "https://www.instagram.com/p/" + item.Code + "/"
	}
	// Only video items carry a play count.
	if item.ViewCount > 0 {
		views := int64(item.ViewCount)
		post.ViewCount = &views
	}
	if item.TakenAt > 0 {
		ts := time.Unix(item.TakenAt, 0).UTC()
		post.Timestamp = &ts
	}
	return post
}
