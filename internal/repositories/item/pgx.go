package item

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/repositories"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"github.com/orgball2608/hashtag-discovery/pkg/retry"
)

var itemColumns = []string{
	"id", "source_post_id", "source", "caption", "likes", "views", `"timestamp"`,
	"place_name", "address", "atmosphere", "loudness", "lighting", "recurring_entertainment",
	"price_range", "review_summary", "yelp_stars", `"groups"`, "experiences",
	"created_at", "updated_at",
}

// Columns overwritten when the same source post is ingested again.
var overwriteColumns = []string{
	"source", "caption", "likes", "views", `"timestamp"`,
	"place_name", "address", "atmosphere", "loudness", "lighting", "recurring_entertainment",
	"price_range", "review_summary", "yelp_stars", `"groups"`, "experiences",
}

type Pgx struct {
	pg       *pgxpool.Pool
	logger   logger.Logger
	retryCfg retry.Config
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:       pg,
		logger:   logger.WithComponent("ItemRepo"),
		retryCfg: retry.DefaultConfig(),
	}
}

var _ Repository = (*Pgx)(nil)

// Upsert re-runs the whole transaction when it loses a deadlock or
// serialization race against a concurrent upsert.
func (p *Pgx) Upsert(ctx context.Context, in UpsertInput) (UpsertResult, error) {
	if strings.TrimSpace(in.Candidate.SourceID) == "" {
		return UpsertResult{}, fmt.Errorf("%w: empty source post id", ErrRejected)
	}

	result, err := retry.DoWithData(ctx, p.logger, "UpsertItem", func() (UpsertResult, error) {
		res, err := p.upsertTx(ctx, in)
		if err != nil && !isConflict(err) {
			return res, retry.Permanent(err)
		}
		return res, err
	}, p.retryCfg)
	if err != nil {
		return UpsertResult{}, classify(err)
	}

	p.logger.Debug("Upserted item", "id", result.Item.ID, "source_post_id", result.Item.SourcePostID, "created", result.Created)
	return result, nil
}

func (p *Pgx) upsertTx(ctx context.Context, in UpsertInput) (UpsertResult, error) {
	var result UpsertResult
	err := pgx.BeginFunc(ctx, p.pg, func(tx pgx.Tx) error {
		id, created, err := upsertRow(ctx, tx, in)
		if err != nil {
			return err
		}

		if url, provider := mediaFor(in); url != "" {
			if err := attachMedia(ctx, tx, id, url, provider); err != nil {
				return err
			}
		}

		for _, tag := range hashtagsFor(in.Candidate) {
			if err := attachHashtag(ctx, tx, id, tag); err != nil {
				return err
			}
		}

		items, err := load(ctx, tx, sq.Eq{"id": id}, 1)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("item %d vanished inside its own transaction", id)
		}

		result = UpsertResult{Item: &items[0], Created: created}
		return nil
	})
	return result, err
}

func (p *Pgx) Query(ctx context.Context, q Query) ([]domain.Item, error) {
	limit := uint64(0)
	if q.Limit > 0 {
		limit = uint64(q.Limit)
	}

	items, err := load(ctx, p.pg, filter(q), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return items, nil
}

func (p *Pgx) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	items, err := load(ctx, p.pg, sq.Eq{"id": id}, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// classify sorts a failed upsert into a per-candidate rejection or a store outage.
// A conflict that outlived its retries is an outage: the candidate itself is fine.
func classify(err error) error {
	if errors.Is(err, ErrRejected) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if pgErr, ok := repositories.PgError(err); ok &&
		!repositories.IsServerUnavailable(pgErr) && !repositories.IsTransactionConflict(pgErr) {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func isConflict(err error) bool {
	pgErr, ok := repositories.PgError(err)
	return ok && repositories.IsTransactionConflict(pgErr)
}

// hashtagsFor returns the candidate's tags in sorted order. Concurrent upserts
// sharing tags then lock hashtag rows in the same order and cannot deadlock.
func hashtagsFor(c domain.CandidatePost) []string {
	tags := domain.NormalizeHashtags(c.Hashtags)
	slices.Sort(tags)
	return tags
}

// mediaFor picks the candidate's own image, else the image suggested by enrichment.
func mediaFor(in UpsertInput) (string, string) {
	if url := strings.TrimSpace(in.Candidate.ImageURL); url != "" {
		return url, domain.MediaProviderInstagram
	}
	if in.Enrichment.ImageURL != nil {
		if url := strings.TrimSpace(*in.Enrichment.ImageURL); url != "" {
			return url, domain.MediaProviderAISuggested
		}
	}
	return "", ""
}

func upsertRow(ctx context.Context, q repositories.Querier, in UpsertInput) (int64, bool, error) {
	query, args, err := upsertQuery(in)
	if err != nil {
		return 0, false, repositories.ErrBadQuery
	}

	var (
		id      int64
		created bool
	)
	if err := q.QueryRow(ctx, query, args...).Scan(&id, &created); err != nil {
		return 0, false, err
	}
	return id, created, nil
}

func upsertQuery(in UpsertInput) (string, []any, error) {
	c, e := in.Candidate, in.Enrichment

	set := make([]string, 0, len(overwriteColumns)+1)
	for _, col := range overwriteColumns {
		set = append(set, col+" = EXCLUDED."+col)
	}
	set = append(set, "updated_at = now()")

	return repositories.SqBuilder.
		Insert("items").
		Columns(overwriteColumnsWithKey()...).
		Values(
			c.SourceID, domain.SourceInstagram, c.Caption, c.LikeCount, c.ViewCount, c.Timestamp,
			e.PlaceName, e.Address, e.Atmosphere, e.Loudness, e.Lighting, e.RecurringEntertainment,
			e.PriceRange, e.ReviewSummary, e.YelpStars, nonNil(e.Groups), nonNil(e.Experiences),
		).
		Suffix("ON CONFLICT (source_post_id) DO UPDATE SET " + strings.Join(set, ", ") + " RETURNING id, (xmax = 0)").
		ToSql()
}

func overwriteColumnsWithKey() []string {
	return append([]string{"source_post_id"}, overwriteColumns...)
}

func attachMedia(ctx context.Context, q repositories.Querier, itemID int64, url, provider string) error {
	query, args, err := repositories.SqBuilder.
		Insert("media").
		Columns("item_id", "url", "provider").
		Values(itemID, url, provider).
		Suffix("ON CONFLICT (item_id, url) DO NOTHING").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}
	_, err = q.Exec(ctx, query, args...)
	return err
}

func attachHashtag(ctx context.Context, q repositories.Querier, itemID int64, tag string) error {
	query, args, err := repositories.SqBuilder.
		Insert("hashtags").
		Columns("tag").
		Values(tag).
		Suffix("ON CONFLICT (tag) DO UPDATE SET tag = EXCLUDED.tag RETURNING id").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	var hashtagID int64
	if err := q.QueryRow(ctx, query, args...).Scan(&hashtagID); err != nil {
		return err
	}

	query, args, err = repositories.SqBuilder.
		Insert("item_hashtags").
		Columns("item_id", "hashtag_id").
		Values(itemID, hashtagID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}
	_, err = q.Exec(ctx, query, args...)
	return err
}

// filter ANDs an array-overlap condition per non-empty facet.
func filter(q Query) sq.Sqlizer {
	and := sq.And{}
	if groups := nonEmpty(q.Groups); len(groups) > 0 {
		and = append(and, sq.Expr(`"groups" && ?`, groups))
	}
	if experiences := nonEmpty(q.Experiences); len(experiences) > 0 {
		and = append(and, sq.Expr("experiences && ?", experiences))
	}
	return and
}

func selectQuery(where sq.Sqlizer, limit uint64) (string, []any, error) {
	b := repositories.SqBuilder.
		Select(itemColumns...).
		From("items").
		Where(where).
		OrderBy("updated_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(limit)
	}
	return b.ToSql()
}

// load selects items and hydrates their media and hashtags.
func load(ctx context.Context, q repositories.Querier, where sq.Sqlizer, limit uint64) ([]domain.Item, error) {
	query, args, err := selectQuery(where, limit)
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(
			&it.ID, &it.SourcePostID, &it.Source, &it.Caption, &it.Likes, &it.Views, &it.Timestamp,
			&it.PlaceName, &it.Address, &it.Atmosphere, &it.Loudness, &it.Lighting, &it.RecurringEntertainment,
			&it.PriceRange, &it.ReviewSummary, &it.YelpStars, &it.Groups, &it.Experiences,
			&it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		it.Groups = nonNil(it.Groups)
		it.Experiences = nonNil(it.Experiences)
		it.Media = []domain.Media{}
		it.Hashtags = []domain.Hashtag{}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}

	if err := loadMedia(ctx, q, ids, items, index); err != nil {
		return nil, err
	}
	if err := loadHashtags(ctx, q, ids, items, index); err != nil {
		return nil, err
	}
	return items, nil
}

func loadMedia(ctx context.Context, q repositories.Querier, ids []int64, items []domain.Item, index map[int64]int) error {
	query, args, err := repositories.SqBuilder.
		Select("id", "item_id", "url", "provider", "created_at").
		From("media").
		Where(sq.Expr("item_id = ANY(?)", ids)).
		OrderBy("id").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Media
		if err := rows.Scan(&m.ID, &m.ItemID, &m.URL, &m.Provider, &m.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[m.ItemID]; ok {
			items[i].Media = append(items[i].Media, m)
		}
	}
	return rows.Err()
}

func loadHashtags(ctx context.Context, q repositories.Querier, ids []int64, items []domain.Item, index map[int64]int) error {
	query, args, err := repositories.SqBuilder.
		Select("ih.item_id", "h.id", "h.tag").
		From("item_hashtags ih").
		Join("hashtags h ON h.id = ih.hashtag_id").
		Where(sq.Expr("ih.item_id = ANY(?)", ids)).
		OrderBy("h.tag").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID int64
			h      domain.Hashtag
		)
		if err := rows.Scan(&itemID, &h.ID, &h.Tag); err != nil {
			return err
		}
		if i, ok := index[itemID]; ok {
			items[i].Hashtags = append(items[i].Hashtags, h)
		}
	}
	return rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
