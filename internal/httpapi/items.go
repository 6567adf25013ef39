package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/ingest"
)

type ingestRequest struct {
	Hashtags []string `json:"hashtags" binding:"required,min=1,dive,required"`
	MinViews *int64   `json:"minViews"`
	Limit    *int     `json:"limit"`
	City     string   `json:"city"`
}

func (h *Handler) ingestItems(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindingMessage(err))
		return
	}

	minViews := int64(ingest.DefaultMinViews)
	if req.MinViews != nil {
		if *req.MinViews < 0 {
			h.badRequest(c, "minViews must be greater than or equal to 0")
			return
		}
		minViews = *req.MinViews
	}

	limit := ingest.DefaultLimit
	if req.Limit != nil {
		if *req.Limit < 1 || *req.Limit > ingest.MaxLimit {
			h.badRequest(c, "limit must be between 1 and "+strconv.Itoa(ingest.MaxLimit))
			return
		}
		limit = *req.Limit
	}

	result, err := h.ingest.Ingest(c.Request.Context(), ingest.Request{
		Hashtags: req.Hashtags,
		MinViews: minViews,
		Limit:    limit,
		City:     req.City,
	})
	if err != nil {
		h.fail(c, "Ingestion", err)
		return
	}

	items := result.Items
	if items == nil {
		items = []domain.Item{}
	}
	c.JSON(http.StatusCreated, gin.H{
		"ingestedCount": len(items),
		"items":         items,
	})
}

func (h *Handler) searchItems(c *gin.Context) {
	minViews, ok := queryInt(c, "minViews", ingest.DefaultMinViews)
	if !ok {
		h.badRequest(c, "minViews must be a non-negative integer")
		return
	}
	limit, ok := queryInt(c, "limit", ingest.DefaultLimit)
	if !ok || limit < 1 {
		h.badRequest(c, "limit must be a positive integer")
		return
	}

	items, err := h.ingest.Search(c.Request.Context(), ingest.SearchRequest{
		Hashtags:    splitList(c.Query("hashtags")),
		MinViews:    minViews,
		Limit:       int(min(limit, ingest.MaxLimit)),
		Groups:      splitList(c.Query("groups")),
		Experiences: splitList(c.Query("experiences")),
	})
	if err != nil {
		h.fail(c, "Search", err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}

	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

func (h *Handler) listImages(c *gin.Context) {
	hashtags := splitList(c.Query("hashtags"))
	if len(hashtags) == 0 {
		h.badRequest(c, "Provide ?hashtags=coffeedallas,placesindallas")
		return
	}
	limit, ok := queryInt(c, "limit", ingest.DefaultImagesLimit)
	if !ok || limit < 1 {
		h.badRequest(c, "limit must be a positive integer")
		return
	}

	images, err := h.ingest.Images(c.Request.Context(), hashtags, int(min(limit, ingest.MaxImagesLimit)))
	if err != nil {
		h.fail(c, "Images fetch", err)
		return
	}
	if images == nil {
		images = []domain.ImagePost{}
	}

	c.JSON(http.StatusOK, gin.H{"count": len(images), "images": images})
}

func (h *Handler) getItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, errorBody{Error: "Not found"})
		return
	}

	it, err := h.ingest.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Lookup", err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// queryInt parses a non-negative integer query parameter, or returns def when absent.
func queryInt(c *gin.Context, key string, def int64) (int64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
