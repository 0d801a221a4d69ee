package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pos-recipe-engine/src/config"
	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

// respondError maps a service error onto a status code and body.
func respondError(c *gin.Context, err error) {
	var (
		verr     *models.ValidationError
		stockErr *models.InsufficientStockError
		matErr   *models.InsufficientMaterialsError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, models.ErrTenantRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &matErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     matErr.Error(),
			"recipe_id": matErr.RecipeID,
			"quantity":  matErr.Quantity,
			"shortages": matErr.Shortages,
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       stockErr.Error(),
			"material_id": stockErr.MaterialID,
			"available":   stockErr.Available,
			"requested":   stockErr.Requested,
		})
	case errors.Is(err, models.ErrDeletionBlocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	default:
		config.LogError(config.GetLogger(), "handlers", c.HandlerName(), c.Request.Method+" "+c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	page, limit, _ = repositories.Paging(page, limit)
	return page, limit
}

func pageMeta(page, limit int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": int(math.Ceil(float64(total) / float64(limit))),
	}
}

// dateRange reads from_date/to_date as YYYY-MM-DD or RFC3339. A bare to_date
// covers the whole day.
func dateRange(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	if s := c.Query("from_date"); s != "" {
		if from, err = parseDate(s, false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from_date format. Use YYYY-MM-DD or RFC3339"})
			return from, to, false
		}
	}
	if s := c.Query("to_date"); s != "" {
		if to, err = parseDate(s, true); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to_date format. Use YYYY-MM-DD or RFC3339"})
			return from, to, false
		}
	}
	return from, to, true
}

func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return t, err
	}
	if endOfDay {
		t = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	}
	return t, nil
}
