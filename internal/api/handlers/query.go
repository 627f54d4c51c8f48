package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/rollup"
)

// Default limits when a query does not pass one.
const (
	DefaultBreakdownLimit = 20
	DefaultListLimit      = 50
)

// parseQuery reads days, limit, grouping, sortBy and type. Malformed or
// non-positive numbers fall back to the defaults.
func parseQuery(c *gin.Context, defaultLimit int) domain.ReportQuery {
	q := domain.ReportQuery{
		Days:     rollup.DefaultDays,
		Limit:    defaultLimit,
		Grouping: domain.GroupingDaily,
	}

	if days, err := strconv.Atoi(c.Query("days")); err == nil && days > 0 {
		q.Days = days
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		q.Limit = limit
	}
	if grouping := strings.ToLower(strings.TrimSpace(c.Query("grouping"))); grouping == domain.GroupingWeekly {
		q.Grouping = domain.GroupingWeekly
	}

	// sortBy names the breakdown dimension; dimension is accepted as an alias
	sortBy := strings.TrimSpace(c.Query("sortBy"))
	if sortBy == "" {
		sortBy = strings.TrimSpace(c.Query("dimension"))
	}
	q.SortBy = strings.ToLower(sortBy)
	q.Type = strings.TrimSpace(c.Query("type"))

	return q
}
