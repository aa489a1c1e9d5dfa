package handler

import (
	"net/http"
	"sort"

	"github.com/bugboard/api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type StatsHandler struct {
	service *service.BugService
}

func NewStatsHandler(svc *service.BugService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Categories returns the per-flair bug counts as parallel label/count arrays
// for chart rendering, plus the raw mapping.
func (h *StatsHandler) Categories(c *gin.Context) {
	counts, err := h.service.CategoryCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	labels := lo.Keys(counts)
	sort.Strings(labels)

	values := lo.Map(labels, func(label string, _ int) int64 {
		return counts[label]
	})

	c.JSON(http.StatusOK, gin.H{
		"data":   counts,
		"labels": labels,
		"counts": values,
		"total":  lo.Sum(values),
	})
}
