package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	journaldomain "github.com/reclaimhq/reclaim/internal/journal/domain"
	"github.com/reclaimhq/reclaim/pkg/db/pagination"
)

type listJournalQuery struct {
	pagination.Pagination
	TxType   string `form:"tx_type"`
	EntityID string `form:"entity_id"`
	ActorID  string `form:"actor_id"`
	Since    string `form:"since"`
	Until    string `form:"until"`
}

type journalEntryView struct {
	journaldomain.Entry
	Hash string `json:"hash"`
}

func (s *Server) ListJournalEntries(c *gin.Context) {
	var query listJournalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	since, err := parseOptionalTime(query.Since, false)
	if err != nil {
		AbortWithError(c, newValidationError("since", "invalid_since", "invalid since"))
		return
	}

	until, err := parseOptionalTime(query.Until, true)
	if err != nil {
		AbortWithError(c, newValidationError("until", "invalid_until", "invalid until"))
		return
	}

	resp, err := s.journalSvc.Query(c.Request.Context(), journaldomain.QueryRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		TxType:   strings.TrimSpace(query.TxType),
		EntityID: strings.TrimSpace(query.EntityID),
		ActorID:  strings.TrimSpace(query.ActorID),
		Since:    since,
		Until:    until,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]journalEntryView, 0, len(resp.Entries))
	for _, entry := range resp.Entries {
		views = append(views, journalEntryView{
			Entry: entry,
			Hash:  entry.DisplayHash(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": views, "page_info": resp.PageInfo})
}
