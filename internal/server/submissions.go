package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	submissiondomain "github.com/reclaimhq/reclaim/internal/submission/domain"
	"github.com/reclaimhq/reclaim/pkg/db/pagination"
)

type createSubmissionRequest struct {
	CaseID   string         `json:"case_id"`
	UserID   string         `json:"user_id"`
	Provider string         `json:"provider"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) CreateSubmission(c *gin.Context) {
	var req createSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	caseID, err := parseSnowflakeID(req.CaseID)
	if err != nil {
		AbortWithError(c, newValidationError("case_id", "invalid_case_id", "invalid case_id"))
		return
	}
	userID, err := parseSnowflakeID(req.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user_id"))
		return
	}

	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		provider = s.cfg.Partner.Provider
	}

	resp, err := s.submissionSvc.Create(c.Request.Context(), submissiondomain.CreateSubmissionRequest{
		CaseID:   caseID,
		UserID:   userID,
		Provider: provider,
		Metadata: req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSubmissionByID(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	resp, err := s.submissionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSubmissions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CaseID   string `form:"case_id"`
		UserID   string `form:"user_id"`
		Provider string `form:"provider"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	caseID, err := parseOptionalSnowflakeID(query.CaseID)
	if err != nil {
		AbortWithError(c, newValidationError("case_id", "invalid_case_id", "invalid case_id"))
		return
	}
	userID, err := parseOptionalSnowflakeID(query.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user_id"))
		return
	}

	req := submissiondomain.ListSubmissionsRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Provider: strings.TrimSpace(query.Provider),
		Status:   strings.TrimSpace(query.Status),
	}
	if caseID != nil {
		req.CaseID = *caseID
	}
	if userID != nil {
		req.UserID = *userID
	}

	resp, err := s.submissionSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Submissions, "page_info": resp.PageInfo})
}

func (s *Server) ResetSubmission(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	resp, err := s.submissionSvc.Reset(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
