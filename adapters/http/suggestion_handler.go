package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	suggestionUC "github.com/khoahotran/career-compass/internal/application/usecase/suggestion"
	"github.com/khoahotran/career-compass/internal/domain/suggestion"
	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/logger"
)

type SuggestionRunner interface {
	Run(ctx context.Context, req suggestionUC.Request) (*suggestionUC.Result, error)
}

type SuggestionSubmitter interface {
	Execute(ctx context.Context, req suggestionUC.Request) (uuid.UUID, error)
}

type SuggestionQuery interface {
	LatestSuggestions(ctx context.Context, externalID string) ([]suggestion.CareerSuggestion, error)
}

type SuggestionHandler struct {
	runner    SuggestionRunner
	submitter SuggestionSubmitter
	query     SuggestionQuery
	logger    logger.Logger
}

// NewSuggestionHandler wires the handler. submitter may be nil, in which case
// the async route is not registered.
func NewSuggestionHandler(runner SuggestionRunner, submitter SuggestionSubmitter, query SuggestionQuery, log logger.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		runner:    runner,
		submitter: submitter,
		query:     query,
		logger:    log,
	}
}

func (h *SuggestionHandler) Careers(c *gin.Context) {
	var req CareersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.NewInvalidInput("external_profile_id is required", err))
		return
	}

	res, ok := h.run(c, suggestionUC.Request{Stage: suggestion.StageCareers, ExternalID: req.ExternalProfileID})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ToSuggestionsResponse(res.Suggestions))
}

func (h *SuggestionHandler) Skills(c *gin.Context) {
	var req SkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.NewInvalidInput("external_profile_id and chosen_career are required", err))
		return
	}

	res, ok := h.run(c, suggestionUC.Request{
		Stage:        suggestion.StageSkills,
		ExternalID:   req.ExternalProfileID,
		ChosenCareer: req.ChosenCareer,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ToSkillsResponse(res))
}

func (h *SuggestionHandler) Roadmap(c *gin.Context) {
	var req RoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.NewInvalidInput("external_profile_id is required", err))
		return
	}

	res, ok := h.run(c, suggestionUC.Request{
		Stage:        suggestion.StageRoadmap,
		ExternalID:   req.ExternalProfileID,
		ChosenCareer: req.ChosenCareer,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ToRoadmapResponse(res))
}

func (h *SuggestionHandler) Async(c *gin.Context) {
	var req AsyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.NewInvalidInput("stage and external_profile_id are required", err))
		return
	}
	if err := authorizeProfile(c, req.ExternalProfileID); err != nil {
		_ = c.Error(err)
		return
	}

	id, err := h.submitter.Execute(c.Request.Context(), suggestionUC.Request{
		Stage:        suggestion.Stage(req.Stage),
		ExternalID:   req.ExternalProfileID,
		ChosenCareer: req.ChosenCareer,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, AcceptedResponse{RequestID: id.String(), Status: "queued"})
}

func (h *SuggestionHandler) LatestSuggestions(c *gin.Context) {
	externalID := c.Param("external_id")
	if err := authorizeProfile(c, externalID); err != nil {
		_ = c.Error(err)
		return
	}

	list, err := h.query.LatestSuggestions(c.Request.Context(), externalID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToSuggestionsResponse(list))
}

func (h *SuggestionHandler) AsyncEnabled() bool {
	return h.submitter != nil
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *SuggestionHandler) run(c *gin.Context, req suggestionUC.Request) (*suggestionUC.Result, bool) {
	if err := authorizeProfile(c, req.ExternalID); err != nil {
		_ = c.Error(err)
		return nil, false
	}
	res, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	return res, true
}
