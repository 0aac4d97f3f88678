package http

import (
	suggestionUC "github.com/khoahotran/career-compass/internal/application/usecase/suggestion"
	"github.com/khoahotran/career-compass/internal/domain/suggestion"
)

type CareersRequest struct {
	ExternalProfileID string `json:"external_profile_id" binding:"required"`
}

type SkillsRequest struct {
	ExternalProfileID string `json:"external_profile_id" binding:"required"`
	ChosenCareer      string `json:"chosen_career" binding:"required"`
}

type RoadmapRequest struct {
	ExternalProfileID string `json:"external_profile_id" binding:"required"`
	ChosenCareer      string `json:"chosen_career"`
}

type AsyncRequest struct {
	Stage             string `json:"stage" binding:"required"`
	ExternalProfileID string `json:"external_profile_id" binding:"required"`
	ChosenCareer      string `json:"chosen_career"`
}

type SuggestionsResponse struct {
	Suggestions []suggestion.CareerSuggestion `json:"suggestions"`
}

type SkillsResponse struct {
	SkillsDescriptions []suggestion.SkillDetail `json:"skills_descriptions"`
}

type RoadmapResponse struct {
	ChosenCareer string                    `json:"chosen_career"`
	Roadmap      []suggestion.RoadmapPhase `json:"roadmap"`
}

type AcceptedResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

func ToSuggestionsResponse(list []suggestion.CareerSuggestion) SuggestionsResponse {
	if list == nil {
		list = []suggestion.CareerSuggestion{}
	}
	return SuggestionsResponse{Suggestions: list}
}

func ToSkillsResponse(res *suggestionUC.Result) SkillsResponse {
	return SkillsResponse{SkillsDescriptions: res.Skills}
}

func ToRoadmapResponse(res *suggestionUC.Result) RoadmapResponse {
	return RoadmapResponse{ChosenCareer: res.Career, Roadmap: res.Roadmap}
}
