package suggestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Stage is one phase of the suggestion pipeline.
type Stage string

const (
	StageCareers Stage = "careers"
	StageSkills  Stage = "skills"
	StageRoadmap Stage = "roadmap"
)

func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageCareers, StageSkills, StageRoadmap:
		return Stage(s), nil
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

type CareerSuggestion struct {
	CareerName        string `json:"career_name"`
	CareerDescription string `json:"career_description"`
}

type SkillDetail struct {
	SkillName   string `json:"skill_name"`
	Description string `json:"description"`
}

type Milestone struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
}

type RoadmapPhase struct {
	Phase      string      `json:"phase"`
	Milestones []Milestone `json:"milestones"`
}

// Record is one persisted row derived from a normalized model response.
// Career is empty for career suggestions. Records of one run share RunID.
type Record struct {
	RunID    uuid.UUID
	Stage    Stage
	Career   string
	Position int
	Payload  any
}

// RecordWriter persists records one at a time so partial progress can be counted.
type RecordWriter interface {
	WriteRecord(ctx context.Context, profileID int64, rec Record) error
	LatestCareerSuggestions(ctx context.Context, profileID int64) ([]CareerSuggestion, error)
}

