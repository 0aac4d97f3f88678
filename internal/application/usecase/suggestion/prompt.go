package suggestion

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/khoahotran/career-compass/internal/domain/profile"
	"github.com/khoahotran/career-compass/internal/domain/suggestion"
)

const (
	notProvided = "Not provided"

	// SuggestionCount is how many careers the first stage asks for.
	SuggestionCount = 3
)

// Top-level keys of each response schema. The prompt examples and the
// normalizer both derive from these and from the domain struct tags.
const (
	keySuggestions = "suggestions"
	keySkills      = "skills_descriptions"
	keyRoadmap     = "roadmap"
)

var (
	careersExample = mustExample(keySuggestions, []suggestion.CareerSuggestion{
		{CareerName: "Career title", CareerDescription: "Why this career fits the user, at most 25 words."},
	})
	skillsExample = mustExample(keySkills, []suggestion.SkillDetail{
		{SkillName: "Name of the first required skill", Description: "A detailed paragraph explaining what this skill is and why it matters for the chosen career."},
		{SkillName: "Name of the second required skill", Description: "A detailed paragraph explaining what this skill is and why it matters for the chosen career."},
	})
	roadmapExample = mustExample(keyRoadmap, []suggestion.RoadmapPhase{
		{Phase: "Phase 1: Foundations", Milestones: []suggestion.Milestone{
			{Title: "Milestone title", Description: "The concrete action to take.", Duration: "3 weeks"},
		}},
	})
)

const jsonOnlyInstruction = "Respond with ONLY a valid JSON object with exactly the structure below. " +
	"Do not include any other text, explanations, or markdown formatting such as code fences."

// BuildPrompt renders the prompt for stage. career is ignored by the careers stage.
// It is pure and never fails.
func BuildPrompt(stage suggestion.Stage, p *profile.Profile, career string) string {
	switch stage {
	case suggestion.StageSkills:
		return buildSkillsPrompt(p, career)
	case suggestion.StageRoadmap:
		return buildRoadmapPrompt(p, career)
	default:
		return buildCareersPrompt(p)
	}
}

func buildCareersPrompt(p *profile.Profile) string {
	var sb strings.Builder
	sb.WriteString("You are an expert career counselor AI. ")
	fmt.Fprintf(&sb, "Based on the user profile below, suggest the %d best career paths for this user.\n\n", SuggestionCount)
	writeProfile(&sb, p, "")
	sb.WriteString("\n")
	sb.WriteString(jsonOnlyInstruction)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "The %q array must contain exactly %d objects, each with %q and %q.\n",
		keySuggestions, SuggestionCount, "career_name", "career_description")
	sb.WriteString(careersExample)
	return sb.String()
}

func buildSkillsPrompt(p *profile.Profile, career string) string {
	var sb strings.Builder
	sb.WriteString("You are an expert career counselor AI. ")
	sb.WriteString("The user described below has chosen a career path. ")
	sb.WriteString("List all the essential skills required for this career and provide a detailed, one-paragraph description for each of them.\n\n")
	writeProfile(&sb, p, career)
	sb.WriteString("\n")
	sb.WriteString(jsonOnlyInstruction)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "The %q array must contain at least one object, each with %q and %q.\n",
		keySkills, "skill_name", "description")
	sb.WriteString(skillsExample)
	return sb.String()
}

func buildRoadmapPrompt(p *profile.Profile, career string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI career mentor and curriculum designer. ")
	sb.WriteString("Create a detailed and realistic learning roadmap that takes the user described below to their chosen career.\n\n")
	writeProfile(&sb, p, career)
	sb.WriteString("\n")
	sb.WriteString("The roadmap must have 3 to 5 learning phases. Every phase has a clear title and 2 to 4 milestones. ")
	sb.WriteString("Every milestone has a title, a short description of the action to take, and an estimated duration.\n")
	sb.WriteString(jsonOnlyInstruction)
	sb.WriteString("\n")
	sb.WriteString(roadmapExample)
	return sb.String()
}

func writeProfile(sb *strings.Builder, p *profile.Profile, career string) {
	sb.WriteString("User profile:\n")
	writeField(sb, "Name", p.Name)
	age := ""
	if p.Age != nil {
		age = strconv.Itoa(*p.Age)
	}
	writeField(sb, "Age", age)
	writeField(sb, "Gender", p.Gender)
	writeField(sb, "Education Level", p.EducationLevel)
	writeField(sb, "Skills", p.Skills)
	writeField(sb, "Preferences (Interests/Industries)", p.Preferences)
	if career != "" {
		writeField(sb, "Chosen Career", career)
	}
}

func writeField(sb *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = notProvided
	}
	fmt.Fprintf(sb, "- %s: %s\n", label, value)
}

func mustExample(key string, items any) string {
	b, err := json.MarshalIndent(map[string]any{key: items}, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal %s example: %v", key, err))
	}
	return string(b)
}
