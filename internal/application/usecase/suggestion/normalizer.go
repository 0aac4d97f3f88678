package suggestion

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/khoahotran/career-compass/internal/domain/suggestion"
	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/llmjson"
)

// Result is the consolidated output of one stage. Exactly one list is set.
type Result struct {
	RunID       uuid.UUID
	Stage       suggestion.Stage
	Career      string
	Suggestions []suggestion.CareerSuggestion
	Skills      []suggestion.SkillDetail
	Roadmap     []suggestion.RoadmapPhase
}

// Count is the number of top-level entries, which is also the number of records persisted.
func (r *Result) Count() int {
	switch r.Stage {
	case suggestion.StageSkills:
		return len(r.Skills)
	case suggestion.StageRoadmap:
		return len(r.Roadmap)
	}
	return len(r.Suggestions)
}

// Records maps the result to storage records, one per entry, in response order.
func (r *Result) Records() []suggestion.Record {
	recs := make([]suggestion.Record, 0, r.Count())
	switch r.Stage {
	case suggestion.StageSkills:
		for i, s := range r.Skills {
			recs = append(recs, suggestion.Record{RunID: r.RunID, Stage: r.Stage, Career: r.Career, Position: i, Payload: s})
		}
	case suggestion.StageRoadmap:
		for i, ph := range r.Roadmap {
			recs = append(recs, suggestion.Record{RunID: r.RunID, Stage: r.Stage, Career: r.Career, Position: i, Payload: ph})
		}
	default:
		for i, s := range r.Suggestions {
			recs = append(recs, suggestion.Record{RunID: r.RunID, Stage: r.Stage, Position: i, Payload: s})
		}
	}
	return recs
}

// Normalize parses raw model text for stage. Any parse or shape problem is
// apperror.ErrMalformedResponse carrying raw for diagnostics. Every schema
// requires at least one entry.
func Normalize(stage suggestion.Stage, raw string) (*Result, error) {
	resp := llmjson.Parse(raw)
	if resp.State != llmjson.Parsed {
		return nil, apperror.NewMalformedResponse("model output is not a JSON object", raw, resp.Err)
	}

	res := &Result{Stage: stage}
	var err error
	switch stage {
	case suggestion.StageCareers:
		res.Suggestions, err = decodeList[suggestion.CareerSuggestion](resp.Object, keySuggestions, "career_name", "career_description")
	case suggestion.StageSkills:
		res.Skills, err = decodeList[suggestion.SkillDetail](resp.Object, keySkills, "skill_name", "description")
	case suggestion.StageRoadmap:
		res.Roadmap, err = decodeRoadmap(resp.Object)
	default:
		err = fmt.Errorf("unknown stage %q", stage)
	}
	if err != nil {
		return nil, apperror.NewMalformedResponse(err.Error(), raw, err)
	}
	return res, nil
}

// decodeList validates obj[key] as a non-empty list of objects whose fields are
// all present JSON strings, then decodes it into T. Blank strings are kept.
func decodeList[T any](obj map[string]json.RawMessage, key string, fields ...string) ([]T, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("missing required key %q", key)
	}
	items, err := checkItems(key, raw, fields)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeRoadmap(obj map[string]json.RawMessage) ([]suggestion.RoadmapPhase, error) {
	raw, ok := obj[keyRoadmap]
	if !ok {
		return nil, fmt.Errorf("missing required key %q", keyRoadmap)
	}
	phases, err := checkItems(keyRoadmap, raw, []string{"phase"})
	if err != nil {
		return nil, err
	}

	out := make([]suggestion.RoadmapPhase, 0, len(phases))
	for i, ph := range phases {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(ph, &fields); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", keyRoadmap, i, err)
		}
		path := fmt.Sprintf("%s[%d].milestones", keyRoadmap, i)
		ms, ok := fields["milestones"]
		if !ok {
			return nil, fmt.Errorf("missing required key %q", path)
		}
		if _, err := checkItems(path, ms, []string{"title", "description", "duration"}); err != nil {
			return nil, err
		}

		var phase suggestion.RoadmapPhase
		if err := json.Unmarshal(ph, &phase); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", keyRoadmap, i, err)
		}
		out = append(out, phase)
	}
	return out, nil
}

func checkItems(path string, raw json.RawMessage, fields []string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, fmt.Errorf("%q must be a list of objects", path)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%q must contain at least one entry", path)
	}

	for i, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("%s[%d] must be an object", path, i)
		}
		for _, f := range fields {
			v, ok := obj[f]
			if !ok {
				return nil, fmt.Errorf("%s[%d] is missing %q", path, i, f)
			}
			var s string
			if !bytes.HasPrefix(bytes.TrimSpace(v), []byte(`"`)) || json.Unmarshal(v, &s) != nil {
				return nil, fmt.Errorf("%s[%d].%s must be a string", path, i, f)
			}
		}
	}
	return items, nil
}
