package scores

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Facet names used by the newer analysis schema.
const (
	FacetCompleteness = "Completeness"
	FacetEligibility  = "Eligibility & Validity"
	FacetAttachment   = "Attachment Quality"
)

// Documented maxima for the normalized component scores.
const (
	maxCompleteness = 30
	maxValidity     = 30
	maxAttachment   = 40
	maxOverall      = 100
	maxFacet        = 10
)

// ApplicationScore is the normalized per-application score shape shared by
// both analysis schemas and the tabular fast path.
type ApplicationScore struct {
	WAINumber     string `json:"wai_number"`
	ApplicantName string `json:"applicant_name,omitempty"`
	Completeness  int    `json:"completeness"`
	Validity      int    `json:"validity"`
	Attachment    int    `json:"attachment"`
	Overall       int    `json:"overall"`
	Complete      bool   `json:"complete"`
}

// legacyScores is the older analysis shape with pre-scaled component scores.
type legacyScores struct {
	Overall      int `json:"overall"`
	Completeness int `json:"completeness"`
	Validity     int `json:"validity"`
	Attachment   int `json:"attachment"`
}

// facet is one named 0-10 evaluation under the newer schema.
type facet struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ParseAnalysis decodes an analysis artifact into the normalized score
// shape. The artifact carries either a top-level "scores" object (legacy,
// already scaled) or a top-level "facets" list (0-10 each, rescaled here).
func ParseAnalysis(waiNumber string, data []byte) (*ApplicationScore, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("application %s: analysis artifact is not valid JSON", waiNumber)
	}

	score := &ApplicationScore{
		WAINumber:     waiNumber,
		ApplicantName: gjson.GetBytes(data, "applicant_name").String(),
		Complete:      gjson.GetBytes(data, "complete").Bool(),
	}

	switch {
	case gjson.GetBytes(data, "facets").IsArray():
		var facets []facet
		if err := json.Unmarshal([]byte(gjson.GetBytes(data, "facets").Raw), &facets); err != nil {
			return nil, fmt.Errorf("application %s: invalid facets: %w", waiNumber, err)
		}
		if err := normalizeFacets(score, facets); err != nil {
			return nil, err
		}
	case gjson.GetBytes(data, "scores").IsObject():
		var legacy legacyScores
		if err := json.Unmarshal([]byte(gjson.GetBytes(data, "scores").Raw), &legacy); err != nil {
			return nil, fmt.Errorf("application %s: invalid scores: %w", waiNumber, err)
		}
		normalizeLegacy(score, legacy)
	default:
		return nil, fmt.Errorf("application %s: analysis artifact has neither scores nor facets", waiNumber)
	}

	if err := score.validate(); err != nil {
		return nil, err
	}
	return score, nil
}

// normalizeLegacy copies the pre-scaled legacy fields.
func normalizeLegacy(score *ApplicationScore, legacy legacyScores) {
	score.Completeness = legacy.Completeness
	score.Validity = legacy.Validity
	score.Attachment = legacy.Attachment
	score.Overall = legacy.Overall
}

// normalizeFacets rescales 0-10 facet scores into the legacy ranges:
// completeness x3, eligibility/validity x3, attachment quality x4. An
// absent attachment facet falls back to the completeness facet. Overall is
// the sum of the rescaled components.
func normalizeFacets(score *ApplicationScore, facets []facet) error {
	byName := make(map[string]int, len(facets))
	for _, f := range facets {
		if f.Score < 0 || f.Score > maxFacet {
			return fmt.Errorf("application %s: facet %q score %d out of range", score.WAINumber, f.Name, f.Score)
		}
		byName[f.Name] = f.Score
	}

	completeness := byName[FacetCompleteness]
	validity := byName[FacetEligibility]
	attachment, ok := byName[FacetAttachment]
	if !ok {
		attachment = completeness
	}

	score.Completeness = completeness * 3
	score.Validity = validity * 3
	score.Attachment = attachment * 4
	score.Overall = score.Completeness + score.Validity + score.Attachment
	return nil
}

func (s *ApplicationScore) validate() error {
	switch {
	case s.Completeness < 0 || s.Completeness > maxCompleteness:
		return fmt.Errorf("application %s: completeness %d out of range", s.WAINumber, s.Completeness)
	case s.Validity < 0 || s.Validity > maxValidity:
		return fmt.Errorf("application %s: validity %d out of range", s.WAINumber, s.Validity)
	case s.Attachment < 0 || s.Attachment > maxAttachment:
		return fmt.Errorf("application %s: attachment %d out of range", s.WAINumber, s.Attachment)
	case s.Overall < 0 || s.Overall > maxOverall:
		return fmt.Errorf("application %s: overall %d out of range", s.WAINumber, s.Overall)
	}
	return nil
}
