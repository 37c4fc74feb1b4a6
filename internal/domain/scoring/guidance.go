package scoring

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ckdreview/ckdreview/internal/domain/reference"
)

//go:embed guidance.yaml
var defaultGuidanceYAML []byte

// Guidance holds the eGFR-banded prescribing recommendations and the
// stage-grouped lifestyle advice.
type Guidance struct {
	Recommended []RecommendationBand `yaml:"recommended_medications"`
	Lifestyle   []LifestyleBand      `yaml:"lifestyle_advice"`
}

// RecommendationBand applies to eGFR values below Below; a nil Below is the
// catch-all band.
type RecommendationBand struct {
	Below       *float64 `yaml:"below"`
	Medications []string `yaml:"medications"`

	examples [][]*regexp.Regexp
}

// LifestyleBand applies to the listed stages; an empty list is the default.
type LifestyleBand struct {
	Stages []string `yaml:"stages"`
	Advice string   `yaml:"advice"`
}

var exampleSplit = regexp.MustCompile(`[(),]`)

// ParseGuidance decodes guidance YAML and compiles the medication matchers.
func ParseGuidance(r io.Reader) (*Guidance, error) {
	var g Guidance
	if err := yaml.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode guidance: %w", err)
	}
	for i := range g.Recommended {
		band := &g.Recommended[i]
		band.examples = make([][]*regexp.Regexp, len(band.Medications))
		for j, med := range band.Medications {
			for _, ex := range exampleSplit.Split(med, -1) {
				if ex = strings.TrimSpace(ex); ex != "" {
					band.examples[j] = append(band.examples[j], reference.WholeWord(ex))
				}
			}
		}
	}
	return &g, nil
}

// LoadGuidance reads guidance from a YAML file.
func LoadGuidance(path string) (*Guidance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open guidance %s: %w", path, err)
	}
	defer f.Close()
	return ParseGuidance(f)
}

// DefaultGuidance returns the built-in guidance.
func DefaultGuidance() (*Guidance, error) {
	return ParseGuidance(bytes.NewReader(defaultGuidanceYAML))
}

// RecommendedMedications lists the recommendations for the patient's eGFR
// band that are not already covered by the medication text. A
// recommendation is covered when any of its example names appears as a
// whole word.
func (g *Guidance) RecommendedMedications(egfr *float64, medications string) []string {
	if egfr == nil {
		return nil
	}
	for _, band := range g.Recommended {
		if band.Below != nil && *egfr >= *band.Below {
			continue
		}
		var out []string
		for j, med := range band.Medications {
			var patterns []*regexp.Regexp
			if j < len(band.examples) {
				patterns = band.examples[j]
			}
			if !anyMatch(patterns, medications) {
				out = append(out, med)
			}
		}
		return out
	}
	return nil
}

// LifestyleAdvice returns the advice text for a stage.
func (g *Guidance) LifestyleAdvice(stage Stage) string {
	fallback := ""
	for _, band := range g.Lifestyle {
		if len(band.Stages) == 0 {
			fallback = band.Advice
			continue
		}
		for _, s := range band.Stages {
			if Stage(s) == stage {
				return band.Advice
			}
		}
	}
	return fallback
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
