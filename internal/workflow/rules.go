package workflow

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// RulesConfig is the YAML shape of a review rules file:
//
//	review:
//	  default: reject
//	  max_rounds: 2
//	  patents:
//	    US1234: accept
//	  firms:
//	    F9: defer
type RulesConfig struct {
	Default   string            `yaml:"default"`
	MaxRounds int               `yaml:"max_rounds"`
	Patents   map[string]string `yaml:"patents"`
	Firms     map[string]string `yaml:"firms"`
}

// RulesReviewer decides escalated applications from a fixed rule set. A
// patent rule wins over a firm rule, which wins over the default. Once an
// application has been reviewed MaxRounds times it is deferred, so a rule
// that always rejects cannot keep a pass cycling.
type RulesReviewer struct {
	def       Verdict
	maxRounds int
	patents   map[string]Verdict
	firms     map[string]Verdict
	rounds    map[string]int
}

// LoadRules reads a rules file. The YAML has a top-level "review" key.
func LoadRules(path string) (*RulesReviewer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "workflow: read rules %s", path)
	}

	var wrapper struct {
		Review RulesConfig `yaml:"review"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "workflow: parse rules")
	}
	return NewRulesReviewer(wrapper.Review)
}

// NewRulesReviewer validates cfg. An empty default rejects; a non-positive
// MaxRounds means 1.
func NewRulesReviewer(cfg RulesConfig) (*RulesReviewer, error) {
	r := &RulesReviewer{
		def:       VerdictReject,
		maxRounds: cfg.MaxRounds,
		patents:   make(map[string]Verdict, len(cfg.Patents)),
		firms:     make(map[string]Verdict, len(cfg.Firms)),
		rounds:    make(map[string]int),
	}
	if r.maxRounds <= 0 {
		r.maxRounds = 1
	}
	if cfg.Default != "" {
		v, err := ParseVerdict(cfg.Default)
		if err != nil {
			return nil, eris.Wrap(err, "workflow: rules default")
		}
		r.def = v
	}
	for id, s := range cfg.Patents {
		v, err := ParseVerdict(s)
		if err != nil {
			return nil, eris.Wrapf(err, "workflow: rule for patent %s", id)
		}
		r.patents[id] = v
	}
	for id, s := range cfg.Firms {
		v, err := ParseVerdict(s)
		if err != nil {
			return nil, eris.Wrapf(err, "workflow: rule for firm %s", id)
		}
		r.firms[id] = v
	}
	return r, nil
}

// ReviseVerdict implements Reviewer.
func (r *RulesReviewer) ReviseVerdict(_ context.Context, req ReviewRequest) (Verdict, error) {
	key := req.Patent.FirmID + "/" + req.Patent.PatentID
	if r.rounds[key] >= r.maxRounds {
		return VerdictDefer, nil
	}
	r.rounds[key]++

	if v, ok := r.patents[req.Patent.PatentID]; ok {
		return v, nil
	}
	if v, ok := r.firms[req.Patent.FirmID]; ok {
		return v, nil
	}
	return r.def, nil
}
