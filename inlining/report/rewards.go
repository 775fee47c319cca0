package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/inlining-analysis/inlining-analysis/inlining"
)

// InlineReward is a node's learned inline reward: its own contribution and
// the value of its inline branch once its subtree is propagated.
type InlineReward struct {
	Immediate float64  `yaml:"immediate"`
	LongTerm  *float64 `yaml:"long_term"`
}

// RewardEntry is one node of the reward report.
type RewardEntry struct {
	Path           inlining.PathKey `yaml:"path"`
	InlineReward   *InlineReward    `yaml:"inline_reward"`
	NoInlineReward *float64         `yaml:"no_inline_reward"`
}

// RewardReport lists every node's learned rewards ordered by id.
func (m *Model) RewardReport() ([]RewardEntry, error) {
	prop, err := m.OptimalDecision()
	if err != nil {
		return nil, err
	}
	rewards := m.NodeRewards()
	entries := make([]RewardEntry, len(rewards))
	for id, r := range rewards {
		path, ok := m.Problem.Registry.Path(id)
		if !ok {
			return nil, fmt.Errorf("node %d: %w", id, inlining.ErrIntegrity)
		}
		entries[id] = RewardEntry{Path: path, NoInlineReward: r.NoInline}
		if r.Inline != nil {
			entries[id].InlineReward = &InlineReward{
				Immediate: *r.Inline,
				LongTerm:  prop.Outcomes[path].InlineValue,
			}
		}
	}
	return entries, nil
}

// WriteRewardReport encodes the report as YAML.
func WriteRewardReport(w io.Writer, entries []RewardEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding reward report: %w", err)
	}
	return enc.Close()
}

// WriteOptimalTree encodes an optimal decision tree in the raw tree format,
// carrying only the tag and identifying payload of each node.
func WriteOptimalTree(w io.Writer, tree *inlining.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree.Raw()); err != nil {
		return fmt.Errorf("encoding optimal tree: %w", err)
	}
	return enc.Close()
}
