// Package model defines the proposal contract with the language model and
// provides a gollm-backed proposer that keeps session memory internally.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Proposal is the structured reply the model returns for each refinement
// step. Every field is authoritative for that call only; the loop, not the
// model, is the source of truth for termination.
type Proposal struct {
	Script        string `json:"script"`
	MessageToUser string `json:"message_to_user"`
	GoalAttained  bool   `json:"goal_attained"`
	SawLastOutput bool   `json:"saw_last_output"`
}

// Normalize applies the boundary rule for untrusted proposals: the model
// cannot have seen output that was never supplied, so SawLastOutput is
// forced false when lastOutput is empty. Returns true if the claim was
// corrected.
func (p *Proposal) Normalize(lastOutput string) bool {
	if lastOutput == "" && p.SawLastOutput {
		p.SawLastOutput = false
		return true
	}
	return false
}

// Proposer produces script proposals for a goal, refining each one with the
// previous execution's captured output.
type Proposer interface {
	Propose(ctx context.Context, goal, lastOutput string) (*Proposal, error)
}

// ParseProposal decodes a raw model reply into a Proposal. Replies wrapped
// in markdown code fences are unwrapped first.
func ParseProposal(text string) (*Proposal, error) {
	cleaned := stripFences(strings.TrimSpace(text))

	var p Proposal
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, fmt.Errorf("malformed proposal: %w", err)
	}
	return &p, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
