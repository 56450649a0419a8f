package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/teilomillet/gollm"
)

const systemPrompt = `You are an expert Python developer tasked with writing scripts to fulfill user instructions.
Your scripts should be concise, use modern Python idioms, and leverage appropriate libraries.

Key guidelines:
- Return complete, runnable Python scripts that declare the necessary imports
- Prefer standard library solutions when appropriate
- Include detailed error handling and user feedback
- Scripts must be self-contained and handle their own dependencies via uv

Scripts must start with inline metadata in TOML form so that uv can create
an environment and install the dependencies before running:

# /// script
# dependencies = [
#     "package1>=1.0",
#     "package2<2.0",
# ]
# ///

When fixing errors:
1. Carefully analyze any error messages or unexpected output
2. Make targeted fixes while maintaining the script's core functionality
3. Ensure all imports and dependencies are properly declared

Respond ONLY with a JSON object of this exact shape, no other text:
{"script": "...", "message_to_user": "...", "goal_attained": true|false, "saw_last_output": true|false}

If Last Output is empty, meaning there is nothing within the triple backticks,
saw_last_output is false. If the goal was attained and you have seen the last
output, message_to_user should be a summary of that output.`

// generateFunc performs one model call: full conversation transcript in,
// raw reply text out. Indirection here keeps gollm out of the tests.
type generateFunc func(ctx context.Context, system, transcript string) (string, error)

// GollmProposer adapts a gollm LLM to the Proposer contract. The session
// transcript is kept internally and replayed on every call, so each call is
// a refinement of the previous attempt rather than a cold start.
type GollmProposer struct {
	gen     generateFunc
	history []string
}

// NewGollmProposer creates a proposer backed by the given model. If apiKey
// is empty, gollm reads the provider's key from the environment.
func NewGollmProposer(modelID, apiKey string) (*GollmProposer, error) {
	opts := []gollm.ConfigOption{
		gollm.SetProvider(providerFor(modelID)),
		gollm.SetModel(modelID),
		gollm.SetMaxTokens(4096),
		gollm.SetMaxRetries(0), // model failures are fatal to the session
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		opts = append(opts, gollm.SetAPIKey(apiKey))
	}

	llm, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	return &GollmProposer{
		gen: func(ctx context.Context, system, transcript string) (string, error) {
			prompt := gollm.NewPrompt(transcript,
				gollm.WithSystemPrompt(system, gollm.CacheTypeEphemeral))
			return llm.Generate(ctx, prompt)
		},
	}, nil
}

// Propose asks the model for a script proposal, carrying the full session
// transcript so that repair steps see their own earlier attempts.
func (g *GollmProposer) Propose(ctx context.Context, goal, lastOutput string) (*Proposal, error) {
	turn := fmt.Sprintf("Goal: '%s'\nLast Output: ```%s```", goal, lastOutput)
	transcript := strings.Join(append(g.history, turn), "\n")

	reply, err := g.gen(ctx, systemPrompt, transcript)
	if err != nil {
		return nil, fmt.Errorf("model invocation failed: %w", err)
	}

	proposal, err := ParseProposal(reply)
	if err != nil {
		return nil, fmt.Errorf("model invocation failed: %w", err)
	}

	g.history = append(g.history, turn, "[Assistant]: "+reply)
	return proposal, nil
}

// providerFor infers the gollm provider from the model identifier.
func providerFor(modelID string) string {
	if strings.HasPrefix(modelID, "claude") {
		return "anthropic"
	}
	return "openai"
}
