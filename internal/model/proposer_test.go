package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposeParsesReply(t *testing.T) {
	p := &GollmProposer{
		gen: func(ctx context.Context, system, transcript string) (string, error) {
			assert.Contains(t, system, "expert Python developer")
			assert.Contains(t, transcript, "Goal: 'print hello'")
			return `{"script":"print('hello')","message_to_user":"prints hello","goal_attained":false,"saw_last_output":false}`, nil
		},
	}

	proposal, err := p.Propose(context.Background(), "print hello", "")
	require.NoError(t, err)
	assert.Equal(t, "print('hello')", proposal.Script)
	assert.Equal(t, "prints hello", proposal.MessageToUser)
}

func TestProposeCarriesSessionTranscript(t *testing.T) {
	var transcripts []string
	p := &GollmProposer{
		gen: func(ctx context.Context, system, transcript string) (string, error) {
			transcripts = append(transcripts, transcript)
			return `{"script":"print('hello')","message_to_user":"ok","goal_attained":false,"saw_last_output":false}`, nil
		},
	}

	_, err := p.Propose(context.Background(), "print hello", "")
	require.NoError(t, err)
	_, err = p.Propose(context.Background(), "print hello", "hello")
	require.NoError(t, err)

	require.Len(t, transcripts, 2)

	// The second call replays the first turn and its reply, then appends
	// the new turn with the execution feedback.
	assert.Contains(t, transcripts[1], "Last Output: ``````")
	assert.Contains(t, transcripts[1], "[Assistant]:")
	assert.Contains(t, transcripts[1], "Last Output: ```hello```")
	assert.NotContains(t, transcripts[0], "[Assistant]:")
}

func TestProposeSurfacesGenerateError(t *testing.T) {
	cause := errors.New("connection refused")
	p := &GollmProposer{
		gen: func(ctx context.Context, system, transcript string) (string, error) {
			return "", cause
		},
	}

	proposal, err := p.Propose(context.Background(), "goal", "")
	assert.Nil(t, proposal)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
}

func TestProposeRejectsMalformedReply(t *testing.T) {
	p := &GollmProposer{
		gen: func(ctx context.Context, system, transcript string) (string, error) {
			return "here you go, no JSON though", nil
		},
	}

	_, err := p.Propose(context.Background(), "goal", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed proposal")

	// A failed call must not pollute the transcript for the next attempt.
	assert.Empty(t, p.history)
}

func TestProviderFor(t *testing.T) {
	assert.Equal(t, "anthropic", providerFor("claude-sonnet-4-5"))
	assert.Equal(t, "openai", providerFor("gpt-4o"))
	assert.Equal(t, "openai", providerFor("o3-mini"))
}
