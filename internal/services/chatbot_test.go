package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuleResponder_KeywordIntents(t *testing.T) {
	responder := NewRuleResponder()
	ctx := context.Background()

	tests := []struct {
		message    string
		wantIntent string
	}{
		{"Hello there", IntentGreeting},
		{"how do I create a task?", IntentTasks},
		{"add a member to my team", IntentTeams},
		{"what is a project?", IntentProjects},
		{"help", IntentHelp},
		{"thanks, bye!", IntentFarewell},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			reply, err := responder.Respond(ctx, ChatInput{Message: tt.message})
			require.NoError(t, err)
			require.Equal(t, tt.wantIntent, reply.Intent)
			require.NotEmpty(t, reply.Text)
		})
	}
}

func TestRuleResponder_FollowUpUsesLastIntent(t *testing.T) {
	responder := NewRuleResponder()
	ctx := context.Background()

	first, err := responder.Respond(ctx, ChatInput{Message: "tell me about teams"})
	require.NoError(t, err)
	require.Equal(t, IntentTeams, first.Intent)

	second, err := responder.Respond(ctx, ChatInput{
		Message:    "and then?",
		LastIntent: first.Intent,
	})
	require.NoError(t, err)
	require.Equal(t, IntentTeams, second.Intent)
	require.Contains(t, second.Text, "admin")
}

func TestRuleResponder_UnknownFallback(t *testing.T) {
	responder := NewRuleResponder()

	reply, err := responder.Respond(context.Background(), ChatInput{Message: "quantum flux capacitors"})
	require.NoError(t, err)
	require.Equal(t, IntentUnknown, reply.Intent)
}
