package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ChatInput carries one user message plus the remembered conversation state.
type ChatInput struct {
	Message    string
	LastIntent string
}

// ChatReply is the bot's answer. Intent is stored in the session so
// follow-up messages can be interpreted in context.
type ChatReply struct {
	Text   string `json:"text"`
	Intent string `json:"intent"`
}

// Responder produces chatbot replies.
type Responder interface {
	Respond(ctx context.Context, input ChatInput) (ChatReply, error)
}

// Chatbot intents.
const (
	IntentGreeting = "greeting"
	IntentTasks    = "tasks"
	IntentTeams    = "teams"
	IntentProjects = "projects"
	IntentHelp     = "help"
	IntentFarewell = "farewell"
	IntentUnknown  = "unknown"
)

// RuleResponder answers from a fixed set of keyword rules. It is the
// default responder and needs no external service.
type RuleResponder struct{}

func NewRuleResponder() *RuleResponder {
	return &RuleResponder{}
}

type chatRule struct {
	keywords []string
	intent   string
	reply    string
}

var chatRules = []chatRule{
	{
		keywords: []string{"hello", "hi", "hey", "good morning", "good evening"},
		intent:   IntentGreeting,
		reply:    "Hi! I can help you with tasks, teams and projects. What do you need?",
	},
	{
		keywords: []string{"task", "todo", "deadline", "assign"},
		intent:   IntentTasks,
		reply:    "You can create a task from the Tasks page, set its priority and dates, and assign teammates to it. Ask me about teams or projects too.",
	},
	{
		keywords: []string{"team", "member", "colleague"},
		intent:   IntentTeams,
		reply:    "Teams group your colleagues. Create one from the Teams page and add members with their role. The creator is always a team admin.",
	},
	{
		keywords: []string{"project", "milestone"},
		intent:   IntentProjects,
		reply:    "Projects collect related tasks. Create a project, then attach tasks to it so everyone sees the big picture.",
	},
	{
		keywords: []string{"help", "what can you do", "how do"},
		intent:   IntentHelp,
		reply:    "I answer questions about tasks, teams and projects. Try asking \"how do I create a task?\".",
	},
	{
		keywords: []string{"bye", "goodbye", "thanks", "thank you"},
		intent:   IntentFarewell,
		reply:    "You're welcome! Come back whenever you need a hand.",
	},
}

// followUps map a previous intent to the reply for a bare follow-up
// question like "and then?".
var followUps = map[string]string{
	IntentTasks:    "After creating a task you can reschedule it by dragging it on the calendar, comment on it, or attach a file.",
	IntentTeams:    "Team admins can change member roles or remove members. Only the creator cannot be removed.",
	IntentProjects: "Open a project to see its tasks. Deleting a project removes its tasks as well.",
}

func (r *RuleResponder) Respond(_ context.Context, input ChatInput) (ChatReply, error) {
	message := strings.ToLower(strings.TrimSpace(input.Message))

	for _, rule := range chatRules {
		for _, kw := range rule.keywords {
			if strings.Contains(message, kw) {
				return ChatReply{Text: rule.reply, Intent: rule.intent}, nil
			}
		}
	}

	if reply, ok := followUps[input.LastIntent]; ok {
		return ChatReply{Text: reply, Intent: input.LastIntent}, nil
	}

	return ChatReply{
		Text:   "Sorry, I did not get that. I can help with tasks, teams and projects.",
		Intent: IntentUnknown,
	}, nil
}

// OpenAIResponder delegates replies to the OpenAI chat API.
type OpenAIResponder struct {
	client *openai.Client
}

func NewOpenAIResponder(apiKey string) *OpenAIResponder {
	return &OpenAIResponder{
		client: openai.NewClient(apiKey),
	}
}

func (r *OpenAIResponder) Respond(ctx context.Context, input ChatInput) (ChatReply, error) {
	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are the assistant of a task management app called Taskify. Answer briefly and only about tasks, teams and projects.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: input.Message,
				},
			},
			Temperature: 0.5,
		},
	)
	if err != nil {
		return ChatReply{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ChatReply{}, fmt.Errorf("no response from OpenAI")
	}

	return ChatReply{
		Text:   resp.Choices[0].Message.Content,
		Intent: IntentUnknown,
	}, nil
}
