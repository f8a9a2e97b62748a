package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/shokouhi/HootieChat/db"
	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessages replays scripted Anthropic responses and records every
// request it receives.
type fakeMessages struct {
	calls     []anthropic.MessageNewParams
	responses []*anthropic.Message
}

func (f *fakeMessages) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.calls = append(f.calls, params)
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("unexpected call %d to fake messages", len(f.calls))
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

// messageFromJSON builds a response through Unmarshal so the SDK's
// content-block accessors see raw JSON, as they would on a live response.
func messageFromJSON(t *testing.T, raw string) *anthropic.Message {
	t.Helper()
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return &msg
}

func newTestService(fake *fakeMessages, sessions *services.SessionService, tools ...AgentTool) *Service {
	return &Service{
		messages: fake,
		llm:      &fakeModel{content: "{}"},
		sessions: sessions,
		tools:    tools,
	}
}

func TestTutorReplyRunsOneToolRoundTrip(t *testing.T) {
	sessions := services.NewSessionService(db.NewMemorySessionRepository())
	fake := &fakeMessages{responses: []*anthropic.Message{
		messageFromJSON(t, `{"content":[{"type":"tool_use","id":"toolu_1","name":"upsert_profile","input":{"session_id":"sess-tools","target_language":"Spanish","language_level":"beginner"}}]}`),
		messageFromJSON(t, `{"content":[{"type":"text","text":"Perfect, Spanish it is!"},{"type":"tool_use","id":"toolu_2","name":"upsert_profile","input":{"session_id":"sess-tools","name":"Sam"}}]}`),
	}}
	svc := newTestService(fake, sessions, NewUpsertProfileTool(sessions))

	reply, err := svc.tutorReply(context.Background(), turnInput{
		sessionID: "sess-tools",
		lastUser:  "I want to learn Spanish, I'm a beginner",
	})
	require.NoError(t, err)
	assert.Equal(t, "Perfect, Spanish it is!", reply)

	// Exactly one re-invocation after the tool call, no matter how many
	// tool uses the second response carries.
	require.Len(t, fake.calls, 2)

	// The second request carries the assistant's tool use plus its result.
	assert.Len(t, fake.calls[1].Messages, len(fake.calls[0].Messages)+2)

	session, err := sessions.Get("sess-tools")
	require.NoError(t, err)
	assert.Equal(t, "Spanish", session.Profile.TargetLanguage)
	assert.Equal(t, "A1", session.Profile.LanguageLevel)

	// The second round's tool use was dropped, not executed.
	assert.Empty(t, session.Profile.Name)
}

func TestTutorReplySkipsBlankHistoryEntries(t *testing.T) {
	sessions := services.NewSessionService(db.NewMemorySessionRepository())
	require.NoError(t, sessions.AppendHistory("sess-blank",
		models.ChatMessage{Role: "user", Content: ""},
		models.ChatMessage{Role: "assistant", Content: "Nice work!"},
		models.ChatMessage{Role: "user", Content: "   "},
	))

	fake := &fakeMessages{responses: []*anthropic.Message{
		messageFromJSON(t, `{"content":[{"type":"text","text":"Let's keep going."}]}`),
	}}
	svc := newTestService(fake, sessions)

	_, err := svc.tutorReply(context.Background(), turnInput{sessionID: "sess-blank"})
	require.NoError(t, err)
	require.Len(t, fake.calls, 1)

	for _, msg := range fake.calls[0].Messages {
		for _, block := range msg.Content {
			if block.OfText != nil {
				assert.NotEmpty(t, strings.TrimSpace(block.OfText.Text))
			}
		}
	}
}

func TestQuizFeedbackSentinelLeavesNoBlankHistory(t *testing.T) {
	sessions := services.NewSessionService(db.NewMemorySessionRepository())
	require.NoError(t, sessions.AppendHistory("sess-feedback",
		models.ChatMessage{Role: "user", Content: "hola"},
		models.ChatMessage{Role: "assistant", Content: "¡Hola! ¿Qué idioma quieres aprender?"},
	))
	_, err := sessions.SaveQuizResult("sess-feedback", "image_detection", "el gato", 0.8, nil)
	require.NoError(t, err)

	fake := &fakeMessages{responses: []*anthropic.Message{
		messageFromJSON(t, `{"content":[{"type":"text","text":"¡Buen trabajo!"}]}`),
	}}
	svc := newTestService(fake, sessions)

	reply, err := svc.RunTurn(context.Background(), "sess-feedback", "")
	require.NoError(t, err)
	assert.Equal(t, "¡Buen trabajo!", reply.Reply)

	session, err := sessions.Get("sess-feedback")
	require.NoError(t, err)
	require.NotEmpty(t, session.History)
	for _, msg := range session.History {
		assert.NotEmpty(t, strings.TrimSpace(msg.Content), "blank history entry for role %s", msg.Role)
	}
}

func TestFirstTurnEmptyMessageLeavesNoBlankHistory(t *testing.T) {
	sessions := services.NewSessionService(db.NewMemorySessionRepository())
	fake := &fakeMessages{responses: []*anthropic.Message{
		messageFromJSON(t, `{"content":[{"type":"text","text":"Welcome! What language would you like to learn?"}]}`),
	}}
	svc := newTestService(fake, sessions)

	reply, err := svc.RunTurn(context.Background(), "sess-first", "")
	require.NoError(t, err)
	assert.True(t, reply.IsFirstTurn)

	session, err := sessions.Get("sess-first")
	require.NoError(t, err)
	require.Len(t, session.History, 1)
	assert.Equal(t, "assistant", session.History[0].Role)
}
