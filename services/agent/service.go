package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// messageCreator is the slice of the Anthropic client tutorReply needs.
type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Service orchestrates a tutoring turn: auxiliary chains shape the
// context, the Anthropic model produces the reply (calling profile tools
// as needed), and the exercise sequencer decides which quiz ships with
// the turn.
type Service struct {
	messages messageCreator
	llm      llms.Model
	sessions *services.SessionService
	tools    []AgentTool
}

func NewService(anthropicAPIKey, openaiAPIKey string, sessions *services.SessionService) (*Service, error) {
	client := anthropic.NewClient(option.WithAPIKey(anthropicAPIKey))

	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(openaiAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %v", err)
	}

	tools := []AgentTool{
		NewUpsertProfileTool(sessions),
		NewGetProfileTool(sessions),
	}

	return &Service{
		messages: &client.Messages,
		llm:      llm,
		sessions: sessions,
		tools:    tools,
	}, nil
}

// turnMode is the single response mode taken for one user turn. Modes are
// mutually exclusive; classifyTurn picks exactly one.
type turnMode int

const (
	modeFirstTurn turnMode = iota
	modeQuizFeedback
	modeHelp
	modeRegular
)

// classifyTurn decides the response mode for this turn. An empty user
// message is the quiz-completion sentinel. Help mode also covers turns
// where the target language is still unknown, since no exercise can be
// served until it is collected.
func classifyTurn(session *models.Session, userMessage string, intent userIntent) turnMode {
	if len(session.History) == 0 {
		return modeFirstTurn
	}
	if strings.TrimSpace(userMessage) == "" && len(session.QuizResults) > 0 {
		return modeQuizFeedback
	}
	if intent.IsHelpRequest || intent.IsLanguageQuestion || session.Profile.TargetLanguage == "" {
		return modeHelp
	}
	return modeRegular
}

// nonEmptyMessages drops blank entries so the stored history never
// carries the quiz-completion sentinel. The Anthropic API rejects empty
// text blocks, so one blank entry would fail every later turn.
func nonEmptyMessages(messages ...models.ChatMessage) []models.ChatMessage {
	kept := make([]models.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Content) != "" {
			kept = append(kept, msg)
		}
	}
	return kept
}

// turnInput carries everything tutorReply needs to build one instruction.
type turnInput struct {
	sessionID          string
	lastUser           string
	isFirstTurn        bool
	testType           string
	lastQuizResult     *models.QuizResult
	quizAssessment     *quizAssessment
	missingInfo        []string
	isLanguageQuestion bool
	correctionJSON     string
	assessmentJSON     string
	planJSON           string
}

// RunTurn runs one orchestrated tutoring turn. An empty user message is
// the quiz-completion sentinel: it triggers feedback on the latest result
// and auto-continues to the next exercise.
func (s *Service) RunTurn(ctx context.Context, sessionID, userMessage string) (*models.TurnReply, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	isQuizCompletion := strings.TrimSpace(userMessage) == ""
	log.Printf("[INFO] Turn start: session=%s quizCompletion=%v", sessionID, isQuizCompletion)

	var intent userIntent
	if len(session.History) > 0 && !isQuizCompletion {
		intent = s.detectIntent(ctx, userMessage)
		if len(intent.TestTypePreferences) > 0 {
			if err := s.sessions.AddTestPreferences(sessionID, intent.TestTypePreferences); err != nil {
				log.Printf("[ERROR] Failed to record test preferences: %v", err)
			}
		}
	}

	mode := classifyTurn(session, userMessage, intent)
	if mode == modeFirstTurn {
		return s.runFirstTurn(ctx, sessionID, userMessage)
	}

	profile := session.Profile
	missingInfo := missingProfileFields(profile)

	quizBasedAssessment := s.assessQuizHistory(ctx, session.QuizResults)

	var lastQuizResult *models.QuizResult
	if mode == modeQuizFeedback {
		last := session.QuizResults[len(session.QuizResults)-1]
		lastQuizResult = &last
	}

	canStartQuizzes := profile.TargetLanguage != "" && profile.LanguageLevel != ""
	selectedTestType := ""
	if canStartQuizzes {
		prefs := session.TestPreferences
		selectedTestType = selectTestType(session.QuizResults, prefs, intent.RequestedTestType)
	}

	assessment := s.assessMessage(ctx, userMessage)
	if err := s.sessions.SaveAssessment(sessionID, assessment); err != nil {
		log.Printf("[ERROR] Failed to save assessment: %v", err)
	}
	correctionJSON := s.correctMessage(ctx, userMessage)
	plan := s.planLesson(ctx, profile, assessment)

	assessmentJSON := marshalJSON(assessment)
	planJSON := marshalJSON(plan)

	switch mode {
	case modeQuizFeedback:
		return s.runFeedbackTurn(ctx, session, turnInput{
			sessionID:          sessionID,
			lastUser:           userMessage,
			lastQuizResult:     lastQuizResult,
			quizAssessment:     quizBasedAssessment,
			missingInfo:        missingInfo,
			isLanguageQuestion: intent.IsLanguageQuestion,
			correctionJSON:     correctionJSON,
			assessmentJSON:     assessmentJSON,
			planJSON:           planJSON,
		}, canStartQuizzes)

	case modeHelp:
		return s.runHelpTurn(ctx, turnInput{
			sessionID:          sessionID,
			lastUser:           userMessage,
			quizAssessment:     quizBasedAssessment,
			missingInfo:        missingInfo,
			isLanguageQuestion: intent.IsLanguageQuestion,
			correctionJSON:     correctionJSON,
			assessmentJSON:     assessmentJSON,
			planJSON:           planJSON,
		}, profile)

	default:
		return s.runRegularTurn(ctx, turnInput{
			sessionID:          sessionID,
			lastUser:           userMessage,
			testType:           selectedTestType,
			quizAssessment:     quizBasedAssessment,
			missingInfo:        missingInfo,
			isLanguageQuestion: intent.IsLanguageQuestion,
			correctionJSON:     correctionJSON,
			assessmentJSON:     assessmentJSON,
			planJSON:           planJSON,
		}, profile, isQuizCompletion, intent.IsHelpRequest)
	}
}

func (s *Service) runFirstTurn(ctx context.Context, sessionID, userMessage string) (*models.TurnReply, error) {
	reply, err := s.tutorReply(ctx, turnInput{
		sessionID:   sessionID,
		lastUser:    userMessage,
		isFirstTurn: true,
	})
	if err != nil {
		return nil, err
	}

	// The model may have saved the profile via tool calls already. If the
	// exercise gate is filled, pivot into the first quiz in the same turn.
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Profile.TargetLanguage != "" && session.Profile.LanguageLevel != "" {
		log.Printf("[INFO] First turn filled the exercise gate, starting first quiz")

		firstType := TestTypes[0]
		quizReply, err := s.tutorReply(ctx, turnInput{
			sessionID: sessionID,
			testType:  firstType,
		})
		if err != nil {
			return nil, err
		}

		combined := quizReply
		if reply != "" && !strings.HasPrefix(strings.TrimSpace(reply), "Hello") && !strings.Contains(strings.ToLower(reply), "tell me") {
			combined = reply + "\n\n" + quizReply
		}

		if err := s.sessions.AppendHistory(sessionID, nonEmptyMessages(
			models.ChatMessage{Role: "user", Content: userMessage},
			models.ChatMessage{Role: "assistant", Content: combined},
		)...); err != nil {
			return nil, err
		}
		return &models.TurnReply{Reply: combined, TestType: firstType}, nil
	}

	if err := s.sessions.AppendHistory(sessionID, nonEmptyMessages(
		models.ChatMessage{Role: "user", Content: userMessage},
		models.ChatMessage{Role: "assistant", Content: reply},
	)...); err != nil {
		return nil, err
	}
	return &models.TurnReply{Reply: reply, IsFirstTurn: true}, nil
}

func (s *Service) runFeedbackTurn(ctx context.Context, session *models.Session, in turnInput, canStartQuizzes bool) (*models.TurnReply, error) {
	reply, err := s.tutorReply(ctx, in)
	if err != nil {
		return nil, err
	}

	if !canStartQuizzes {
		if err := s.sessions.AppendHistory(in.sessionID, nonEmptyMessages(
			models.ChatMessage{Role: "user", Content: in.lastUser},
			models.ChatMessage{Role: "assistant", Content: reply},
		)...); err != nil {
			return nil, err
		}
		return &models.TurnReply{Reply: reply}, nil
	}

	// Auto-continue: pick the next exercise and attach a one-line intro
	// generated in the target language.
	nextType := nextTestTypeAfterFeedback(session.QuizResults, in.lastQuizResult.TestType)
	intro := s.generateQuizIntro(ctx, session.Profile.TargetLanguage, nextType)
	combined := reply + "\n\n" + intro

	if err := s.sessions.AppendHistory(in.sessionID,
		models.ChatMessage{Role: "assistant", Content: reply},
		models.ChatMessage{Role: "assistant", Content: intro},
	); err != nil {
		return nil, err
	}

	log.Printf("[INFO] Quiz feedback delivered, auto-continuing with %s", nextType)
	return &models.TurnReply{Reply: combined, TestType: nextType, AutoContinue: true}, nil
}

func (s *Service) runHelpTurn(ctx context.Context, in turnInput, before models.Profile) (*models.TurnReply, error) {
	reply, err := s.tutorReply(ctx, in)
	if err != nil {
		return nil, err
	}

	if pivot, err := s.pivotIfGateFilled(ctx, in, before, reply, false); err != nil {
		return nil, err
	} else if pivot != nil {
		return pivot, nil
	}

	if err := s.sessions.AppendHistory(in.sessionID, nonEmptyMessages(
		models.ChatMessage{Role: "user", Content: in.lastUser},
		models.ChatMessage{Role: "assistant", Content: reply},
	)...); err != nil {
		return nil, err
	}
	return &models.TurnReply{Reply: reply}, nil
}

func (s *Service) runRegularTurn(ctx context.Context, in turnInput, before models.Profile, isQuizCompletion, isHelpRequest bool) (*models.TurnReply, error) {
	if isHelpRequest {
		in.testType = ""
	}
	if in.lastUser == "" {
		in.lastUser = "Ready for next lesson"
	}

	reply, err := s.tutorReply(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.testType == "" {
		if pivot, err := s.pivotIfGateFilled(ctx, in, before, reply, true); err != nil {
			return nil, err
		} else if pivot != nil {
			return pivot, nil
		}
	}

	if !isQuizCompletion && strings.TrimSpace(in.lastUser) != "" {
		if err := s.sessions.AppendHistory(in.sessionID,
			models.ChatMessage{Role: "user", Content: in.lastUser},
			models.ChatMessage{Role: "assistant", Content: reply},
		); err != nil {
			return nil, err
		}
	}
	return &models.TurnReply{Reply: reply, TestType: in.testType}, nil
}

// pivotIfGateFilled re-reads the profile after the model's reply; if a
// tool call just filled the exercise gate, it starts the first quiz in the
// same turn. A short reply is kept as an acknowledgment, a long one
// (probably still asking for info) is replaced by the quiz intro.
func (s *Service) pivotIfGateFilled(ctx context.Context, in turnInput, before models.Profile, reply string, strictAckCheck bool) (*models.TurnReply, error) {
	session, err := s.sessions.Get(in.sessionID)
	if err != nil {
		return nil, err
	}
	after := session.Profile

	justSetLanguage := before.TargetLanguage == "" && after.TargetLanguage != ""
	justSetLevel := before.LanguageLevel == "" && after.LanguageLevel != ""
	if !justSetLanguage && !justSetLevel {
		return nil, nil
	}
	if after.TargetLanguage == "" || after.LanguageLevel == "" {
		return nil, nil
	}

	log.Printf("[INFO] Exercise gate filled mid-turn (language=%s level=%s), starting first quiz", after.TargetLanguage, after.LanguageLevel)

	firstType := TestTypes[0]
	quizReply, err := s.tutorReply(ctx, turnInput{
		sessionID:      in.sessionID,
		testType:       firstType,
		quizAssessment: in.quizAssessment,
		correctionJSON: in.correctionJSON,
		assessmentJSON: in.assessmentJSON,
		planJSON:       in.planJSON,
	})
	if err != nil {
		return nil, err
	}

	keepAck := reply != "" && len(reply) < 150
	if keepAck && strictAckCheck {
		lower := strings.ToLower(reply)
		for _, phrase := range []string{"tell me", "could you", "what", "which", "please share", "i'd like"} {
			if strings.Contains(lower, phrase) {
				keepAck = false
				break
			}
		}
	}

	combined := quizReply
	if keepAck {
		combined = reply + "\n\n" + quizReply
	}

	if err := s.sessions.AppendHistory(in.sessionID, nonEmptyMessages(
		models.ChatMessage{Role: "user", Content: in.lastUser},
		models.ChatMessage{Role: "assistant", Content: combined},
	)...); err != nil {
		return nil, err
	}
	return &models.TurnReply{Reply: combined, TestType: firstType}, nil
}

// tutorReply builds the instruction for this turn and runs the Anthropic
// model over the conversation, executing at most one tool round-trip.
func (s *Service) tutorReply(ctx context.Context, in turnInput) (string, error) {
	session, err := s.sessions.Get(in.sessionID)
	if err != nil {
		return "", err
	}

	systemPrompt := SystemPrompt
	if in.isFirstTurn {
		systemPrompt = FirstTurnPrompt
	}
	instruction := s.buildInstruction(in, session.Profile)

	messages := make([]anthropic.MessageParam, 0, len(session.History)+2)
	for _, msg := range session.History {
		// Older sessions may still hold blank entries. The API rejects
		// empty text blocks, so skip them rather than fail the turn.
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		if msg.Role == "user" {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		} else {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	if in.lastUser != "" {
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(in.lastUser)))
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(instruction)))

	toolSpecs := s.buildAnthropicToolSpecs()

	response, err := s.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaude4Sonnet20250514,
		MaxTokens: 4096,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  messages,
		Tools:     toolSpecs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Anthropic API: %v", err)
	}

	assistantContent, toolUses := splitResponse(response)
	if len(toolUses) == 0 {
		return assistantContent, nil
	}

	// Tool round-trip: execute each call, feed results back, re-invoke once.
	assistantBlocks := []anthropic.ContentBlockParamUnion{}
	if assistantContent != "" {
		assistantBlocks = append(assistantBlocks, anthropic.ContentBlockParamUnion{
			OfText: &anthropic.TextBlockParam{Text: assistantContent},
		})
	}
	resultBlocks := []anthropic.ContentBlockParamUnion{}

	for _, toolUse := range toolUses {
		toolCallID := toolUse.ID
		if toolCallID == "" {
			toolCallID = "call_" + uuid.NewString()[:8]
			log.Printf("[INFO] Generated fallback tool call id: %s", toolCallID)
		}

		assistantBlocks = append(assistantBlocks, anthropic.ContentBlockParamUnion{
			OfToolUse: &anthropic.ToolUseBlockParam{
				ID:    toolCallID,
				Name:  toolUse.Name,
				Input: toolUse.Input,
			},
		})

		log.Printf("[INFO] Executing tool: %s", toolUse.Name)
		inputJSON, _ := json.Marshal(toolUse.Input)
		result, err := s.executeTool(ctx, toolUse.Name, string(inputJSON))
		if err != nil {
			log.Printf("[ERROR] Tool execution failed for %s: %v", toolUse.Name, err)
			result = fmt.Sprintf("Error: %v", err)
		}

		resultBlocks = append(resultBlocks, anthropic.ContentBlockParamUnion{
			OfToolResult: &anthropic.ToolResultBlockParam{
				ToolUseID: toolCallID,
				Content: []anthropic.ToolResultBlockParamContentUnion{
					{OfText: &anthropic.TextBlockParam{Text: result}},
				},
			},
		})
	}

	messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
	messages = append(messages, anthropic.NewUserMessage(resultBlocks...))

	response, err = s.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaude4Sonnet20250514,
		MaxTokens: 4096,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  messages,
		Tools:     toolSpecs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Anthropic API after tool use: %v", err)
	}

	finalContent, _ := splitResponse(response)
	return finalContent, nil
}

func splitResponse(response *anthropic.Message) (string, []anthropic.ToolUseBlock) {
	content := ""
	var toolUses []anthropic.ToolUseBlock
	for _, block := range response.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += block.Text
		case anthropic.ToolUseBlock:
			toolUses = append(toolUses, block)
		}
	}
	return content, toolUses
}

func (s *Service) buildInstruction(in turnInput, profile models.Profile) string {
	if in.isFirstTurn {
		return `Welcome the user and explain how the app works. Ask them to share:
- What language they want to learn (MOST IMPORTANT - quizzes won't start until this is specified)
- Their name
- Their age (or age range)
- Their interests/hobbies
- Their current level in that language

Keep it warm and encouraging!`
	}

	targetLanguage := profile.TargetLanguage
	if targetLanguage == "" {
		targetLanguage = "English"
	}

	profileInfo := profileSection(in.sessionID, profile)
	missingPrompt := ""
	if !in.isLanguageQuestion {
		missingPrompt = missingInfoSection(in.missingInfo, profile, in.lastUser)
	}
	languageQuestionPrompt := languageQuestionSection(in.isLanguageQuestion, profile)

	if in.lastQuizResult != nil {
		return fmt.Sprintf(`You are Hootie. The student just completed a quiz. Provide VERY BRIEF feedback (1 sentence max) in %s:%s

%s
%s

IMPORTANT: This is ONLY the feedback message. Do NOT transition to the next quiz or say anything about what's coming next. Just give the feedback and stop.`,
			targetLanguage, profileInfo,
			feedbackSection(in.lastQuizResult),
			assessmentSection(in.quizAssessment))
	}

	if in.testType != "" {
		return fmt.Sprintf(`You are Hootie. A new lesson turn is starting. NO GREETINGS - just briefly introduce the quiz naturally in %s:%s
%s
%s

%s
%s

Style:
- Maximum 1 sentence total
- Brief and casual like Duolingo
- NO greetings or saying their name (we're already in conversation)
- Just introduce that a quiz/exercise is coming - DO NOT include the actual quiz content (sentences, words, questions, etc.)
- The quiz container will display all quiz materials separately
- Keep it conversational, not instructional`,
			targetLanguage, profileInfo,
			missingPrompt, languageQuestionPrompt,
			testInstructionSection(in.testType),
			assessmentSection(in.quizAssessment))
	}

	return fmt.Sprintf(`You are Hootie. Respond to the user's request:%s
%s
%s

Correction JSON (use internally to adjust):
%s

Assessment JSON (use internally to adjust difficulty):
%s

Plan JSON (use internally to guide content):
%s

Now reply briefly and naturally in %s (unless help exception applies).`,
		profileInfo, missingPrompt, languageQuestionPrompt,
		in.correctionJSON, in.assessmentJSON, in.planJSON,
		targetLanguage)
}

func (s *Service) buildAnthropicToolSpecs() []anthropic.ToolUnionParam {
	var toolSpecs []anthropic.ToolUnionParam
	for _, tool := range s.tools {
		toolSpecs = append(toolSpecs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name(),
				Description: anthropic.String(tool.Description()),
				InputSchema: tool.GetAnthropicToolSpec(),
			},
		})
	}
	return toolSpecs
}

func (s *Service) executeTool(ctx context.Context, toolName, arguments string) (string, error) {
	for _, tool := range s.tools {
		if tool.Name() == toolName {
			return tool.Call(ctx, arguments)
		}
	}
	return "", fmt.Errorf("tool %s not found", toolName)
}

func missingProfileFields(profile models.Profile) []string {
	var missing []string
	if profile.Name == "" {
		missing = append(missing, "name")
	}
	if profile.Age == "" {
		missing = append(missing, "age")
	}
	if profile.Interests == "" {
		missing = append(missing, "interests")
	}
	if profile.TargetLanguage == "" {
		missing = append(missing, "target_language")
	}
	if profile.LanguageLevel == "" {
		missing = append(missing, "language_level")
	}
	return missing
}

func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
