package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
)

// AgentTool interface that all tools must implement
type AgentTool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
	GetAnthropicToolSpec() anthropic.ToolInputSchemaParam
}

func generateAnthropicSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
	}
}

type UpsertProfileToolInput struct {
	SessionID      string `json:"session_id" jsonschema:"required,description=The session ID of the current conversation"`
	Name           string `json:"name,omitempty" jsonschema:"description=The user's name"`
	Age            string `json:"age,omitempty" jsonschema:"description=The user's age or age range"`
	Interests      string `json:"interests,omitempty" jsonschema:"description=The user's interests and hobbies"`
	TargetLanguage string `json:"target_language,omitempty" jsonschema:"description=The language the user wants to learn (e.g. Spanish or French)"`
	LanguageLevel  string `json:"language_level,omitempty" jsonschema:"description=The user's level in the target language (A1-C2 or beginner/intermediate/advanced)"`
}

// UpsertProfileTool lets the model save profile fields it extracts from the
// conversation. Unsupported target languages are rejected with a corrective
// message so the model can steer the user to a supported one.
type UpsertProfileTool struct {
	sessions *services.SessionService
}

func NewUpsertProfileTool(sessions *services.SessionService) UpsertProfileTool {
	return UpsertProfileTool{sessions: sessions}
}

func (u UpsertProfileTool) Name() string {
	return "upsert_profile"
}

func (u UpsertProfileTool) Description() string {
	return "Saves or updates the user's profile: name, age, interests, target language, and language level. Only provided fields are changed."
}

func (u UpsertProfileTool) Call(ctx context.Context, input string) (string, error) {
	var params UpsertProfileToolInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse upsert profile tool input: %v", err)
	}
	if params.SessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}

	patch := models.Profile{
		Name:           params.Name,
		Age:            params.Age,
		Interests:      params.Interests,
		TargetLanguage: params.TargetLanguage,
		LanguageLevel:  params.LanguageLevel,
	}

	profile, err := u.sessions.UpsertProfile(params.SessionID, patch)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedLanguage) {
			// Corrective tool result instead of a hard failure: the model
			// should apologize and offer the supported list.
			return fmt.Sprintf("ERROR: The language '%s' is not supported. Supported languages are: %s. Please apologize to the user and ask them to choose one of the supported languages. Do NOT save this language to the profile.",
				params.TargetLanguage, strings.Join(services.SupportedLanguages, ", ")), nil
		}
		return "", fmt.Errorf("failed to upsert profile: %v", err)
	}

	result, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %v", err)
	}
	return string(result), nil
}

func (u UpsertProfileTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[UpsertProfileToolInput]()
}

type GetProfileToolInput struct {
	SessionID string `json:"session_id" jsonschema:"required,description=The session ID of the current conversation"`
}

type GetProfileTool struct {
	sessions *services.SessionService
}

func NewGetProfileTool(sessions *services.SessionService) GetProfileTool {
	return GetProfileTool{sessions: sessions}
}

func (g GetProfileTool) Name() string {
	return "get_profile"
}

func (g GetProfileTool) Description() string {
	return "Retrieves the user's saved profile for the current session"
}

func (g GetProfileTool) Call(ctx context.Context, input string) (string, error) {
	var params GetProfileToolInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse get profile tool input: %v", err)
	}

	session, err := g.sessions.Get(params.SessionID)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %v", err)
	}

	result, err := json.Marshal(session.Profile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %v", err)
	}
	return string(result), nil
}

func (g GetProfileTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[GetProfileToolInput]()
}
