package bedrock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutricoach"
)

// mockBedrockClient implements bedrockRuntimeClient for testing
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = input
	return m.response, m.err
}

func textOutput(stopReason types.StopReason, blocks ...string) *bedrockruntime.ConverseOutput {
	content := make([]types.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		content = append(content, &types.ContentBlockMemberText{Value: b})
	}
	return &bedrockruntime.ConverseOutput{
		StopReason: stopReason,
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{Role: types.ConversationRoleAssistant, Content: content},
		},
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(20),
		},
		Metrics: &types.ConverseMetrics{
			LatencyMs: aws.Int64(100),
		},
	}
}

func TestNewLLMClient(t *testing.T) {
	tests := []struct {
		name     string
		input    LLMOptions
		expected LLMOptions
	}{
		{
			name:  "empty options uses defaults",
			input: LLMOptions{},
			expected: LLMOptions{
				ModelID:      defaultModelID,
				MaxTokens:    defaultMaxTokens,
				Temperature:  defaultTemperature,
				TopP:         defaultTopP,
				SystemPrompt: defaultSystemPrompt,
			},
		},
		{
			name: "custom options preserved",
			input: LLMOptions{
				ModelID:      "custom-model",
				MaxTokens:    2048,
				Temperature:  0.5,
				TopP:         0.8,
				SystemPrompt: "Be terse.",
			},
			expected: LLMOptions{
				ModelID:      "custom-model",
				MaxTokens:    2048,
				Temperature:  0.5,
				TopP:         0.8,
				SystemPrompt: "Be terse.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mockBedrockClient{}
			client := NewLLMClient(mockClient, tt.input)

			assert.Equal(t, tt.expected, client.opts)
			assert.Equal(t, mockClient, client.brc)
		})
	}
}

func TestLLMClient_GenerateText(t *testing.T) {
	tests := []struct {
		name           string
		mockResponse   *bedrockruntime.ConverseOutput
		mockError      error
		expectedText   string
		expectedError  string
		wantNoContent  bool
		wantDiagnostic string
	}{
		{
			name:         "end turn returns text",
			mockResponse: textOutput("end_turn", "Score: 8/10\nGreat protein intake."),
			expectedText: "Score: 8/10\nGreat protein intake.",
		},
		{
			name:         "multiple blocks are joined",
			mockResponse: textOutput("end_turn", "Score: 8/10", "Keep it up."),
			expectedText: "Score: 8/10\nKeep it up.",
		},
		{
			name:         "max tokens keeps partial text",
			mockResponse: textOutput("max_tokens", "Score: 8/10, and"),
			expectedText: "Score: 8/10, and",
		},
		{
			name:           "max tokens without text",
			mockResponse:   textOutput("max_tokens"),
			wantNoContent:  true,
			wantDiagnostic: "stop reason: max_tokens",
		},
		{
			name:           "content filtered",
			mockResponse:   textOutput("content_filtered"),
			wantNoContent:  true,
			wantDiagnostic: "stop reason: content_filtered",
		},
		{
			name:           "empty message",
			mockResponse:   textOutput("end_turn"),
			wantNoContent:  true,
			wantDiagnostic: "stop reason: end_turn",
		},
		{
			name:          "bedrock API error",
			mockError:     assert.AnError,
			expectedError: "assert.AnError general error for testing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mockBedrockClient{
				response: tt.mockResponse,
				err:      tt.mockError,
			}

			llmClient := NewLLMClient(mockClient, LLMOptions{})
			text, err := llmClient.GenerateText(context.Background(), "How was my day?")

			switch {
			case tt.expectedError != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			case tt.wantNoContent:
				var noContent *nutricoach.NoContentError
				require.ErrorAs(t, err, &noContent)
				assert.Equal(t, tt.wantDiagnostic, noContent.Diagnostic)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedText, text)
			}
		})
	}
}

func TestLLMClient_BuildsRequest(t *testing.T) {
	mockClient := &mockBedrockClient{response: textOutput("end_turn", "ok")}
	llmClient := NewLLMClient(mockClient, LLMOptions{ModelID: "m", MaxTokens: 100})

	_, err := llmClient.GenerateText(context.Background(), "the prompt")
	require.NoError(t, err)

	in := mockClient.input
	require.NotNil(t, in)
	assert.Equal(t, "m", aws.ToString(in.ModelId))
	assert.Equal(t, int32(100), aws.ToInt32(in.InferenceConfig.MaxTokens))
	require.Len(t, in.System, 1)
	assert.Equal(t, defaultSystemPrompt, in.System[0].(*types.SystemContentBlockMemberText).Value)
	require.Len(t, in.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, in.Messages[0].Role)
	assert.Equal(t, "the prompt", in.Messages[0].Content[0].(*types.ContentBlockMemberText).Value)
}

func TestTextFromOutput(t *testing.T) {
	assert.Equal(t, "", textFromOutput(nil))
	assert.Equal(t, "", textFromOutput(&bedrockruntime.ConverseOutput{}))
	assert.Equal(t, "a\nb", textFromOutput(textOutput("end_turn", "a", "", "b")))
}
