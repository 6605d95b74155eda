package bedrock

import (
	"context"
	"errors"
	"testing"

	"mealresolver"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBedrockClient implements bedrockRuntimeClient for testing
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
	inputs   []*bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.inputs = append(m.inputs, input)
	return m.response, m.err
}

func textOutput(stop types.StopReason, texts ...string) *bedrockruntime.ConverseOutput {
	var blocks []types.ContentBlock
	for _, t := range texts {
		blocks = append(blocks, &types.ContentBlockMemberText{Value: t})
	}
	return &bedrockruntime.ConverseOutput{
		StopReason: stop,
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{Role: types.ConversationRoleAssistant, Content: blocks},
		},
		Usage: &types.TokenUsage{InputTokens: aws.Int32(120), OutputTokens: aws.Int32(40)},
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
				ModelID:     defaultModelID,
				MaxTokens:   defaultMaxTokens,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
		{
			name:     "custom options preserved",
			input:    LLMOptions{ModelID: "custom-model", MaxTokens: 2048, Temperature: 0.5, TopP: 0.8},
			expected: LLMOptions{ModelID: "custom-model", MaxTokens: 2048, Temperature: 0.5, TopP: 0.8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLLMClient(&mockBedrockClient{}, tt.input)
			assert.Equal(t, tt.expected, c.opts)
		})
	}
}

func TestLLMClient_Complete(t *testing.T) {
	prompt := mealresolver.Prompt{System: "Return JSON.", User: "a slice of toast"}

	tests := []struct {
		name    string
		mock    *mockBedrockClient
		want    string
		wantErr bool
	}{
		{
			name: "end turn returns text",
			mock: &mockBedrockClient{response: textOutput(types.StopReasonEndTurn, `{"items":[]}`)},
			want: `{"items":[]}`,
		},
		{
			name: "multiple blocks are joined",
			mock: &mockBedrockClient{response: textOutput(types.StopReasonEndTurn, "Here:", `{"items":[]}`)},
			want: "Here:\n{\"items\":[]}",
		},
		{
			name:    "max tokens is an error",
			mock:    &mockBedrockClient{response: textOutput(types.StopReasonMaxTokens, `{"items":[{"name":"toa`)},
			wantErr: true,
		},
		{
			name:    "content filtered is an error",
			mock:    &mockBedrockClient{response: textOutput(types.StopReasonContentFiltered)},
			wantErr: true,
		},
		{
			name:    "converse error is returned",
			mock:    &mockBedrockClient{err: errors.New("AccessDeniedException")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLLMClient(tt.mock, LLMOptions{})
			got, err := c.Complete(context.Background(), prompt)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLLMClient_Complete_BuildsInput(t *testing.T) {
	m := &mockBedrockClient{response: textOutput(types.StopReasonEndTurn, "{}")}
	c := NewLLMClient(m, LLMOptions{ModelID: "test-model"})

	_, err := c.Complete(context.Background(), mealresolver.Prompt{System: "sys", User: "2 eggs"})
	require.NoError(t, err)

	require.Len(t, m.inputs, 1)
	in := m.inputs[0]
	assert.Equal(t, "test-model", aws.ToString(in.ModelId))
	require.Len(t, in.System, 1)
	assert.Equal(t, "sys", in.System[0].(*types.SystemContentBlockMemberText).Value)
	require.Len(t, in.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, in.Messages[0].Role)
	assert.Equal(t, "2 eggs", in.Messages[0].Content[0].(*types.ContentBlockMemberText).Value)
	assert.Nil(t, in.ToolConfig)
	assert.Equal(t, int32(defaultMaxTokens), aws.ToInt32(in.InferenceConfig.MaxTokens))
}

func TestTextFromOutput(t *testing.T) {
	assert.Empty(t, textFromOutput(nil))
	assert.Empty(t, textFromOutput(&bedrockruntime.ConverseOutput{}))
	assert.Empty(t, textFromOutput(textOutput(types.StopReasonEndTurn, "")))
	assert.Equal(t, "a", textFromOutput(textOutput(types.StopReasonEndTurn, "a")))
}
