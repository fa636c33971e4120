package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutricoach"
)

func TestGenerator_Generate(t *testing.T) {
	tests := []struct {
		name      string
		llm       *fakeLLM
		want      string
		wantCalls int32
	}{
		{
			name:      "newlines become line breaks",
			llm:       &fakeLLM{text: "Score: 7/10\nEat more protein.\nKeep going!"},
			want:      "Score: 7/10<br>Eat more protein.<br>Keep going!",
			wantCalls: 1,
		},
		{
			name:      "blank answer is reported as no content",
			llm:       &fakeLLM{text: "  \n "},
			want:      NoContentFeedback,
			wantCalls: 1,
		},
		{
			name:      "no content error carries the diagnostic",
			llm:       &fakeLLM{err: &nutricoach.NoContentError{Diagnostic: "stop reason: content_filtered"}},
			want:      NoContentFeedback + " Diagnostic: stop reason: content_filtered",
			wantCalls: 1,
		},
		{
			name:      "provider error is embedded",
			llm:       &fakeLLM{err: errBoom},
			want:      FailurePrefix + "boom",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.llm, Capability{Configured: true}, GeneratorOptions{})

			got := g.Generate(context.Background(), sampleSummary(sampleRecord()))

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, tt.llm.calls.Load())
		})
	}
}

func TestGenerator_NotConfigured(t *testing.T) {
	llm := &fakeLLM{text: "unused"}
	g := NewGenerator(llm, Capability{Reason: "no credentials"}, GeneratorOptions{})

	assert.False(t, g.Available())
	assert.Equal(t, NotConfiguredFeedback, g.Generate(context.Background(), sampleSummary(sampleRecord())))
	assert.Zero(t, llm.calls.Load())
}

func TestGenerator_NilLLMIsUnavailable(t *testing.T) {
	g := NewGenerator(nil, Capability{Configured: true}, GeneratorOptions{})
	assert.False(t, g.Available())
}

func TestGenerator_Timeout(t *testing.T) {
	llm := &fakeLLM{text: "too late", delay: time.Second}
	g := NewGenerator(llm, Capability{Configured: true}, GeneratorOptions{Timeout: 20 * time.Millisecond})

	got := g.Generate(context.Background(), sampleSummary(sampleRecord()))

	assert.Contains(t, got, FailurePrefix)
	assert.Contains(t, got, "deadline exceeded")
}

type panickyLLM struct{}

func (panickyLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	panic("provider exploded")
}

func TestGenerator_RecoversFromPanic(t *testing.T) {
	g := NewGenerator(panickyLLM{}, Capability{Configured: true}, GeneratorOptions{})

	var got string
	require.NotPanics(t, func() {
		got = g.Generate(context.Background(), sampleSummary(sampleRecord()))
	})
	assert.Contains(t, got, "provider exploded")
}

func TestGenerator_UsesGuidanceAndLogs(t *testing.T) {
	var buf bytes.Buffer
	llm := &fakeLLM{text: "Nice work"}
	g := NewGenerator(llm, Capability{Configured: true}, GeneratorOptions{
		Guidance: "Answer in one sentence.",
		Logger:   nutricoach.NewWriterGenerationLogger(&buf),
	})

	g.Generate(context.Background(), sampleSummary(sampleRecord()))

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Answer in one sentence.")

	var entry nutricoach.GenerationLog
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, uint(11), entry.RecordID)
	assert.Equal(t, uint(7), entry.UserID)
	assert.Equal(t, "2024-05-01", entry.Date)
	assert.Equal(t, "Nice work", entry.Output)
	assert.Empty(t, entry.Error)
}
