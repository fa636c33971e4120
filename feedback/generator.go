package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"nutricoach"
)

// Texts stored or returned in place of model output.
const (
	UnavailableFeedback   = "Feedback service is not configured or the API credential is missing."
	NotConfiguredFeedback = "Feedback generation is not configured; no suggestion is available."
	NoContentFeedback     = "The language model response contained no usable content."
	FailurePrefix         = "Could not get feedback from the language model: "
)

// LineBreak replaces every newline in model output.
const LineBreak = "<br>"

const defaultTimeout = 30 * time.Second

// Capability records whether a text generator was set up at startup.
type Capability struct {
	Configured bool
	// Reason explains an unconfigured capability in logs.
	Reason string
}

type GeneratorOptions struct {
	Guidance string
	Timeout  time.Duration
	Logger   nutricoach.GenerationLogger
}

// Generator turns a daily summary into display-ready feedback text. Generate
// never returns an error; every failure becomes an explanatory text.
type Generator struct {
	llm        nutricoach.TextGenerator
	capability Capability
	guidance   string
	timeout    time.Duration
	logger     nutricoach.GenerationLogger
	tracer     trace.Tracer
	latency    metric.Float64Histogram
}

func NewGenerator(llm nutricoach.TextGenerator, capability Capability, opts GeneratorOptions) *Generator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = nutricoach.NewNoOpGenerationLogger()
	}
	if llm == nil {
		capability.Configured = false
		if capability.Reason == "" {
			capability.Reason = "no text generator"
		}
	}

	latency, _ := otel.Meter(nutricoach.MeterName).Float64Histogram(
		"feedback_generation_seconds",
		metric.WithDescription("Time spent waiting for the language model"),
		metric.WithUnit("s"),
	)

	if !capability.Configured {
		slog.Warn("FEEDBACK: Text generation is not configured", "reason", capability.Reason)
	}

	return &Generator{
		llm:        llm,
		capability: capability,
		guidance:   opts.Guidance,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		tracer:     otel.Tracer(nutricoach.TracerNameFeedback),
		latency:    latency,
	}
}

// Available reports whether Generate would call the model.
func (g *Generator) Available() bool {
	return g != nil && g.capability.Configured
}

// Generate produces feedback for s. Newlines in the model answer become LineBreak.
func (g *Generator) Generate(ctx context.Context, s nutricoach.DailySummary) string {
	if !g.Available() {
		return NotConfiguredFeedback
	}

	ctx, span := g.tracer.Start(ctx, "Generator.Generate", trace.WithAttributes(
		attribute.Int("record.id", int(s.Record.ID)),
		attribute.Int("user.id", int(s.User.ID)),
	))
	defer span.End()

	prompt := BuildPrompt(s, g.guidance)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.call(callCtx, prompt)
	elapsed := time.Since(start)
	g.latency.Record(ctx, elapsed.Seconds())

	entry := nutricoach.GenerationLog{
		RecordID:  s.Record.ID,
		UserID:    s.User.ID,
		Date:      s.Date.String(),
		Timestamp: start.UTC(),
		Prompt:    prompt,
		Output:    text,
		LatencyMs: elapsed.Milliseconds(),
	}

	var feedback string
	var noContent *nutricoach.NoContentError
	switch {
	case err == nil && strings.TrimSpace(text) != "":
		feedback = strings.ReplaceAll(text, "\n", LineBreak)
	case err == nil:
		err = &nutricoach.NoContentError{}
		feedback = NoContentFeedback
	case errors.As(err, &noContent):
		feedback = NoContentFeedback
		if noContent.Diagnostic != "" {
			feedback += " Diagnostic: " + noContent.Diagnostic
		}
	default:
		feedback = FailurePrefix + err.Error()
	}

	if err != nil {
		entry.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("FEEDBACK: Generation failed", "record_id", s.Record.ID, "error", err, "latency", elapsed)
	} else {
		slog.Info("FEEDBACK: Generated feedback", "record_id", s.Record.ID, "latency", elapsed, "text_len", len(text))
	}

	if logErr := g.logger.LogGeneration(entry); logErr != nil {
		slog.Warn("FEEDBACK: Failed to write generation log", "error", logErr)
	}

	return feedback
}

// call shields the caller from a provider panic.
func (g *Generator) call(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text generator panicked: %v", r)
		}
	}()
	return g.llm.GenerateText(ctx, prompt)
}
