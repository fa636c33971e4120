// Package bootstrap wires configuration into a running application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"nutricoach"
	"nutricoach/api"
	"nutricoach/feedback"
	"nutricoach/guidance"
	"nutricoach/llm/bedrock"
	"nutricoach/llm/mock"
	"nutricoach/llm/ollama"
	"nutricoach/lock"
	"nutricoach/slack"
	"nutricoach/store"
	"nutricoach/summary"
	"nutricoach/tools"
)

// Version is reported by the MCP server and the OpenTelemetry resource.
const Version = "0.1.0"

const credentialsTimeout = 5 * time.Second

// LoadConfig decodes every configuration section from the environment.
func LoadConfig() (nutricoach.Config, error) {
	var cfg nutricoach.Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nutricoach.Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config      nutricoach.Config
	Store       *store.Store
	Generator   *feedback.Generator
	Coordinator *feedback.Coordinator
	Summaries   *summary.Service

	closers []func(context.Context) error
}

// New connects storage, picks the text generator and assembles the services.
func New(ctx context.Context, cfg nutricoach.Config) (*App, error) {
	app := &App{Config: cfg}

	_, _, otelShutdown, err := nutricoach.InitOtel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	app.onClose(otelShutdown)

	db, err := store.Open(cfg.Store.DatabaseURL, cfg.Store.LogSQL)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Store = store.New(db)
	app.onClose(func(context.Context) error { return app.Store.Close() })

	if err := app.Store.Migrate(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	genLogger, closeLog, err := nutricoach.OpenGenerationLogger(cfg.Feedback.LogPath)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.onClose(func(context.Context) error { return closeLog() })

	llm, capability := NewTextGenerator(ctx, cfg.Model)
	slog.Info("SETUP: Text generator selected",
		"provider", cfg.Model.Provider,
		"configured", capability.Configured,
		"reason", capability.Reason)

	app.Generator = feedback.NewGenerator(llm, capability, feedback.GeneratorOptions{
		Guidance: guidance.Resolve(ctx, guidanceSource(ctx, cfg.Feedback)),
		Timeout:  cfg.Feedback.Timeout,
		Logger:   genLogger,
	})

	opts := feedback.CoordinatorOptions{}
	if rdb := app.connectRedis(ctx, cfg.Store); rdb != nil {
		opts.Locker = lock.NewRedis(rdb, cfg.Feedback.LockTTL)
		opts.LockWait = cfg.Feedback.LockTTL
	}
	if cfg.Slack.WebhookURL != "" {
		client := slack.NewClient(cfg.Slack.WebhookURL, &http.Client{Timeout: 10 * time.Second})
		opts.Notifier = slack.NewNotifier(client, cfg.Slack.Channel)
		slog.Info("SETUP: Slack notifications enabled", "channel", cfg.Slack.Channel)
	}

	app.Coordinator = feedback.NewCoordinator(app.Store, app.Generator, opts)
	app.Summaries = summary.NewService(app.Store, app.Coordinator)

	return app, nil
}

// Handler returns the HTTP handler set backed by this app.
func (a *App) Handler() *api.Handler {
	return api.NewHandler(a.Store, a.Summaries, a.Generator.Available())
}

// Tools returns the agent tool registry backed by this app.
func (a *App) Tools() *tools.Registry {
	return tools.NewRegistry(a.Summaries, a.Store)
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close runs every cleanup and joins their errors.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) connectRedis(ctx context.Context, cfg nutricoach.StoreConfig) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("SETUP: Redis unreachable, feedback lock disabled", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
		return nil
	}

	slog.Info("SETUP: Redis feedback lock enabled", "addr", cfg.RedisAddr)
	a.onClose(func(context.Context) error { return rdb.Close() })
	return rdb
}

// NewTextGenerator builds the configured provider. A provider that cannot be
// used yields a nil generator and an unconfigured capability with the reason.
func NewTextGenerator(ctx context.Context, cfg nutricoach.ModelConfig) (nutricoach.TextGenerator, feedback.Capability) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "none":
		return nil, feedback.Capability{Reason: "MODEL_PROVIDER is none"}

	case "mock":
		return mock.NewLLMClient(), feedback.Capability{Configured: true}

	case "ollama":
		client, err := ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: cfg.OllamaURL,
			ModelID:      cfg.ModelID,
			SystemPrompt: cfg.SystemPrompt,
			Temperature:  float64(cfg.Temperature),
			TopP:         float64(cfg.TopP),
			MaxTokens:    int(cfg.MaxTokens),
			HTTPClient:   http.DefaultClient,
		})
		if err != nil {
			return nil, feedback.Capability{Reason: err.Error()}
		}
		return client, feedback.Capability{Configured: true}

	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, feedback.Capability{Reason: fmt.Sprintf("failed to load AWS config: %v", err)}
		}
		if reason := checkCredentials(ctx, awsCfg); reason != "" {
			return nil, feedback.Capability{Reason: reason}
		}
		return bedrock.NewLLMClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
			ModelID:      cfg.ModelID,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  cfg.Temperature,
			TopP:         cfg.TopP,
			SystemPrompt: cfg.SystemPrompt,
		}), feedback.Capability{Configured: true}

	default:
		return nil, feedback.Capability{Reason: fmt.Sprintf("unknown MODEL_PROVIDER %q", cfg.Provider)}
	}
}

func checkCredentials(ctx context.Context, awsCfg aws.Config) string {
	if awsCfg.Credentials == nil {
		return "no AWS credentials provider"
	}
	ctx, cancel := context.WithTimeout(ctx, credentialsTimeout)
	defer cancel()
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return fmt.Sprintf("AWS credentials unavailable: %v", err)
	}
	return ""
}

func guidanceSource(ctx context.Context, cfg nutricoach.FeedbackConfig) guidance.Source {
	switch {
	case cfg.GuidancePath != "":
		return guidance.NewFile(cfg.GuidancePath)
	case cfg.GuidanceBucket != "" && cfg.GuidanceKey != "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Warn("SETUP: Failed to load AWS config for guidance", "error", err)
			return nil
		}
		return guidance.NewS3(s3.NewFromConfig(awsCfg), cfg.GuidanceBucket, cfg.GuidanceKey)
	default:
		return nil
	}
}
