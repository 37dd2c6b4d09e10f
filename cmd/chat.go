package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	openai "github.com/sashabaranov/go-openai"

	"github.com/calchat/calchat/internal/agent"
	"github.com/calchat/calchat/internal/google"
	"github.com/calchat/calchat/internal/instrumentation"
	"github.com/calchat/calchat/internal/server"
	"github.com/calchat/calchat/internal/tools/calendar_tools"
)

// defaultModel is used when neither --model nor CALCHAT_MODEL is set.
const defaultModel = "gpt-4o"

func newChatCmd() *cobra.Command {
	var (
		debugMode bool
		model     string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive calendar chat session",
		Long: `Start an interactive session where you manage your calendar in plain
language. Each request is handed to the chat model together with the
calendar tools; the model decides which operations to run and answers
with the result.

Configuration:
  OPENAI_API_KEY   API key for the chat model service (required)
  OPENAI_BASE_URL  Alternative API endpoint (optional)
  CALCHAT_MODEL    Model name, overridden by --model (default: ` + defaultModel + `)

Session commands:
  /quit    end the session
  /logout  remove the stored Google credentials and end the session`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(debugMode, model)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&model, "model", "", "Chat model to use. Can also use CALCHAT_MODEL env var.")

	return cmd
}

func runChat(debugMode bool, model string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := setupLogger(debugMode)

	provider, err := newCredentialProvider(logger)
	if err != nil {
		return err
	}

	if !provider.IsLoggedIn() {
		fmt.Println("You are not logged in to Google Calendar yet, starting authorization...")
		if _, err := provider.GetCredentials(ctx); err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}
		fmt.Println("Authorization complete.")
	}

	serverContext, err := server.NewServerContext(ctx, provider, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", "error", err)
		}
	}()

	// Instrumentation is driven by OTEL_* env vars and off by default.
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	instrProvider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := instrProvider.Shutdown(ctx); err != nil {
			logger.Error("error during instrumentation shutdown", "error", err)
		}
	}()

	var metrics *instrumentation.Metrics
	if instrProvider.Enabled() {
		metrics = instrProvider.Metrics()
		serverContext.SetInstrumentation(metrics,
			instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	service, err := newChatService()
	if err != nil {
		return err
	}

	loop, err := agent.NewLoop(agent.Config{
		Service: service,
		Model:   resolveModel(model),
		Tools:   calendar_tools.Tools(serverContext),
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent loop: %w", err)
	}

	return runREPL(ctx, os.Stdin, os.Stdout, loop, provider)
}

// newChatService builds the OpenAI-compatible chat client from the
// environment.
func newChatService() (*openai.Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config), nil
}

// resolveModel picks the chat model: flag, then CALCHAT_MODEL, then the
// built-in default.
func resolveModel(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CALCHAT_MODEL"); env != "" {
		return env
	}
	return defaultModel
}

// runREPL reads user turns line by line and prints the loop's answers.
// The conversation state lives in the loop; the shell only moves text.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, loop *agent.Loop, provider *google.Provider) error {
	fmt.Fprintln(out, "Connected to your calendar. Type a request, /logout, or /quit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			fmt.Fprintln(out, "Bye.")
			return nil
		case "/logout":
			if provider.Logout() {
				fmt.Fprintln(out, "Logged out, stored credentials removed.")
			} else {
				fmt.Fprintln(out, "No stored credentials.")
			}
			return nil
		}

		fmt.Fprintln(out, loop.Submit(ctx, line))

		if ctx.Err() != nil {
			return nil
		}
	}
}
