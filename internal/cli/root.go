// Package cli wires the command line interface to the convergence
// loop.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goalrun/goalrun/internal/config"
	"github.com/goalrun/goalrun/internal/console"
	"github.com/goalrun/goalrun/internal/logging"
	"github.com/goalrun/goalrun/internal/loop"
	"github.com/goalrun/goalrun/internal/model"
	"github.com/goalrun/goalrun/internal/runner"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	rootVerbose       bool
	rootControl       bool
	rootModel         string
	rootAPIKey        string
	rootMaxIterations int
)

var rootCmd = &cobra.Command{
	Use:   "goalrun [goal...]",
	Short: "Iteratively generate and run Python scripts until a goal is met",
	Long: `Goalrun asks a language model for a Python script that works towards
the stated goal, executes it with uv, and feeds the output back to the
model. The cycle repeats until the model confirms the goal is attained
by an execution it has observed, or the iteration limit is reached.

Example:
  goalrun "print the first 10 fibonacci numbers"
  goalrun -c "download the front page of example.com"
  goalrun -m claude-sonnet-4-5 -i 8 "sort the lines of data.txt"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoot,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("goalrun version {{.Version}}\n")
	registerFlags(rootCmd)
}

func registerFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&rootVerbose, "verbose", "v", false, "show scripts and output for every iteration")
	cmd.Flags().BoolVarP(&rootControl, "control", "c", false, "confirm each script before it runs")
	cmd.Flags().StringVarP(&rootModel, "model", "m", config.DefaultModel, "model to use for script generation")
	cmd.Flags().StringVar(&rootAPIKey, "api-key", "", "API key for the model provider")
	cmd.Flags().IntVarP(&rootMaxIterations, "max-iterations", "i", config.DefaultMaxIterations, "maximum loop iterations")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)

	env, err := config.LoadEnvFile(cwd)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	apiKey := rootAPIKey
	if apiKey == "" {
		apiKey = apiKeyFor(cfg.Model, env)
	}

	logger := logging.New()
	if rootVerbose {
		logger.SetLevel(logging.LevelDebug)
	}

	proposer, err := model.NewGollmProposer(cfg.Model, apiKey)
	if err != nil {
		return err
	}

	cons := console.New(cmd.OutOrStdout(), cmd.InOrStdin(), rootVerbose)

	l := loop.New(loop.Options{
		Proposer:      proposer,
		Runner:        runner.NewUVRunner(cfg.UVBin),
		Console:       cons,
		Logger:        logger,
		Goal:          strings.Join(args, " "),
		MaxIterations: cfg.MaxIterations,
		Confirm:       rootControl,
	})

	return report(cons, l.Run(ctx))
}

// applyFlags overlays explicitly set flags on top of the file config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("model") {
		cfg.Model = rootModel
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.MaxIterations = rootMaxIterations
	}
}

// apiKeyFor resolves a provider credential from the env file, falling
// back to the process environment.
func apiKeyFor(modelID string, env map[string]string) string {
	name := "OPENAI_API_KEY"
	if strings.HasPrefix(modelID, "claude") {
		name = "ANTHROPIC_API_KEY"
	}
	if key := env[name]; key != "" {
		return key
	}
	return os.Getenv(name)
}

func report(cons *console.Console, res loop.Result) error {
	switch res.Reason {
	case loop.ExitReasonSuccess:
		if cons.Verbose() {
			cons.Success("Goal attained")
			cons.Panel("Message", res.Message)
		} else {
			cons.Print(res.Output)
		}
		return nil
	case loop.ExitReasonExhausted:
		cons.Failure("Maximum iterations reached without success")
		return nil
	case loop.ExitReasonCancelled:
		cons.Notice("Execution cancelled")
		return nil
	default:
		return res.Err
	}
}
