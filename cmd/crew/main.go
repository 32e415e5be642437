package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codecrew/internal/agent"
	"codecrew/internal/config"
	"codecrew/internal/message"
	"codecrew/internal/orchestrator"
	"codecrew/internal/registry"
	"codecrew/internal/selector"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// select flags
	selRequirements []string
	selConstraints  []string
	selModel        string
	selExplain      bool

	// demo flags
	demoTimeout time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "crew",
	Short: "codecrew - multi-agent task orchestration scaffold",
	Long: `codecrew coordinates specialized agents (architect, coder, debugger)
over a shared task queue, choosing a model for every task from a
capability-aware registry.

Selection is deterministic: capabilities are inferred from the task
type and requirement wording, candidates are filtered by capability
and constraint, and the survivors are ranked by measured performance
weighted by model size.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		zapCfg := zap.NewProductionConfig()
		if cfg.Logging.Development {
			zapCfg = zap.NewDevelopmentConfig()
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		parsed, perr := zapcore.ParseLevel(level)
		if perr != nil {
			parsed = zapcore.InfoLevel
		}
		zapCfg.Level = zap.NewAtomicLevelAt(parsed)
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// modelsCmd lists the model catalog
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the registered models and their capabilities",
	RunE:  listModels,
}

// selectCmd runs the selection pipeline for a single task description
var selectCmd = &cobra.Command{
	Use:   "select [task-type]",
	Short: "Choose a model for a task without executing it",
	Long: `Runs the model selection pipeline for the given task type and prints
the chosen model.

Example:
  crew select system_design -r "design a complex distributed system" -c "high performance"`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

// demoCmd runs a scripted end-to-end workflow
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted workflow through the orchestrator",
	Long: `Submits a composite implement_system task plus a bug-fix task, lets the
registered agents execute the resulting subtasks, and prints the
responses as they arrive.`,
	RunE: runDemo,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "crew.yaml", "Config file path")

	selectCmd.Flags().StringSliceVarP(&selRequirements, "requirement", "r", nil, "Task requirement (repeatable)")
	selectCmd.Flags().StringSliceVarP(&selConstraints, "constraint", "c", nil, "Task constraint (repeatable)")
	selectCmd.Flags().StringVar(&selModel, "model", "", "Explicit model override")
	selectCmd.Flags().BoolVar(&selExplain, "explain", false, "Print each selection decision")

	demoCmd.Flags().DurationVar(&demoTimeout, "timeout", 30*time.Second, "Demo run timeout")

	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRegistry creates the registry from config, loading an external
// catalog when one is configured.
func buildRegistry() (*registry.Registry, error) {
	reg := registry.New(cfg.Model.Default, registry.WithLogger(logger))
	if cfg.Model.CatalogPath != "" {
		if err := reg.LoadFile(cfg.Model.CatalogPath); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	return reg, nil
}

func buildSelector(reg *registry.Registry, opts ...selector.Option) *selector.Selector {
	opts = append(opts,
		selector.WithLogger(logger),
		selector.WithThresholds(selector.Thresholds{
			LowCostOutputTokens:    cfg.Selector.LowCostThreshold,
			HighPerformanceAverage: cfg.Selector.HighPerformanceThreshold,
		}),
		selector.WithSizeWeights(selector.SizeWeights{
			Large:  cfg.Selector.SizeWeights.Large,
			Medium: cfg.Selector.SizeWeights.Medium,
			Small:  cfg.Selector.SizeWeights.Small,
		}),
	)
	return selector.New(reg, opts...)
}

func listModels(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}
	fmt.Printf("%-20s %-10s %-7s %-8s %-12s %s\n",
		"MODEL", "PROVIDER", "SIZE", "QUALITY", "OUT $/TOKEN", "CAPABILITIES")
	for _, name := range reg.List() {
		rec, ok := reg.Get(name)
		if !ok {
			continue
		}
		marker := " "
		if name == reg.Default() {
			marker = "*"
		}
		fmt.Printf("%s%-19s %-10s %-7s %-8.2f %-12.8f %s\n",
			marker, rec.Name, rec.Provider, string(rec.Size),
			rec.Performance["quality"], rec.Cost.OutputTokens,
			strings.Join(rec.Capabilities, ","))
	}
	fmt.Printf("\n%d models, default marked with *\n", reg.Len())
	return nil
}

func runSelect(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}
	var opts []selector.Option
	if selExplain {
		opts = append(opts, selector.WithObserver(func(d selector.Decision) {
			fmt.Printf("  [%s] model=%s capabilities=%s\n",
				d.Kind, d.Model, strings.Join(d.Capabilities, ","))
		}))
	}
	sel := buildSelector(reg, opts...)
	chosen := sel.Select(selector.TaskDescriptor{
		TaskType:     args[0],
		Requirements: selRequirements,
		Constraints:  selConstraints,
		Model:        selModel,
	})
	fmt.Printf("selected: %s\n", chosen)
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}
	sel := buildSelector(reg)

	orch := orchestrator.New(reg, sel,
		orchestrator.WithLogger(logger),
		orchestrator.WithMaxRetries(cfg.Orchestrator.MaxRetries),
		orchestrator.WithQueueSize(cfg.Orchestrator.QueueSize),
		orchestrator.WithAutoSelect(cfg.Model.AutoSelect),
	)

	reporter := orch.Reporter()
	orch.RegisterAgent(agent.NewArchitect(reporter, logger))
	orch.RegisterAgent(agent.NewCoder(reporter, logger))
	orch.RegisterAgent(agent.NewDebugger(reporter, logger))

	responses := make(chan *message.Response, 16)
	orch.RegisterCallback(func(resp *message.Response) {
		select {
		case responses <- resp:
		default:
		}
	})

	if cfg.Model.WatchCatalog && cfg.Model.CatalogPath != "" {
		watcher, werr := registry.NewCatalogWatcher(reg, cfg.Model.CatalogPath, logger)
		if werr != nil {
			return fmt.Errorf("failed to create catalog watcher: %w", werr)
		}
		if werr := watcher.Start(); werr != nil {
			return fmt.Errorf("failed to start catalog watcher: %w", werr)
		}
		defer watcher.Stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, demoTimeout)
	defer timeoutCancel()

	orch.Start(ctx)
	defer orch.Shutdown()

	systemTask := message.NewTask("implement_system", message.Payload{
		Requirements: []string{
			"users shall authenticate before accessing the api",
			"the system must remain responsive under peak load (performance)",
		},
		Constraints:   []string{"high performance"},
		ComponentName: "order_service",
	})
	systemTask.Priority = message.PriorityHigh
	systemID, err := orch.SubmitTask(systemTask)
	if err != nil {
		return err
	}
	fmt.Printf("submitted workflow %s\n", systemID)

	bugTask := message.NewTask("fix_bug", message.Payload{
		BugReport: map[string]any{
			"description":   "checkout intermittently crashes under load",
			"error_message": "runtime error: nil pointer dereference in checkout handler",
		},
		Code: "func checkout(c *Cart) { total := c.Sum() }",
	})
	bugID, err := orch.SubmitTask(bugTask)
	if err != nil {
		return err
	}
	fmt.Printf("submitted bug fix %s\n", bugID)

	// implement_system decomposes into three subtasks, plus the bug fix
	want := 4
	for received := 0; received < want; received++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case resp := <-responses:
			fmt.Printf("response task=%s status=%s model=%v\n",
				resp.TaskID, resp.Status, resp.Result["model_used"])
		}
	}

	sum := orch.WorkflowStatus(systemID)
	fmt.Printf("workflow %s: %d/%d subtasks completed, %d failed\n",
		systemID, sum.Completed, sum.Total, sum.Failed)
	return nil
}
