package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tripnegotiator/internal/agent"
	"tripnegotiator/internal/chat"
	"tripnegotiator/internal/config"
	"tripnegotiator/internal/llm"
	"tripnegotiator/internal/logging"
	"tripnegotiator/internal/sim"
	"tripnegotiator/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:   "negotiator",
		Short: "Negotiates trips with tour guides on a traveler's behalf",
		Long: "negotiator collects a traveler's trip requirements in conversation, " +
			"then negotiates price and terms with each of their guide contacts, " +
			"relaying guide questions back to the traveler as needed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	flags := root.Flags()
	flags.String("model", "", "decision engine model (overrides MODEL)")
	flags.Bool("live", false, "read counterpart replies from stdin instead of simulating them")
	flags.String("resume", "", "resume the stored traveler with this id instead of a fresh intake")
	flags.String("data-dir", "", "record store directory (overrides DATA_DIR)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "negotiator:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := logging.New(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}
	if !cfg.SkipCollect {
		// Fresh intake starts from a clean slate; resumes must not wipe it.
		if err := st.Clear(); err != nil {
			return err
		}
	}

	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()
	log.Info("decision engine ready", zap.String("model", engine.Name()))

	coord := &agent.Coordinator{
		Store:       st,
		LLM:         engine,
		Log:         log,
		Out:         os.Stdout,
		SkipCollect: cfg.SkipCollect,
		TravelerID:  cfg.TravelerID,
	}
	if cfg.Simulation {
		profile := sim.DefaultProfile()
		if cfg.SimulationProfile != "" {
			if profile, err = sim.LoadProfile(cfg.SimulationProfile); err != nil {
				return err
			}
		}
		coord.TravelerResponder = &sim.TravelerSimulator{LLM: engine, Profile: profile, Log: log}
		coord.GuideResponders = func(_, name string) chat.Responder {
			return &sim.GuideSimulator{LLM: engine, Name: name, Log: log}
		}
	} else {
		stdin := chat.NewStdioResponder(os.Stdin)
		coord.TravelerResponder = stdin
		coord.GuideResponders = func(_, _ string) chat.Responder { return stdin }
	}

	if err := coord.Run(ctx); err != nil {
		log.Error("negotiation run failed", zap.Error(err))
		return err
	}
	log.Info("negotiation run complete")
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if model, _ := flags.GetString("model"); model != "" {
		cfg.Model = model
	}
	if live, _ := flags.GetBool("live"); live {
		cfg.Simulation = false
	}
	if id, _ := flags.GetString("resume"); id != "" {
		cfg.SkipCollect = true
		cfg.TravelerID = id
	}
	if dir, _ := flags.GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
}

func newEngine(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if cfg.UseFake() {
		return llm.NewFake(), nil
	}
	return llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.Model,
		RPS:    cfg.GeminiRPS,
		Burst:  cfg.GeminiBurst,
	})
}
