// Command agentic runs ReAct agents from the terminal: one-shot tasks,
// interactive chat, and deterministic evaluation runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"agentic"
	"agentic/config"
	"agentic/eval"
	"agentic/observers"
	"agentic/tools"
)

func main() {
	cmd := &cli.Command{
		Name:  "agentic",
		Usage: "Run LLM agents with tool use, checkpointing and evaluation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to .env file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "show full reasoning and debug logs",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			chatCommand(),
			evalCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
	return logger
}

func buildAgent(cmd *cli.Command, toolset *agentic.Toolset) (*agentic.Agent, error) {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return nil, err
	}
	llm, err := cfg.NewLLM()
	if err != nil {
		return nil, err
	}

	verbose := cmd.Bool("verbose")
	logger := setupLogger(verbose)

	tracer := observers.NewConsoleTracer().WithVerbose(verbose)
	agent := agentic.NewAgent(llm, toolset).
		WithMaxTurns(cfg.MaxTurns).
		WithObservers(tracer).
		WithLogger(logger)

	if maxTurns := cmd.Int("max-turns"); maxTurns > 0 {
		agent = agent.WithMaxTurns(int(maxTurns))
	}
	if path := cmd.String("checkpoint"); path != "" {
		agent = agent.WithAutoCheckpoint(path)
	}
	return agent, nil
}

func defaultToolset(rootDirectory string) *agentic.Toolset {
	return agentic.NewToolset(
		tools.NewCalculator(),
		tools.NewWeather(),
		tools.NewListDirectory(rootDirectory),
		tools.NewReadFile(rootDirectory),
		tools.NewFileInfo(rootDirectory),
		tools.NewSearchInDirectory(rootDirectory),
	)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a single task to completion",
		ArgsUsage: "<task>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-turns", Usage: "override turn limit"},
			&cli.StringFlag{Name: "checkpoint", Usage: "save a crash-recovery checkpoint to this path on fatal errors"},
			&cli.StringFlag{Name: "resume", Usage: "resume from a checkpoint file"},
			&cli.StringFlag{Name: "root", Value: ".", Usage: "sandbox root for file tools"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			task := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if task == "" {
				return fmt.Errorf("no task given; usage: agentic run <task>")
			}

			agent, err := buildAgent(cmd, defaultToolset(cmd.String("root")))
			if err != nil {
				return err
			}

			if resumePath := cmd.String("resume"); resumePath != "" {
				if err := agentic.LoadCheckpointInto(agent, resumePath); err != nil {
					return fmt.Errorf("resuming from %s: %w", resumePath, err)
				}
				fmt.Printf("Resumed from %s (%d turns, %d messages)\n\n",
					resumePath, agent.TurnCount(), len(agent.Messages()))
			}

			result, err := agent.Continue(ctx, task)
			if err != nil {
				return err
			}

			fmt.Printf("\nStatus: %s\n", result.Status)
			fmt.Printf("Result: %s\n", result.Value)
			return nil
		},
	}
}

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive multi-turn conversation with the agent",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-turns", Usage: "turn limit per input"},
			&cli.StringFlag{Name: "checkpoint", Usage: "save a crash-recovery checkpoint to this path on fatal errors"},
			&cli.StringFlag{Name: "root", Value: ".", Usage: "sandbox root for file tools"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			agent, err := buildAgent(cmd, defaultToolset(cmd.String("root")))
			if err != nil {
				return err
			}

			rl, err := readline.New("you> ")
			if err != nil {
				return err
			}
			defer rl.Close()

			fmt.Println("Chat started. Ctrl-D or 'exit' to quit.")
			baseTurns := 0
			perInput := int(cmd.Int("max-turns"))
			if perInput <= 0 {
				perInput = 10
			}

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}

				input := strings.TrimSpace(line)
				if input == "" {
					continue
				}
				if input == "exit" || input == "quit" {
					return nil
				}

				// Each input gets a fresh turn allowance on top of the turns
				// already consumed.
				baseTurns = agent.TurnCount()
				agent.WithMaxTurns(baseTurns + perInput)

				result, err := agent.Continue(ctx, input)
				if err != nil {
					if agentic.IsConfigError(err) {
						return err
					}
					fmt.Printf("error: %v\n", err)
					continue
				}
				fmt.Printf("\nagent> %s\n\n", result.Value)
			}
		},
	}
}

func evalCommand() *cli.Command {
	return &cli.Command{
		Name:  "eval",
		Usage: "Run the file-navigation evaluation scenario and validate the trace",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-turns", Value: 15, Usage: "turn limit for the run"},
			&cli.StringFlag{Name: "scenario", Usage: "YAML/JSON filesystem scenario (default: built-in)"},
			&cli.BoolFlag{Name: "trace", Value: true, Usage: "show the console trace during the run"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("env"))
			if err != nil {
				return err
			}
			llm, err := cfg.NewLLM()
			if err != nil {
				return err
			}
			setupLogger(cmd.Bool("verbose"))

			runner := eval.NewRunner(llm).
				WithMaxTurns(int(cmd.Int("max-turns"))).
				WithTrace(cmd.Bool("trace"))

			if path := cmd.String("scenario"); path != "" {
				fs, err := eval.LoadFilesystem(path)
				if err != nil {
					return err
				}
				runner = runner.WithScenario(fs, eval.FindTestFilesPrompt, eval.InitialPath(fs))
			}

			result, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			if !result.Passed {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}
