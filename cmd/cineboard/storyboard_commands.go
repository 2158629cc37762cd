package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"cineboard/internal/session"
	"cineboard/internal/storyboard"
	"cineboard/internal/tui"
	"cineboard/internal/workflow"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string
	var fileFlag string
	var tuiFlag bool

	cmd := &cobra.Command{
		Use:   "generate [story...]",
		Short: "Analyze a story and generate media for every scene",
		Long: `Analyze a story into scenes and generate an image or video clip for each one.

The story is read from the arguments, from --file, or from standard input
when it is not a terminal. Generation replaces any existing storyboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := storyboard.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			story, fromStdin, err := readStory(cmd, args, fileFlag)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(commandCtx(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := ctx.openApp(runCtx, cmd, appOptions{
				interactiveKeys: !fromStdin && !tuiFlag && isTerminal(cmd.InOrStdin()),
				quietLogs:       tuiFlag,
			})
			if err != nil {
				return err
			}
			defer a.Close()

			if tuiFlag {
				err = generateInteractive(runCtx, a.orch, story, mode)
			} else {
				err = generateWithProgress(runCtx, a.orch, story, mode, cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}

			state := a.orch.Snapshot()
			fmt.Fprint(cmd.OutOrStdout(), renderStoryboard(state))
			if state.Error != "" {
				return errors.New(state.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(storyboard.ModeImage), "Generation mode: image or video")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the story from a file ('-' for stdin)")
	cmd.Flags().BoolVar(&tuiFlag, "tui", false, "Follow generation in an interactive view")
	return cmd
}

func generateWithProgress(ctx context.Context, orch *workflow.Orchestrator, story string, mode storyboard.Mode, out io.Writer) error {
	updates, unsubscribe := orch.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		reportProgress(updates, out)
	}()

	err := orch.StartGeneration(ctx, story, mode)
	unsubscribe()
	<-done
	if err != nil {
		return err
	}
	return ctx.Err()
}

func generateInteractive(ctx context.Context, orch *workflow.Orchestrator, story string, mode storyboard.Mode) error {
	done, err := orch.StartGenerationAsync(story, mode)
	if err != nil {
		return err
	}
	if err := tui.Run(ctx, orch); err != nil {
		return fmt.Errorf("interactive view: %w", err)
	}
	select {
	case <-done:
		return nil
	default:
		// The view closed mid-sweep; the interrupted scenes can be retried later.
		return context.Canceled
	}
}

var analysisSucceeded = session.EventName(session.AnalysisSucceeded{})

// reportProgress prints one line per scene that reaches a terminal status.
func reportProgress(updates <-chan workflow.Update, out io.Writer) {
	for update := range updates {
		if update.Event == analysisSucceeded && update.State.Storyboard != nil {
			fmt.Fprintf(out, "Analyzed %q into %d scenes\n", update.State.Storyboard.Title, len(update.State.Storyboard.Scenes))
		}
		for _, idx := range update.ChangedScenes {
			scene, ok := update.State.Scene(idx)
			if !ok || !scene.Status.Terminal() {
				continue
			}
			line := fmt.Sprintf("[%s] scene %d %s: %s", scene.Timecode, scene.Index, scene.Title, scene.Status)
			if scene.Error != "" {
				line += " (" + scene.Error + ")"
			}
			fmt.Fprintln(out, line)
		}
	}
}

func readStory(cmd *cobra.Command, args []string, file string) (string, bool, error) {
	file = strings.TrimSpace(file)
	switch {
	case len(args) > 0 && file != "":
		return "", false, errors.New("pass the story as arguments or with --file, not both")
	case len(args) > 0:
		return strings.Join(args, " "), false, nil
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", true, fmt.Errorf("read story from stdin: %w", err)
		}
		return string(data), true, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("read story file: %w", err)
		}
		return string(data), false, nil
	case !isTerminal(cmd.InOrStdin()):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", true, fmt.Errorf("read story from stdin: %w", err)
		}
		return string(data), true, nil
	default:
		return "", false, errors.New("no story provided; pass it as arguments, with --file, or on stdin")
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current storyboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, _, err := ctx.readSession(commandCtx(cmd))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderStoryboard(state))
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the session phase and scene progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, _, err := ctx.readSession(commandCtx(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range renderSessionStatus(state, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <scene-index>",
		Short: "Regenerate a single scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid scene index %q", args[0])
			}

			runCtx, stop := signal.NotifyContext(commandCtx(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := ctx.openApp(runCtx, cmd, appOptions{interactiveKeys: isTerminal(cmd.InOrStdin())})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.orch.RetryScene(runCtx, index); err != nil {
				return retryError(index, err)
			}
			if err := runCtx.Err(); err != nil {
				return err
			}

			scene, _ := a.orch.Snapshot().Scene(index)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			message := string(scene.Status)
			if scene.Error != "" {
				message += ": " + scene.Error
			}
			fmt.Fprintln(out, renderStatusLine(fmt.Sprintf("Scene %d", index), sceneKind(scene.Status), message, colorize))
			if scene.Status == storyboard.StatusFailed {
				return fmt.Errorf("scene %d failed", index)
			}
			return nil
		},
	}
}

func retryError(index int, err error) error {
	switch {
	case errors.Is(err, session.ErrNoStoryboard):
		return errors.New("no storyboard to retry; run 'cineboard generate' first")
	case errors.Is(err, session.ErrSceneOutOfRange):
		return fmt.Errorf("scene %d does not exist", index)
	default:
		return err
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the storyboard and return to the idle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(commandCtx(cmd), cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			had := a.orch.Snapshot().Storyboard != nil
			a.orch.Reset(commandCtx(cmd))
			if had {
				fmt.Fprintln(cmd.OutOrStdout(), "Storyboard discarded")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to reset")
			}
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the storyboard as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, _, err := ctx.readSession(commandCtx(cmd))
			if err != nil {
				return err
			}
			if state.Storyboard == nil {
				return errors.New("no storyboard to export")
			}

			var out io.Writer = cmd.OutOrStdout()
			if path := strings.TrimSpace(outputFlag); path != "" && path != "-" {
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer file.Close()
				out = file
			}
			if err := storyboard.Encode(out, *state.Storyboard, formatFlag); err != nil {
				return fmt.Errorf("export storyboard: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", storyboard.FormatJSON, "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
