package clickcli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"click-war/service/clicks"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Config controls how the interactive click CLI behaves.
type Config struct {
	Team    string
	Timeout time.Duration

	// In and Out default to stdin and stdout.
	In  io.Reader
	Out io.Writer
	// NoSpinner disables the progress spinner.
	NoSpinner bool
}

// Run launches the interactive click CLI. Each empty line is a click for the
// configured team; "scores" prints the current standings, "reset" clears
// them and "exit" quits. Score changes from any client are printed as they
// arrive.
func Run(ctx context.Context, cfg Config, svc *clicks.Service) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if svc == nil {
		return fmt.Errorf("clicks service is required")
	}
	if strings.TrimSpace(cfg.Team) == "" {
		return fmt.Errorf("team is required (use -team or CLICKWAR_TEAM)")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	in := cfg.In
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := &printer{out: out}
	sub, err := svc.Watch(ctx, p.standings)
	if err != nil {
		return fmt.Errorf("watch scores: %w", err)
	}
	defer sub.Unsubscribe()

	scanner := bufio.NewScanner(in)
	p.printf("Click war ready. Press Enter to click for %s, 'scores', 'reset' or 'exit'.\n", cfg.Team)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !scanner.Scan() {
			break
		}
		cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch cmd {
		case "exit", "quit":
			p.printf("Goodbye!\n")
			return nil

		case "scores":
			reqCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			scores, err := svc.Scores(reqCtx)
			cancel()
			if err != nil {
				p.printf("%s %v\n", label("Error:"), err)
				continue
			}
			p.standings(scores)

		case "reset":
			reqCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			err := svc.Reset(reqCtx)
			cancel()
			if err != nil {
				p.printf("%s %v\n", label("Error:"), err)
			}

		case "":
			reqCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			stopLoader := startClickLoader(cfg.NoSpinner, out)
			score, err := svc.Click(reqCtx, cfg.Team)
			stopLoader()
			cancel()
			if err != nil {
				p.printf("%s %v\n", label("Error:"), err)
				continue
			}
			p.printf("%s %s now has %d\n", label("Click!"), cfg.Team, score)

		default:
			p.printf("unknown command %q\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// startClickLoader spins a loader on out using github.com/briandowns/spinner
// until stopped.
func startClickLoader(disabled bool, out io.Writer) func() {
	if disabled {
		return func() {}
	}
	writer := spinner.WithWriter(out)
	if f, ok := out.(*os.File); ok {
		writer = spinner.WithWriterFile(f)
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, writer)
	s.Prefix = " "
	s.Suffix = color.New(color.FgHiCyan).Sprint(" Clicking")
	_ = s.Color("cyan")
	s.Start()
	return func() {
		s.Stop()
		fmt.Fprint(out, "\r\033[K")
	}
}

func label(text string) string {
	return color.New(color.FgHiCyan).Sprint(text)
}
