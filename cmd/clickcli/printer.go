package clickcli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"click-war/service/clicks"

	"github.com/fatih/color"
)

// printer serializes output from the input loop and the score watcher.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) standings(scores clicks.Scores) {
	p.printf("%s\n", formatStandings(scores))
}

func formatStandings(scores clicks.Scores) string {
	if len(scores) == 0 {
		return label("Scores:") + " no clicks yet"
	}
	var b strings.Builder
	b.WriteString(label("Scores:"))
	for i, team := range scores.Teams() {
		name := team
		if i == 0 {
			name = color.New(color.FgHiYellow).Sprint(team)
		}
		fmt.Fprintf(&b, " %s=%d", name, scores[team])
	}
	fmt.Fprintf(&b, " (total %d)", scores.Total())
	return b.String()
}
