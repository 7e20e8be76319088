// Package chat is the interactive terminal session over the product index.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/rag"
)

// exchange is one question/answer pair kept for the history command.
type exchange struct {
	user      string
	assistant string
	at        time.Time
}

// REPL reads queries from In and answers them from the index. In and Out
// default to the terminal; tests inject buffers.
type REPL struct {
	index   *rag.Index
	in      io.Reader
	out     io.Writer
	history []exchange
	now     func() time.Time
}

// NewREPL creates a REPL over the given index.
func NewREPL(index *rag.Index, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		index: index,
		in:    in,
		out:   out,
		now:   time.Now,
	}
}

const welcome = `Welcome to the prediction market chat assistant.
Ask about markets, prices, or specific topics.
Type 'help' for commands, 'stats' for system info, or 'quit' to exit.
------------------------------------------------------------`

const helpText = `Available commands:
  help     show this help message
  stats    show system statistics
  history  show conversation history
  quit     exit the chat (also: exit, q)

Example questions:
  "What are the current prices for Trump election markets?"
  "Show me crypto prediction markets"
  "Which markets have the highest confidence scores?"`

// Run processes input lines until quit, EOF, or context cancellation.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, welcome)

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "\nyou> ")
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		case "help":
			fmt.Fprintln(r.out, helpText)
			continue
		case "stats":
			r.printStats()
			continue
		case "history":
			r.printHistory()
			continue
		}

		reply, err := r.index.Chat(ctx, line)
		if err != nil {
			fmt.Fprintf(r.out, "Sorry, something went wrong: %v\n", err)
			continue
		}
		fmt.Fprintf(r.out, "\nassistant> %s\n", reply)
		r.history = append(r.history, exchange{user: line, assistant: reply, at: r.now()})
	}
	return scanner.Err()
}

func (r *REPL) printStats() {
	stats := r.index.Stats()
	fmt.Fprintf(r.out, `System statistics:
  Total products:      %d
  Total markets:       %d
  Sites covered:       %s
  Average confidence:  %.1f%%
  History:             %d exchanges
`,
		stats.TotalProducts,
		stats.TotalMarkets,
		strings.Join(stats.SitesCovered, ", "),
		stats.AverageConfidence*100,
		len(r.history),
	)
}

func (r *REPL) printHistory() {
	if len(r.history) == 0 {
		fmt.Fprintln(r.out, "No conversation history yet.")
		return
	}
	fmt.Fprintln(r.out, "Conversation history:")
	for i, e := range r.history {
		preview := e.assistant
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		fmt.Fprintf(r.out, "%d. [%s] you: %s\n   assistant: %s\n",
			i+1, e.at.Format("15:04:05"), e.user, preview)
	}
}
