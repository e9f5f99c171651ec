// Command travel-cli chats with the travel assistant on the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AvinoamNukrai/LLM-Travel-Assistant/internal/bootstrap"
	configx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/config"
	logx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Chatter is the part of the orchestrator the REPL needs.
type Chatter interface {
	HandleTurn(ctx context.Context, sessionID string, text string) string
	Reset(ctx context.Context, sessionID string) error
}

func main() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
	cfg := bootstrap.MustLoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build travel assistant")
	}
	defer app.Close()

	if err := run(ctx, app.Orchestrator, os.Stdin, os.Stdout, uuid.NewString); err != nil {
		log.Error().Err(err).Msg("cli stopped")
	}
}

// run reads one message per line until EOF, "exit" or "quit". "/reset" starts
// a new session.
func run(ctx context.Context, chat Chatter, in io.Reader, out io.Writer, newID func() string) error {
	fmt.Fprintln(out, "Travel Assistant (type 'exit' to quit, '/reset' to start over)")
	fmt.Fprintln(out)

	sessionID := newID()
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "/reset":
			if err := chat.Reset(ctx, sessionID); err != nil {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("reset session failed")
			}
			sessionID = newID()
			fmt.Fprintln(out, "Assistant: Starting over. Where are you thinking of going?")
			fmt.Fprintln(out)
			continue
		}

		reply := chat.HandleTurn(ctx, sessionID, text)
		fmt.Fprintf(out, "Assistant: %s\n\n", reply)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
