package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/finagents/internal/adapters/render/response"
	"github.com/bnema/finagents/internal/adapters/transport/ws"
	"github.com/bnema/finagents/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type askOptions struct {
	ticker  string
	server  string
	asJSON  bool
	timeout time.Duration
}

func newAskCmd(app *app) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask the supervisor questions about a company",
		Long:  "Opens one session for --ticker and sends each argument as a separate question, printing the answers in order.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, app, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.ticker, "ticker", "", "Company ticker for the session")
	cmd.Flags().StringVar(&opts.server, "server", "ws://"+app.cfg.GetString(keyServerListen), "Session server URL")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print each raw response as a JSON line")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Maximum time to wait for all answers")
	_ = cmd.MarkFlagRequired("ticker")

	return cmd
}

func runAsk(cmd *cobra.Command, app *app, opts askOptions, questions []string) error {
	ticker, err := domain.NormalizeTicker(opts.ticker)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	client, err := ws.Dial(ctx, opts.server, newClientID(ticker), ticker.String())
	if err != nil {
		return err
	}
	defer client.Close()
	app.logger.Debug("session opened", "client_id", client.ID(), "ticker", ticker)

	for _, question := range questions {
		question = strings.TrimSpace(question)
		if question == "" {
			continue
		}

		var answer domain.Response
		if opts.asJSON {
			answer, err = client.Ask(ctx, question)
		} else {
			answer, err = askWithProgress(ctx, cmd.ErrOrStderr(), question, client.Ask)
		}
		if err != nil {
			return fmt.Errorf("ask %q: %w", question, err)
		}

		if err := writeAnswer(cmd, app, question, answer, opts.asJSON); err != nil {
			return err
		}
	}

	return nil
}

func writeAnswer(cmd *cobra.Command, app *app, question string, answer domain.Response, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(answer)
	}

	rendered, err := app.renderer(answer, response.RenderOptions{Question: question})
	if err != nil {
		return fmt.Errorf("render response: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// newClientID prefixes a random suffix with the ticker so server logs stay
// readable.
func newClientID(ticker domain.Ticker) domain.ClientID {
	return domain.ClientID(ticker.String() + strings.ReplaceAll(uuid.NewString(), "-", ""))
}
