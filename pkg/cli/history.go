package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const historyConcurrency = 4

func cmdHistory() *cli.Command {
	var clientIDs []string
	var contextOnly bool
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "client",
			Aliases:     []string{"c"},
			Usage:       "Client ID (repeatable)",
			Required:    true,
			Destination: &clientIDs,
		},
		&cli.BoolFlag{
			Name:        "context",
			Usage:       "Print the priming context for the next session instead of the progress summary",
			Destination: &contextOnly,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:  "history",
		Usage: "Show coaching progress rebuilt from the memory provider",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := appCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer a.close()

			generate := a.uc.History.GetClientProgressSummary
			if contextOnly {
				generate = a.uc.History.GetRelevantContext
			}

			reports := make([]string, len(clientIDs))
			eg, ctx := errgroup.WithContext(ctx)
			eg.SetLimit(historyConcurrency)
			for i, clientID := range clientIDs {
				eg.Go(func() error {
					text, err := generate(ctx, clientID)
					if err != nil {
						return goerr.Wrap(err, "failed to build client history", goerr.V("client_id", clientID))
					}
					reports[i] = text
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			w := c.Root().Writer
			for i, clientID := range clientIDs {
				printReport(w, clientID, reports[i])
			}
			return nil
		},
	}
}

func printReport(w io.Writer, clientID, report string) {
	header := color.New(color.FgCyan, color.Bold)
	_, _ = header.Fprintf(w, "== %s ==\n", clientID)

	if report == "" {
		_, _ = fmt.Fprintln(w, color.YellowString("no coaching history"))
		return
	}
	_, _ = fmt.Fprintln(w, report)
}
