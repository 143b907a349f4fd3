package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdHealth() *cli.Command {
	var providerCfg config.Provider

	return &cli.Command{
		Name:  "health",
		Usage: "Check that the memory provider accepts requests",
		Flags: providerCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, err := providerCfg.Configure(nil)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if !svc.HealthCheck(ctx) {
				_, _ = fmt.Fprintln(w, color.RedString("memory provider: unhealthy"))
				return goerr.New("memory provider health check failed")
			}

			_, _ = fmt.Fprintln(w, color.GreenString("memory provider: healthy"))
			return nil
		},
	}
}
