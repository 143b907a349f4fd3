package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdUpload() *cli.Command {
	var filePath string
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Session upload JSON file ('-' for stdin)",
			Required:    true,
			Destination: &filePath,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "upload",
		Aliases: []string{"u"},
		Usage:   "Upload a finished coaching session from a JSON file",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			upload, err := readSessionUpload(ctx, filePath)
			if err != nil {
				return err
			}
			if upload.Session.ID == "" {
				return goerr.New("session.id is required", goerr.V("file", filePath))
			}

			a, err := appCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer a.close()

			if !a.uc.Uploader.UploadCoachingSession(ctx, &upload.Session, upload.Transcript, upload.Analysis, upload.Client) {
				return goerr.New("failed to upload coaching session", goerr.V("session_id", upload.Session.ID))
			}

			_, _ = fmt.Fprintf(c.Root().Writer, "uploaded session %s\n", upload.Session.ID)
			return nil
		},
	}
}

func readSessionUpload(ctx context.Context, path string) (*model.SessionUpload, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		// #nosec G304 - path is provided by CLI flag
		f, err := os.Open(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open session file", goerr.V("path", path))
		}
		defer safe.Close(ctx, f)
		r = f
	}

	var upload model.SessionUpload
	if err := json.NewDecoder(r).Decode(&upload); err != nil {
		return nil, goerr.Wrap(err, "failed to decode session file", goerr.V("path", path))
	}
	return &upload, nil
}
