package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sujalbistaa/postscore/internal/composer"
)

func newScoreCmd(f *rootFlags) *cobra.Command {
	var (
		timeout  time.Duration
		noImages bool
		preview  bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Send the post for scoring and print the result",
		Example: `  composer score -p twitter -t "Shipping v2 today!"
  composer score -p linkedin -f post.txt --image banner.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := newTermView(cmd.OutOrStdout())
			client := composer.NewHTTPClient(f.server, &http.Client{})
			ctrl := composer.New(client, view,
				composer.WithRequestTimeout(timeout),
				composer.WithImages(!noImages),
				composer.WithLogger(f.logger(cmd.ErrOrStderr())),
			)
			if err := f.load(cmd, ctrl); err != nil {
				return err
			}
			if preview {
				writePreview(cmd.OutOrStdout(), ctrl.Snapshot(), ctrl.Image())
			}

			view.Follow()
			if _, err := ctrl.RequestScore(cmd.Context()); err != nil {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up on the server after this long")
	cmd.Flags().BoolVar(&noImages, "no-images", false, "run the composer without image support")
	cmd.Flags().BoolVar(&preview, "preview", false, "print the platform preview before scoring")
	return cmd
}

func newPreviewCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Print how the post will look on the selected platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := composer.New(nil, nil, composer.WithLogger(f.logger(cmd.ErrOrStderr())))
			if err := f.load(cmd, ctrl); err != nil {
				return err
			}
			writePreview(cmd.OutOrStdout(), ctrl.Snapshot(), ctrl.Image())
			return nil
		},
	}
}
