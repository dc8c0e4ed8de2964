package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sujalbistaa/postscore/internal/composer"
	"github.com/sujalbistaa/postscore/internal/logging"
	"github.com/sujalbistaa/postscore/internal/models"
)

const defaultServer = "http://localhost:8080"

// errReported means the score panel already told the user what went wrong.
var errReported = errors.New("reported")

type rootFlags struct {
	server   string
	noColor  bool
	verbose  bool
	platform string
	text     string
	file     string
	image    string
}

// newRootCmd returns the root command for the composer CLI.
func newRootCmd() *cobra.Command {
	_ = godotenv.Load()

	f := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "composer",
		Short:         "Compose a social media post and get it scored",
		Long:          "composer previews a post for Twitter, Facebook or LinkedIn and asks a postscore server to rate its engagement potential.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if f.noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	server := os.Getenv("POSTSCORE_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVar(&f.server, "server", server, "postscore server base URL (env POSTSCORE_SERVER)")
	rootCmd.PersistentFlags().BoolVar(&f.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "log request details to stderr")
	rootCmd.PersistentFlags().StringVarP(&f.platform, "platform", "p", string(models.Facebook), "target platform: twitter|facebook|linkedin")
	rootCmd.PersistentFlags().StringVarP(&f.text, "text", "t", "", "post text")
	rootCmd.PersistentFlags().StringVarP(&f.file, "file", "f", "", "read post text from a file (- for stdin)")
	rootCmd.PersistentFlags().StringVar(&f.image, "image", "", "path of an image to attach")

	rootCmd.AddCommand(newScoreCmd(f))
	rootCmd.AddCommand(newPreviewCmd(f))
	rootCmd.AddCommand(newPlatformsCmd())

	return rootCmd
}

func (f *rootFlags) logger(stderr io.Writer) *logrus.Logger {
	if !f.verbose {
		return nil
	}
	log := logging.NewLogger("debug")
	log.SetOutput(stderr)
	return log
}

// postText returns --text, or the contents of --file when given.
func (f *rootFlags) postText(stdin io.Reader) (string, error) {
	if f.file == "" {
		return f.text, nil
	}
	if f.text != "" {
		return "", fmt.Errorf("--text and --file are mutually exclusive")
	}
	var (
		b   []byte
		err error
	)
	if f.file == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(f.file)
	}
	if err != nil {
		return "", fmt.Errorf("read post text: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// load copies the flags into ctrl: platform, text and image.
func (f *rootFlags) load(cmd *cobra.Command, ctrl *composer.Controller) error {
	p, err := models.ParsePlatform(f.platform)
	if err != nil {
		return err
	}
	if err := ctrl.SelectPlatform(p); err != nil {
		return err
	}

	text, err := f.postText(cmd.InOrStdin())
	if err != nil {
		return err
	}
	ctrl.SetText(text)

	if f.image == "" {
		return nil
	}
	file, err := os.Open(f.image)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer file.Close()
	if err := ctrl.AttachImage(cmd.Context(), filepath.Base(f.image), file); err != nil {
		return fmt.Errorf("attach %s: %w", f.image, err)
	}
	return nil
}

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List the platforms a post can be previewed for",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range models.Platforms {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", p, p.DisplayName())
			}
			return nil
		},
	}
}
