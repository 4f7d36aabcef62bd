package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/yanqian/contract-assistant/internal/client"
)

// Output formats accepted by --output.
const (
	outputAuto = "auto"
	outputText = "text"
	outputJSON = "json"
)

type options struct {
	server  string
	apiKey  string
	timeout time.Duration
	output  string
}

// NewRootCmd creates the top-level "qactl" command.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "qactl",
		Short:         "Ask the smart-contract assistant from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case outputAuto, outputText, outputJSON:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want auto, text or json)", opts.output)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("QA_SERVER", "http://127.0.0.1:5000"), "assistant base URL (env QA_SERVER)")
	flags.StringVar(&opts.apiKey, "api-key", os.Getenv("QA_API_KEY"), "shared secret sent as X-API-Key (env QA_API_KEY)")
	flags.DurationVar(&opts.timeout, "timeout", 45*time.Second, "request timeout")
	flags.StringVarP(&opts.output, "output", "o", outputAuto, "output format: auto, text or json")

	root.AddCommand(
		newAskCmd(opts),
		newHealthCmd(opts),
		newInfoCmd(opts),
	)
	return root
}

func (o *options) client() *client.Client {
	return client.New(o.server, o.apiKey, o.timeout)
}

// wantsJSON resolves "auto" to JSON whenever stdout is not a terminal.
func (o *options) wantsJSON(out io.Writer) bool {
	switch o.output {
	case outputJSON:
		return true
	case outputText:
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
