package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cover_letter_studio/client"
	"cover_letter_studio/generator"
	"cover_letter_studio/render"
)

// batchFlags are shared by the streaming commands.
type batchFlags struct {
	serverURL string
	htmlOut   string
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.serverURL, "server", "http://localhost:8080", "studio server base URL")
	cmd.Flags().StringVar(&f.htmlOut, "html", "", "also write the batch as an HTML page to this file")
}

func newGenerateCmd() *cobra.Command {
	var flags batchFlags
	var app generator.Applicant
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Stream a generation batch from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(flags.serverURL)
			outcome, err := c.Generate(cmd.Context(), app, arrivalPrinter(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			return finishBatch(cmd.Context(), c, outcome, flags, cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	f := cmd.Flags()
	f.StringVar(&app.Name, "name", "", "applicant name")
	f.StringVar(&app.Company, "company", "", "target company")
	f.StringVar(&app.Position, "position", "", "target position")
	f.StringVar(&app.Experience, "experience", "", "career and experience")
	f.StringVar(&app.Skills, "skills", "", "skills")
	f.StringVar(&app.Motivation, "motivation", "", "motivation")
	return cmd
}

func newVaryCmd() *cobra.Command {
	var flags batchFlags
	var file string
	cmd := &cobra.Command{
		Use:   "vary",
		Short: "Stream variations of an existing letter",
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			c := client.New(flags.serverURL)
			outcome, err := c.Variation(cmd.Context(), string(original), arrivalPrinter(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			return finishBatch(cmd.Context(), c, outcome, flags, cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&file, "file", "", "path to the original letter")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// finishBatch fills a cut stream from the server's replay, prints the batch
// and optionally writes it as HTML.
func finishBatch(ctx context.Context, c *client.Client, o client.BatchOutcome, flags batchFlags, out io.Writer) error {
	if o.Truncated {
		if err := c.Recover(ctx, &o); err != nil {
			errLabel.Fprintf(out, "replay of batch %s failed: %v\n", o.BatchID, err)
		}
	}
	printOutcome(out, o)
	if flags.htmlOut == "" {
		return nil
	}
	page, err := renderPage(ctx, c, o)
	if err != nil {
		return err
	}
	if err := os.WriteFile(flags.htmlOut, []byte(page), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nwrote %s\n", flags.htmlOut)
	return nil
}

// renderPage renders each successful letter through the server; failures are
// shown as their message.
func renderPage(ctx context.Context, c *client.Client, o client.BatchOutcome) (string, error) {
	cards := make([]render.Card, 0, len(o.Results))
	for _, r := range o.Results {
		card := render.Card{Heading: fmt.Sprintf("버전 %d (%s)", r.ID, r.Model)}
		if r.Status == generator.StatusError {
			card.Failed = true
			card.HTML = "<p>" + html.EscapeString(r.Content) + "</p>"
		} else {
			rendered, err := c.Render(ctx, r.Content)
			if err != nil {
				return "", fmt.Errorf("render version %d: %w", r.ID, err)
			}
			card.HTML = rendered.HTML
		}
		cards = append(cards, card)
	}
	return render.Page("batch "+o.BatchID, cards), nil
}

var (
	okLabel  = color.New(color.FgGreen, color.Bold)
	errLabel = color.New(color.FgRed, color.Bold)
)

func arrivalPrinter(w io.Writer) func(generator.Result) {
	return func(r generator.Result) { printArrival(w, r) }
}

func printArrival(w io.Writer, r generator.Result) {
	label := okLabel
	if r.Status == generator.StatusError {
		label = errLabel
	}
	label.Fprintf(w, "[%d] %s %s", r.ID, r.Model, r.Status)
	fmt.Fprintf(w, "  %s\n", generator.Digest(r.Content, 60))
}

func printOutcome(w io.Writer, o client.BatchOutcome) {
	fmt.Fprintf(w, "\nbatch %s: %d results", o.BatchID, len(o.Results))
	if o.Skipped > 0 {
		fmt.Fprintf(w, ", %d malformed frames skipped", o.Skipped)
	}
	if o.Truncated {
		errLabel.Fprint(w, " (stream ended early)")
	}
	fmt.Fprintln(w)
	for _, r := range o.Results {
		fmt.Fprintf(w, "\n=== 버전 %d (%s) ===\n%s\n", r.ID, r.Model, r.Content)
	}
}
