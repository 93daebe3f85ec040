package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cover_letter_studio/config"
	"cover_letter_studio/generator"
	"cover_letter_studio/imaging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studio",
		Short:         "Cover letter generation studio",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newGenerateCmd(), newVaryCmd())
	return root
}

// providers is everything the server needs from the outside world.
type providers struct {
	gpt    generator.LLMClient
	claude generator.LLMClient
	imager imaging.ImageClient
}

func buildProviders(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (providers, error) {
	if cfg.Mock {
		log.Warn("mock mode: no provider will be called")
		return providers{
			gpt:    generator.MockLLM{Label: string(generator.ModelGPT)},
			claude: generator.MockLLM{Label: string(generator.ModelClaude)},
			imager: imaging.MockImager{},
		}, nil
	}
	gpt, err := generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
		Provider: "openai",
		Model:    cfg.OpenAI.Model,
		APIKey:   cfg.OpenAI.APIKey,
		BaseURL:  cfg.OpenAI.BaseURL,
	})
	if err != nil {
		return providers{}, err
	}
	claude, err := generator.NewAnthropicLLMFromConfig(&generator.LLMSettings{
		Provider: "anthropic",
		Model:    cfg.Anthropic.Model,
		APIKey:   cfg.Anthropic.APIKey,
		BaseURL:  cfg.Anthropic.BaseURL,
	})
	if err != nil {
		return providers{}, err
	}
	imager, err := imaging.NewGeminiImager(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return providers{}, err
	}
	return providers{gpt: gpt, claude: claude, imager: imager}, nil
}
