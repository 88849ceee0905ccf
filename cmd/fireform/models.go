package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed on the configured inference service",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(os.Stderr)
		if err != nil {
			return err
		}
		cfg := e.config.Get().ToProviderConfig()
		client, err := providers.New(cfg)
		if err != nil {
			return err
		}
		lister, ok := client.(providers.ModelLister)
		if !ok {
			return fmt.Errorf("provider %s cannot list models", client.Name())
		}
		models, err := lister.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		return api.Output(struct {
			Provider string                `json:"provider" yaml:"provider"`
			Active   string                `json:"active" yaml:"active"`
			Models   []providers.ModelInfo `json:"models" yaml:"models"`
		}{cfg.Provider, cfg.Model, models})
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
