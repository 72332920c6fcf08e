package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ozevents/marquee/internal/model"
)

// sourcesCmd lists the registered source adapters.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered source adapters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, _, _ := buildPipeline(model.DefaultConfig(), zap.NewNop())
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
