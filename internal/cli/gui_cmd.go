package cli

import (
	"github.com/spf13/cobra"

	"github.com/bioclick/bioclick/internal/gui"
)

func newGUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Launch the graphical interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			return gui.Launch(cfgFile)
		},
	}
}
