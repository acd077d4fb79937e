package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/negentropysync/negentropy/config"
)

var config = cfg.DefaultConfig()

// AddCommands adds cobra commands to the app.
func AddCommands(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("config", "c", "", "Load configuration from file")
	cmd.PersistentFlags().IntVar(&config.IDSize, "id-size",
		config.IDSize, "byte length of item identifiers")
	cmd.PersistentFlags().Uint64Var(&config.FrameSizeLimit, "frame-size-limit",
		config.FrameSizeLimit, "maximum encoded message size in bytes, 0 for unlimited")
	cmd.PersistentFlags().StringVar(&config.Logging.Encoder, "log-encoder",
		config.Logging.Encoder, "log as JSON instead of plain text (console|json)")
	cmd.PersistentFlags().StringVar(&config.Logging.Level, "log-level",
		config.Logging.Level, "minimum level of log messages to emit")

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		fmt.Println("an error has occurred while binding flags:", err)
	}
}
