package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tradehook/config"
)

var writeConfig bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or write a default configuration",
	Long: `Print the default configuration as YAML, or write it to the path given
by --config when --write is set. Credentials and webhook tokens still
have to be filled in (or supplied via environment variables).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()

		if writeConfig {
			if err := cfg.SaveToFile(cfgFile); err != nil {
				return err
			}
			fmt.Printf("wrote default config to %s\n", cfgFile)
			return nil
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&writeConfig, "write", false, "write the default config to the --config path")
	rootCmd.AddCommand(configCmd)
}
