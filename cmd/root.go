package cmd

import (
	"fmt"
	"os"

	"github.com/JPM1118/matthumb/internal/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	overrides  flagOverrides
)

// flagOverrides are command-line values that replace config file values
// when set.
type flagOverrides struct {
	assets   string
	source   string
	out      string
	size     int
	headless bool
}

var rootCmd = &cobra.Command{
	Use:   "matthumb",
	Short: "Batch material thumbnail generator",
	Long: `matthumb walks a project's material assets, waits for each material's
preview to render and writes it out as a fixed-size PNG thumbnail.

Run without arguments to generate thumbnails for the configured source folder.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/matthumb/config.yml)")
	addRunFlags(rootCmd)
}

// addRunFlags registers the flags shared by every command that drains.
func addRunFlags(c *cobra.Command) {
	c.Flags().StringVar(&overrides.assets, "assets", "", "project asset root")
	c.Flags().StringVar(&overrides.source, "source", "", "folder to enumerate (default <assets>/Resources/Brushes)")
	c.Flags().StringVarP(&overrides.out, "out", "o", "", "thumbnail output folder")
	c.Flags().IntVar(&overrides.size, "size", 0, "thumbnail edge length in pixels")
	c.Flags().BoolVar(&overrides.headless, "headless", false, "log progress instead of showing the interactive view")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if configFile != "" {
		if _, statErr := os.Stat(configFile); statErr != nil {
			return cfg, fmt.Errorf("config: %w", statErr)
		}
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}

	if overrides.assets != "" {
		cfg.Project.AssetsDir = overrides.assets
	}
	if overrides.source != "" {
		cfg.Project.SourceDir = overrides.source
	}
	if overrides.out != "" {
		cfg.Output.Dir = overrides.out
	}
	if overrides.size != 0 {
		cfg.Output.Size = overrides.size
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
