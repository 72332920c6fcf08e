package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ozevents/marquee/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marquee",
	Short: "Marquee - event catalog ingestion pipeline",
	Long: `Marquee ingests event listings (concerts, theatre, sport, festivals)
from multiple independent external sources and produces a single
deduplicated, canonically-categorized event catalog.

Each source adapter owns its own fetch strategy - structured feeds,
plain HTML crawling, or a scriptable browser session - and every fetch
respects the target's published crawl policy and a jittered politeness
delay. Overlapping listings of the same real-world event are merged
into one record with cross-links to the alternate sources.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("marquee v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.marquee/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.marquee")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	bindEnv()
	bindDefaults()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv maps MARQUEE_* environment variables onto config keys, e.g.
// MARQUEE_DEDUP_MERGE_THRESHOLD -> dedup.merge_threshold.
func bindEnv() {
	viper.SetEnvPrefix("MARQUEE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// bindDefaults registers every config key with its built-in default.
// A key viper does not know about is invisible to Unmarshal, so an
// unregistered key could not be overridden from the environment.
func bindDefaults() {
	def := model.DefaultConfig()
	viper.SetDefault("http.timeout", def.HTTP.Timeout)
	viper.SetDefault("http.user_agent", def.HTTP.UserAgent)
	viper.SetDefault("http.max_body_bytes", def.HTTP.MaxBodyBytes)
	viper.SetDefault("http.http_proxy", def.HTTP.HTTPProxy)
	viper.SetDefault("http.https_proxy", def.HTTP.HTTPSProxy)
	viper.SetDefault("http.no_proxy", def.HTTP.NoProxy)
	viper.SetDefault("cache.enabled", def.Cache.Enabled)
	viper.SetDefault("cache.dir", def.Cache.Dir)
	viper.SetDefault("cache.ttl", def.Cache.TTL)
	viper.SetDefault("compliance.policy_ttl", def.Compliance.PolicyTTL)
	viper.SetDefault("rate_limit.requests_per_second", def.RateLimit.RequestsPerSecond)
	viper.SetDefault("rate_limit.burst_size", def.RateLimit.BurstSize)
	viper.SetDefault("rate_limit.jitter_fraction", def.RateLimit.JitterFraction)
	viper.SetDefault("browser.headless", def.Browser.Headless)
	viper.SetDefault("browser.nav_timeout", def.Browser.NavTimeout)
	viper.SetDefault("browser.challenge_llm", def.Browser.ChallengeLLM)
	viper.SetDefault("browser.block_resources", def.Browser.BlockResources)
	viper.SetDefault("dedup.title_weight", def.Dedup.TitleWeight)
	viper.SetDefault("dedup.venue_weight", def.Dedup.VenueWeight)
	viper.SetDefault("dedup.date_weight", def.Dedup.DateWeight)
	viper.SetDefault("dedup.merge_threshold", def.Dedup.MergeThreshold)
	viper.SetDefault("output.verbose", def.Output.Verbose)
	viper.SetDefault("output.path", def.Output.Path)
}

// loadConfig resolves the effective configuration: built-in defaults,
// then the config file, then MARQUEE_* environment variables. Flag
// overrides are applied by each command after this.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}
	return cfg, nil
}
