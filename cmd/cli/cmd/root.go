package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/angelospk/subgrabber/internal/constants"
	"github.com/angelospk/subgrabber/pkg/core/fileops"
	"github.com/angelospk/subgrabber/pkg/core/metadata"
	"github.com/angelospk/subgrabber/pkg/core/opensubtitles"
	"github.com/angelospk/subgrabber/pkg/core/retrieval"
	"github.com/angelospk/subgrabber/pkg/core/tokenstore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Define configuration keys
const (
	CfgKeyEndpoint    = "opensubtitles.endpoint"
	CfgKeyUserAgent   = "opensubtitles.useragent"
	CfgKeyLanguage    = "opensubtitles.language"
	CfgKeyUsername    = "opensubtitles.username" // Optional, anonymous login when empty
	CfgKeyPassword    = "opensubtitles.password"
	CfgKeyCacheDir    = "cache.dir"    // Defaults to <user cache dir>/subgrabber
	CfgKeyHTTPTimeout = "http.timeout" // 0 disables the timeout
	CfgKeyLogLevel    = "log.level"
)

var (
	// Used for flags.
	cfgFile string
	verbose bool

	// logger is shared by every command; PersistentPreRunE configures it.
	logger = logrus.New()

	// RootCmd downloads the subtitle for the media file given as its only argument.
	// Exported for use in tests
	RootCmd = &cobra.Command{
		Use:   "subgrabber <media-file>",
		Short: "Download the best matching subtitle for a video file from OpenSubtitles.",
		Long: `subgrabber computes the OpenSubtitles hash of a video file, searches
OpenSubtitles.org for a matching subtitle and writes it next to the video
with the same base name and an .srt extension.

If the subtitle file already exists nothing is downloaded.`,
		Args:              cobra.ExactArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: configureLogger,
		RunE:              runGrab,
	}
)

// Execute runs the root command and is the only place that reports errors
// and sets the exit status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	viper.SetDefault(CfgKeyEndpoint, constants.DefaultEndpoint)
	viper.SetDefault(CfgKeyUserAgent, constants.DefaultUserAgent)
	viper.SetDefault(CfgKeyLanguage, constants.DefaultLanguage)
	viper.SetDefault(CfgKeyHTTPTimeout, 60*time.Second)
	viper.SetDefault(CfgKeyLogLevel, "info")

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.subgrabber/config.yaml or ./config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().String("lang", "", "subtitle language (e.g. eng, en, English)")
	RootCmd.PersistentFlags().String("cache-dir", "", "directory holding the cached session token")

	cobra.CheckErr(viper.BindPFlag(CfgKeyLanguage, RootCmd.PersistentFlags().Lookup("lang")))
	cobra.CheckErr(viper.BindPFlag(CfgKeyCacheDir, RootCmd.PersistentFlags().Lookup("cache-dir")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".subgrabber"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SUBGRABBER") // e.g. SUBGRABBER_OPENSUBTITLES_LANGUAGE
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

func configureLogger(cmd *cobra.Command, args []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	level, err := logrus.ParseLevel(viper.GetString(CfgKeyLogLevel))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", CfgKeyLogLevel, err)
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	return nil
}

// newServices builds the token store and XML-RPC client from the current configuration.
func newServices() (*tokenstore.Store, *opensubtitles.XmlRpcClient, error) {
	cacheDir := viper.GetString(CfgKeyCacheDir)
	if cacheDir == "" {
		var err error
		if cacheDir, err = tokenstore.DefaultDir(); err != nil {
			return nil, nil, err
		}
	}

	language, err := metadata.NormalizeLanguage(viper.GetString(CfgKeyLanguage))
	if err != nil {
		return nil, nil, err
	}

	httpClient := &http.Client{Timeout: viper.GetDuration(CfgKeyHTTPTimeout)}
	client, err := opensubtitles.NewXmlRpcClient(opensubtitles.Config{
		Endpoint:  viper.GetString(CfgKeyEndpoint),
		UserAgent: viper.GetString(CfgKeyUserAgent),
		Language:  language,
		Username:  viper.GetString(CfgKeyUsername),
		Password:  viper.GetString(CfgKeyPassword),
	}, httpClient, logger)
	if err != nil {
		return nil, nil, err
	}

	return tokenstore.New(cacheDir), client, nil
}

func runGrab(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	out := cmd.OutOrStdout()

	subPath := fileops.SubtitlePath(mediaPath, constants.SubtitleExtension)
	if fileops.SubtitleExists(subPath) {
		fmt.Fprintf(out, "Subtitle %s already exists, skipping.\n", subPath)
		return nil
	}

	fp, err := fileops.CalculateOSDbHash(mediaPath)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"hash": fp.HashString(),
		"size": fp.Size,
	}).WithFields(metadata.ParseRelease(mediaPath).Fields()).Info("Searching for matching subtitle on OpenSubtitles.org")

	store, client, err := newServices()
	if err != nil {
		return err
	}

	content, err := retrieval.New(store, client, logger).Retrieve(cmd.Context(), fp)
	if err != nil {
		return err
	}

	if err := fileops.WriteSubtitle(subPath, content); err != nil {
		return err
	}
	fmt.Fprintf(out, "Subtitle written to %s\n", subPath)
	return nil
}
