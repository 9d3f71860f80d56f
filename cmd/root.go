package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lambdacloud/internal/config"
	"lambdacloud/internal/logging"
	"lambdacloud/internal/output"
	"lambdacloud/pkg/lambdacloud"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg       *config.Config
	client    *lambdacloud.Client
	formatter *output.Formatter
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lambdacloud",
	Short: "Manage Lambda Cloud instances, SSH keys, filesystems and firewall rules",
	Long: `lambdacloud is a command line client for the Lambda Cloud API.

Configuration is read from lambdacloud.yaml (or CONFIG_PATH), a .env file
and the LAMBDA_API_KEY, LAMBDA_BASE_URL and LAMBDA_AUTH_METHOD variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.GetFormatFromCmd(cmd)
		if err != nil {
			return err
		}
		formatter = output.New(format)
		formatter.SetWriter(cmd.OutOrStdout())

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if os.Getenv("LOG_LEVEL") == "" && loaded.LogLevel != "" {
			logging.SetLevel(loaded.LogLevel)
		}

		opts, err := loaded.ClientOptions()
		if err != nil {
			return err
		}
		opts = append(opts, lambdacloud.WithLogger(logging.Logger()))

		cfg = loaded
		client = lambdacloud.New(loaded.API.APIKey, opts...)
		logging.Logger().Debug("Client configured",
			zap.String("base_url", client.BaseURL()),
			zap.String("auth_method", string(client.AuthMethod())),
			zap.Int("retry_max", loaded.API.RetryMax))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logging.Logger().Fatal("Command failed", zap.Error(err))
	}
}

func init() {
	output.AddFormatFlag(rootCmd)
}
