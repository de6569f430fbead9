package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/a1s/lazyrows/internal/aws"
	"github.com/a1s/lazyrows/internal/config"
	"github.com/a1s/lazyrows/internal/config/data"
	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/view"
)

const (
	appName    = "lazyrows"
	appVersion = "0.1.0"
)

var (
	flags   *data.Flags
	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "A terminal browser for large remote row sets",
		Long: `lazyrows scrolls through millions of rows kept in SQLite, bbolt, S3 or
paginated AWS APIs, fetching only the window around what is on screen.`,
		SilenceUsage: true,
		RunE:         run,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
		},
	}
)

func init() {
	flags = config.NewFlags()
	initFlags()
	rootCmd.AddCommand(versionCmd, dumpCmd, seedCmd, kindsCmd)
}

func initFlags() {
	pf := rootCmd.PersistentFlags()
	pf.Float32VarP(flags.RefreshRate, "refresh", "r", config.DefaultRefreshRate, "Poll interval in seconds")
	pf.StringVarP(flags.LogLevel, "logLevel", "l", config.DefaultLogLevel, "Log level (trace, debug, info, warn, error)")
	pf.StringVar(flags.LogFile, "logFile", "", "Log file path")

	pf.StringVarP(flags.Kind, "kind", "k", "", "Source kind or alias (sql, bolt, mem, s3, ec2, iam, eks, cfn, cc)")
	pf.StringVar(flags.Path, "path", "", "Database file of sql and bolt sources")
	pf.StringVar(flags.Table, "table", "", "SQL table or bolt bucket")
	pf.StringVar(flags.Bucket, "bucket", "", "S3 bucket")
	pf.StringVar(flags.Prefix, "prefix", "", "S3 key prefix")
	pf.StringVar(flags.ResourceType, "type", "", "CloudFormation type listed through Cloud Control")
	pf.StringSliceVar(flags.Columns, "columns", nil, "Columns to show")
	pf.IntVar(flags.PageSize, "pageSize", 0, "Records per remote call")
	pf.StringVar(flags.Churn, "churn", "", "Insert or remove a row of memory sources at this interval, e.g. 500ms")
	pf.BoolVar(flags.Adaptive, "adaptive", false, "Grow the cache window while fetches are slow")

	pf.StringVar(flags.Profile, "profile", "", "AWS profile to use")
	pf.StringVar(flags.Region, "region", "", "AWS region to use")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// environment is what every command needs to open a source.
type environment struct {
	cfg     *config.Config
	factory dao.Factory
	log     *logrus.Logger
	closeFn func()
}

func setup(ctx context.Context, logToFile bool) (*environment, error) {
	if err := config.InitLocs(); err != nil {
		return nil, fmt.Errorf("failed to initialize locations: %w", err)
	}

	cfg := config.NewConfig()
	if err := cfg.Load(config.AppConfigFile, false); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Aliases().Load(); err != nil {
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}
	cfg.LazyRows.Override(flags)
	cfg.LazyRows.Validate()

	log, closeFn, err := newLogger(cfg.LazyRows.Logger, logToFile)
	if err != nil {
		return nil, err
	}
	env := environment{cfg: cfg, log: log, closeFn: closeFn}

	rid, err := cfg.ResourceID()
	if err != nil {
		closeFn()
		return nil, err
	}
	if !config.IsCloud(rid) {
		env.factory = dao.NewFactory(nil)
		return &env, nil
	}

	profiles, err := aws.NewProfileManager()
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("failed to load AWS profiles: %w", err)
	}
	profile, region, err := cfg.Refine(flags, profiles)
	if err != nil {
		closeFn()
		return nil, err
	}
	timeout, err := cfg.LazyRows.GetAPITimeout()
	if err != nil {
		closeFn()
		return nil, err
	}

	client := aws.NewAPIClient(aws.ClientConfig{Profile: profile, Region: region, Timeout: timeout}, log)
	if err := client.CheckConnectivity(ctx); err != nil {
		log.WithError(err).Warn("AWS connectivity check failed")
	}
	env.factory = dao.NewFactory(client)

	return &env, nil
}

func run(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer env.closeFn()

	if err := env.cfg.Save(config.AppConfigFile, false); err != nil {
		env.log.WithError(err).Warn("Configuration not saved")
	}

	app := view.NewApp(env.cfg, env.factory, env.log, appVersion)
	if err := app.Init(); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	env.log.WithField("version", appVersion).Info("Starting")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return app.Run(ctx)
}
