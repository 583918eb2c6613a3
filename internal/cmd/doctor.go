package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/fsdv/internal/config"
	"github.com/3leaps/fsdv/internal/observability"
	"github.com/3leaps/fsdv/pkg/schema"
	"github.com/3leaps/fsdv/pkg/source/s3"
)

type doctorOptions struct {
	provider string
	bucket   string
}

func newDoctorCmd(g *globalOptions) *cobra.Command {
	opts := &doctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks",
		Long: `Run diagnostic checks on the system and suggest fixes for common issues.

Examples:
  ` + AppName + ` doctor                                # Environment check
  ` + AppName + ` doctor --provider s3                  # Also check AWS credentials
  ` + AppName + ` doctor --provider s3 --bucket configs # Also check bucket access`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), g.cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Run provider-specific checks (s3)")
	cmd.Flags().StringVar(&opts.bucket, "bucket", "", "Bucket to probe with --provider s3")
	return cmd
}

func runDoctor(ctx context.Context, cfg *config.Config, opts *doctorOptions) error {
	logger := observability.CLILogger
	logger.Info("=== " + AppName + " doctor ===")
	logger.Info("Running diagnostic checks...")

	if opts.provider != "" && opts.provider != "s3" {
		return exitError(ExitFailure, "Invalid --provider value", fmt.Errorf("unsupported provider: %s", opts.provider))
	}

	allChecks := true
	checkNum := 1
	totalChecks := 5
	if opts.provider == "s3" {
		totalChecks = 7
		if opts.bucket != "" {
			totalChecks++
		}
	}

	// Check 1: Go runtime
	goVersion := runtime.Version()
	logger.Info(fmt.Sprintf("[%d/%d] Checking Go runtime... ✅ %s", checkNum, totalChecks, goVersion),
		zap.String("go_version", goVersion))
	checkNum++

	// Check 2: Embedded meta-schema
	if err := schema.MetaSchemaReady(); err != nil {
		logger.Error(fmt.Sprintf("[%d/%d] Checking schema support... ❌ Meta-schema does not compile", checkNum, totalChecks),
			zap.Error(err))
		allChecks = false
	} else {
		logger.Info(fmt.Sprintf("[%d/%d] Checking schema support... ✅ %s", checkNum, totalChecks, schema.MetaSchemaID))
	}
	checkNum++

	// Check 3: Config file
	if cfg.File != "" {
		logger.Info(fmt.Sprintf("[%d/%d] Checking config file... ✅ %s", checkNum, totalChecks, cfg.File),
			zap.String("config_file", cfg.File))
	} else {
		logger.Info(fmt.Sprintf("[%d/%d] Checking config file... ✅ none found, using defaults", checkNum, totalChecks),
			zap.Strings("searched", config.SearchPaths()))
	}
	checkNum++

	// Check 4: Config directory
	configDir, err := os.UserConfigDir()
	if err != nil {
		logger.Warn(fmt.Sprintf("[%d/%d] Checking config directory... ⚠️  Cannot find config directory", checkNum, totalChecks),
			zap.Error(err))
		allChecks = false
	} else {
		logger.Info(fmt.Sprintf("[%d/%d] Checking config directory... ✅ %s", checkNum, totalChecks, configDir),
			zap.String("config_dir", configDir))
	}
	checkNum++

	// Check 5: Environment
	logger.Info(fmt.Sprintf("[%d/%d] Checking environment... ✅ %s/%s", checkNum, totalChecks, runtime.GOOS, runtime.GOARCH),
		zap.String("os", runtime.GOOS),
		zap.String("arch", runtime.GOARCH))
	checkNum++

	if opts.provider == "s3" {
		allChecks = runS3Checks(ctx, cfg.Source.S3, opts.bucket, checkNum, totalChecks) && allChecks
	}

	if allChecks {
		logger.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", AppName))
		logger.Info("=== End Diagnostics ===")
		return nil
	}
	logger.Warn("⚠️  Some checks failed. Review the output above for details.")
	logger.Info("=== End Diagnostics ===")
	return &ExitError{Code: ExitFailure, Message: "Some checks failed", Silent: true}
}

// runS3Checks runs S3-specific diagnostic checks.
func runS3Checks(ctx context.Context, s3cfg s3.Config, bucket string, checkNum, totalChecks int) bool {
	logger := observability.CLILogger
	logger.Info("S3 Checks:")

	// Check 6: AWS credentials
	var loadOpts []func(*awsconfig.LoadOptions) error
	if s3cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(s3cfg.Region))
	}
	if s3cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(s3cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		logger.Error(fmt.Sprintf("[%d/%d] Checking AWS credentials... ❌ Cannot load AWS config", checkNum, totalChecks),
			zap.Error(err))
		printAWSCredentialsHelp()
		return false
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("[%d/%d] Checking AWS credentials... ❌ Cannot retrieve credentials", checkNum, totalChecks),
			zap.Error(err))
		printAWSCredentialsHelp()
		return false
	}

	logger.Info(fmt.Sprintf("[%d/%d] Checking AWS credentials... ✅ Found credentials", checkNum, totalChecks),
		zap.String("access_key", maskAccessKey(creds.AccessKeyID)),
		zap.String("source", creds.Source))
	checkNum++

	// Check 7: Credential source info
	credSource := creds.Source
	if credSource == "" {
		credSource = "unknown"
	}
	logger.Info(fmt.Sprintf("[%d/%d] Checking credential source... ✅ %s", checkNum, totalChecks, credSource),
		zap.String("credential_source", credSource))
	checkNum++

	if bucket == "" {
		return true
	}

	// Check 8: Bucket access
	reader, err := s3.New(ctx, s3cfg.ForBucket(bucket))
	if err == nil {
		err = reader.Check(ctx)
	}
	if err != nil {
		logger.Error(fmt.Sprintf("[%d/%d] Checking bucket access... ❌ %s", checkNum, totalChecks, bucket),
			zap.Error(err))
		return false
	}
	logger.Info(fmt.Sprintf("[%d/%d] Checking bucket access... ✅ %s", checkNum, totalChecks, bucket))
	return true
}

// maskAccessKey masks all but the last 4 characters of an access key.
func maskAccessKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// printAWSCredentialsHelp prints help for configuring AWS credentials.
func printAWSCredentialsHelp() {
	logger := observability.CLILogger
	logger.Info("To configure AWS credentials:")
	logger.Info("  1. Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables, or")
	logger.Info("  2. Run 'aws configure' to set up a profile, or")
	logger.Info("  3. Use IAM role when running on AWS infrastructure")
	logger.Info("For S3-compatible storage (MinIO, Wasabi, etc.), also set:")
	logger.Info("  - source.s3.endpoint in the config file or --s3-endpoint")
}
