package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"ddb-capacity-reporter/api"
	"ddb-capacity-reporter/inventory"
	"ddb-capacity-reporter/logging"
	"ddb-capacity-reporter/metrics"
	"ddb-capacity-reporter/report"
	"ddb-capacity-reporter/types"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ddb-capacity-reporter",
		Usage: "Report peak consumed vs provisioned read capacity for DynamoDB tables and their global secondary indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "region",
				Usage:    "AWS region whose tables are reported",
				EnvVars:  []string{"AWS_REGION", "AWS_DEFAULT_REGION"},
				Required: true,
			},
			&cli.StringFlag{
				Name:  "table",
				Usage: "Only report this table (the full inventory is still listed)",
			},
			&cli.DurationFlag{
				Name:  "lookback",
				Value: types.DefaultLookback,
				Usage: "Trailing window of consumed capacity to inspect",
			},
			&cli.BoolFlag{
				Name:  "continue-on-error",
				Usage: "Keep reporting remaining tables when one table fails",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"DDB_REPORTER_LOG_LEVEL"},
			},
		},
		Action: runReport,
		Commands: []*cli.Command{
			{
				Name:   "report",
				Usage:  "Print utilization for every table and index, then exit",
				Action: runReport,
			},
			{
				Name:  "serve",
				Usage: "Serve reports over HTTP and stream them to websocket clients",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "port",
						Value: 8041,
						Usage: "Port for the report server",
					},
				},
				Action: serve,
			},
		},
	}
}

func configFromContext(c *cli.Context) (types.Config, error) {
	lookback := c.Duration("lookback")
	if lookback <= 0 {
		return types.Config{}, fmt.Errorf("lookback must be positive, got %s", lookback)
	}

	return types.Config{
		AwsRegion:       c.String("region"),
		TableName:       c.String("table"),
		Lookback:        lookback,
		ContinueOnError: c.Bool("continue-on-error"),
		LogLevel:        c.String("log-level"),
		ServerPort:      c.Uint("port"),
	}.WithDefaults(), nil
}

func newAwsSession(conf types.Config) (*session.Session, error) {
	return session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Config: aws.Config{
			Region: aws.String(conf.AwsRegion),
		},
	})
}

func runReport(c *cli.Context) error {
	conf, err := configFromContext(c)
	if err != nil {
		return err
	}
	if err := logging.InitLogger(conf.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := logging.GetLogger()

	awsSession, err := newAwsSession(conf)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create AWS session")
		return err
	}

	sink := report.NewTextSink(os.Stdout)
	driver := report.New(conf, logger,
		inventory.New(logger, awsSession, conf.AwsRegion),
		metrics.New(conf, logger, awsSession),
		sink)

	summary, err := driver.Run(c.Context)
	if err == nil || conf.ContinueOnError {
		sink.PrintSummary(summary)
	}
	return err
}

// newServeRunner runs the driver for server requests, echoing every event as
// text to out alongside the server's own sink.
func newServeRunner(conf types.Config, logger *zerolog.Logger, tables report.TableInventory, reader report.MetricsReader, out io.Writer) api.Runner {
	text := report.NewTextSink(out)
	return func(ctx context.Context, table string, sink report.Sink) (report.Summary, error) {
		runConf := conf
		if table != "" {
			runConf.TableName = table
		}
		summary, err := report.New(runConf, logger, tables, reader, report.MultiSink{text, sink}).Run(ctx)
		if err == nil || runConf.ContinueOnError {
			text.PrintSummary(summary)
		}
		return summary, err
	}
}

func serve(c *cli.Context) error {
	conf, err := configFromContext(c)
	if err != nil {
		return err
	}
	if err := logging.InitLogger(conf.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := logging.GetLogger()

	awsSession, err := newAwsSession(conf)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create AWS session")
		return err
	}

	runner := newServeRunner(conf, logger,
		inventory.New(logger, awsSession, conf.AwsRegion),
		metrics.New(conf, logger, awsSession),
		os.Stdout)

	apiServer := api.New(conf, logger, runner)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Serve(conf.ServerPort)
	}()

	// Set up a channel to capture termination signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("Received termination signal. Initiating graceful shutdown...")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Failed to start API server")
			apiServer.Stop()
			return err
		}
	}

	apiServer.Stop()
	logger.Info().Msg("Shutdown complete. Exiting.")
	return nil
}
