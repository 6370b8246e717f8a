package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/chris/skymiles/pkg/config"
	"github.com/chris/skymiles/pkg/events"
	"github.com/chris/skymiles/pkg/settlement"
	dydbstore "github.com/chris/skymiles/pkg/storage/dynamodb"
)

// Handler runs one settlement pass per scheduled invocation.
type Handler struct {
	Runner settlement.Runner
	Logger *slog.Logger
}

// HandleRequest is triggered by an EventBridge schedule. Per-purchase failures
// are left PENDING for the next invocation and do not fail the pass; only a
// failure to list pending purchases is returned so the invocation is retried.
func (h *Handler) HandleRequest(ctx context.Context, event lambdaevents.CloudWatchEvent) (settlement.RunReport, error) {
	h.Logger.InfoContext(ctx, "starting settlement pass", "event_id", event.ID, "scheduled_at", event.Time)

	report, err := h.Runner.Run(ctx)
	if err != nil {
		h.Logger.ErrorContext(ctx, "settlement pass failed", "error", err)
		return report, err
	}

	h.Logger.InfoContext(ctx, "settlement pass finished",
		"selected", report.Selected,
		"settled", report.Settled,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func newHandler(ctx context.Context, logger *slog.Logger) (*Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.FlightsTableName == "" || cfg.Storage.AccountsTableName == "" || cfg.Storage.PurchasesTableName == "" {
		return nil, fmt.Errorf("one or more DynamoDB table name environment variables are not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = cfg.AWS.MaxAttempts
			o.MaxBackoff = cfg.AWS.MaxBackoff
		})
	}))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	store := dydbstore.New(dynamodb.NewFromConfig(awsCfg),
		cfg.Storage.FlightsTableName, cfg.Storage.AccountsTableName, cfg.Storage.PurchasesTableName)

	var publisher events.Publisher = &events.LogPublisher{Logger: logger}
	if cfg.Events.Enabled {
		sqsPublisher := events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), map[events.EventType]string{
			events.MilesCredited: cfg.Events.MilesQueue,
		}, events.WithLogger(logger))
		if err := sqsPublisher.Connect(ctx); err != nil {
			logger.Warn("event publisher not ready, will retry", "error", err)
		}
		publisher = sqsPublisher
	}

	settler := settlement.NewSettler(store, publisher,
		settlement.WithLogger(logger),
		settlement.WithGraceWindow(cfg.Settlement.GraceWindow),
	)
	return &Handler{Runner: settler, Logger: logger}, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	h, err := newHandler(context.Background(), logger)
	if err != nil {
		logger.Error("failed to initialise settlement lambda", "error", err)
		os.Exit(1)
	}
	lambda.Start(h.HandleRequest)
}
