package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/api"
	"l4e-demo-pipeline/src/config"
	"l4e-demo-pipeline/src/dynamo"
	"l4e-demo-pipeline/src/ingest"
	"l4e-demo-pipeline/src/inference"
	"l4e-demo-pipeline/src/logger"
	"l4e-demo-pipeline/src/lookout"
	"l4e-demo-pipeline/src/prepare"
	"l4e-demo-pipeline/src/project"
	"l4e-demo-pipeline/src/replay"
	"l4e-demo-pipeline/src/resampler"
	"l4e-demo-pipeline/src/results"
	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/timestream"
	"l4e-demo-pipeline/src/unload"
)

// handlers builds the function served by each HANDLER value.
var handlers = map[string]func(cfg *config.Config, log *zap.Logger) any{
	"prepare-hourly-data": func(cfg *config.Config, log *zap.Logger) any {
		opts := resampler.DefaultOptions()
		opts.GapFillLimit = cfg.GapFillLimit
		opts.SummaryRows = cfg.SummaryRows

		h := &prepare.Handler{
			Store:   storage.New(storage.GetS3Client(cfg.Region)),
			Log:     log,
			Options: opts,
		}
		return h.Handle
	},
	"training-results-extraction": func(cfg *config.Config, log *zap.Logger) any {
		h := &results.Handler{
			Lookout:      lookout.GetClient(cfg.Region),
			Store:        storage.New(storage.GetS3Client(cfg.Region)),
			Log:          log,
			Bucket:       cfg.Bucket,
			SamplingRate: cfg.ResultsSamplingRate,
			Aggregation:  cfg.Aggregation(),
		}
		return h.Handle
	},
	"ingest-model-results": func(cfg *config.Config, log *zap.Logger) any {
		h := &ingest.Handler{
			Store:  storage.New(storage.GetS3Client(cfg.Region)),
			Dynamo: newDynamo(cfg, log),
			Log:    log,
		}
		return h.Handle
	},
	"store-inference-results": func(cfg *config.Config, log *zap.Logger) any {
		return newInference(cfg, log).StoreResults
	},
	"store-inference-inputs": func(cfg *config.Config, log *zap.Logger) any {
		return newInference(cfg, log).StoreInputs
	},
	"generate-inference-input": func(cfg *config.Config, log *zap.Logger) any {
		return newInference(cfg, log).GenerateInput
	},
	"prepare-replay-data": func(cfg *config.Config, log *zap.Logger) any {
		h := &replay.Handler{
			Lookout: lookout.GetClient(cfg.Region),
			Store:   storage.New(storage.GetS3Client(cfg.Region)),
			Log:     log,
		}
		return h.Handle
	},
	"new-project-entry": func(cfg *config.Config, log *zap.Logger) any {
		return newProject(cfg, log).NewProject
	},
	"describe-model": func(cfg *config.Config, log *zap.Logger) any {
		return newProject(cfg, log).DescribeModel
	},
	"timestream-unload": func(cfg *config.Config, log *zap.Logger) any {
		return newProject(cfg, log).Unload
	},
	"parquet2csv": func(cfg *config.Config, log *zap.Logger) any {
		h := &unload.Handler{
			Store:        storage.New(storage.GetS3Client(cfg.Region)),
			Log:          log,
			PollInterval: cfg.UnloadPollInterval,
		}
		return h.Handle
	},
	"list-buckets": func(cfg *config.Config, log *zap.Logger) any {
		return newAPI(cfg, log).ListBuckets
	},
	"list-objects": func(cfg *config.Config, log *zap.Logger) any {
		return newAPI(cfg, log).ListObjects
	},
	"csv-from-s3": func(cfg *config.Config, log *zap.Logger) any {
		return newAPI(cfg, log).CopyCSV
	},
}

func newDynamo(cfg *config.Config, log *zap.Logger) *dynamo.Store {
	store := dynamo.New(dynamo.GetDynamoDBClient(cfg.Region), log)
	store.BatchSize = cfg.IngestBatchSize
	return store
}

func newInference(cfg *config.Config, log *zap.Logger) *inference.Handler {
	return &inference.Handler{
		Lookout: lookout.GetClient(cfg.Region),
		Store:   storage.New(storage.GetS3Client(cfg.Region)),
		Dynamo:  newDynamo(cfg, log),
		Log:     log,
	}
}

func newProject(cfg *config.Config, log *zap.Logger) *project.Handler {
	return &project.Handler{
		Lookout:       lookout.GetClient(cfg.Region),
		Timestream:    timestream.GetClient(cfg.Region),
		Store:         storage.New(storage.GetS3Client(cfg.Region)),
		Dynamo:        newDynamo(cfg, log),
		Log:           log,
		ProjectsTable: cfg.ProjectsTable(),
	}
}

func newAPI(cfg *config.Config, log *zap.Logger) *api.Handler {
	return &api.Handler{
		Store:  storage.New(storage.GetS3Client(cfg.Region)),
		Log:    log,
		Origin: cfg.Origin,
		AssumeRole: func(roleARN, sessionName string) s3iface.S3API {
			return storage.GetAssumedRoleClient(cfg.Region, roleARN, sessionName)
		},
	}
}

func handlerNames() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	build, ok := handlers[cfg.Handler]
	if !ok {
		log.Fatal("unknown handler", zap.String("handler", cfg.Handler), zap.Strings("known", handlerNames()))
	}

	log = log.With(zap.String("handler", cfg.Handler))
	log.Info("starting")
	lambda.Start(build(cfg, log))
}
