/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command drift-core runs the worker pool side of the pipeline: it wires
// every stage handler to the FSM engine and drains the queue until
// terminated. Webhook ingestion and the human-action API are separate,
// out-of-scope transports that only need to call
// fsm.Engine.Advance / writeback.Executor and create the initial
// SignalEvent/DriftCandidate row — neither is wired here.
package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/driftsentry/driftcore/internal/config"
	"github.com/driftsentry/driftcore/internal/database"
	"github.com/driftsentry/driftcore/pkg/adapter"
	"github.com/driftsentry/driftcore/pkg/comparison"
	"github.com/driftsentry/driftcore/pkg/credential"
	"github.com/driftsentry/driftcore/pkg/docadapter"
	"github.com/driftsentry/driftcore/pkg/docresolve"
	"github.com/driftsentry/driftcore/pkg/evidence"
	"github.com/driftsentry/driftcore/pkg/fsm"
	"github.com/driftsentry/driftcore/pkg/health"
	"github.com/driftsentry/driftcore/pkg/llm"
	"github.com/driftsentry/driftcore/pkg/metrics"
	"github.com/driftsentry/driftcore/pkg/notification"
	"github.com/driftsentry/driftcore/pkg/patch"
	"github.com/driftsentry/driftcore/pkg/policy"
	policyrego "github.com/driftsentry/driftcore/pkg/policy/rego"
	"github.com/driftsentry/driftcore/pkg/queue"
	"github.com/driftsentry/driftcore/pkg/ratelimit"
	"github.com/driftsentry/driftcore/pkg/routing"
	"github.com/driftsentry/driftcore/pkg/signal"
	"github.com/driftsentry/driftcore/pkg/storage/repository"
	"github.com/driftsentry/driftcore/pkg/transport"
)

const (
	workerConcurrency = 8
	shutdownGrace     = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("DRIFTCORE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := zapr.NewLogger(newZapLogger(cfg.Logging))

	dbCfg := database.DefaultConfig()
	dbCfg.LoadFromEnv()
	db, err := database.Connect(dbCfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	repo := repository.New(db, log)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	defer redisClient.Close()
	limiter := ratelimit.New(redisClient, log)
	redisQueue := queue.NewRedisQueue(redisClient, log)

	healthRegistry := health.NewRegistry()

	llmClient, err := llm.NewClient(cfg.LLM, log)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}
	guardedLLM := adapter.NewLLMClient(cfg.LLM.Provider, llmClient, healthRegistry)

	adapters := buildDocAdapterRegistry(healthRegistry)

	patchGenerator := patch.NewGenerator(guardedLLM, log)
	policyEvaluator := policy.NewEvaluator(buildPolicyRegistry(log))

	engine := fsm.NewEngine(repo, redisQueue, log)
	engine.Register(signal.NewNormalizeStage(repo, log))
	engine.Register(signal.NewEligibilityStage(repo, log))
	engine.Register(evidence.NewBuildStage(repo, log))
	engine.Register(docresolve.NewResolveStage(repo, repo, repo, log))
	engine.Register(comparison.NewCompareStage(repo, adapters, log))
	engine.Register(comparison.NewClassifyStage(log))
	engine.Register(policy.NewStage(repo, policyEvaluator, log))
	engine.Register(routing.NewStage(repo, repo, repo, limiter, log))
	engine.Register(patch.NewPlanStage(repo, log))
	engine.Register(patch.NewGenerateStage(adapters, patchGenerator, repo, log))
	engine.Register(notification.NewStage(repo, repo, notification.NewSlackSink(cfg.Notification.SlackToken), log))

	pool := queue.NewWorkerPool(redisQueue, engine, workerConcurrency, log)

	metricsServer := metrics.NewServer(cfg.Server.MetricsPort, log)
	metricsServer.StartAsync()

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go publishDependencyHealth(ctx, healthRegistry)

	log.Info("drift-core worker pool starting", "concurrency", workerConcurrency)
	runErr := pool.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	_ = metricsServer.Stop(shutdownCtx)

	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("worker pool exited: %w", runErr)
	}
	return nil
}

// buildDocAdapterRegistry wires every git-backed document system behind
// the real GitHub content transport (pkg/transport), each wrapped in a
// circuit breaker (pkg/adapter). Confluence/Notion need a WikiClient
// this module doesn't implement (see DESIGN.md); a deployment adds those
// registrations here the same way.
//
// Credentials are scoped per (workspaceId, system) by the opaque
// credential service, but docadapter.DocRef carries no
// workspaceId and adapters are registered once at startup — the same
// shared-adapter simplification already present in pkg/docadapter. The
// process-level credential below is requested once under an empty
// workspace scope; per-workspace token scoping is future work for
// whichever deployment threads workspaceId through GitContentClient.
func buildDocAdapterRegistry(healthRegistry *health.Registry) *docadapter.Registry {
	credentialClient := credential.New(envFetcher{})
	githubHTTP := credentialClient.HTTPClient(context.Background(), "", credential.SystemGitHub)
	githubContent := transport.NewGitHubContentClient(githubHTTP)

	registry := docadapter.NewRegistry()
	for _, kind := range []docadapter.SystemKind{
		docadapter.SystemGitHubMD,
		docadapter.SystemOpenAPI,
		docadapter.SystemBackstage,
		docadapter.SystemGitBook,
	} {
		gitAdapter := docadapter.NewGitBackedAdapter(kind, githubContent)
		registry.Register(kind, adapter.NewGitAdapter(string(kind), gitAdapter, healthRegistry))
	}
	return registry
}

// buildPolicyRegistry starts from the deterministic Go comparator set and
// registers the optional Rego-backed variants of checkruns.passed and
// min_approvals alongside them under a ".rego" comparatorId, so a
// PolicyPack can opt a given obligation into Rego evaluation without
// losing the default Go implementation for every other pack. A module
// compile failure here only drops the Rego variants from the registry —
// every pack using the plain comparatorIds keeps working.
func buildPolicyRegistry(log logr.Logger) *policy.Registry {
	registry := policy.NewRegistry()

	checkRuns, err := policyrego.New(context.Background(), "checkruns.passed.rego", "*",
		policyrego.CheckRunsPassedModule, policyrego.ResultQuery)
	if err != nil {
		log.Error(err, "failed to compile checkruns.passed.rego comparator; Rego backend unavailable")
		return registry
	}
	registry.Register(checkRuns)

	minApprovals, err := policyrego.New(context.Background(), "min_approvals.rego", "*",
		policyrego.MinApprovalsModule, policyrego.ResultQuery)
	if err != nil {
		log.Error(err, "failed to compile min_approvals.rego comparator; Rego backend unavailable")
		return registry
	}
	registry.Register(minApprovals)

	return registry
}

// publishDependencyHealth mirrors pkg/health.Registry's tripped-breaker
// state onto the driftcore_dependency_degraded gauge every few seconds,
// until ctx is cancelled.
func publishDependencyHealth(ctx context.Context, registry *health.Registry) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, status := range registry.Snapshot() {
				metrics.RecordDependencyHealth(status.Name, status.Degraded())
			}
		}
	}
}

// envFetcher is a minimal credential.Fetcher stand-in for a process that
// has no opaque credential service configured: it reads a static PAT per
// system from the environment (<SYSTEM>_TOKEN, uppercased). A real
// deployment replaces this with a client for its actual credential
// service — the thing calls out of scope.
type envFetcher struct{}

func (envFetcher) Token(ctx context.Context, workspaceID string, system credential.System) (*oauth2.Token, error) {
	envVar := strings.ToUpper(string(system)) + "_TOKEN"
	tok := os.Getenv(envVar)
	if tok == "" {
		return nil, fmt.Errorf("no static token configured in %s for system %s", envVar, system)
	}
	return &oauth2.Token{AccessToken: tok}, nil
}

func newZapLogger(cfg config.LoggingConfig) *zap.Logger {
	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	level := zap.InfoLevel
	_ = level.UnmarshalText([]byte(cfg.Level))
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}
