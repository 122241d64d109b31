package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	agentsx "github.com/tanpawarit/Chative-Sales-Assistant/agent/agents"
	"github.com/tanpawarit/Chative-Sales-Assistant/agent/agents/orchestrator"
	companyx "github.com/tanpawarit/Chative-Sales-Assistant/agent/company"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	llmx "github.com/tanpawarit/Chative-Sales-Assistant/agent/llm"
	proposalx "github.com/tanpawarit/Chative-Sales-Assistant/agent/proposal"
	statex "github.com/tanpawarit/Chative-Sales-Assistant/agent/state"
	configx "github.com/tanpawarit/Chative-Sales-Assistant/pkg/config"
	logx "github.com/tanpawarit/Chative-Sales-Assistant/pkg/logger"
	redisx "github.com/tanpawarit/Chative-Sales-Assistant/pkg/redis"
	serverx "github.com/tanpawarit/Chative-Sales-Assistant/server"
)

type AppConfig struct {
	RedisURL      string        `envconfig:"REDIS_URL" split_words:"true"`
	CompaniesFile string        `envconfig:"COMPANIES_FILE" split_words:"true" default:"data/known_companies.json"`
	CompaniesDSN  string        `envconfig:"COMPANIES_DSN" split_words:"true"`
	DocumentsDir  string        `envconfig:"DOCUMENTS_DIR" split_words:"true"`
	DocumentsURL  string        `envconfig:"DOCUMENTS_URL" split_words:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" split_words:"true" default:"24h"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("APP")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, history := newStores(appCfg)
	directory := newDirectory(ctx, appCfg)

	var files contractx.FileStore
	if strings.TrimSpace(appCfg.DocumentsDir) != "" {
		local, err := proposalx.NewLocalFileStore(appCfg.DocumentsDir, appCfg.DocumentsURL)
		if err != nil {
			log.Fatal().Err(err).Msg("init document store")
		}
		files = local
	}

	registry, err := agentsx.NewRegistry(ctx, *llmCfg, agentsx.Deps{
		Store:     store,
		History:   history,
		Directory: directory,
		Files:     files,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init handler registry")
	}

	orch, err := orchestrator.New(history, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("init orchestrator")
	}

	srvCfg := configx.MustNew[serverx.Config]("SERVER")
	srv, err := serverx.New(*srvCfg, orch)
	if err != nil {
		log.Fatal().Err(err).Msg("init http server")
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown http server")
	}
}

// newStores picks go-redis when REDIS_URL is set and falls back to the
// Upstash REST store otherwise. Both back the same Store and HistoryStore
// contracts.
func newStores(appCfg *AppConfig) (statex.Store, statex.HistoryStore) {
	if strings.TrimSpace(appCfg.RedisURL) != "" {
		redisCfg := redisx.Config{
			URL:          appCfg.RedisURL,
			ReadTimeout:  3,
			WriteTimeout: 3,
			DialTimeout:  5,
		}
		client := redisCfg.MustNew()
		store, err := statex.NewRedisStore(client, statex.WithRedisTTL(appCfg.SessionTTL))
		if err != nil {
			log.Fatal().Err(err).Msg("init redis store")
		}
		return store, store
	}

	upstashCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	store, err := statex.NewUpstashRedisStore(*upstashCfg, statex.WithUpstashTTL(appCfg.SessionTTL))
	if err != nil {
		log.Fatal().Err(err).Msg("init upstash store")
	}
	return store, store
}

// newDirectory loads the known-company dataset from Postgres when a DSN is
// configured, from the bundled JSON file otherwise.
func newDirectory(ctx context.Context, appCfg *AppConfig) contractx.Directory {
	if dsn := strings.TrimSpace(appCfg.CompaniesDSN); dsn != "" {
		db := companyx.OpenDB(dsn)
		defer func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("close companies db")
			}
		}()
		directory, err := companyx.LoadDirectoryDB(ctx, db)
		if err != nil {
			log.Fatal().Err(err).Msg("load known companies from postgres")
		}
		log.Info().Int("companies", len(directory.Records())).Msg("known companies loaded from postgres")
		return directory
	}

	directory, err := companyx.LoadDirectoryFile(appCfg.CompaniesFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", appCfg.CompaniesFile).Msg("load known companies file")
	}
	log.Info().Int("companies", len(directory.Records())).Msg("known companies loaded")
	return directory
}
