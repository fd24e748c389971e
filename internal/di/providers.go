package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"TradePulse/internal/analytics/consensus"
	"TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/handler/api"
	mid "TradePulse/internal/middleware"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/service/agents"
	icache "TradePulse/internal/service/cache"
	"TradePulse/internal/service/marketdata"
	"TradePulse/internal/usecase"
	pkgcache "TradePulse/pkg/cache"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	pkgqueue "TradePulse/pkg/queue"
	"TradePulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// tick, bar and decision schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		`CREATE TABLE IF NOT EXISTS ` + db + `.ticks_raw (
            ts DateTime64(3), symbol String, price Float64, volume Float64,
            source String, event_id String
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, ts, event_id)`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.bars_1m (
            bucket DateTime, symbol String,
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, bucket)`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.bars_5m (
            bucket DateTime, symbol String,
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, bucket)`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.bars_1d (
            bucket DateTime, symbol String,
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, bucket)`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS ` + db + `.mv_bars_1m TO ` + db + `.bars_1m AS
            SELECT toStartOfMinute(ts) AS bucket, symbol,
                argMin(price, ts) AS open, max(price) AS high,
                min(price) AS low, argMax(price, ts) AS close,
                sum(volume) AS vol
            FROM ` + db + `.ticks_raw GROUP BY bucket, symbol`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS ` + db + `.mv_bars_5m TO ` + db + `.bars_5m AS
            SELECT toStartOfFiveMinutes(ts) AS bucket, symbol,
                argMin(price, ts) AS open, max(price) AS high,
                min(price) AS low, argMax(price, ts) AS close,
                sum(volume) AS vol
            FROM ` + db + `.ticks_raw GROUP BY bucket, symbol`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS ` + db + `.mv_bars_1d TO ` + db + `.bars_1d AS
            SELECT toStartOfDay(ts) AS bucket, symbol,
                argMin(price, ts) AS open, max(price) AS high,
                min(price) AS low, argMax(price, ts) AS close,
                sum(volume) AS vol
            FROM ` + db + `.ticks_raw GROUP BY bucket, symbol`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.decisions (
            ts DateTime64(3), symbol String, decision String,
            confidence Float64, total_score Float64, risk_level String,
            vetoed UInt8, target_price Float64, stop_loss Float64, votes String
        ) ENGINE = MergeTree ORDER BY (symbol, ts)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisClient creates the shared Redis client, or nil when Redis is
// disabled (weights and pending decisions then live in memory).
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTickStorage creates ClickHouse tick storage.
func ProvideTickStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".ticks_raw")
}

// ProvideTickPublisher creates the Kafka tick publisher.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(chClient *pkgch.Client, l *applogger.Logger) repository.BarStore {
	store := internalrepo.NewCHBarStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideDecisionStore creates ClickHouse decision history storage.
func ProvideDecisionStore(chClient *pkgch.Client, cfg *config.Config) repository.DecisionStore {
	return internalrepo.NewCHDecisionStore(chClient.DB(), cfg.ClickHouse.Database+".decisions")
}

// ProvideDecisionPublisher creates the Kafka decision publisher.
func ProvideDecisionPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.DecisionPublisher {
	return internalrepo.NewKafkaDecisionPublisher(producer, cfg.Kafka.DecisionsTopic)
}

// ProvideWeightStore creates the agent weight store: Redis-backed when
// available, in-memory otherwise.
func ProvideWeightStore(rdb *redis.Client, cfg *config.Config) repository.WeightStore {
	if rdb == nil {
		return internalrepo.NewMemoryWeightStore(consensus.DefaultWeights())
	}
	return internalrepo.NewRedisWeightStore(rdb, cfg.Redis.KeyPrefix)
}

// ProvidePendingStore creates the pending decision store.
func ProvidePendingStore(rdb *redis.Client, cfg *config.Config) repository.PendingStore {
	if rdb == nil {
		return internalrepo.NewMemoryPendingStore()
	}
	return internalrepo.NewRedisPendingStore(rdb, cfg.Redis.KeyPrefix)
}

// ProvideConsensusEngine creates the consensus engine from config.
func ProvideConsensusEngine(cfg *config.Config) *consensus.Engine {
	var opts []consensus.Option
	if cfg.Consensus.VetoScore != 0 {
		opts = append(opts, consensus.WithVetoScore(cfg.Consensus.VetoScore))
	}
	if cfg.Consensus.LooseThreshold > 0 && cfg.Consensus.StrictThreshold > 0 {
		opts = append(opts, consensus.WithDecisionThresholds(
			cfg.Consensus.LooseRatio,
			cfg.Consensus.LooseThreshold,
			cfg.Consensus.StrictThreshold,
		))
	}
	if cfg.Consensus.MinWeight > 0 && cfg.Consensus.MaxWeight > cfg.Consensus.MinWeight {
		opts = append(opts, consensus.WithWeightBounds(cfg.Consensus.MinWeight, cfg.Consensus.MaxWeight))
	}
	if cfg.Consensus.MinDecisions > 0 {
		opts = append(opts, consensus.WithMinDecisions(cfg.Consensus.MinDecisions))
	}
	return consensus.NewEngine(opts...)
}

// ProvideVoteProviders creates the external scoring agents. An empty base URL
// disables them; the analyzer then runs on the native engines alone.
func ProvideVoteProviders(cfg *config.Config) []domsvc.VoteProvider {
	if cfg.Agents.BaseURL == "" {
		return nil
	}
	return []domsvc.VoteProvider{
		agents.NewHTTPSentimentAgent(cfg.Agents.BaseURL, cfg.Agents.Timeout, cfg.Agents.Retries),
		agents.NewHTTPFundamentalAgent(cfg.Agents.BaseURL, cfg.Agents.Timeout, cfg.Agents.Retries),
	}
}

// ProvideAnalyzer wires the full per-symbol analysis pipeline.
func ProvideAnalyzer(
	bars repository.BarStore,
	ticks repository.Storage,
	engine *consensus.Engine,
	weights repository.WeightStore,
	pending repository.PendingStore,
	history repository.DecisionStore,
	decision repository.DecisionPublisher,
	voters []domsvc.VoteProvider,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(bars, ticks, engine, weights, pending, history, decision, voters,
		usecase.AnalyzerConfig{
			Lookback:        cfg.Engine.Lookback,
			Timeframe:       repository.NormalizeTimeframe(cfg.Engine.Timeframe),
			DecayRate:       cfg.Engine.DecayRate,
			SignalThreshold: cfg.Engine.SignalThreshold,
			SignalLookback:  cfg.Engine.SignalLookback,
			BucketWidthPct:  cfg.Engine.BucketWidthPct,
			ThresholdK:      cfg.Engine.ThresholdK,
			ThresholdWindow: cfg.Engine.ThresholdWindow,
			TickLimit:       cfg.Engine.TickLimit,
			Timeout:         cfg.Engine.Timeout,
		}, l)
}

// ProvideQueries creates the read-side use case.
func ProvideQueries(bars repository.BarStore, ticks repository.Storage, weights repository.WeightStore) *usecase.QueriesUseCase {
	return usecase.NewQueriesUseCase(bars, ticks, weights)
}

// ProvideMarketStream creates the market data WebSocket stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	return marketdata.New(
		cfg.MarketData.APIKey,
		cfg.MarketData.WebSocketURL,
		cfg.MarketData.Symbols,
		cfg.MarketData.ReconnectDelay,
		cfg.MarketData.PingInterval,
	)
}

// ProvideTickProcessor creates the tick processor use case.
func ProvideTickProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideTickCollector creates the tick collector use case.
func ProvideTickCollector(
	stream repository.MarketStream,
	processor *usecase.TickProcessor,
	metrics repository.Metrics,
) *usecase.TickCollector {
	// Build middleware pipeline between WebSocket and backend
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, processor, metrics, pipe)
}

// ProvideKafkaTicksHandler registers the handler for the ticks topic.
func ProvideKafkaTicksHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideOutcomeTracker creates the pending decision tracker.
func ProvideOutcomeTracker(
	pending repository.PendingStore,
	bars repository.BarStore,
	weights repository.WeightStore,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.OutcomeTracker {
	return usecase.NewOutcomeTracker(
		pending, bars, weights,
		cfg.Tracker.SweepInterval,
		cfg.Tracker.HoldingPeriod,
		repository.NormalizeTimeframe(cfg.Engine.Timeframe),
		l,
	)
}

// ProvideRecalibrator creates the weight recalibrator.
func ProvideRecalibrator(
	engine *consensus.Engine,
	weights repository.WeightStore,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Recalibrator {
	return usecase.NewRecalibrator(engine, weights, cfg.Recalibration.Interval, l)
}

// ProvideOutcomeQueue creates the Redis queue consumer for on-demand outcome
// evaluation, or nil when Redis is disabled.
func ProvideOutcomeQueue(
	rdb *redis.Client,
	tracker *usecase.OutcomeTracker,
	cfg *config.Config,
	l *applogger.Logger,
) *pkgqueue.RedisQueue {
	if rdb == nil {
		return nil
	}
	q := pkgqueue.NewRedisConsumer(l,
		&pkgqueue.QueueConfig{
			Workers:    cfg.Redis.Queue.Concurrency,
			RetryLimit: cfg.Redis.Queue.RetryMax,
			RetryDelay: cfg.Redis.Queue.RetryDelay,
		},
		rdb,
		[]pkgqueue.Job{usecase.NewOutcomeJob(tracker)},
		pkgqueue.WithKeyPrefix(cfg.Redis.KeyPrefix+":queue:"+cfg.Redis.Queue.Name),
	)
	tracker.SetPublisher(q)
	return q
}

// ProvideHTTPHandler creates the analysis HTTP handler with its byte cache.
func ProvideHTTPHandler(
	l *applogger.Logger,
	queries *usecase.QueriesUseCase,
	analyzer *usecase.Analyzer,
	tracker *usecase.OutcomeTracker,
	cfg *config.Config,
) *api.AnalysisEchoHandler {
	h := api.NewAnalysisEchoHandler(l, queries, analyzer)
	h.SetTracker(tracker)
	h.SetCache(provideByteCache(cfg, l))
	return h
}

// provideByteCache builds the response cache: layered memory-over-Redis when
// Redis is up, in-process TTL cache otherwise.
func provideByteCache(cfg *config.Config, l *applogger.Logger) icache.BytesCache {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache()
	}
	host, port := splitHostPort(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.KeyPrefix+":api"),
	)
	if err != nil {
		l.Warn("redis response cache unavailable, falling back to in-process cache", applogger.Error(err))
		return icache.NewTTLCache()
	}
	return icache.NewServiceCache(pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(2048)))
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type kafkaLogPublisher struct {
	p *pkgkafka.Producer
}

func (k kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return k.p.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	handler *api.AnalysisEchoHandler,
	queue *pkgqueue.RedisQueue,
	tracker *usecase.OutcomeTracker,
	recalibrator *usecase.Recalibrator,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	// Aggregate repeated error logs and ship them to Kafka in batches.
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "logs.aggregated",
			Publisher:      kafkaLogPublisher{p: producer},
		})
	}
	app := server.New(cfg, l, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	app.SetQueue(queue)
	app.SetTracker(tracker)
	app.SetRecalibrator(recalibrator)
	if collector != nil {
		app.TickProc = collector.Processor()
	}
	return app
}
