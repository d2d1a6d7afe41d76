package di

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-knowledge/internal/cache"
	auditcmd "github.com/goliatone/go-knowledge/internal/commands/audit"
	documentcmd "github.com/goliatone/go-knowledge/internal/commands/document"
	"github.com/goliatone/go-knowledge/internal/compress"
	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/export"
	"github.com/goliatone/go-knowledge/internal/jobs"
	"github.com/goliatone/go-knowledge/internal/logging"
	"github.com/goliatone/go-knowledge/internal/logging/console"
	"github.com/goliatone/go-knowledge/internal/logging/gologger"
	"github.com/goliatone/go-knowledge/internal/markdown"
	"github.com/goliatone/go-knowledge/internal/retention"
	"github.com/goliatone/go-knowledge/internal/runtimeconfig"
	kscheduler "github.com/goliatone/go-knowledge/internal/scheduler"
	"github.com/goliatone/go-knowledge/pkg/activity"
	"github.com/goliatone/go-knowledge/pkg/activity/usersink"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// Container wires module dependencies. Memory-backed defaults keep the
// module runnable without external services; options swap in bun storage,
// redis caching, and host-owned collaborators.
type Container struct {
	Config runtimeconfig.Config

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	redisClient *redis.Client

	clock func() time.Time
	ids   document.IDGenerator

	loggerProvider interfaces.LoggerProvider
	activitySink   interfaces.ActivitySink
	emitter        *activity.Emitter

	versionRepo    document.Repository
	publishedCache document.PublishedCache

	scheduler     interfaces.Scheduler
	worker        *jobs.Worker
	auditRecorder jobs.AuditRecorder

	documentCmds *documentcmd.HandlerSet
	auditCmds    *auditcmd.HandlerSet

	engine     interfaces.MarkdownEngine
	markdownFS fs.FS
	loader     *markdown.Loader
	importer   interfaces.DocumentImporter

	exportWriter export.ArtifactWriter
	exportSvc    export.Service
	routeManager *urlkit.RouteManager

	sweeper *retention.Sweeper

	documentSvc document.Service

	runMu   sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB stores document versions through bun instead of process memory.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithDocumentRepository overrides the version store binding.
func WithDocumentRepository(repo document.Repository) Option {
	return func(c *Container) {
		if repo != nil {
			c.versionRepo = repo
		}
	}
}

// WithRemoteStore points the version store at a document store service over
// HTTP. The remote side stays authoritative for every transition.
func WithRemoteStore(baseURL string, opts ...document.RemoteOption) Option {
	return func(c *Container) {
		c.versionRepo = document.NewRemoteRepository(baseURL, opts...)
	}
}

// WithCache overrides the repository cache service and key serializer.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithRedisClient shares an existing redis connection pool with the
// published-version cache.
func WithRedisClient(client *redis.Client) Option {
	return func(c *Container) {
		c.redisClient = client
	}
}

// WithPublishedCache overrides the published-version cache binding.
func WithPublishedCache(store document.PublishedCache) Option {
	return func(c *Container) {
		if store != nil {
			c.publishedCache = store
		}
	}
}

// WithScheduler overrides the transition scheduler.
func WithScheduler(scheduler interfaces.Scheduler) Option {
	return func(c *Container) {
		if scheduler != nil {
			c.scheduler = scheduler
		}
	}
}

// WithAuditRecorder overrides where the worker records applied transitions.
func WithAuditRecorder(recorder jobs.AuditRecorder) Option {
	return func(c *Container) {
		if recorder != nil {
			c.auditRecorder = recorder
		}
	}
}

// WithLoggerProvider overrides the module logger source.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithActivitySink forwards lifecycle activity to a go-users sink.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		c.activitySink = sink
	}
}

// WithClock overrides the clock shared by the service, worker, and caches.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithIDGenerator overrides the identifier source for new versions.
func WithIDGenerator(generator document.IDGenerator) Option {
	return func(c *Container) {
		if generator != nil {
			c.ids = generator
		}
	}
}

// WithMarkdownEngine overrides the transform engine used by previews.
func WithMarkdownEngine(engine interfaces.MarkdownEngine) Option {
	return func(c *Container) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithMarkdownFS reads markdown sources from the given filesystem instead of
// the configured content directory.
func WithMarkdownFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.markdownFS = fsys
	}
}

// WithDocumentImporter overrides the markdown importer binding.
func WithDocumentImporter(importer interfaces.DocumentImporter) Option {
	return func(c *Container) {
		if importer != nil {
			c.importer = importer
		}
	}
}

// WithExportWriter overrides where exported pages are written.
func WithExportWriter(writer export.ArtifactWriter) Option {
	return func(c *Container) {
		c.exportWriter = writer
	}
}

// WithExportService overrides the site exporter binding.
func WithExportService(svc export.Service) Option {
	return func(c *Container) {
		if svc != nil {
			c.exportSvc = svc
		}
	}
}

// WithDocumentService overrides the document lifecycle service binding.
func WithDocumentService(svc document.Service) Option {
	return func(c *Container) {
		if svc != nil {
			c.documentSvc = svc
		}
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
		clock:    time.Now,
		ids:      uuid.New,
		engine:   markdown.NewEngine(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepository()
	c.configurePublishedCache()
	c.configureScheduler()
	c.configureActivity()
	c.configureDocumentService()
	c.configureWorker()
	if err := c.configureCommands(); err != nil {
		return nil, err
	}
	c.configureMarkdown()
	if err := c.configureExport(); err != nil {
		return nil, err
	}
	c.configureRetention()

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}

	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "", "console":
		options := console.Options{}
		if level, ok := consoleLevel(logCfg.Level); ok {
			options.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(options)
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepository() {
	if c.versionRepo != nil {
		return
	}
	if c.bunDB != nil {
		c.versionRepo = document.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		return
	}
	c.versionRepo = document.NewMemoryRepository(document.WithMemoryClock(c.clock))
}

func (c *Container) configurePublishedCache() {
	if !c.Config.Cache.Enabled || c.publishedCache != nil {
		return
	}

	redisCfg := c.Config.Cache.Redis
	if c.redisClient == nil && strings.TrimSpace(redisCfg.Addr) == "" {
		c.publishedCache = cache.NewMemory(c.cacheTTL, cache.WithMemoryClock(c.clock))
		return
	}

	cacheCfg := cache.RedisConfig{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
		TTL:      c.cacheTTL,
		Codec:    codecFor(redisCfg.Codec),
	}
	if c.redisClient != nil {
		c.publishedCache = cache.NewRedisWithClient(c.redisClient, cacheCfg)
		return
	}
	c.publishedCache = cache.NewRedis(cacheCfg)
}

func (c *Container) configureScheduler() {
	if !c.Config.Features.Scheduling {
		return
	}

	provider := "custom"
	if c.scheduler == nil {
		c.scheduler = kscheduler.NewInMemory(kscheduler.WithClock(c.clock))
		provider = "in-memory"
	}

	logging.SchedulerLogger(c.loggerProvider).Info("scheduler.configured", "provider", provider)
}

func (c *Container) configureActivity() {
	emitterOpts := []activity.EmitterOption{activity.WithClock(c.clock)}
	if c.activitySink != nil {
		emitterOpts = append(emitterOpts, activity.WithNotifier(usersink.Hook{Sink: c.activitySink}))
	}
	c.emitter = activity.NewEmitter(c.Config.Features.Activity, emitterOpts...)
}

func (c *Container) configureDocumentService() {
	if c.documentSvc != nil {
		return
	}

	serviceOpts := []document.ServiceOption{
		document.WithClock(c.clock),
		document.WithIDGenerator(c.ids),
		document.WithEngine(c.engine),
		document.WithSchedulingEnabled(c.Config.Features.Scheduling),
	}
	if c.scheduler != nil {
		serviceOpts = append(serviceOpts, document.WithScheduler(c.scheduler))
	}
	if c.emitter.Enabled() {
		serviceOpts = append(serviceOpts, document.WithActivityEmitter(c.emitter))
	}
	if c.publishedCache != nil {
		serviceOpts = append(serviceOpts, document.WithPublishedCache(c.publishedCache))
	}

	c.documentSvc = document.NewService(c.versionRepo, serviceOpts...)
}

func (c *Container) configureWorker() {
	if c.auditRecorder == nil {
		c.auditRecorder = jobs.NewInMemoryAuditRecorder()
	}

	if !c.Config.Features.Scheduling || c.scheduler == nil {
		return
	}

	workerOpts := []jobs.Option{
		jobs.WithClock(c.clock),
		jobs.WithAuditRecorder(c.auditRecorder),
	}
	if size := c.Config.Scheduler.BatchSize; size > 0 {
		workerOpts = append(workerOpts, jobs.WithBatchSize(size))
	}
	c.worker = jobs.NewWorker(c.scheduler, c.documentSvc, workerOpts...)
}

func (c *Container) configureCommands() error {
	documentCmds, err := documentcmd.RegisterDocumentCommands(nil, c.documentSvc, c.loggerProvider, documentcmd.FeatureGates{
		SchedulingEnabled: func() bool { return c.Config.Features.Scheduling },
	})
	if err != nil {
		return err
	}
	c.documentCmds = documentCmds

	var worker auditcmd.Worker
	if c.worker != nil {
		worker = c.worker
	}
	auditCmds, err := auditcmd.RegisterAuditCommands(nil, c.auditRecorder, worker, c.loggerProvider)
	if err != nil {
		return err
	}
	c.auditCmds = auditCmds
	return nil
}

func (c *Container) configureMarkdown() {
	if !c.Config.Features.Markdown || c.importer != nil {
		return
	}

	fsys := c.markdownFS
	if fsys == nil {
		dir := strings.TrimSpace(c.Config.Markdown.ContentDir)
		if dir == "" {
			return
		}
		fsys = os.DirFS(dir)
	}

	c.loader = markdown.NewLoader(fsys, markdown.LoaderConfig{
		Pattern:   c.Config.Markdown.Pattern,
		Recursive: c.Config.Markdown.Recursive,
	})
	c.importer = markdown.NewImporter(markdown.ImporterConfig{
		Documents: c.documentSvc,
		Loader:    c.loader,
		Logger:    logging.MarkdownLogger(c.loggerProvider),
	})
}

func (c *Container) configureExport() error {
	if c.exportSvc != nil {
		return nil
	}
	if !c.Config.Features.Export || !c.Config.Export.Enabled {
		c.exportSvc = export.NewDisabledService()
		return nil
	}

	writer := c.exportWriter
	if writer == nil {
		fsWriter, err := export.NewFilesystemWriter(c.Config.Export.OutputDir)
		if err != nil {
			return err
		}
		writer = fsWriter
	}

	c.exportSvc = export.NewService(export.Config{
		SiteTitle: c.Config.Export.SiteTitle,
		Style:     c.Config.Export.Style,
		BatchSize: c.Config.Export.BatchSize,
	}, export.Dependencies{
		Documents: c.documentSvc,
		Writer:    writer,
		URLs:      c.configurePublicURLs(),
		Logger:    logging.ExportLogger(c.loggerProvider),
	})
	return nil
}

func (c *Container) configurePublicURLs() *export.URLResolver {
	exportCfg := c.Config.Export
	if exportCfg.RouteConfig != nil {
		manager := urlkit.NewRouteManager(exportCfg.RouteConfig)
		c.routeManager = manager
		return export.NewURLResolver(export.URLResolverOptions{
			Manager:   manager,
			Group:     strings.TrimSpace(exportCfg.URLKit.Group),
			Route:     strings.TrimSpace(exportCfg.URLKit.Route),
			SlugParam: exportCfg.URLKit.SlugParam,
		})
	}
	if base := strings.TrimSpace(exportCfg.BaseURL); base != "" {
		return export.NewSiteURLResolver(base)
	}
	return nil
}

func (c *Container) configureRetention() {
	if !c.Config.Features.Retention || c.Config.Retention.MaxSuperseded <= 0 {
		return
	}

	c.sweeper = retention.NewSweeper(retention.Config{
		MaxSuperseded: c.Config.Retention.MaxSuperseded,
		Schedule:      c.Config.Retention.Schedule,
	}, c.documentSvc, retention.WithLogger(logging.RetentionLogger(c.loggerProvider)))
}

// Start launches the background lifecycle: the scheduled-transition worker
// loop and the retention cron. Calling Start twice is a no-op.
func (c *Container) Start(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.started {
		return nil
	}

	if c.sweeper != nil {
		if err := c.sweeper.Start(); err != nil {
			return err
		}
	}

	if c.worker != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		interval := c.Config.Scheduler.PollInterval
		if interval <= 0 {
			interval = time.Minute
		}
		runCtx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		c.done = make(chan struct{})
		go c.runWorker(runCtx, interval)
	}

	c.started = true
	return nil
}

// Stop halts the worker loop and the retention cron, waiting for the current
// worker batch to finish.
func (c *Container) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if !c.started {
		return
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.done != nil {
		<-c.done
		c.done = nil
	}
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
	c.started = false
}

func (c *Container) runWorker(ctx context.Context, interval time.Duration) {
	defer close(c.done)

	logger := logging.SchedulerLogger(c.loggerProvider)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.worker.Process(ctx); err != nil {
				logger.Error("scheduled transition batch failed", "error", err)
			}
		}
	}
}

// DocumentService returns the configured document lifecycle service.
func (c *Container) DocumentService() document.Service {
	return c.documentSvc
}

// VersionRepository exposes the configured version store.
func (c *Container) VersionRepository() document.Repository {
	return c.versionRepo
}

// PublishedCache exposes the published-version cache, nil when caching is
// disabled.
func (c *Container) PublishedCache() document.PublishedCache {
	return c.publishedCache
}

// Scheduler exposes the transition scheduler, nil unless scheduling is
// enabled or a scheduler was injected.
func (c *Container) Scheduler() interfaces.Scheduler {
	return c.scheduler
}

// Worker exposes the scheduled-transition worker, nil when scheduling is
// disabled.
func (c *Container) Worker() *jobs.Worker {
	return c.worker
}

// AuditRecorder exposes the transition audit log.
func (c *Container) AuditRecorder() jobs.AuditRecorder {
	return c.auditRecorder
}

// DocumentCommands exposes the lifecycle command handlers for dispatcher and
// CLI hosts.
func (c *Container) DocumentCommands() *documentcmd.HandlerSet {
	return c.documentCmds
}

// AuditCommands exposes the audit trail command handlers. The replay handler
// is nil when scheduling is disabled.
func (c *Container) AuditCommands() *auditcmd.HandlerSet {
	return c.auditCmds
}

// Engine returns the markdown transform engine.
func (c *Container) Engine() interfaces.MarkdownEngine {
	return c.engine
}

// Importer returns the markdown importer, nil when markdown is disabled.
func (c *Container) Importer() interfaces.DocumentImporter {
	return c.importer
}

// ExportService returns the site exporter. Disabled configurations yield a
// service that fails every run with export.ErrServiceDisabled.
func (c *Container) ExportService() export.Service {
	return c.exportSvc
}

// RetentionSweeper returns the sweeper, nil when retention is disabled.
func (c *Container) RetentionSweeper() *retention.Sweeper {
	return c.sweeper
}

// LoggerProvider exposes the module logger source, nil when logging is
// disabled and no provider was injected.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// ActivityEmitter exposes the lifecycle activity emitter.
func (c *Container) ActivityEmitter() *activity.Emitter {
	return c.emitter
}

func consoleLevel(level string) (console.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return console.LevelTrace, true
	case "debug":
		return console.LevelDebug, true
	case "info":
		return console.LevelInfo, true
	case "warn", "warning":
		return console.LevelWarn, true
	case "error":
		return console.LevelError, true
	case "fatal":
		return console.LevelFatal, true
	default:
		return console.LevelInfo, false
	}
}

func codecFor(name string) compress.Codec {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gzip":
		return compress.NewGZip()
	case "nop", "none":
		return compress.NewNop()
	default:
		return compress.NewBrotli()
	}
}
