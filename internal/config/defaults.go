package config

const (
	defaultDataDir         = "~/.local/share/galleria"
	defaultLogDir          = "~/.local/share/galleria/logs"
	defaultAPIBind         = "127.0.0.1:7497"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultTrackerInbox    = 64
	defaultSchedulerInbox  = 64
	defaultWorkerInbox     = 16
	defaultLeaseTimeout    = 1800
	defaultReclaimInterval = 60
	defaultReplyTimeout    = 10

	defaultAnalysisBaseURL  = "https://api.openai.com/v1"
	defaultAnalysisModel    = "gpt-4o-mini"
	defaultAnalysisTimeout  = 120
	defaultEmbeddingBaseURL = "https://api.openai.com/v1"
	defaultEmbeddingModel   = "text-embedding-3-small"
	defaultEmbeddingTimeout = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Scheduler: Scheduler{
			TrackerInboxSize:   defaultTrackerInbox,
			SchedulerInboxSize: defaultSchedulerInbox,
			WorkerInboxSize:    defaultWorkerInbox,
			LeaseTimeout:       defaultLeaseTimeout,
			ReclaimInterval:    defaultReclaimInterval,
			ReplyTimeout:       defaultReplyTimeout,
		},
		Marketplaces: Marketplaces{
			Enabled: []string{"mercari", "ebay", "yahoo_auction"},
		},
		Analysis: Analysis{
			BaseURL:        defaultAnalysisBaseURL,
			Model:          defaultAnalysisModel,
			TimeoutSeconds: defaultAnalysisTimeout,
		},
		Embedding: Embedding{
			BaseURL:        defaultEmbeddingBaseURL,
			Model:          defaultEmbeddingModel,
			TimeoutSeconds: defaultEmbeddingTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
