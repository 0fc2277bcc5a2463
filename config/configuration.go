package config

// Prefix for envionment variable names, so HTTP_LISTEN becomes RNGD_HTTP_LISTEN.
const envprefix = "RNGD"

// Configuration via environment variables with github.com/kelseyhightower/envconfig.
type Configuration struct {

	// HTTP_LISTEN is the listening address for the HTTP server.
	HttpListen string `split_words:"true" default:"localhost:4090" desc:"Listening Addr for HTTP server"`

	// HTTP_CERT and HTTP_KEY are paths to a TLS keypair to optionally use for the HTTP server.
	// If none are given, a plaintext server is started.
	HttpCert string `split_words:"true" desc:"Path to TLS certificate to use"`
	HttpKey  string `split_words:"true" desc:"Path to TLS key to use"`

	// ALLOWED_ORIGINS is a list of allowed Origin headers for trace feed connections.
	AllowedOrigins []string `split_words:"true" default:"*" desc:"List of allowed Origins for WebSocket"`

	// SEED fixes the session seed for reproducible captures; 0 draws a fresh
	// one from the entropy source and logs it.
	Seed uint32 `desc:"Fixed session seed; 0 draws one from entropy" default:"0"`

	// SESSION names the capture session in journal and records.
	// An empty string generates a random session id.
	Session string `desc:"Capture session name" default:""`

	// JOURNAL is a path for the persistent BoltDB draw journal.
	// An empty string disables journaling.
	Journal string `desc:"Use persistent BoltDB journal for draws" default:"journal.db"`

	// TICKRATE drives the synthetic simulation loop; 0 disables it.
	Tickrate int `desc:"Synthetic simulation ticks per second" default:"30"`

	// ENTROPY_CONCURRENCY caps concurrent fills on the entropy endpoint.
	EntropyConcurrency int `split_words:"true" default:"8" desc:"Max concurrent entropy requests"`

	// TRACE_LOG is a rotating JSON logfile receiving every trace record.
	TraceLog string `split_words:"true" desc:"Rotating JSON file for trace records"`

	// DEVELOPMENT switches console logging to colored debug output.
	Development bool `desc:"Colored console logging at debug level" default:"false"`

	// METRICS will expose metrics for Prometheus via /metrics
	Metrics bool `desc:"Enable Prometheus exporter on /metrics" default:"false"`

	// DEBUG will enable the pprof handlers under /debug/pprof
	Debug bool `desc:"Enable profiling handlers on /debug/pprof" default:"false"`
}
