package config

// Config holds bookdistill configuration.
type Config struct {
	Server ServerCfg `mapstructure:"server" yaml:"server"`
	GCP    GCPCfg    `mapstructure:"gcp" yaml:"gcp"`
	LLM    LLMCfg    `mapstructure:"llm" yaml:"llm"`
	Auth   AuthCfg   `mapstructure:"auth" yaml:"auth"`
	Batch  BatchCfg  `mapstructure:"batch" yaml:"batch"`
	Worker WorkerCfg `mapstructure:"worker" yaml:"worker"`
}

// ServerCfg configures the HTTP API server.
type ServerCfg struct {
	Addr                   string `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// GCPCfg names the Google Cloud resources the service talks to.
type GCPCfg struct {
	ProjectID string `mapstructure:"project_id" yaml:"project_id"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	// Topic/subscription pairs for the two job queues.
	SectioningTopic   string `mapstructure:"sectioning_topic" yaml:"sectioning_topic"`
	SectioningSub     string `mapstructure:"sectioning_sub" yaml:"sectioning_sub"`
	DistillationTopic string `mapstructure:"distillation_topic" yaml:"distillation_topic"`
	DistillationSub   string `mapstructure:"distillation_sub" yaml:"distillation_sub"`
}

// LLMCfg configures the model client.
type LLMCfg struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	Model          string `mapstructure:"model" yaml:"model"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// AuthCfg configures bearer token verification.
type AuthCfg struct {
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"` // supports ${ENV_VAR} syntax
}

// BatchCfg bounds the page batches sent to the model during sectioning.
type BatchCfg struct {
	MaxPages  int `mapstructure:"max_pages" yaml:"max_pages"`
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// WorkerCfg tunes the queue poll loops.
type WorkerCfg struct {
	IdleWaitSeconds    int `mapstructure:"idle_wait_seconds" yaml:"idle_wait_seconds"`
	MaxIdleWaitSeconds int `mapstructure:"max_idle_wait_seconds" yaml:"max_idle_wait_seconds"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Addr:                   ":8080",
			ShutdownTimeoutSeconds: 10,
		},
		GCP: GCPCfg{
			SectioningTopic:   "sectioning-jobs",
			SectioningSub:     "sectioning-jobs-worker",
			DistillationTopic: "distillation-jobs",
			DistillationSub:   "distillation-jobs-worker",
		},
		LLM: LLMCfg{
			APIKey:     "${OPENAI_API_KEY}",
			Model:      "gpt-4o-mini",
			MaxRetries: 2,
		},
		Auth: AuthCfg{
			JWTSecret: "${JWT_SECRET_KEY}",
		},
		Batch: BatchCfg{
			MaxPages:  50,
			MaxTokens: 20000,
		},
		Worker: WorkerCfg{
			IdleWaitSeconds:    1,
			MaxIdleWaitSeconds: 30,
		},
	}
}
