package config

import "time"

// ChatClient definition chat_client YAML structure
type ChatClient struct {
	// Host relay host, e.g. real.najoa.net
	Host string `mapstructure:"host"`
	// Secure use wss instead of ws
	Secure bool `mapstructure:"secure"`
	// Protocol frame codec: legacy | envelope
	Protocol string `mapstructure:"protocol"`

	Liveness   LivenessConfig   `mapstructure:"liveness"`
	REST       RESTConfig       `mapstructure:"rest"`
	ImageStore ImageStoreConfig `mapstructure:"image_store"`
	Location   LocationConfig   `mapstructure:"location"`
}

// Relay definition relay_service YAML structure
type Relay struct {
	Port         string         `mapstructure:"port"`
	RequireToken bool           `mapstructure:"require_token"`
	RoomTTL      time.Duration  `mapstructure:"room_ttl"`
	PingInterval time.Duration  `mapstructure:"ping_interval"`
	PprofAddr    string         `mapstructure:"pprof_addr"`
	MongoSQL     DatabaseConfig `mapstructure:"mongo"`
	Redis        RedisConfig    `mapstructure:"redis"`
}

// LivenessConfig definition connection liveness policy
type LivenessConfig struct {
	// Mode recycle | heartbeat
	Mode            string        `mapstructure:"mode"`
	RecycleInterval time.Duration `mapstructure:"recycle_interval"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	BackoffInitial  time.Duration `mapstructure:"backoff_initial"`
	BackoffMax      time.Duration `mapstructure:"backoff_max"`
}

// RESTConfig definition JoA REST API setting
type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ImageStoreConfig definition profile image object store
type ImageStoreConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	DefaultImage  string        `mapstructure:"default_image"`
}

// LocationConfig definition location reporter
type LocationConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Cooldown time.Duration `mapstructure:"cooldown"`
	// WindowStart / WindowEnd hour of day, end 24 means midnight
	WindowStart int `mapstructure:"window_start"`
	WindowEnd   int `mapstructure:"window_end"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	// Addr single node address, sentinel settings from .env are used when empty
	Addr    string `mapstructure:"addr"`
	RedisDB int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// Defaults fill zero values with the values the deployed JoA service uses
func (c *ChatClient) Defaults() {
	if c.Host == "" {
		c.Host = "real.najoa.net"
	}
	if c.Protocol == "" {
		c.Protocol = "legacy"
	}
	if c.Liveness.Mode == "" {
		c.Liveness.Mode = "recycle"
	}
	if c.Liveness.RecycleInterval == 0 {
		c.Liveness.RecycleInterval = 30 * time.Second
	}
	if c.Liveness.PingInterval == 0 {
		c.Liveness.PingInterval = 15 * time.Second
	}
	if c.Liveness.PongTimeout == 0 {
		c.Liveness.PongTimeout = 10 * time.Second
	}
	if c.Liveness.BackoffInitial == 0 {
		c.Liveness.BackoffInitial = 500 * time.Millisecond
	}
	if c.Liveness.BackoffMax == 0 {
		c.Liveness.BackoffMax = 30 * time.Second
	}
	if c.REST.BaseURL == "" {
		c.REST.BaseURL = "https://real.najoa.net"
	}
	if c.REST.Timeout == 0 {
		c.REST.Timeout = 10 * time.Second
	}
	if c.ImageStore.PresignExpiry == 0 {
		c.ImageStore.PresignExpiry = time.Hour
	}
	if c.ImageStore.DefaultImage == "" {
		c.ImageStore.DefaultImage = "me.png"
	}
	if c.Location.Interval == 0 {
		c.Location.Interval = time.Minute
	}
	if c.Location.Cooldown == 0 {
		c.Location.Cooldown = 30 * time.Minute
	}
	if c.Location.WindowEnd == 0 {
		c.Location.WindowEnd = 24
	}
}

// Defaults fill zero values for the relay
func (r *Relay) Defaults() {
	if r.Port == "" {
		r.Port = "8080"
	}
	if r.RoomTTL == 0 {
		r.RoomTTL = 24 * time.Hour
	}
	if r.PingInterval == 0 {
		r.PingInterval = 30 * time.Second
	}
}
