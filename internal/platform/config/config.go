package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DriverPostgres は PostgreSQL を利用するドライバ名です。
	DriverPostgres = "postgres"
	// DriverSQLite はローカル開発向けの SQLite ドライバ名です。
	DriverSQLite = "sqlite"
)

const (
	defaultGRPCListenAddr      = ":50051"
	defaultHealthCheckInterval = 10 * time.Second
	defaultExplorerListenAddr  = ":8081"
	defaultAPIBaseURL          = "http://localhost:8080"
	defaultRequestTimeout      = 10 * time.Second
	defaultRenderWait          = 2 * time.Second
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Explorer ExplorerConfig `yaml:"explorer"`
}

// ServerConfig は社員 API サーバーとヘルスチェック用 gRPC サーバーの設定です。
type ServerConfig struct {
	ListenAddr             string        `yaml:"listen_addr"`
	GRPCListenAddr         string        `yaml:"grpc_listen_addr"`
	HealthCheckInterval    time.Duration `yaml:"-"`
	HealthCheckIntervalRaw string        `yaml:"health_check_interval"`
}

// DatabaseConfig はデータベース接続に関する設定です。
type DatabaseConfig struct {
	Driver             string        `yaml:"driver"`
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	SQLitePath         string        `yaml:"sqlite_path"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// ExplorerConfig は社員一覧画面 (Web / ターミナル) の設定です。
type ExplorerConfig struct {
	ListenAddr        string        `yaml:"listen_addr"`
	APIBaseURL        string        `yaml:"api_base_url"`
	RequestTimeout    time.Duration `yaml:"-"`
	StaleTime         time.Duration `yaml:"-"`
	RenderWait        time.Duration `yaml:"-"`
	RequestTimeoutRaw string        `yaml:"request_timeout"`
	StaleTimeRaw      string        `yaml:"stale_time"`
	RenderWaitRaw     string        `yaml:"render_wait"`
}

// Load は指定されたパスから設定ファイルを読み込み、全セクションを検証します。
func Load(path string) (*Config, error) {
	return load(path, (*Config).validateAndNormalize)
}

// LoadExplorer は explorer セクションだけを検証して読み込みます。
// 社員一覧画面は API 経由でのみデータを読むため、server と database は問いません。
func LoadExplorer(path string) (*Config, error) {
	return load(path, func(c *Config) error {
		return c.Explorer.validateAndNormalize()
	})
}

func load(path string, validate func(*Config) error) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// EffectivePath はフラグ、環境変数 CONFIG_PATH、既定値の順に設定ファイルのパスを決定します。
func EffectivePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Explorer.validateAndNormalize(); err != nil {
		return err
	}
	return nil
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}
	if s.GRPCListenAddr == "" {
		s.GRPCListenAddr = defaultGRPCListenAddr
	}

	interval, err := parseDurationAllowEmpty(s.HealthCheckIntervalRaw)
	if err != nil {
		return fmt.Errorf("config: server.health_check_interval: %w", err)
	}
	if interval <= 0 {
		interval = defaultHealthCheckInterval
	}
	s.HealthCheckInterval = interval

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}

	switch d.Driver {
	case DriverPostgres:
		if err := d.validatePostgres(); err != nil {
			return err
		}
	case DriverSQLite:
		if d.SQLitePath == "" {
			return fmt.Errorf("config: database.sqlite_path must be set when driver is sqlite")
		}
	default:
		return fmt.Errorf("config: database.driver %q is not supported", d.Driver)
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (d *DatabaseConfig) validatePostgres() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	return nil
}

func (e *ExplorerConfig) validateAndNormalize() error {
	if e.ListenAddr == "" {
		e.ListenAddr = defaultExplorerListenAddr
	}

	if e.APIBaseURL == "" {
		e.APIBaseURL = defaultAPIBaseURL
	}
	u, err := url.Parse(e.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: explorer.api_base_url must be an absolute URL")
	}
	e.APIBaseURL = strings.TrimRight(e.APIBaseURL, "/")

	timeout, err := parseDurationAllowEmpty(e.RequestTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: explorer.request_timeout: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	e.RequestTimeout = timeout

	stale, err := parseDurationAllowEmpty(e.StaleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: explorer.stale_time: %w", err)
	}
	if stale < 0 {
		return fmt.Errorf("config: explorer.stale_time must not be negative")
	}
	e.StaleTime = stale

	wait, err := parseDurationAllowEmpty(e.RenderWaitRaw)
	if err != nil {
		return fmt.Errorf("config: explorer.render_wait: %w", err)
	}
	if wait <= 0 {
		wait = defaultRenderWait
	}
	e.RenderWait = wait

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// MigrationURL は golang-migrate 用のデータベース URL を返します。
func (d DatabaseConfig) MigrationURL() string {
	if d.Driver == DriverSQLite {
		return "sqlite://" + d.SQLitePath
	}
	return d.DSN()
}
