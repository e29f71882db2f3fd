package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/instrument"
	"main/internal/model"
	"main/internal/risk"
	"main/pkg/conn"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Engine      EngineConfig       `json:"engine"`
	Risk        RiskConfig         `json:"risk"`
	Broker      BrokerConfig       `json:"broker"`
	Postgres    *PostgresConfig    `json:"postgres"`
	Instruments []InstrumentConfig `json:"instruments"`
}

// EngineConfig describes the runtime knobs of the engine loop.
type EngineConfig struct {
	BarIntervalMinutes int    `json:"barIntervalMinutes"`
	StartingCash       string `json:"startingCash"`
	OrderQueueCap      int    `json:"orderQueueCap"`
	TickQueueCap       int    `json:"tickQueueCap"`
}

// RiskConfig mirrors the risk limits in file form.
type RiskConfig struct {
	SlippageTicks            int64  `json:"slippageTicks"`
	SuppressionWindowSeconds int64  `json:"suppressionWindowSeconds"`
	DefaultTickSize          string `json:"defaultTickSize"`
}

// BrokerConfig describes the venue session. Credentials come from the
// environment, never from the file. RequestTimeoutSeconds bounds each
// REST call; 0 means the 15s default and a negative value leaves the
// deadline entirely to the caller's context.
type BrokerConfig struct {
	BaseURL               string `json:"baseUrl"`
	OrderWsURL            string `json:"orderWsUrl"`
	TickWsURL             string `json:"tickWsUrl"`
	ClientCode            string `json:"clientCode"`
	APIKeyEnv             string `json:"apiKeyEnv"`
	AuthTokenEnv          string `json:"authTokenEnv"`
	RequestTimeoutSeconds int64  `json:"requestTimeoutSeconds"`
}

// PostgresConfig describes the instrument master connection.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// InstrumentConfig is a static instrument entry, used as the metadata
// source when no postgres connection is configured.
type InstrumentConfig struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Token    string `json:"token"`
	LotSize  int64  `json:"lotSize"`
	TickSize string `json:"tickSize"`
}

// BrokerSession is the resolved venue session settings.
type BrokerSession struct {
	BaseURL        string
	OrderWsURL     string
	TickWsURL      string
	ClientCode     string
	APIKey         string
	AuthToken      string
	RequestTimeout time.Duration
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	BarInterval   time.Duration
	StartingCash  model.Notional
	OrderQueueCap int
	TickQueueCap  int
	Risk          risk.Config
	Broker        BrokerSession
	Postgres      *conn.Option
	Static        instrument.StaticSource
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a file config and fills defaults.
func Resolve(cfg FileConfig) (Loaded, error) {
	loaded := Loaded{
		BarInterval:   5 * time.Minute,
		OrderQueueCap: 1024,
		TickQueueCap:  8192,
		Risk:          risk.DefaultConfig(),
	}

	if cfg.Engine.BarIntervalMinutes < 0 {
		return Loaded{}, fmt.Errorf("barIntervalMinutes must be >= 0")
	}
	if cfg.Engine.BarIntervalMinutes > 0 {
		loaded.BarInterval = time.Duration(cfg.Engine.BarIntervalMinutes) * time.Minute
	}
	if cfg.Engine.OrderQueueCap > 0 {
		loaded.OrderQueueCap = cfg.Engine.OrderQueueCap
	}
	if cfg.Engine.TickQueueCap > 0 {
		loaded.TickQueueCap = cfg.Engine.TickQueueCap
	}
	if cfg.Engine.StartingCash != "" {
		cash, err := model.ParsePrice(cfg.Engine.StartingCash)
		if err != nil {
			return Loaded{}, fmt.Errorf("invalid startingCash: %w", err)
		}
		loaded.StartingCash = model.Notional(cash)
	}

	if cfg.Risk.SlippageTicks > 0 {
		loaded.Risk.SlippageTicks = cfg.Risk.SlippageTicks
	}
	if cfg.Risk.SuppressionWindowSeconds > 0 {
		loaded.Risk.SuppressionWindow = time.Duration(cfg.Risk.SuppressionWindowSeconds) * time.Second
	}
	if cfg.Risk.DefaultTickSize != "" {
		tick, err := model.ParsePrice(cfg.Risk.DefaultTickSize)
		if err != nil {
			return Loaded{}, fmt.Errorf("invalid defaultTickSize: %w", err)
		}
		if tick <= 0 {
			return Loaded{}, fmt.Errorf("defaultTickSize must be > 0")
		}
		loaded.Risk.DefaultTickSize = tick
	}

	session, err := resolveBroker(cfg.Broker)
	if err != nil {
		return Loaded{}, err
	}
	loaded.Broker = session

	if cfg.Postgres != nil {
		loaded.Postgres = &conn.Option{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}
	}

	static, err := resolveStatic(cfg.Instruments)
	if err != nil {
		return Loaded{}, err
	}
	loaded.Static = static

	if loaded.Postgres == nil && len(loaded.Static) == 0 {
		return Loaded{}, fmt.Errorf("either postgres or instruments must be configured")
	}
	return loaded, nil
}

func resolveBroker(cfg BrokerConfig) (BrokerSession, error) {
	session := BrokerSession{
		BaseURL:    cfg.BaseURL,
		OrderWsURL: cfg.OrderWsURL,
		TickWsURL:  cfg.TickWsURL,
		ClientCode: cfg.ClientCode,
	}
	switch {
	case cfg.RequestTimeoutSeconds > 0:
		session.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	case cfg.RequestTimeoutSeconds == 0:
		session.RequestTimeout = 15 * time.Second
	}
	if cfg.APIKeyEnv != "" {
		session.APIKey = os.Getenv(cfg.APIKeyEnv)
		if session.APIKey == "" {
			return BrokerSession{}, fmt.Errorf("api key env %s is empty", cfg.APIKeyEnv)
		}
	}
	if cfg.AuthTokenEnv != "" {
		session.AuthToken = os.Getenv(cfg.AuthTokenEnv)
		if session.AuthToken == "" {
			return BrokerSession{}, fmt.Errorf("auth token env %s is empty", cfg.AuthTokenEnv)
		}
	}
	return session, nil
}

func resolveStatic(entries []InstrumentConfig) (instrument.StaticSource, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	static := make(instrument.StaticSource, len(entries))
	for _, entry := range entries {
		if entry.Symbol == "" || entry.Token == "" {
			return nil, fmt.Errorf("instrument entry needs symbol and token")
		}
		exchange := entry.Exchange
		if exchange == "" {
			exchange = "NSE"
		}
		var tick model.Price
		if entry.TickSize != "" {
			parsed, err := model.ParsePrice(entry.TickSize)
			if err != nil {
				return nil, fmt.Errorf("invalid tickSize for %s: %w", entry.Symbol, err)
			}
			tick = parsed
		}
		static[entry.Symbol+"|"+exchange] = instrument.Meta{
			Token:    entry.Token,
			Symbol:   entry.Symbol,
			ExchSeg:  exchange,
			LotSize:  model.Quantity(entry.LotSize),
			TickSize: tick,
		}
	}
	return static, nil
}
