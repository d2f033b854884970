// Package config loads bot settings from a YAML file or command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/momentum/internal/domain"
)

const (
	PlatformBinance  = "binance"
	PlatformSimulate = "simulate"
	PlatformReplay   = "replay"
)

const (
	defaultPair                = "ETH_USDC"
	defaultPlatform            = PlatformSimulate
	defaultInterval            = "5m"
	defaultKlinesLimit         = 500
	defaultPollIntervalSeconds = 300
	defaultShortPeriod         = 12
	defaultLongPeriod          = 26
	defaultRSIPeriod           = 26
	defaultRSIOversold         = "30"
	defaultRSIOverbought       = "70"
	defaultQuantity            = "0"
	defaultReportCSV           = "trading-report.csv"
	defaultWALDir              = "./wal/decisions"
	defaultLogLevel            = "info"
	defaultFetchRetries        = 3
	defaultFetchBackoffMs      = 1000
	defaultFetchBackoffMaxMs   = 30000
)

type Config struct {
	Platform        string
	Pair            domain.Pair
	Interval        string
	KlinesLimit     int
	PollInterval    time.Duration
	CronSchedule    string
	ShortPeriod     int
	LongPeriod      int
	RSIPeriod       int
	RSIOversold     decimal.Decimal
	RSIOverbought   decimal.Decimal
	Quantity        decimal.Decimal
	ReportCSV       string
	ReportSQLite    string
	WALDir          string
	HTTPAddr        string
	ReplayFile      string
	Testnet         bool
	LogLevel        string
	FetchRetries    int
	FetchBackoff    time.Duration
	FetchBackoffMax time.Duration
}

// ConfigTmp raw YAML form of Config. Decimals are kept as strings.
type ConfigTmp struct {
	Platform            string `yaml:"platform"`
	Pair                string `yaml:"trading_pair"`
	Interval            string `yaml:"interval"`
	KlinesLimit         int    `yaml:"klines_limit"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	Schedule            string `yaml:"schedule,omitempty"`
	ShortPeriod         int    `yaml:"short_period"`
	LongPeriod          int    `yaml:"long_period"`
	RSIPeriod           int    `yaml:"rsi_period"`
	RSIOversold         string `yaml:"rsi_oversold"`
	RSIOverbought       string `yaml:"rsi_overbought"`
	Quantity            string `yaml:"quantity"`
	ReportCSV           string `yaml:"report_csv"`
	ReportSQLite        string `yaml:"report_sqlite,omitempty"`
	WALDir              string `yaml:"wal_dir"`
	HTTPAddr            string `yaml:"http_addr,omitempty"`
	ReplayFile          string `yaml:"replay_file,omitempty"`
	Testnet             bool   `yaml:"testnet"`
	LogLevel            string `yaml:"log_level"`
	FetchRetries        int    `yaml:"fetch_retries"`
	FetchBackoffMs      int    `yaml:"fetch_backoff_ms"`
	FetchBackoffMaxMs   int    `yaml:"fetch_backoff_max_ms"`
}

func defaultTmp() ConfigTmp {
	return ConfigTmp{
		Platform:            defaultPlatform,
		Pair:                defaultPair,
		Interval:            defaultInterval,
		KlinesLimit:         defaultKlinesLimit,
		PollIntervalSeconds: defaultPollIntervalSeconds,
		ShortPeriod:         defaultShortPeriod,
		LongPeriod:          defaultLongPeriod,
		RSIPeriod:           defaultRSIPeriod,
		RSIOversold:         defaultRSIOversold,
		RSIOverbought:       defaultRSIOverbought,
		Quantity:            defaultQuantity,
		ReportCSV:           defaultReportCSV,
		WALDir:              defaultWALDir,
		LogLevel:            defaultLogLevel,
		FetchRetries:        defaultFetchRetries,
		FetchBackoffMs:      defaultFetchBackoffMs,
		FetchBackoffMaxMs:   defaultFetchBackoffMaxMs,
	}
}

// Get parses args (without the program name). With --config the YAML file wins
// and the remaining flags are ignored.
func Get(args []string) (Config, error) {
	fs := flag.NewFlagSet("momentum", flag.ContinueOnError)
	d := defaultTmp()
	c := d

	path := fs.String("config", "", "path to yaml config")
	fs.StringVar(&c.Platform, "platform", d.Platform, "binance, simulate or replay")
	fs.StringVar(&c.Pair, "pair", d.Pair, "trade pair, example: ETH_USDC")
	fs.StringVar(&c.Interval, "interval", d.Interval, "kline size, example: 5m")
	fs.IntVar(&c.KlinesLimit, "klines", d.KlinesLimit, "klines fetched per cycle")
	fs.IntVar(&c.PollIntervalSeconds, "poll", d.PollIntervalSeconds, "poll interval in seconds")
	fs.StringVar(&c.Schedule, "schedule", d.Schedule, "cron expression overriding --poll, example: */5 * * * *")
	fs.IntVar(&c.ShortPeriod, "short", d.ShortPeriod, "short EMA period")
	fs.IntVar(&c.LongPeriod, "long", d.LongPeriod, "long EMA period")
	fs.IntVar(&c.RSIPeriod, "rsi", d.RSIPeriod, "RSI period")
	fs.StringVar(&c.RSIOversold, "oversold", d.RSIOversold, "RSI oversold threshold")
	fs.StringVar(&c.RSIOverbought, "overbought", d.RSIOverbought, "RSI overbought threshold")
	fs.StringVar(&c.Quantity, "quantity", d.Quantity, "order quantity in base currency, 0 disables orders")
	fs.StringVar(&c.ReportCSV, "report", d.ReportCSV, "CSV report path, empty disables")
	fs.StringVar(&c.ReportSQLite, "sqlite", d.ReportSQLite, "SQLite report path, empty disables")
	fs.StringVar(&c.WALDir, "wal", d.WALDir, "decision journal directory, empty disables")
	fs.StringVar(&c.HTTPAddr, "http", d.HTTPAddr, "status server address, example: :8080")
	fs.StringVar(&c.ReplayFile, "replay", d.ReplayFile, "recorded klines JSON for the replay platform")
	fs.BoolVar(&c.Testnet, "testnet", d.Testnet, "use Binance testnet")
	fs.StringVar(&c.LogLevel, "loglevel", d.LogLevel, "debug, info, warn or error")
	fs.IntVar(&c.FetchRetries, "fetch-retries", d.FetchRetries, "retries of a failed kline fetch, 0 disables")
	fs.IntVar(&c.FetchBackoffMs, "fetch-backoff-ms", d.FetchBackoffMs, "wait before the first fetch retry in milliseconds")
	fs.IntVar(&c.FetchBackoffMaxMs, "fetch-backoff-max-ms", d.FetchBackoffMaxMs, "cap on the wait between fetch retries in milliseconds")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *path != "" {
		return getYaml(*path)
	}

	return c.toConfig()
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	tmp := defaultTmp()
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "parse yaml config %s", path)
	}

	return tmp.toConfig()
}

func (c ConfigTmp) toConfig() (Config, error) {
	pair, err := domain.ParsePair(c.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'trading_pair' param: %w", err)
	}
	oversold, err := decimal.NewFromString(c.RSIOversold)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'rsi_oversold' param (must be a decimal): %w", err)
	}
	overbought, err := decimal.NewFromString(c.RSIOverbought)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'rsi_overbought' param (must be a decimal): %w", err)
	}
	quantity, err := decimal.NewFromString(c.Quantity)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'quantity' param (must be a decimal): %w", err)
	}

	conf := Config{
		Platform:        strings.ToLower(strings.TrimSpace(c.Platform)),
		Pair:            pair,
		Interval:        c.Interval,
		KlinesLimit:     c.KlinesLimit,
		PollInterval:    time.Duration(c.PollIntervalSeconds) * time.Second,
		CronSchedule:    strings.TrimSpace(c.Schedule),
		ShortPeriod:     c.ShortPeriod,
		LongPeriod:      c.LongPeriod,
		RSIPeriod:       c.RSIPeriod,
		RSIOversold:     oversold,
		RSIOverbought:   overbought,
		Quantity:        quantity,
		ReportCSV:       c.ReportCSV,
		ReportSQLite:    c.ReportSQLite,
		WALDir:          c.WALDir,
		HTTPAddr:        c.HTTPAddr,
		ReplayFile:      c.ReplayFile,
		Testnet:         c.Testnet,
		LogLevel:        c.LogLevel,
		FetchRetries:    c.FetchRetries,
		FetchBackoff:    time.Duration(c.FetchBackoffMs) * time.Millisecond,
		FetchBackoffMax: time.Duration(c.FetchBackoffMaxMs) * time.Millisecond,
	}

	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Validate checks value ranges and cross-field constraints.
func (c Config) Validate() error {
	switch c.Platform {
	case PlatformBinance, PlatformSimulate:
	case PlatformReplay:
		if c.ReplayFile == "" {
			return errors.New("'replay_file' is required for the replay platform")
		}
	default:
		return errors.Errorf("unsupported platform: %s", c.Platform)
	}

	if c.Interval == "" {
		return errors.New("'interval' must not be empty")
	}
	if c.ShortPeriod < 1 || c.LongPeriod < 1 || c.RSIPeriod < 1 {
		return errors.Errorf("periods must be positive, got short=%d long=%d rsi=%d", c.ShortPeriod, c.LongPeriod, c.RSIPeriod)
	}
	if c.ShortPeriod >= c.LongPeriod {
		return errors.Errorf("short period %d must be less than long period %d", c.ShortPeriod, c.LongPeriod)
	}
	if c.KlinesLimit < max(c.LongPeriod, c.RSIPeriod+1) {
		return errors.Errorf("klines_limit %d cannot cover long period %d and rsi period %d", c.KlinesLimit, c.LongPeriod, c.RSIPeriod)
	}

	hundred := decimal.NewFromInt(100)
	if c.RSIOversold.IsNegative() || c.RSIOverbought.GreaterThan(hundred) || !c.RSIOversold.LessThan(c.RSIOverbought) {
		return errors.Errorf("rsi thresholds must satisfy 0 <= oversold < overbought <= 100, got %s and %s", c.RSIOversold, c.RSIOverbought)
	}
	if c.Quantity.IsNegative() {
		return errors.Errorf("quantity must not be negative, got %s", c.Quantity)
	}

	if c.FetchRetries < 0 {
		return errors.Errorf("fetch_retries must not be negative, got %d", c.FetchRetries)
	}
	if c.FetchBackoff <= 0 || c.FetchBackoffMax < c.FetchBackoff {
		return errors.Errorf("fetch backoff must satisfy 0 < fetch_backoff_ms <= fetch_backoff_max_ms, got %s and %s", c.FetchBackoff, c.FetchBackoffMax)
	}

	if c.CronSchedule == "" {
		if c.PollInterval <= 0 {
			return errors.Errorf("poll interval must be positive, got %s", c.PollInterval)
		}
	} else if _, err := cron.ParseStandard(c.CronSchedule); err != nil {
		return errors.Wrapf(err, "invalid 'schedule' %q", c.CronSchedule)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unsupported log level: %s", c.LogLevel)
	}

	return nil
}

// TickSchedule returns the cron schedule when set, otherwise a fixed poll interval.
func (c Config) TickSchedule() (cron.Schedule, error) {
	if c.CronSchedule == "" {
		return cron.Every(c.PollInterval), nil
	}
	schedule, err := cron.ParseStandard(c.CronSchedule)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid 'schedule' %q", c.CronSchedule)
	}
	return schedule, nil
}
