package cfg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kformanek/meridian/pkg/exchange"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

type LoggingConfig struct {
	Mode string `yaml:"mode"` // dev or prod
}

type DataConfig struct {
	// Source selects where bars come from, either "duckdb" or "binary".
	Source string `yaml:"source"`
	// Path is the DuckDB database file for the duckdb source or the
	// directory holding <ticker>.bin files for the binary source.
	Path string `yaml:"path"`
}

type SessionConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

func (s SessionConfig) Range() (time.Time, time.Time, error) {
	from, err := time.Parse(time.DateOnly, s.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid session start %q: %w", s.Start, err)
	}
	to, err := time.Parse(time.DateOnly, s.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid session end %q: %w", s.End, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("session end %q before start %q", s.End, s.Start)
	}
	return from, to, nil
}

type AccountConfig struct {
	Currency     string `yaml:"currency"`
	StartBalance string `yaml:"start_balance"`
}

func (a AccountConfig) Balance() (fixed.Point, error) {
	balance, err := fixed.Parse(a.StartBalance)
	if err != nil {
		return fixed.Point{}, fmt.Errorf("invalid start balance %q: %w", a.StartBalance, err)
	}
	return balance, nil
}

type RecorderConfig struct {
	Path string `yaml:"path"`
}

type RouterConfig struct {
	EventCapacity int `yaml:"event_capacity"`
}

type LiveConfig struct {
	Url string `yaml:"url"`
}

type SymbolConfig struct {
	Ticker        string `yaml:"ticker"`
	InstrumentId  int64  `yaml:"instrument_id"`
	Class         string `yaml:"class"`
	QuoteCurrency string `yaml:"quote_currency"`
	Digits        int    `yaml:"digits"`
	ContractSize  string `yaml:"contract_size"`
	MarginRate    string `yaml:"margin_rate"`
}

func (s SymbolConfig) Info() (exchange.SymbolInfo, error) {
	class, err := exchange.ParseSymbolClass(s.Class)
	if err != nil {
		return exchange.SymbolInfo{}, fmt.Errorf("symbol %q: %w", s.Ticker, err)
	}
	contractSize, err := fixed.Parse(s.ContractSize)
	if err != nil {
		return exchange.SymbolInfo{}, fmt.Errorf("symbol %q: invalid contract size %q: %w", s.Ticker, s.ContractSize, err)
	}
	marginRate, err := fixed.Parse(s.MarginRate)
	if err != nil {
		return exchange.SymbolInfo{}, fmt.Errorf("symbol %q: invalid margin rate %q: %w", s.Ticker, s.MarginRate, err)
	}
	return exchange.SymbolInfo{
		Ticker:        s.Ticker,
		InstrumentId:  s.InstrumentId,
		Class:         class,
		QuoteCurrency: s.QuoteCurrency,
		Digits:        s.Digits,
		ContractSize:  contractSize,
		MarginRate:    marginRate,
	}, nil
}

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Data     DataConfig     `yaml:"data"`
	Session  SessionConfig  `yaml:"session"`
	Account  AccountConfig  `yaml:"account"`
	Recorder RecorderConfig `yaml:"recorder"`
	Router   RouterConfig   `yaml:"router"`
	Live     LiveConfig     `yaml:"live"`
	Symbols  []SymbolConfig `yaml:"symbols"`
}

// SymbolMap builds the exchange registry from the configured symbols.
func (c *Config) SymbolMap() (*exchange.Map, error) {
	infos := make([]exchange.SymbolInfo, 0, len(c.Symbols))
	for _, s := range c.Symbols {
		info, err := s.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return exchange.NewMap(infos...)
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("unable to read config %q: %w", path, err)
	}

	conf := &Config{
		Logging: LoggingConfig{Mode: "dev"},
		Router:  RouterConfig{EventCapacity: 512},
	}
	if err := yaml.Unmarshal(raw, conf); err != nil {
		return nil, fmt.Errorf("unable to parse config %q: %w", path, err)
	}

	if len(conf.Symbols) == 0 {
		return nil, fmt.Errorf("config %q defines no symbols", path)
	}
	if conf.Router.EventCapacity <= 0 {
		return nil, fmt.Errorf("router event capacity must be positive")
	}

	return conf, nil
}
