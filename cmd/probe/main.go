// Converter page probe.
//
// Launches a browser, loads a dimdim converter page and checks that it is
// the converter with its default 1 USD -> BRL form. Useful before a full
// e2e run, or as a deploy smoke check.
//
// Usage:
//
//	go run ./cmd/probe -url http://localhost:8000
//	go run ./cmd/probe -engine firefox -headless=false
//	go run ./cmd/probe -config browser.yaml -convert 2
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/thesyncim/dimdim/internal/logging"
	"github.com/thesyncim/dimdim/pkg/browser"
	"github.com/thesyncim/dimdim/pkg/pages"
)

type check struct {
	name string
	run  func(home *pages.HomePage) error
}

func main() {
	url := flag.String("url", "http://localhost:8000", "converter base URL")
	configPath := flag.String("config", "", "browser YAML config file")
	engine := flag.String("engine", "", "browser engine: chrome or firefox")
	driver := flag.String("driver", "", "automation driver: rod, chromedp or playwright")
	headless := flag.Bool("headless", true, "run the browser without a window")
	timeout := flag.Duration("timeout", 0, "implicit wait for element lookups")
	convert := flag.String("convert", "", "also submit this amount and expect the 1:1 result")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	if *logLevel != "" {
		logCfg.Level = *logLevel
	}
	logger := logging.Init(logCfg)

	cfg, err := browser.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid browser config")
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	browserFlags{
		engine:   *engine,
		driver:   *driver,
		headless: *headless,
		timeout:  *timeout,
		set:      set,
	}.apply(&cfg)

	os.Exit(run(logger, cfg, *url, checks(*convert)))
}

// browserFlags are command-line overrides on top of the config file and
// environment. Only flags given on the command line take effect.
type browserFlags struct {
	engine   string
	driver   string
	headless bool
	timeout  time.Duration
	set      map[string]bool
}

func (f browserFlags) apply(cfg *browser.Config) {
	if f.set["engine"] && f.engine != "" {
		cfg.Engine = browser.Engine(f.engine)
		cfg.Driver = ""
	}
	if f.set["driver"] && f.driver != "" {
		cfg.Driver = browser.Driver(f.driver)
	}
	if f.set["headless"] {
		cfg.Headless = f.headless
	}
	if f.set["timeout"] {
		cfg.ImplicitWait = f.timeout
	}
}

func checks(convert string) []check {
	cs := []check{
		{"title", func(home *pages.HomePage) error {
			title, err := home.Title()
			if err != nil {
				return err
			}
			if !strings.Contains(title, pages.TitleFragment) {
				return fmt.Errorf("title %q does not contain %q", title, pages.TitleFragment)
			}
			return nil
		}},
		{"body", func(home *pages.HomePage) error {
			text, err := home.BodyText()
			if err != nil {
				return err
			}
			if text == "" {
				return fmt.Errorf("page body is empty")
			}
			return nil
		}},
		{"from_currency", expect((*pages.HomePage).FromCurrencyValue, "USD")},
		{"to_currency", expect((*pages.HomePage).ToCurrencyValue, "BRL")},
		{"from_amount", expect((*pages.HomePage).FromAmountValue, "1")},
		{"to_amount", expect((*pages.HomePage).ToAmountValue, "1")},
	}
	if convert != "" {
		cs = append(cs, check{"convert " + convert, func(home *pages.HomePage) error {
			got, err := home.Convert(convert, "")
			if err != nil {
				return err
			}
			if got != convert {
				return fmt.Errorf("converted %s USD to %q BRL, want %q", convert, got, convert)
			}
			return nil
		}})
	}
	return cs
}

func expect(get func(*pages.HomePage) (string, error), want string) func(*pages.HomePage) error {
	return func(home *pages.HomePage) error {
		got, err := get(home)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("got %q, want %q", got, want)
		}
		return nil
	}
}

// run returns the process exit code. The session is released on every path.
func run(logger *log.Logger, cfg browser.Config, url string, cs []check) int {
	start := time.Now()
	s, err := browser.Acquire(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("could not start browser")
		return 1
	}
	defer func() {
		if err := browser.Release(s); err != nil {
			logger.Warn().Err(err).Msg("browser release failed")
		}
	}()

	home := pages.NewHomePage(s, url)
	if err := home.Get(); err != nil {
		logger.Error().Err(err).Msg("page did not load")
		return 1
	}

	for _, c := range cs {
		if err := c.run(home); err != nil {
			logger.Error().Err(err).Str("check", c.name).Msg("FAIL")
			return 1
		}
		logger.Info().Str("check", c.name).Msg("ok")
	}

	logger.Info().Str("url", home.URL()).Str("engine", string(cfg.Engine)).
		Str("driver", string(cfg.ResolvedDriver())).Dur("elapsed", time.Since(start)).
		Msg("converter page looks healthy")
	return 0
}
