package browser

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Engine is the browser backend to launch.
type Engine string

const (
	EngineChrome  Engine = "chrome"
	EngineFirefox Engine = "firefox"
)

// Driver is the automation client used to control the engine.
type Driver string

const (
	DriverRod        Driver = "rod"        // Chrome DevTools Protocol via go-rod
	DriverChromedp   Driver = "chromedp"   // Chrome DevTools Protocol via chromedp
	DriverPlaywright Driver = "playwright" // Playwright driver, Chromium or Firefox
)

// Config configures how a session's browser is launched.
type Config struct {
	Engine            Engine        `yaml:"engine" validate:"required,oneof=chrome firefox"`
	Driver            Driver        `yaml:"driver" validate:"omitempty,oneof=rod chromedp playwright"`
	Headless          bool          `yaml:"headless"`
	ImplicitWait      time.Duration `yaml:"implicit_wait" validate:"gte=0"`      // Element lookup polling budget
	NavigationTimeout time.Duration `yaml:"navigation_timeout" validate:"gte=0"` // Page load budget, 0 means none
	BrowserBin        string        `yaml:"browser_bin"`                         // Explicit browser executable, optional
	InstallBrowsers   bool          `yaml:"install_browsers"`                    // Let playwright download its browsers
}

// DefaultConfig returns a headless Chrome. Driver is left empty so that
// it follows whatever engine a file or the environment selects.
func DefaultConfig() Config {
	return Config{
		Engine:            EngineChrome,
		Headless:          true,
		ImplicitWait:      10 * time.Second,
		NavigationTimeout: 30 * time.Second,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and then applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read browser config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse browser config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from DIMDIM_BROWSER_ENGINE, DIMDIM_BROWSER_DRIVER,
// DIMDIM_HEADLESS, DIMDIM_IMPLICIT_WAIT, DIMDIM_NAVIGATION_TIMEOUT and DIMDIM_BROWSER_BIN.
func (c *Config) ApplyEnv() error {
	if engine := os.Getenv("DIMDIM_BROWSER_ENGINE"); engine != "" {
		c.Engine = Engine(engine)
		// Driver defaults follow the engine unless set explicitly below.
		c.Driver = ""
	}
	if driver := os.Getenv("DIMDIM_BROWSER_DRIVER"); driver != "" {
		c.Driver = Driver(driver)
	}
	if headless := os.Getenv("DIMDIM_HEADLESS"); headless != "" {
		v, err := strconv.ParseBool(headless)
		if err != nil {
			return fmt.Errorf("invalid DIMDIM_HEADLESS %q: %w", headless, err)
		}
		c.Headless = v
	}
	if wait := os.Getenv("DIMDIM_IMPLICIT_WAIT"); wait != "" {
		d, err := time.ParseDuration(wait)
		if err != nil {
			return fmt.Errorf("invalid DIMDIM_IMPLICIT_WAIT %q: %w", wait, err)
		}
		c.ImplicitWait = d
	}
	if timeout := os.Getenv("DIMDIM_NAVIGATION_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid DIMDIM_NAVIGATION_TIMEOUT %q: %w", timeout, err)
		}
		c.NavigationTimeout = d
	}
	if bin := os.Getenv("DIMDIM_BROWSER_BIN"); bin != "" {
		c.BrowserBin = bin
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field values and the engine/driver combination.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid browser config: %w", err)
	}
	driver := c.ResolvedDriver()
	if c.Engine == EngineFirefox && driver != DriverPlaywright {
		return fmt.Errorf("invalid browser config: driver %q cannot launch %s", driver, c.Engine)
	}
	return nil
}

// ResolvedDriver returns the configured driver, or the engine's default
// when none is set: rod for chrome, playwright for firefox.
func (c Config) ResolvedDriver() Driver {
	if c.Driver != "" {
		return c.Driver
	}
	if c.Engine == EngineFirefox {
		return DriverPlaywright
	}
	return DriverRod
}
