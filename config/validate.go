package config

import (
	"errors"
	"fmt"
)

// Validate applies cross-field checks after defaults are in place.
func Validate(cfg AppConfig) error {
	if cfg.Strategy.SlowPeriod <= cfg.Strategy.FastPeriod {
		return fmt.Errorf("strategy: slowPeriod %d must be greater than fastPeriod %d",
			cfg.Strategy.SlowPeriod, cfg.Strategy.FastPeriod)
	}
	if cfg.Policy.OrderPct <= 0 || cfg.Policy.OrderPct > 1 {
		return fmt.Errorf("policy: orderPct %v out of (0,1]", cfg.Policy.OrderPct)
	}
	if cfg.Broker.SpreadBps < 0 {
		return fmt.Errorf("broker: spreadBps %v must be >= 0", cfg.Broker.SpreadBps)
	}

	switch cfg.Feed.Kind {
	case "random":
		if len(cfg.Feed.Symbols) == 0 {
			return errors.New("feed: at least one symbol required")
		}
		start, err := ParseTime(cfg.Engine.Start)
		if err != nil {
			return err
		}
		end, err := ParseTime(cfg.Engine.End)
		if err != nil {
			return err
		}
		if start.IsZero() || end.IsZero() {
			return errors.New("engine: start/end required for random feed")
		}
		if !end.After(start) {
			return fmt.Errorf("engine: end %s not after start %s", cfg.Engine.End, cfg.Engine.Start)
		}
	case "live":
		if cfg.Feed.Endpoint == "" {
			return errors.New("feed: endpoint required for live feed")
		}
		if len(cfg.Feed.Symbols) == 0 {
			return errors.New("feed: at least one symbol required")
		}
	default:
		return fmt.Errorf("feed: unknown kind %q", cfg.Feed.Kind)
	}

	if (cfg.Engine.ValidationStart == "") != (cfg.Engine.ValidationEnd == "") {
		return errors.New("engine: validationStart and validationEnd must be set together")
	}
	return nil
}
