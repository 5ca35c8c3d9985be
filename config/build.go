package config

import (
	"fmt"
	"time"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/logger"
	"github.com/croftbyte/go-fanlog/record"
	"github.com/croftbyte/go-fanlog/transport"
)

// Build materialises the logger described by the configuration.
func (c *Config) Build() (*logger.Logger, error) {
	log := logger.New(c.Context)
	for i := range c.Handlers {
		if err := c.Handlers[i].attach(log); err != nil {
			return nil, fmt.Errorf("config: handler %d (%s): %w", i, c.Handlers[i].Type, err)
		}
	}
	return log, nil
}

// attach builds and registers the described handler.
func (hc *HandlerConfig) attach(log *logger.Logger) error {
	level := record.Debug
	if hc.Level != "" {
		parsed, err := record.ParseLevel(hc.Level)
		if err != nil {
			return err
		}
		level = parsed
	}

	opts, err := hc.options()
	if err != nil {
		return err
	}

	switch hc.Type {
	case "file":
		if hc.Path == "" {
			return fmt.Errorf("file handler requires a path")
		}
		_, err = log.AddFile(hc.Path, level, opts...)
	case "console":
		log.AddConsole(level, opts...)
	case "error-stream":
		log.AddErrorStream(level, opts...)
	case "null":
		log.AddNull(level, opts...)
	case "syslog":
		_, err = log.AddSyslog(level, opts...)
	case "webhook":
		_, err = log.AddWebhook(hc.URL, hc.transport(), level, opts...)
	case "slack":
		_, err = log.AddSlack(hc.URL, hc.transport(), level, opts...)
	case "teams":
		_, err = log.AddTeams(hc.URL, hc.transport(), level, opts...)
	case "loki":
		_, err = log.AddLoki(hc.URL, hc.Labels, hc.transport(), level, opts...)
	default:
		err = fmt.Errorf("unknown handler type %q", hc.Type)
	}
	return err
}

// options maps the name and formatter settings onto façade options.
func (hc *HandlerConfig) options() ([]logger.HandlerOption, error) {
	var opts []logger.HandlerOption
	if hc.Name != "" {
		opts = append(opts, logger.WithName(hc.Name))
	}
	switch hc.Formatter {
	case "":
	case "line":
		opts = append(opts, logger.WithFormatter(format.NewLine()))
	case "json":
		opts = append(opts, logger.WithFormatter(format.NewJSON()))
	case "human":
		opts = append(opts, logger.WithFormatter(format.NewHuman()))
	default:
		return nil, fmt.Errorf("unknown formatter %q", hc.Formatter)
	}
	return opts, nil
}

// transport converts the section into a transport configuration.
func (hc *HandlerConfig) transport() transport.Config {
	return transport.Config{
		Method:         hc.Transport.Method,
		TimeoutSeconds: hc.Transport.TimeoutSeconds,
		Retries:        hc.Transport.Retries,
		RetryDelay:     time.Duration(hc.Transport.RetryDelaySeconds) * time.Second,
	}
}
