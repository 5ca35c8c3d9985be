package logger

import (
	"io"
	"time"

	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	amqp091 "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	driver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/handler"
	amqpsink "github.com/croftbyte/go-fanlog/handler/amqp"
	"github.com/croftbyte/go-fanlog/handler/chrome"
	"github.com/croftbyte/go-fanlog/handler/database"
	"github.com/croftbyte/go-fanlog/handler/email"
	kafkasink "github.com/croftbyte/go-fanlog/handler/kafka"
	mongosink "github.com/croftbyte/go-fanlog/handler/mongo"
	redissink "github.com/croftbyte/go-fanlog/handler/redis"
	"github.com/croftbyte/go-fanlog/record"
	"github.com/croftbyte/go-fanlog/transport"
)

// HandlerOption customises a handler built by the façade before it is
// registered.
type HandlerOption func(h handler.Handler)

// WithName names the handler so it can be looked up and removed by name.
func WithName(name string) HandlerOption {
	return func(h handler.Handler) {
		h.SetName(name)
	}
}

// WithFormatter overrides the handler's formatter.
func WithFormatter(f format.Formatter) HandlerOption {
	return func(h handler.Handler) {
		h.SetFormatter(f)
	}
}

// register applies the options and adds the handler.
func (l *Logger) register(h handler.Handler, opts []HandlerOption) {
	for _, opt := range opts {
		opt(h)
	}
	l.AddHandler(h)
}

// AddFile builds and registers a file handler.
func (l *Logger) AddFile(path string, minLevel record.Level, opts ...HandlerOption) (*handler.File, error) {
	h, err := handler.NewFile(path, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddConsole builds and registers a standard-output handler.
func (l *Logger) AddConsole(minLevel record.Level, opts ...HandlerOption) *handler.Writer {
	h := handler.NewConsole(minLevel)
	l.register(h, opts)
	return h
}

// AddErrorStream builds and registers a standard-error handler.
func (l *Logger) AddErrorStream(minLevel record.Level, opts ...HandlerOption) *handler.Writer {
	h := handler.NewErrorStream(minLevel)
	l.register(h, opts)
	return h
}

// AddWriter builds and registers a handler over a caller-supplied writer.
func (l *Logger) AddWriter(w io.Writer, minLevel record.Level, opts ...HandlerOption) *handler.Writer {
	h := handler.NewWriter(w, minLevel)
	l.register(h, opts)
	return h
}

// AddNull builds and registers a discarding handler.
func (l *Logger) AddNull(minLevel record.Level, opts ...HandlerOption) *handler.Null {
	h := handler.NewNull(minLevel)
	l.register(h, opts)
	return h
}

// AddSyslog builds and registers a system-log handler whose ident is the
// logger's context.
func (l *Logger) AddSyslog(minLevel record.Level, opts ...HandlerOption) (*handler.Syslog, error) {
	h, err := handler.NewSyslog(l.context, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddWebhook builds and registers an HTTP webhook handler.
func (l *Logger) AddWebhook(url string, cfg transport.Config, minLevel record.Level, opts ...HandlerOption) (*handler.Webhook, error) {
	h, err := handler.NewWebhook(url, cfg, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddSlack builds and registers a Slack webhook handler.
func (l *Logger) AddSlack(webhookURL string, cfg transport.Config, minLevel record.Level, opts ...HandlerOption) (*handler.Slack, error) {
	h, err := handler.NewSlack(webhookURL, cfg, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddTeams builds and registers a Microsoft Teams webhook handler.
func (l *Logger) AddTeams(webhookURL string, cfg transport.Config, minLevel record.Level, opts ...HandlerOption) (*handler.Teams, error) {
	h, err := handler.NewTeams(webhookURL, cfg, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddLoki builds and registers a Grafana Loki handler.
func (l *Logger) AddLoki(baseURL string, staticLabels map[string]string, cfg transport.Config, minLevel record.Level, opts ...HandlerOption) (*handler.Loki, error) {
	h, err := handler.NewLoki(baseURL, staticLabels, cfg, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddEmail builds and registers an SMTP handler.
func (l *Logger) AddEmail(cfg email.Config, minLevel record.Level, opts ...HandlerOption) (*email.Handler, error) {
	h, err := email.New(cfg, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddDatabase builds and registers a relational sink.
func (l *Logger) AddDatabase(db database.Execer, vendor database.Vendor, table string, minLevel record.Level, opts ...HandlerOption) (*database.Handler, error) {
	h, err := database.New(db, vendor, table, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddRedis builds and registers a Redis key/value sink.
func (l *Logger) AddRedis(client *goredis.Client, ttl time.Duration, minLevel record.Level, opts ...HandlerOption) (*redissink.KV, error) {
	h, err := redissink.NewKV(client, ttl, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddRedisPubSub builds and registers a Redis pub/sub sink.
func (l *Logger) AddRedisPubSub(client *goredis.Client, channel string, minLevel record.Level, opts ...HandlerOption) (*redissink.PubSub, error) {
	h, err := redissink.NewPubSub(client, channel, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddAMQP builds and registers an AMQP fan-out sink.
func (l *Logger) AddAMQP(conn *amqp091.Connection, exchange string, minLevel record.Level, opts ...HandlerOption) (*amqpsink.Handler, error) {
	h, err := amqpsink.New(conn, exchange, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddKafka builds and registers a Kafka producer sink.
func (l *Logger) AddKafka(producer *ckafka.Producer, topic string, minLevel record.Level, opts ...HandlerOption) (*kafkasink.Handler, error) {
	h, err := kafkasink.New(producer, topic, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddMongo builds and registers a MongoDB collection sink.
func (l *Logger) AddMongo(coll *driver.Collection, minLevel record.Level, opts ...HandlerOption) (*mongosink.Handler, error) {
	h, err := mongosink.New(coll, minLevel)
	if err != nil {
		return nil, err
	}
	l.register(h, opts)
	return h, nil
}

// AddChrome builds and registers a browser-console sink.
func (l *Logger) AddChrome(minLevel record.Level, opts ...HandlerOption) *chrome.Handler {
	h := chrome.New(minLevel)
	l.register(h, opts)
	return h
}

// AddZerolog builds and registers a zerolog bridge.
func (l *Logger) AddZerolog(zl zerolog.Logger, minLevel record.Level, opts ...HandlerOption) *handler.Zerolog {
	h := handler.NewZerolog(zl, minLevel)
	l.register(h, opts)
	return h
}
