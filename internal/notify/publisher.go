package notify

import (
	"encoding/json"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// CompletionEvent is published once per successfully transcribed file.
type CompletionEvent struct {
	SourceFile string `json:"source_file"`
	OutputPath string `json:"output_path"`
	Segments   int    `json:"segments"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	Model      string `json:"model"`
	CreatedAt  string `json:"created_at"`
}

// Publisher pushes completion events to an MQTT broker so downstream
// consumers (indexers, chat bots) learn about new transcripts without
// polling the output directory.
type Publisher struct {
	conn      mqtt.Client
	topic     string
	connected atomic.Bool
	log       zerolog.Logger
}

type Options struct {
	BrokerURL string
	ClientID  string
	Topic     string
	Username  string
	Password  string
	Log       zerolog.Logger
}

// Connect dials the broker. The connection auto-reconnects; publishing while
// disconnected is dropped with a warning rather than blocking the pipeline.
func Connect(opts Options) (*Publisher, error) {
	p := &Publisher{
		topic: opts.Topic,
		log:   opts.Log,
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	p.conn = mqtt.NewClient(clientOpts)
	token := p.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Publisher) onConnect(mqtt.Client) {
	p.connected.Store(true)
	p.log.Info().Str("topic", p.topic).Msg("mqtt connected")
}

func (p *Publisher) onConnectionLost(_ mqtt.Client, err error) {
	p.connected.Store(false)
	p.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

// Publish sends one completion event. Failures are logged, never returned:
// a lost notification must not fail the file it describes.
func (p *Publisher) Publish(ev CompletionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("marshal completion event")
		return
	}

	token := p.conn.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.log.Warn().Str("source", ev.SourceFile).Msg("mqtt publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		p.log.Warn().Err(err).Str("source", ev.SourceFile).Msg("mqtt publish failed")
		return
	}

	p.log.Debug().Str("source", ev.SourceFile).Msg("completion event published")
}

func (p *Publisher) IsConnected() bool {
	return p.connected.Load()
}

func (p *Publisher) Close() {
	p.log.Info().Msg("disconnecting mqtt publisher")
	p.conn.Disconnect(1000)
}
