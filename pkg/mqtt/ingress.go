package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/device"
	"github.com/urmzd/shadepanel/pkg/device/schema"
)

// Applier runs commands, typically a *shelly.Registry.
type Applier interface {
	Apply(ctx context.Context, cmd device.Command) (int, error)
}

// Config describes the broker connection.
type Config struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string
	Topic    string // command prefix, e.g. home/blinds
}

// Ingress subscribes to command topics and forwards them to an Applier.
type Ingress struct {
	cfg       Config
	applier   Applier
	validator *schema.Validator
	client    paho.Client
}

// NewIngress creates an ingress. A nil validator gets a fresh one.
func NewIngress(cfg Config, applier Applier, validator *schema.Validator) *Ingress {
	if cfg.ClientID == "" {
		cfg.ClientID = "shadepanel"
	}
	if validator == nil {
		validator = schema.NewValidator()
	}
	return &Ingress{cfg: cfg, applier: applier, validator: validator}
}

// Pattern is the topic filter covering actor and group commands.
func (in *Ingress) Pattern() string {
	return in.cfg.Topic + "/+" + setSuffix
}

// Handle parses one command message and dispatches it. Invalid messages are
// logged and dropped.
func (in *Ingress) Handle(ctx context.Context, topic string, payload []byte) error {
	log.Debug().Str("topic", topic).Str("payload", string(payload)).Msg("Received MQTT command message")

	cmd, err := ParseCommand(in.validator, in.cfg.Topic, topic, payload)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Str("payload", string(payload)).Msg("Failed to parse command")
		return err
	}

	n, err := in.applier.Apply(ctx, cmd)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Str("command", cmd.String()).Msg("Command rejected")
		return err
	}
	log.Info().Str("command", cmd.String()).Int("count", n).Msg("Processing MQTT command")
	return nil
}

// OnMessage adapts Handle to a paho message handler.
func (in *Ingress) OnMessage(ctx context.Context) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		_ = in.Handle(ctx, msg.Topic(), msg.Payload())
	}
}

// Start connects to the broker and subscribes to the command pattern. The
// subscription is renewed on every reconnect. The connection is closed when
// ctx is done.
func (in *Ingress) Start(ctx context.Context) error {
	handler := in.OnMessage(ctx)

	opts := paho.NewClientOptions().
		AddBroker(in.cfg.Broker).
		SetClientID(in.cfg.ClientID).
		SetUsername(in.cfg.Username).
		SetPassword(in.cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(func(c paho.Client) {
			log.Info().Str("broker", in.cfg.Broker).Str("pattern", in.Pattern()).Msg("Subscribing to MQTT commands")
			if token := c.Subscribe(in.Pattern(), 1, handler); token.Wait() && token.Error() != nil {
				log.Error().Err(token.Error()).Str("pattern", in.Pattern()).Msg("MQTT subscribe failed")
			}
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Str("broker", in.cfg.Broker).Msg("MQTT connection lost")
		})

	in.client = paho.NewClient(opts)
	token := in.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Warn().Str("broker", in.cfg.Broker).Msg("MQTT broker not reachable yet, retrying in background")
	} else if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", in.cfg.Broker, err)
	}

	go func() {
		<-ctx.Done()
		in.client.Disconnect(250)
		log.Info().Str("broker", in.cfg.Broker).Msg("MQTT disconnected")
	}()
	return nil
}
