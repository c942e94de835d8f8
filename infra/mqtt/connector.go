// Package mqtt ingests reward activities published by edge devices and
// mobile clients over an MQTT broker.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/PREETHAM1590/waste-app/core/model"
	"github.com/PREETHAM1590/waste-app/core/orchestrator"
	"github.com/PREETHAM1590/waste-app/infra/logger"
)

// Config defines the connection parameters for the activity connector.
type Config struct {
	Broker        string `json:"broker"`
	ClientID      string `json:"client_id"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	ActivityTopic string `json:"activity_topic"`
	ResultTopic   string `json:"result_topic"`
	QoS           byte   `json:"qos"`
	UseTLS        bool   `json:"use_tls"`
	ClientCert    string `json:"client_cert"`
	ClientKey     string `json:"client_key"`
	CABundle      string `json:"ca_bundle"`
}

// SetDefaults applies default values to the configuration.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "reward-connector"
	}
	if c.ActivityTopic == "" {
		c.ActivityTopic = "rewards/activity"
	}
}

// Submitter is the subset of the orchestrator the connector drives.
type Submitter interface {
	SubmitScan(ctx context.Context, scan model.ScanActivity) orchestrator.SubmitResult
	SubmitStreak(ctx context.Context, st model.StreakActivity) orchestrator.SubmitResult
	SubmitAchievement(ctx context.Context, a model.AchievementActivity) orchestrator.SubmitResult
	SubmitCommunity(ctx context.Context, c model.CommunityActivity) orchestrator.SubmitResult
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Connector subscribes to the activity topic and forwards decoded activities
// to the orchestrator. Submission results are published on the result topic
// when one is configured.
type Connector struct {
	cli         pahoClient
	sub         Submitter
	resultTopic string
	qos         byte
	log         logger.Logger
}

// NewConnector connects to the broker and subscribes to the activity topic.
func NewConnector(cfg Config, sub Submitter) (*Connector, error) {
	cfg.SetDefaults()
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt connector: broker required")
	}
	if sub == nil {
		return nil, fmt.Errorf("mqtt connector: nil submitter")
	}

	log := logger.New("mqtt-connector")
	c := &Connector{sub: sub, resultTopic: cfg.ResultTopic, qos: cfg.QoS, log: log}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := loadTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnect = func(cli paho.Client) {
		log.Infof("MQTT connected")
		if token := cli.Subscribe(cfg.ActivityTopic, cfg.QoS, c.onActivity); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	c.cli = cli
	return c, nil
}

func loadTLSConfig(cfg Config) (*tls.Config, error) {
	if cfg.ClientCert == "" || cfg.ClientKey == "" || cfg.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(cfg.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// onActivity decodes one activity envelope and submits it.
func (c *Connector) onActivity(_ paho.Client, msg paho.Message) {
	var act model.BatchActivity
	if err := json.Unmarshal(msg.Payload(), &act); err != nil {
		c.log.Errorf("failed to decode activity: %v", err)
		return
	}
	res := c.dispatch(context.Background(), act)
	c.log.Debugw("activity processed", map[string]any{
		"user_id": res.UserID,
		"outcome": string(res.Outcome),
		"tokens":  res.TokensAwarded,
	})
	c.publishResult(res)
}

func (c *Connector) dispatch(ctx context.Context, act model.BatchActivity) orchestrator.SubmitResult {
	switch {
	case act.Type == model.ActivityScan && act.Scan != nil:
		return c.sub.SubmitScan(ctx, *act.Scan)
	case act.Type == model.ActivityStreak && act.Streak != nil:
		return c.sub.SubmitStreak(ctx, *act.Streak)
	case act.Type == model.ActivityAchievement && act.Achievement != nil:
		return c.sub.SubmitAchievement(ctx, *act.Achievement)
	case act.Type == model.ActivityCommunity && act.Community != nil:
		return c.sub.SubmitCommunity(ctx, *act.Community)
	default:
		c.log.Warnf("activity envelope missing %s payload", act.Type)
		return orchestrator.SubmitResult{UserID: act.UserID, Outcome: orchestrator.OutcomeRejected, Error: "missing payload"}
	}
}

func (c *Connector) publishResult(res orchestrator.SubmitResult) {
	if c.resultTopic == "" {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		c.log.Errorf("failed to encode result: %v", err)
		return
	}
	if token := c.cli.Publish(c.resultTopic, c.qos, false, payload); token.Wait() && token.Error() != nil {
		c.log.Errorf("publish result: %v", token.Error())
	}
}

// Disconnect gracefully closes the MQTT connection.
func (c *Connector) Disconnect() {
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
}
