/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/util"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConf configures an MQTT coupling.
//
// The names follow mosquitto_sub's command-line arguments.
type MQTTConf struct {
	Broker    string        `json:"broker"`
	Port      int           `json:"port"`
	ClientId  string        `json:"clientId,omitempty"`
	KeepAlive time.Duration `json:"keepAlive,omitempty"`
	Username  string        `json:"username,omitempty"`
	Password  string        `json:"password,omitempty"`
	Reconnect bool          `json:"reconnect,omitempty"`
	Clean     bool          `json:"clean,omitempty"`

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint `json:"quiesce,omitempty"`

	CertFilename string `json:"certFile,omitempty"`
	KeyFilename  string `json:"keyFile,omitempty"`
	CAFilename   string `json:"caFile,omitempty"`
	Insecure     bool   `json:"insecure,omitempty"`

	// Topics are subscription topics of the form TOPIC[:QOS].
	Topics []string `json:"topics"`

	// InjectTopic puts the topic in map messages at "topic".
	InjectTopic bool `json:"injectTopic,omitempty"`

	// WrapWithTopic wraps non-map messages in a map along with
	// the topic.
	WrapWithTopic bool `json:"wrapWithTopic,omitempty"`

	// DefaultOutboundTopic (TOPIC[:QOS]) is used to emit a
	// message that doesn't have its own "topic".
	DefaultOutboundTopic string `json:"defaultOutboundTopic,omitempty"`
}

// DefaultMQTTConf returns a fresh MQTTConf with reasonable defaults.
func DefaultMQTTConf() *MQTTConf {
	return &MQTTConf{
		Broker:               "tcp://localhost",
		Port:                 1883,
		KeepAlive:            10 * time.Second,
		Clean:                true,
		Quiesce:              100,
		InjectTopic:          true,
		DefaultOutboundTopic: "misc",
	}
}

// MQTT is a Couplings for an MQTT client.
type MQTT struct {
	Conf   *MQTTConf
	Client mqtt.Client
	Queue  *Queue
}

// NewMQTT makes the client (but doesn't connect).
func NewMQTT(conf *MQTTConf) (*MQTT, error) {
	if conf == nil {
		conf = DefaultMQTTConf()
	}

	mqtt.ERROR = log.New(os.Stderr, "mqtt.error ", 0)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("%s:%d", conf.Broker, conf.Port))
	opts.SetClientID(conf.ClientId)
	opts.SetKeepAlive(conf.KeepAlive)
	opts.Username = conf.Username
	opts.Password = conf.Password
	opts.AutoReconnect = conf.Reconnect
	opts.CleanSession = conf.Clean

	tlsConf, err := conf.tls()
	if err != nil {
		return nil, err
	}
	if tlsConf != nil {
		opts.SetTLSConfig(tlsConf)
	}

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		util.Warnf("MQTT connection lost: %s", err)
	}

	c := &MQTT{
		Conf:  conf,
		Queue: NewQueue(),
	}

	opts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		c.receive(msg.Topic(), msg.Payload())
	}

	c.Client = mqtt.NewClient(opts)

	return c, nil
}

func (conf *MQTTConf) tls() (*tls.Config, error) {
	if conf.CAFilename == "" && conf.KeyFilename == "" && !conf.Insecure {
		return nil, nil
	}

	tlsConf := &tls.Config{
		InsecureSkipVerify: conf.Insecure,
	}

	if conf.CAFilename != "" {
		rootCAs, _ := x509.SystemCertPool()
		if rootCAs == nil {
			rootCAs = x509.NewCertPool()
		}
		certs, err := os.ReadFile(conf.CAFilename)
		if err != nil {
			return nil, fmt.Errorf("couldn't read '%s': %w", conf.CAFilename, err)
		}
		if ok := rootCAs.AppendCertsFromPEM(certs); !ok {
			util.Warnf("no certs appended from %s", conf.CAFilename)
		}
		tlsConf.RootCAs = rootCAs
	}

	if conf.KeyFilename != "" {
		cert, err := tls.LoadX509KeyPair(conf.CertFilename, conf.KeyFilename)
		if err != nil {
			return nil, err
		}
		tlsConf.Certificates = []tls.Certificate{cert}
	}

	return tlsConf, nil
}

// receive handles messages sent to us from the MQTT broker due to our
// subscriptions.
func (c *MQTT) receive(topic string, payload []byte) {
	util.Logf("incoming: %s %s", topic, payload)

	var x interface{}
	if err := json.Unmarshal(payload, &x); err != nil {
		util.Warnf("couldn't JSON-parse payload: %s", payload)
		x = string(payload)
	}
	if m, is := x.(map[string]interface{}); is {
		if c.Conf.InjectTopic {
			m["topic"] = topic
		}
	} else if c.Conf.WrapWithTopic {
		x = map[string]interface{}{
			"topic":   topic,
			"payload": x,
		}
	}

	c.Queue.Push(x)
}

// Start connects to the broker and subscribes to the topics.
func (c *MQTT) Start(ctx context.Context) error {
	util.Logf("attempting to connect to broker")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	util.Logf("connected to broker")

	for _, topic := range c.Conf.Topics {
		topic, qos, err := ParseTopic(topic)
		if err != nil {
			return err
		}
		util.Logf("subscribing to %s (%d)", topic, qos)
		if t := c.Client.Subscribe(topic, qos, nil); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}

	return nil
}

// Stop terminates the MQTT session.
func (c *MQTT) Stop(ctx context.Context) error {
	util.Logf("disconnecting")
	c.Client.Disconnect(c.Conf.Quiesce)
	return nil
}

func (c *MQTT) Inbound() *Queue {
	return c.Queue
}

func (c *MQTT) SetInterval(d time.Duration) {
	c.Queue.SetInterval(d)
}

func (c *MQTT) Updates(ctx context.Context) ([]*core.Update, error) {
	return c.Queue.Updates(ctx)
}

// Outbound determines the topic and QoS for a message.
//
// A map message can specify its "topic" and "qos".  Otherwise the
// DefaultOutboundTopic applies.
func (c *MQTT) Outbound(msg interface{}) (string, byte, error) {
	topic, qos, err := ParseTopic(c.Conf.DefaultOutboundTopic)
	if err != nil {
		return "", 0, err
	}
	if m, is := msg.(map[string]interface{}); is {
		if s, is := m["topic"].(string); is {
			topic = s
		}
		if n, have := m["qos"]; have {
			if f, is := n.(float64); is {
				qos = byte(f)
			} else {
				util.Warnf("ignoring qos %#v %T", n, n)
			}
		}
	}
	if topic == "" {
		return "", 0, errors.New("no topic")
	}
	return topic, qos, nil
}

// Emit publishes the message as JSON.
func (c *MQTT) Emit(ctx context.Context, msg interface{}) error {
	topic, qos, err := c.Outbound(msg)
	if err != nil {
		return err
	}
	js, err := json.Marshal(&msg)
	if err != nil {
		return err
	}
	token := c.Client.Publish(topic, qos, false, js)
	token.Wait()
	return token.Error()
}

// ParseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func ParseTopic(s string) (string, byte, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0, nil
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil || n < 0 || 2 < n {
		return "", 0, fmt.Errorf("bad QoS in topic %q", s)
	}
	return s[:i], byte(n), nil
}
