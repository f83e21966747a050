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

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/Comcast/chatter/sio"

	"github.com/spf13/pflag"
)

// CouplingOptions has the flags for all of the couplings.  Only the
// ones for the chosen coupling matter.
type CouplingOptions struct {
	IO string

	// std
	Echo        bool
	Timestamps  bool
	ShellExpand bool
	Tags        bool

	// mqtt
	MQTT     *sio.MQTTConf
	Topics []string

	// ws and http
	URL string

	// http
	SendURL  string
	LongPoll time.Duration
}

func (o *CouplingOptions) addFlags(fs *pflag.FlagSet) {
	o.MQTT = sio.DefaultMQTTConf()

	fs.StringVar(&o.IO, "io", "std", `coupling: "std", "mqtt", "ws", or "http"`)

	fs.BoolVar(&o.Echo, "echo", false, "std: echo input")
	fs.BoolVar(&o.Timestamps, "ts", false, "std: print timestamps")
	fs.BoolVar(&o.ShellExpand, "sh", false, "std: shell-expand input")
	fs.BoolVar(&o.Tags, "tags", true, "std: tag output lines")

	fs.StringVar(&o.MQTT.Broker, "broker", o.MQTT.Broker, "mqtt: broker hostname")
	fs.IntVar(&o.MQTT.Port, "port", o.MQTT.Port, "mqtt: broker port")
	fs.StringVar(&o.MQTT.ClientId, "client-id", "", "mqtt: client id")
	fs.StringVar(&o.MQTT.Username, "username", "", "mqtt: username")
	fs.StringVar(&o.MQTT.Password, "password", "", "mqtt: password")
	fs.StringVar(&o.MQTT.CertFilename, "cert", "", "mqtt: client certificate file")
	fs.StringVar(&o.MQTT.KeyFilename, "key", "", "mqtt: client private key file")
	fs.StringVar(&o.MQTT.CAFilename, "ca", "", "mqtt: CA certificate file")
	fs.BoolVar(&o.MQTT.Insecure, "insecure", false, "mqtt: skip server certificate verification")
	fs.BoolVar(&o.MQTT.InjectTopic, "inject-topic", o.MQTT.InjectTopic, "mqtt: add the topic to incoming maps")
	fs.BoolVar(&o.MQTT.WrapWithTopic, "wrap", false, "mqtt: wrap incoming payloads with their topic")
	fs.StringSliceVar(&o.Topics, "topics", nil, "mqtt: topics to subscribe to (TOPIC or TOPIC:QOS)")
	fs.StringVar(&o.MQTT.DefaultOutboundTopic, "out-topic", o.MQTT.DefaultOutboundTopic, "mqtt: default topic for emitted messages")

	fs.StringVar(&o.URL, "url", "", "ws, http: URL to connect to or poll")
	fs.StringVar(&o.SendURL, "send-url", "", "http: URL to POST emitted messages to (defaults to -url)")
	fs.DurationVar(&o.LongPoll, "long-poll", 10*time.Second, "http: long-poll timeout")
}

// couplings makes the chosen couplings.
func (o *CouplingOptions) couplings(in io.Reader, out io.Writer) (sio.Couplings, error) {
	switch o.IO {
	case "std", "":
		s := sio.NewStdio()
		s.In = in
		s.Out = out
		s.EchoInput = o.Echo
		s.Timestamps = o.Timestamps
		s.ShellExpand = o.ShellExpand
		s.Tags = o.Tags
		return s, nil
	case "mqtt", "mq":
		o.MQTT.Topics = o.Topics
		c, err := sio.NewMQTT(o.MQTT)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "ws":
		if o.URL == "" {
			return nil, fmt.Errorf("-io ws needs -url")
		}
		return sio.NewWebSocket(o.URL), nil
	case "http":
		if o.URL == "" {
			return nil, fmt.Errorf("-io http needs -url")
		}
		c, err := sio.NewHTTPPoller(o.URL)
		if err != nil {
			return nil, err
		}
		c.SendURL = o.SendURL
		if c.SendURL == "" {
			c.SendURL = o.URL
		}
		c.LongPoll = o.LongPoll
		return c, nil
	default:
		return nil, fmt.Errorf("unknown io: %q", o.IO)
	}
}
