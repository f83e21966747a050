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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		s     string
		topic string
		qos   byte
	}{
		{"chat", "chat", 0},
		{"chat:1", "chat", 1},
		{"a/b/c:2", "a/b/c", 2},
		{" spaced:0  ", "spaced", 0},
	}
	for _, tst := range tests {
		topic, qos, err := ParseTopic(tst.s)
		require.NoError(t, err, tst.s)
		require.Equal(t, tst.topic, topic, tst.s)
		require.Equal(t, tst.qos, qos, tst.s)
	}

	_, _, err := ParseTopic("chat:3")
	require.Error(t, err)
	_, _, err = ParseTopic("chat:x")
	require.Error(t, err)
}

func TestMQTTReceive(t *testing.T) {
	conf := DefaultMQTTConf()
	conf.WrapWithTopic = true
	c, err := NewMQTT(conf)
	require.NoError(t, err)

	c.receive("chat", []byte(`{"text":"hi"}`))
	c.receive("chat", []byte(`42`))
	c.receive("chat", []byte(`not json`))

	us, err := c.Updates(context.Background())
	require.NoError(t, err)
	require.Len(t, us, 3)
	require.Equal(t, map[string]interface{}{"text": "hi", "topic": "chat"}, us[0].Content)
	require.Equal(t, map[string]interface{}{"topic": "chat", "payload": 42.0}, us[1].Content)
	require.Equal(t, map[string]interface{}{"topic": "chat", "payload": "not json"}, us[2].Content)
}

func TestMQTTOutbound(t *testing.T) {
	c, err := NewMQTT(nil)
	require.NoError(t, err)

	topic, qos, err := c.Outbound("hi")
	require.NoError(t, err)
	require.Equal(t, "misc", topic)
	require.Equal(t, byte(0), qos)

	topic, qos, err = c.Outbound(map[string]interface{}{"topic": "replies", "qos": 1.0})
	require.NoError(t, err)
	require.Equal(t, "replies", topic)
	require.Equal(t, byte(1), qos)
}
