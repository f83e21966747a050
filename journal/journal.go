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

// Package journal keeps transcripts of conversations in a BoltDB
// (bbolt) file.
//
// Each session gets its own bucket of entries, which are keyed by
// sequence number.  A "sessions" bucket remembers each session's name
// and start time.
package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Comcast/chatter/core"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// Entry kinds.
const (
	KindUpdate  = "update"
	KindEmit    = "emit"
	KindOutcome = "outcome"
)

// Entry is one line of a transcript.
type Entry struct {
	Seq      uint64      `json:"seq"`
	Kind     string      `json:"kind"`
	UpdateId string      `json:"updateId,omitempty"`
	At       time.Time   `json:"at"`
	Content  interface{} `json:"content,omitempty"`
}

// SessionInfo describes a session.
type SessionInfo struct {
	Id      string    `json:"id"`
	Name    string    `json:"name"`
	Started time.Time `json:"started"`
}

// Journal is a BoltDB file of sessions.
type Journal struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

// Open opens (or creates) the journal file.
func Open(filename string) (*Journal, error) {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(filename, 0644, opts)
	if err != nil {
		return nil, err
	}
	j := &Journal{
		filename: filename,
		db:       db,
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) logf(format string, args ...interface{}) {
	if j.Debug {
		log.Printf("Journal."+format, args...)
	}
}

// NewSession starts a session with a random id.
func (j *Journal) NewSession(ctx context.Context, name string) (*Session, error) {
	info := &SessionInfo{
		Id:      uuid.NewString(),
		Name:    name,
		Started: time.Now().UTC(),
	}
	j.logf("NewSession %s %s", info.Id, name)

	js, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	err = j.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucket([]byte(info.Id)); err != nil {
			return err
		}
		return tx.Bucket(sessionsBucket).Put([]byte(info.Id), js)
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		SessionInfo: *info,
		j:           j,
	}, nil
}

// Sessions lists the sessions in the order they started.
func (j *Journal) Sessions(ctx context.Context) ([]*SessionInfo, error) {
	var acc []*SessionInfo
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).ForEach(func(k, v []byte) error {
			var info SessionInfo
			if err := json.Unmarshal(v, &info); err != nil {
				return err
			}
			acc = append(acc, &info)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(acc, func(i, k int) bool {
		return acc[i].Started.Before(acc[k].Started)
	})
	return acc, nil
}

// Entries returns the session's entries in order.
func (j *Journal) Entries(ctx context.Context, id string) ([]*Entry, error) {
	j.logf("Entries %s", id)
	var acc []*Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(id))
		if b == nil {
			return fmt.Errorf("no session %s", id)
		}
		c := b.Cursor()
		for k, bs := c.First(); k != nil; k, bs = c.Next() {
			var e Entry
			if err := json.Unmarshal(bs, &e); err != nil {
				return err
			}
			acc = append(acc, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// RemSession deletes a session and its entries.
func (j *Journal) RemSession(ctx context.Context, id string) error {
	j.logf("RemSession %s", id)
	return j.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
}

func (j *Journal) record(id string, es ...*Entry) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(id))
		if b == nil {
			return fmt.Errorf("no session %s", id)
		}
		for _, e := range es {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			e.Seq = seq
			js, err := json.Marshal(e)
			if err != nil {
				return err
			}
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, seq)
			if err = b.Put(key, js); err != nil {
				return err
			}
		}
		return nil
	})
}

// Session records entries for one conversation.
type Session struct {
	SessionInfo
	j *Journal
}

// Record adds an entry.
func (s *Session) Record(ctx context.Context, kind, updateId string, content interface{}) error {
	return s.j.record(s.Id, &Entry{
		Kind:     kind,
		UpdateId: updateId,
		At:       time.Now().UTC(),
		Content:  content,
	})
}

// RecordOutcome records how a wait ended.
func (s *Session) RecordOutcome(ctx context.Context, o *core.Outcome) error {
	content := map[string]interface{}{
		"timedOut": o.TimedOut,
	}
	var updateId string
	if !o.TimedOut {
		content["value"] = o.Value
		if o.Condition != nil {
			content["condition"] = o.Condition.Label
		}
		if o.Update != nil {
			updateId = o.Update.Id
		}
	}
	return s.Record(ctx, KindOutcome, updateId, content)
}

// Tap returns a core.Transport that records every update that the
// given Transport delivers.
func (s *Session) Tap(t core.Transport) core.Transport {
	return &tap{
		Transport: t,
		s:         s,
	}
}

type tap struct {
	core.Transport
	s *Session
}

func (t *tap) Updates(ctx context.Context) ([]*core.Update, error) {
	us, err := t.Transport.Updates(ctx)
	if err != nil || len(us) == 0 {
		return us, err
	}
	es := make([]*Entry, len(us))
	for i, u := range us {
		at := u.Received
		if at.IsZero() {
			at = time.Now()
		}
		es[i] = &Entry{
			Kind:     KindUpdate,
			UpdateId: u.Id,
			At:       at.UTC(),
			Content:  u.Content,
		}
	}
	if err = t.s.j.record(t.s.Id, es...); err != nil {
		return nil, err
	}
	return us, nil
}

// TapEmitter returns a core.Emitter that records every message before
// emitting it with the given Emitter.
func (s *Session) TapEmitter(e core.Emitter) core.Emitter {
	return &emitTap{
		Emitter: e,
		s:       s,
	}
}

type emitTap struct {
	core.Emitter
	s *Session
}

func (t *emitTap) Emit(ctx context.Context, msg interface{}) error {
	if err := t.s.Record(ctx, KindEmit, "", msg); err != nil {
		return err
	}
	return t.Emitter.Emit(ctx, msg)
}
