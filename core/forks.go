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

package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Comcast/chatter/util"

	"github.com/google/uuid"
)

// Forks is a collection of active Forks indexed by id.
//
// Attach, Detach, Replace, and Get are safe to call from any
// goroutine.  Dispatch can run concurrently with those, but only one
// goroutine should Dispatch to a given Forks at a time.
//
// A Fork that's done stays in the collection until somebody Detaches
// it (or calls Prune).
type Forks struct {
	sync.RWMutex

	forks map[string]*Fork
}

// NewForks makes an empty Forks.
func NewForks() *Forks {
	return &Forks{
		forks: make(map[string]*Fork, 8),
	}
}

// Attach makes a Fork and adds it to the collection.
//
// The Fork is a quick-stop Fork unless spec.QuickStop says otherwise.
// If spec.Id is empty, the Fork gets a random UUID.  Returns a
// *DuplicateFork if a Fork with that id is already attached.
func (fs *Forks) Attach(spec *ForkSpec) (string, error) {
	f, err := NewFork(spec)
	if err != nil {
		return "", err
	}
	if f.Id == "" {
		f.Id = uuid.NewString()
	}

	fs.Lock()
	defer fs.Unlock()

	if _, have := fs.forks[f.Id]; have {
		return "", &DuplicateFork{Id: f.Id}
	}
	fs.forks[f.Id] = f
	util.Logf("attached fork %s", f.Id)

	return f.Id, nil
}

// Detach removes the Fork with the given id.
func (fs *Forks) Detach(id string) error {
	fs.Lock()
	defer fs.Unlock()

	if _, have := fs.forks[id]; !have {
		return &UnknownFork{Id: id}
	}
	delete(fs.forks, id)
	util.Logf("detached fork %s", id)

	return nil
}

// Replace swaps the Fork with the given id for a new Fork made from
// the given spec (whose Id is ignored).
//
// Unlike Attach, the new Fork isn't a quick-stop Fork unless
// spec.QuickStop says so.
//
// The old Fork gets the new Fork as its substitute, so anybody
// waiting on the old Fork will end up waiting on the new one.
func (fs *Forks) Replace(id string, spec *ForkSpec) error {
	f, err := newFork(spec, false)
	if err != nil {
		return err
	}
	f.Id = id

	fs.Lock()
	defer fs.Unlock()

	old, have := fs.forks[id]
	if !have {
		return &UnknownFork{Id: id}
	}
	old.setSubstitute(f)
	fs.forks[id] = f
	util.Logf("replaced fork %s", id)

	return nil
}

// Get returns the Fork with the given id.
func (fs *Forks) Get(id string) (*Fork, error) {
	fs.RLock()
	defer fs.RUnlock()

	f, have := fs.forks[id]
	if !have {
		return nil, &UnknownFork{Id: id}
	}
	return f, nil
}

// Ids returns the (sorted) ids of the attached Forks.
func (fs *Forks) Ids() []string {
	fs.RLock()
	acc := make([]string, 0, len(fs.forks))
	for id := range fs.forks {
		acc = append(acc, id)
	}
	fs.RUnlock()
	sort.Strings(acc)
	return acc
}

// Len returns the number of attached Forks.
func (fs *Forks) Len() int {
	fs.RLock()
	defer fs.RUnlock()
	return len(fs.forks)
}

// Prune detaches all Forks that are done and returns their ids.
func (fs *Forks) Prune() []string {
	fs.Lock()
	acc := make([]string, 0, len(fs.forks))
	for id, f := range fs.forks {
		if f.Done() {
			delete(fs.forks, id)
			acc = append(acc, id)
		}
	}
	fs.Unlock()
	sort.Strings(acc)
	return acc
}

// Dispatch presents the update to every attached Fork.
//
// The order is not specified.  A Fork that returns an error (or
// panics) doesn't prevent the others from seeing the update.  All
// such errors are joined into the returned error.
//
// The Forks are processed outside of the lock, so a callback can
// Attach or Detach.
func (fs *Forks) Dispatch(ctx context.Context, u *Update) error {
	fs.RLock()
	forks := make([]*Fork, 0, len(fs.forks))
	for _, f := range fs.forks {
		forks = append(forks, f)
	}
	fs.RUnlock()

	var errs []error
	for _, f := range forks {
		if err := process(ctx, f, u); err != nil {
			errs = append(errs, fmt.Errorf("fork %s: %w", f.Id, err))
		}
	}

	return errors.Join(errs...)
}

// process calls f.Process and turns a panic into an error.
func process(ctx context.Context, f *Fork, u *Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f.Process(ctx, u)
}
