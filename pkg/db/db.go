// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"sync"

	"github.com/telekom/tracepath/pkg/checks"
)

// DB stores the latest result of every check
type DB interface {
	// Save stores the result of a check, replacing the previous one
	Save(result checks.ResultDTO)
	// Get returns the latest result of the named check
	Get(check string) (result checks.Result, ok bool)
	// List returns the latest results of all checks
	List() map[string]checks.Result
}

var _ DB = (*InMemory)(nil)

// InMemory is a DB that keeps results in process memory
type InMemory struct {
	data sync.Map
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (i *InMemory) Save(result checks.ResultDTO) {
	if result.Result == nil {
		return
	}
	i.data.Store(result.Name, *result.Result)
}

func (i *InMemory) Get(check string) (checks.Result, bool) {
	v, ok := i.data.Load(check)
	if !ok {
		return checks.Result{}, false
	}
	return v.(checks.Result), true
}

func (i *InMemory) List() map[string]checks.Result {
	results := make(map[string]checks.Result)
	i.data.Range(func(key, value any) bool {
		results[key.(string)] = value.(checks.Result)
		return true
	})
	return results
}
