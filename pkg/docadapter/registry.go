/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package docadapter

import (
	drifterrors "github.com/driftsentry/driftcore/internal/errors"
)

// Registry resolves a DocRef's system kind to the Adapter implementation
// responsible for it.
type Registry struct {
	adapters map[SystemKind]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[SystemKind]Adapter)}
}

func (r *Registry) Register(kind SystemKind, a Adapter) {
	r.adapters[kind] = a
}

func (r *Registry) For(kind SystemKind) (Adapter, error) {
	a, ok := r.adapters[kind]
	if !ok {
		return nil, drifterrors.NewNotFoundError("document adapter for system " + string(kind))
	}
	return a, nil
}
