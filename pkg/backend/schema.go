/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package backend

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/models"
)

// SchemaSource is the part of Client the provider needs.
type SchemaSource interface {
	Columns(ctx context.Context) (models.Schema, error)
}

// SchemaProvider holds the column schema for the lifetime of the
// process. It is fetched on first use and only replaced by Reload; a
// failed reload keeps the previous schema. A failed first fetch is
// remembered and returned until Reload succeeds.
type SchemaProvider struct {
	source SchemaSource
	logger logger.Logger

	mu       sync.RWMutex
	schema   models.Schema
	loadErr  error
	loadedAt time.Time
}

func NewSchemaProvider(source SchemaSource, log logger.Logger) *SchemaProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SchemaProvider{source: source, logger: log}
}

// Schema returns the cached schema. Only the first call reaches the
// backend.
func (p *SchemaProvider) Schema(ctx context.Context) (models.Schema, error) {
	p.mu.RLock()
	schema, loadErr := p.schema, p.loadErr
	p.mu.RUnlock()

	switch {
	case len(schema) > 0:
		return schema, nil
	case loadErr != nil:
		return nil, loadErr
	}

	return p.Reload(ctx)
}

// Loaded reports whether a schema is cached.
func (p *SchemaProvider) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.schema) > 0
}

// Reload fetches the schema from the backend and replaces the cache.
func (p *SchemaProvider) Reload(ctx context.Context) (models.Schema, error) {
	schema, err := p.source.Columns(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to load feature schema")

		p.mu.Lock()
		if len(p.schema) == 0 {
			p.loadErr = err
		}
		p.mu.Unlock()

		return nil, err
	}

	p.mu.Lock()
	p.schema = schema
	p.loadErr = nil
	p.loadedAt = time.Now()
	p.mu.Unlock()

	p.logger.Info().
		Int("columns", len(schema)).
		Int("required", len(schema.Required())).
		Msg("Feature schema loaded")

	return schema, nil
}

// LoadedAt is the time of the last successful load, zero if none.
func (p *SchemaProvider) LoadedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loadedAt
}
