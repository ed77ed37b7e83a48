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

package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/cortex/pkg/backend"
	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/models"
)

func TestProbeBackendReloadsMissingSchema(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := backend.NewMockClient(ctrl)
	provider := backend.NewSchemaProvider(client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	schema := models.Schema{{Name: "PROTOCOL", Kind: models.KindInteger, Required: true}}

	gomock.InOrder(
		client.EXPECT().Health(gomock.Any()).Return(&models.HealthStatus{Status: "healthy"}, nil),
		client.EXPECT().Columns(gomock.Any()).DoAndReturn(func(context.Context) (models.Schema, error) {
			cancel()
			return schema, nil
		}),
	)

	probeBackend(ctx, client, provider, logger.NewTestLogger(), time.Hour)

	assert.True(t, provider.Loaded())
}

func TestProbeBackendSkipsReloadWhileUnreachable(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := backend.NewMockClient(ctrl)
	provider := backend.NewSchemaProvider(client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.EXPECT().Health(gomock.Any()).DoAndReturn(func(context.Context) (*models.HealthStatus, error) {
		cancel()
		return nil, errors.New("connection refused")
	})

	probeBackend(ctx, client, provider, logger.NewTestLogger(), time.Hour)

	assert.False(t, provider.Loaded())
}
