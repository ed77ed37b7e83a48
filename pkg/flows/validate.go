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

package flows

import "github.com/carverauto/cortex/pkg/models"

// IsEntirelyEmpty reports whether every schema cell of every record is
// empty. It must be checked before FindMissingRequired so that a blank
// form is reported as "no input" rather than as a list of missing fields.
func IsEntirelyEmpty(schema models.Schema, records []models.FlowRecord) (bool, error) {
	if len(schema) == 0 {
		return false, ErrSchemaNotLoaded
	}

	for i := range records {
		for j := range schema {
			if !records[i].Get(schema[j].Name).IsEmpty() {
				return false, nil
			}
		}
	}

	return true, nil
}

// FindMissingRequired lists every empty required cell in record order,
// then schema column order, each with the default for the column kind.
func FindMissingRequired(schema models.Schema, records []models.FlowRecord) ([]models.MissingFieldEntry, error) {
	if len(schema) == 0 {
		return nil, ErrSchemaNotLoaded
	}

	var missing []models.MissingFieldEntry

	for i := range records {
		for j := range schema {
			col := schema[j]
			if !col.Required || !records[i].Get(col.Name).IsEmpty() {
				continue
			}

			missing = append(missing, models.MissingFieldEntry{
				FlowIndex: i,
				FlowID:    records[i].ID,
				Column:    col.Name,
				Kind:      col.Kind,
				Value:     col.Kind.Default(),
			})
		}
	}

	return missing, nil
}
