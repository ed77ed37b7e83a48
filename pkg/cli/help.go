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
	"fmt"
	"io"
)

// ShowHelp writes the help message to w.
func ShowHelp(w io.Writer) {
	fmt.Fprint(w, `cortex: Cortex IDS console
Usage:
  cortex <command> [options]

Commands:
  serve          Run the console HTTP API, live monitor and metrics
  schema         Print the backend feature schema
  models         List the detection models offered by the backend
  analyze-csv    Upload a CSV of flows for analysis
  entry          Manual flow entry in the terminal
  version        Print version information

Common options:
  -config string     path to console config file (.json, .yaml)
  -base-url string   detection backend address (overrides config)

Options for serve:
  -listen string     listen address (overrides config)

Options for analyze-csv:
  -file string       CSV file to analyze
  -model string      model to use (defaults to the backend's first model)
  -out string        write the annotated CSV returned by the backend here

Options for entry:
  -model string      model to use (defaults to the backend's first model)

Examples:
  cortex serve -config /etc/cortex/console.yaml
  cortex schema -base-url http://localhost:8000
  cortex analyze-csv -file flows.csv -model XGBoost -out flows-annotated.csv
  cortex entry
`)
}
