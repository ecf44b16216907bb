// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	formatJson = "json"
	formatYaml = "yaml"
)

// render
// yaml output keeps the json field names and order of the REST API
func render(out io.Writer, format string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}
	if format != formatYaml {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	var node yaml.Node
	if err = yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("failed to convert result: %w", err)
	}
	blockStyle(&node)
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err = enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle
// json is flow style yaml, switch it to block style with plain scalars
func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}
