// Copyright 2025 The DBQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dbqrules

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ChecksFileConfig struct {
	Version string             `yaml:"version"`
	Dataset DatasetConfig      `yaml:"dataset,omitempty"`
	Checks  []DataQualityCheck `yaml:"checks"`
}

// DatasetConfig describes how rows are identified.
type DatasetConfig struct {
	Key []string `yaml:"key,omitempty"`
}

type DataQualityCheck struct {
	Expression  string       `yaml:"-"`
	Name        string       `yaml:"name,omitempty"`
	Description string       `yaml:"desc,omitempty"`
	OnFail      OnFailAction `yaml:"on_fail,omitempty"`

	// Display lists the sample columns; defaults depend on the check kind.
	Display []string `yaml:"display,omitempty"`

	// Sequence check fields
	PartitionBy []string `yaml:"partition_by,omitempty"`
	OrderBy     string   `yaml:"order_by,omitempty"`

	CaseSensitive bool `yaml:"case_sensitive,omitempty"`
	Exclusive     bool `yaml:"exclusive,omitempty"`

	Conditional *ConditionalConfig `yaml:"conditional,omitempty"`
	ParsedCheck *CheckExpression   `yaml:"-"`
}

// ConditionalConfig holds the two predicates of an implication check.
type ConditionalConfig struct {
	When       string           `yaml:"when"`
	Then       string           `yaml:"then"`
	ParsedWhen *CheckExpression `yaml:"-"`
	ParsedThen *CheckExpression `yaml:"-"`
}

// checkOptions is the mapping value that may follow an expression key.
type checkOptions struct {
	Name          string       `yaml:"name,omitempty"`
	Desc          string       `yaml:"desc,omitempty"`
	OnFail        OnFailAction `yaml:"on_fail,omitempty"`
	Display       []string     `yaml:"display,omitempty"`
	PartitionBy   []string     `yaml:"partition_by,omitempty"`
	OrderBy       string       `yaml:"order_by,omitempty"`
	CaseSensitive bool         `yaml:"case_sensitive,omitempty"`
	Exclusive     bool         `yaml:"exclusive,omitempty"`
	When          string       `yaml:"when,omitempty"`
	Then          string       `yaml:"then,omitempty"`
}

func (c *DataQualityCheck) apply(opts checkOptions) {
	c.Name = opts.Name
	c.Description = opts.Desc
	c.OnFail = opts.OnFail
	c.Display = opts.Display
	c.PartitionBy = opts.PartitionBy
	c.OrderBy = opts.OrderBy
	c.CaseSensitive = opts.CaseSensitive
	c.Exclusive = opts.Exclusive
}

func (c *DataQualityCheck) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode && len(node.Content) >= 2 {
		key := node.Content[0].Value
		value := node.Content[1]

		var opts checkOptions
		if value.Kind == yaml.MappingNode {
			if err := value.Decode(&opts); err != nil {
				return err
			}
		}
		c.apply(opts)

		if key == "conditional" {
			c.Expression = key
			if opts.When == "" || opts.Then == "" {
				return fmt.Errorf("conditional check requires 'when' and 'then' (line %d)", value.Line)
			}

			parsedWhen, err := ParseCheckExpression(opts.When)
			if err != nil {
				return fmt.Errorf("failed to parse 'when': %w", err)
			}
			parsedThen, err := ParseCheckExpression(opts.Then)
			if err != nil {
				return fmt.Errorf("failed to parse 'then': %w", err)
			}

			c.Conditional = &ConditionalConfig{
				When:       opts.When,
				Then:       opts.Then,
				ParsedWhen: parsedWhen,
				ParsedThen: parsedThen,
			}
			c.ParsedCheck = &CheckExpression{
				FunctionName:       key,
				FunctionParameters: []string{},
				Scope:              ScopeRow,
			}
			return nil
		}

		c.Expression = key
		parsedCheck, err := ParseCheckExpression(key)
		if err != nil {
			return err
		}
		c.ParsedCheck = parsedCheck
	} else if node.Kind == yaml.ScalarNode {
		c.Expression = node.Value
		parsedCheck, err := ParseCheckExpression(node.Value)
		if err != nil {
			return err
		}
		c.ParsedCheck = parsedCheck
	} else {
		return fmt.Errorf("unsupported check definition at line %d", node.Line)
	}

	return nil
}

// CheckName returns the configured name, falling back to the expression.
func (c *DataQualityCheck) CheckName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Expression
}

func LoadChecksFileConfig(fileName string) (*ChecksFileConfig, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseChecksFileConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}
	return cfg, nil
}

func ParseChecksFileConfig(data []byte) (*ChecksFileConfig, error) {
	var cfg ChecksFileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
