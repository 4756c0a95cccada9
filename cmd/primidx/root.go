// Copyright 2026 CUE Authors
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
	"github.com/spf13/cobra"
)

// flagName centralizes flag string literals the way addGlobalFlags'
// counterpart does, so a flag added to one command's FlagSet can't be
// referenced by a typo from another.
type flagName string

const (
	flagStack    flagName = "stack"
	flagCull     flagName = "cull"
	flagUSD      flagName = "usd"
	flagFallback flagName = "fallback"
	flagDot      flagName = "dot"
)

// newRootCmd creates the base primidx command. Mirrors the teacher's own
// root-command assembly: one cobra.Command built once, subcommands attached
// to it, no package-level mutable cobra.Command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "primidx",
		Short: "compute and print prim indexes from a YAML layer-stack world",
		Long: `primidx builds a single prim's index against a world of layer
stacks described in a YAML fixture file, and prints the resulting
strong-to-weak node graph.

A world file looks like:

  stacks:
    root:
      layers:
        - prims:
            /A: {}

Run 'primidx build <world.yaml> <prim-path>' to build an index.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newBuildCmd())
	return cmd
}
