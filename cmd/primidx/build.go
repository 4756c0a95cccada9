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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/expenses/primidx"
	"github.com/expenses/primidx/internal/core/spec"
)

// newBuildCmd creates the build command.
func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <world.yaml> <prim-path>",
		Short: "build a prim index and print its strong-to-weak node graph",
		Args:  cobra.ExactArgs(2),
		RunE:  runBuild,
	}

	cmd.Flags().String(string(flagStack), "root", "name of the world's layer stack to build against")
	cmd.Flags().Bool(string(flagCull), false, "cull nodes that cannot contribute opinions")
	cmd.Flags().Bool(string(flagUSD), false, "USD mode: relocations are not evaluated")
	cmd.Flags().StringArray(string(flagFallback), nil, `variant fallback, as "set=option" (repeatable)`)
	cmd.Flags().Bool(string(flagDot), false, "print as Graphviz dot instead of an indented list")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	worldPath, primPath := args[0], args[1]

	data, err := os.ReadFile(worldPath)
	if err != nil {
		return err
	}
	world, err := spec.LoadWorld(data)
	if err != nil {
		return fmt.Errorf("loading world: %w", err)
	}

	stackName, _ := cmd.Flags().GetString(string(flagStack))
	ls, ok := world.Stack(stackName)
	if !ok {
		return fmt.Errorf("no stack named %q in %s", stackName, worldPath)
	}

	p, err := primidx.ParsePath(primPath)
	if err != nil {
		return fmt.Errorf("parsing prim path: %w", err)
	}

	fallbackFlags, _ := cmd.Flags().GetStringArray(string(flagFallback))
	fallbacks, err := parseFallbacks(fallbackFlags)
	if err != nil {
		return err
	}
	cull, _ := cmd.Flags().GetBool(string(flagCull))
	usd, _ := cmd.Flags().GetBool(string(flagUSD))
	asDot, _ := cmd.Flags().GetBool(string(flagDot))

	res := primidx.ComputePrimIndex(ls, p, primidx.Options{
		Store:            world.Store,
		Resolver:         world,
		VariantFallbacks: fallbacks,
		Cull:             cull,
		USD:              usd,
	})

	out := cmd.OutOrStdout()
	if asDot {
		writeDot(out, res.Graph)
	} else {
		writeTree(out, res.Graph)
	}

	for _, e := range res.AllErrors {
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}
	if len(res.AllErrors) > 0 {
		return errPrinted
	}
	return nil
}

var errPrinted = fmt.Errorf("primidx: completed with errors")

// parseFallbacks turns repeated --fallback set=option flags into the
// map ComputePrimIndex's Options.VariantFallbacks expects, preserving
// the order options were given within a set.
func parseFallbacks(flags []string) (map[string][]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	out := map[string][]string{}
	for _, f := range flags {
		set, option, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --fallback %q, want set=option", f)
		}
		out[set] = append(out[set], option)
	}
	return out, nil
}
