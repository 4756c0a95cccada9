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

package spec

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/expenses/primidx/internal/core/layerstack"
	"github.com/expenses/primidx/internal/core/mapfunc"
	"github.com/expenses/primidx/internal/core/path"
)

// World is a small, self-contained universe of named layer stacks loaded
// from a YAML fixture. It plays the role that asset resolution and layer
// I/O would play in a real deployment (spec.md §1): given an asset path, it
// hands back an already-opened LayerStack plus the Store the builder reads
// composed specs from. It exists only for tests and the cmd/primidx demo —
// it is not part of the collaborator boundary contract itself.
type World struct {
	Store  *Store
	stacks map[string]*layerstack.LayerStack
}

// Resolve implements the asset-resolution step of spec.md §4.4 ("Open the
// layer ... Compute the referenced layer stack").
func (w *World) Resolve(assetPath string) (*layerstack.LayerStack, bool) {
	ls, ok := w.stacks[assetPath]
	return ls, ok
}

// Stack returns the named stack, for use as the build target's own layer
// stack (as opposed to one reached via reference/payload resolution).
func (w *World) Stack(name string) (*layerstack.LayerStack, bool) {
	ls, ok := w.stacks[name]
	return ls, ok
}

type fixtureWorld struct {
	Stacks map[string]fixtureStack `yaml:"stacks"`
}

type fixtureStack struct {
	Layers              []fixtureLayer      `yaml:"layers"`
	Relocations         []fixtureRelocation `yaml:"relocations"`
	ExpressionVariables map[string]string   `yaml:"expressionVariables"`
}

type fixtureLayer struct {
	ID          string                  `yaml:"id"`
	DefaultPrim string                  `yaml:"defaultPrim"`
	TCPS        float64                 `yaml:"tcps"`
	Muted       bool                    `yaml:"muted"`
	Prims       map[string]fixturePrim  `yaml:"prims"`
}

type fixtureRelocation struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

type fixturePrim struct {
	HasSpec           *bool                  `yaml:"hasSpec"`
	Permission        string                 `yaml:"permission"`
	HasSymmetry       bool                   `yaml:"hasSymmetry"`
	References        []fixtureArcTarget     `yaml:"references"`
	Payloads          []fixtureArcTarget     `yaml:"payloads"`
	Inherits          []string               `yaml:"inherits"`
	Specializes       []string               `yaml:"specializes"`
	VariantSets       []fixtureVariantSet    `yaml:"variantSets"`
	VariantSelections map[string]string      `yaml:"variantSelections"`
	Session           bool                   `yaml:"session"`
}

type fixtureArcTarget struct {
	AssetPath     string   `yaml:"assetPath"`
	PrimPath      string   `yaml:"primPath"`
	OffsetScale   float64  `yaml:"offsetScale"`
	OffsetShift   float64  `yaml:"offsetShift"`
	DynamicFields []string `yaml:"dynamicFields"`
}

type fixtureVariantSet struct {
	Name    string   `yaml:"name"`
	Options []string `yaml:"options"`
}

// LoadWorld parses a YAML fixture describing a set of named layer stacks.
func LoadWorld(data []byte) (*World, error) {
	var raw fixtureWorld
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("spec: parsing fixture: %w", err)
	}

	store := NewStore()
	w := &World{Store: store, stacks: map[string]*layerstack.LayerStack{}}

	for stackName, fs := range raw.Stacks {
		var layers []layerstack.Layer
		for _, fl := range fs.Layers {
			lid := layerstack.ID(stackName + "#" + fl.ID)
			layers = append(layers, layerstack.Layer{
				ID:          lid,
				DefaultPrim: fl.DefaultPrim,
				Muted:       fl.Muted,
				TCPS:        fl.TCPS,
			})
			for primStr, fp := range fl.Prims {
				p, err := path.Parse(primStr)
				if err != nil {
					return nil, fmt.Errorf("spec: stack %q layer %q: %w", stackName, fl.ID, err)
				}
				d, err := toPrimSpecData(fp)
				if err != nil {
					return nil, fmt.Errorf("spec: stack %q layer %q prim %q: %w", stackName, fl.ID, primStr, err)
				}
				store.Put(lid, p, d)
			}
		}

		var relocs []layerstack.Relocation
		for _, r := range fs.Relocations {
			src, err := path.Parse(r.Source)
			if err != nil {
				return nil, fmt.Errorf("spec: stack %q: relocation source: %w", stackName, err)
			}
			dst, err := path.Parse(r.Target)
			if err != nil {
				return nil, fmt.Errorf("spec: stack %q: relocation target: %w", stackName, err)
			}
			relocs = append(relocs, layerstack.Relocation{Source: src, Target: dst})
		}

		w.stacks[stackName] = layerstack.New(
			stackName,
			layers,
			layerstack.NewRelocatesTable(relocs),
			fs.ExpressionVariables,
		)
	}
	return w, nil
}

func toPrimSpecData(fp fixturePrim) (*PrimSpecData, error) {
	d := &PrimSpecData{
		HasSpec:           fp.HasSpec == nil || *fp.HasSpec,
		HasSymmetry:       fp.HasSymmetry,
		VariantSelections: fp.VariantSelections,
		SessionLayer:      fp.Session,
	}
	switch fp.Permission {
	case "", "public":
		d.Permission = Public
	case "private":
		d.Permission = Private
	default:
		return nil, fmt.Errorf("unknown permission %q", fp.Permission)
	}

	for _, r := range fp.References {
		t, err := toArcTarget(r)
		if err != nil {
			return nil, err
		}
		d.References = append(d.References, t)
	}
	for _, pl := range fp.Payloads {
		t, err := toArcTarget(pl)
		if err != nil {
			return nil, err
		}
		d.Payloads = append(d.Payloads, t)
	}
	for _, ih := range fp.Inherits {
		p, err := path.Parse(ih)
		if err != nil {
			return nil, err
		}
		d.Inherits = append(d.Inherits, p)
	}
	for _, sp := range fp.Specializes {
		p, err := path.Parse(sp)
		if err != nil {
			return nil, err
		}
		d.Specializes = append(d.Specializes, p)
	}
	for _, vs := range fp.VariantSets {
		d.VariantSets = append(d.VariantSets, VariantSetSpec{Name: vs.Name, Options: vs.Options})
	}
	return d, nil
}

func toArcTarget(f fixtureArcTarget) (ArcTarget, error) {
	var p path.Path
	if f.PrimPath != "" {
		var err error
		p, err = path.Parse(f.PrimPath)
		if err != nil {
			return ArcTarget{}, err
		}
	}
	scale := f.OffsetScale
	if scale == 0 {
		scale = 1
	}
	return ArcTarget{
		AssetPath:           f.AssetPath,
		PrimPath:            p,
		LayerOffset:         mapfunc.Offset{Scale: scale, Shift: f.OffsetShift},
		FileFormatArgFields: f.DynamicFields,
	}, nil
}
