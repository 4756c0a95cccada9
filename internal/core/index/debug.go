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

package index

// Logger is the minimal logging collaborator the builder writes debug
// traces to; *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

// Debug gates the builder's trace logging, mirroring the teacher's
// internal/core/adt package-level Debug flag: flipping it on costs nothing
// in a production build that never sets it, since logf short-circuits
// before formatting.
var Debug = false

func (b *Builder) logf(format string, args ...any) {
	if !Debug || b.inputs.Logger == nil {
		return
	}
	b.inputs.Logger.Printf(format, args...)
}
