/*
 * Copyright 2024 CloudWeGo Authors
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

// Package template is a byte-level, never-erroring tokenizer for the
// Serilog-style "{name[,align][:format]}" message template grammar.
package template

// TokenKind distinguishes a literal run of text from a hole.
type TokenKind uint8

const (
	TokenLiteral TokenKind = iota
	TokenHole
)

// Hole is a single {..} placeholder. Exactly one of Name or Index is
// meaningful: Index >= 0 for a positional hole ("{0}"), Name non-empty
// for a named one ("{user}"). A named hole still consumes the next
// positional argument in argument order — it does not look itself up
// by name against a keyed argument set.
type Hole struct {
	Name        string
	Index       int // -1 when Name is used instead
	Destructure byte // 0, '@' (destructure), or '$' (stringify)
	Alignment   int  // 0 == none; negative == left-align, per Serilog convention
	Format      string
}

// Token is either a literal run (Literal populated) or a Hole.
type Token struct {
	Kind    TokenKind
	Literal string
	Hole    Hole
}

// Template is a parsed message template: an ordered token sequence.
type Template struct {
	Raw    string
	Tokens []Token
}

// HoleCount returns the number of Hole tokens, i.e. how many
// positional arguments a Format call against this template consumes.
func (t Template) HoleCount() int {
	n := 0
	for _, tok := range t.Tokens {
		if tok.Kind == TokenHole {
			n++
		}
	}
	return n
}
