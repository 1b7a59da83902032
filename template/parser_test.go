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

package template

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// render is a tiny positional-substitution helper used only by tests,
// to check Parse's token stream against the worked examples without
// pulling in the formatter package (which has its own, fuller
// driver-level tests).
func render(tpl Template, args ...string) string {
	var out []byte
	argIdx := 0
	for _, tok := range tpl.Tokens {
		if tok.Kind == TokenLiteral {
			out = append(out, tok.Literal...)
			continue
		}
		if argIdx < len(args) {
			out = append(out, args[argIdx]...)
		}
		argIdx++
	}
	return string(out)
}

func TestParsePositionalHoles(t *testing.T) {
	tpl := Parse("{0}, {1}, {2}")
	require.Equal(t, 3, tpl.HoleCount())
	require.Equal(t, "1, 2, 3", render(tpl, "1", "2", "3"))
}

func TestParseMalformedHolesFallBackToLiteral(t *testing.T) {
	tpl := Parse("{-1}{-0}{0}{1}{3.1415}")
	require.Equal(t, "{-1}{-0}{3.1415}", render(tpl))
}

func TestParseEscapedBraces(t *testing.T) {
	tpl := Parse("{{Hi}}")
	require.Len(t, tpl.Tokens, 1)
	require.Equal(t, TokenLiteral, tpl.Tokens[0].Kind)
	require.Equal(t, "{Hi}", render(tpl))
}

func TestParseNamedHole(t *testing.T) {
	tpl := Parse("hello {name}!")
	require.Len(t, tpl.Tokens, 3)
	require.Equal(t, TokenLiteral, tpl.Tokens[0].Kind)
	require.Equal(t, TokenHole, tpl.Tokens[1].Kind)
	require.Equal(t, "name", tpl.Tokens[1].Hole.Name)
	require.Equal(t, noIndex, tpl.Tokens[1].Hole.Index)
	require.Equal(t, TokenLiteral, tpl.Tokens[2].Kind)
}

func TestParseAlignmentAndFormat(t *testing.T) {
	tpl := Parse("{value,-10:F2}")
	require.Len(t, tpl.Tokens, 1)
	h := tpl.Tokens[0].Hole
	require.Equal(t, "value", h.Name)
	require.Equal(t, -10, h.Alignment)
	require.Equal(t, "F2", h.Format)
}

func TestParseDestructureSigils(t *testing.T) {
	tpl := Parse("{@user} {$amount}")
	require.Equal(t, byte('@'), tpl.Tokens[0].Hole.Destructure)
	require.Equal(t, byte('$'), tpl.Tokens[2].Hole.Destructure)
}

func TestParseUnterminatedBraceIsLiteral(t *testing.T) {
	tpl := Parse("abc {oops")
	require.Len(t, tpl.Tokens, 1)
	require.Equal(t, "abc {oops", tpl.Tokens[0].Literal)
}

func TestParseEmptyHoleIsLiteral(t *testing.T) {
	tpl := Parse("{}")
	require.Len(t, tpl.Tokens, 1)
	require.Equal(t, TokenLiteral, tpl.Tokens[0].Kind)
	require.Equal(t, "{}", tpl.Tokens[0].Literal)
}

func TestParseFormatCanContainColon(t *testing.T) {
	tpl := Parse("{t:HH:mm:ss}")
	require.Equal(t, "HH:mm:ss", tpl.Tokens[0].Hole.Format)
}

func TestParseZeroAlignmentFallsBackToLiteral(t *testing.T) {
	tpl := Parse("{Hello,0}")
	require.Len(t, tpl.Tokens, 1)
	require.Equal(t, TokenLiteral, tpl.Tokens[0].Kind)
	require.Equal(t, "{Hello,0}", tpl.Tokens[0].Literal)
}

func TestParseNonASCIIHoleName(t *testing.T) {
	tpl := Parse("{héllo}")
	require.Len(t, tpl.Tokens, 1)
	require.Equal(t, TokenHole, tpl.Tokens[0].Kind)
	require.Equal(t, "héllo", tpl.Tokens[0].Hole.Name)
}
