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
	"strconv"

	"github.com/nanolog/nanolog/internal/intern"
)

// noIndex marks a Hole as named rather than positional.
const noIndex = -1

// names dedupes hole names across repeated Parse calls against the
// same handful of templates — the common case, since a given log call
// site parses the same literal template string on every invocation.
var names = intern.New()

// Parse tokenizes raw into literal runs and holes. It never errors:
// anything that doesn't parse as a well-formed hole — including an
// unterminated "{" at end of input — is folded back into the
// surrounding literal text, braces and all.
func Parse(raw string) Template {
	t := Template{Raw: raw}
	var lit []byte
	i := 0
	n := len(raw)

	flush := func() {
		if len(lit) > 0 {
			t.Tokens = append(t.Tokens, Token{Kind: TokenLiteral, Literal: string(lit)})
			lit = lit[:0]
		}
	}

	for i < n {
		c := raw[i]
		switch c {
		case '{':
			if i+1 < n && raw[i+1] == '{' {
				lit = append(lit, '{')
				i += 2
				continue
			}
			end := indexByte(raw, i+1, '}')
			if end < 0 {
				// Unterminated hole: everything from here to the end
				// of the string is literal.
				lit = append(lit, raw[i:]...)
				i = n
				continue
			}
			content := raw[i+1 : end]
			if h, ok := parseHole(content); ok {
				flush()
				t.Tokens = append(t.Tokens, Token{Kind: TokenHole, Hole: h})
			} else {
				lit = append(lit, raw[i:end+1]...)
			}
			i = end + 1
		case '}':
			if i+1 < n && raw[i+1] == '}' {
				lit = append(lit, '}')
				i += 2
				continue
			}
			lit = append(lit, '}')
			i++
		default:
			lit = append(lit, c)
			i++
		}
	}
	flush()
	return t
}

func indexByte(s string, from int, c byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isNameStart reports whether c can open a hole name: an ASCII
// letter, underscore, or the lead byte of a non-ASCII UTF-8 sequence
// (any byte >= 0x80). Name matching works on raw bytes rather than
// decoded runes, so a multi-byte sequence is accepted one byte at a
// time — each continuation byte (0x80-0xBF) also satisfies this
// check, which is fine since isNameCont accepts them too.
func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

// isNameCont reports whether c can continue a hole name: anything
// isNameStart accepts, plus ASCII digits.
func isNameCont(c byte) bool {
	return isNameStart(c) || isDigit(c)
}

// parseHole parses the interior of a "{...}" (braces excluded)
// against the grammar:
//
//	hole    := [sigil] (index | name) [',' align] [':' format]
//	sigil   := '@' | '$'
//	index   := digit+
//	name    := name-start name-cont*
//	align   := ['-'] digit+ (non-zero)
//	format  := any byte sequence without '}' (the hole ends at the first '}')
//
// Any deviation — leading '-' on the index/name position, embedded
// '.', a zero alignment, trailing garbage after align/format — is
// rejected so the caller keeps the original text as a literal.
func parseHole(content string) (Hole, bool) {
	h := Hole{Index: noIndex}
	i := 0
	n := len(content)

	if i < n && (content[i] == '@' || content[i] == '$') {
		h.Destructure = content[i]
		i++
	}

	start := i
	switch {
	case i < n && isDigit(content[i]):
		for i < n && isDigit(content[i]) {
			i++
		}
		idx, err := strconv.Atoi(content[start:i])
		if err != nil {
			return Hole{}, false
		}
		h.Index = idx
	case i < n && isNameStart(content[i]):
		for i < n && isNameCont(content[i]) {
			i++
		}
		h.Name = names.Intern(content[start:i])
	default:
		return Hole{}, false
	}

	if i < n && content[i] == ',' {
		i++
		neg := false
		if i < n && content[i] == '-' {
			neg = true
			i++
		}
		digitsStart := i
		for i < n && isDigit(content[i]) {
			i++
		}
		if i == digitsStart {
			return Hole{}, false
		}
		v, err := strconv.Atoi(content[digitsStart:i])
		if err != nil {
			return Hole{}, false
		}
		if v == 0 {
			// Zero is not a valid alignment; fall back to literal text.
			return Hole{}, false
		}
		if neg {
			v = -v
		}
		h.Alignment = v
	}

	if i < n && content[i] == ':' {
		h.Format = content[i+1:]
		i = n
	}

	if i != n {
		return Hole{}, false
	}
	return h, true
}
