package pgtools

import (
	"fmt"
	"strings"
)

// Identifier is derived almost exactly from
// lib/pq, which is released under the MIT License.
// https://github.com/lib/pq
//
// Copyright (c) 2011-2013, 'pq' Contributors Portions Copyright (C) 2011 Blake
// Mizerany
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Identifier quotes an identifier (a name of an object: a table, a column, a
// function, a type, a schema, etc.) for use in a DDL statement defining or
// referencing that object. It will return the same identifier if possible, only
// introducing quotes or modifications when:
//
//   - the identifier has an upper-case character
//   - the identifier has a hyphen
//   - the identifier is a reserved keyword in PostgreSQL, or is non-reserved
//     but requires quoting in some contexts (when used as a column name, used as
//     a type name, or used as a function name)
//
// For convenience, Identifier allows you to pass the parts of a fully-qualified
// "dotted" identifier, or a single un-split dotted identifier.
func Identifier(parts ...string) string {
	if len(parts) == 1 {
		parts = strings.Split(parts[0], ".")
	}
	out := make([]string, 0, len(parts))
	for _, identifier := range parts {
		if requiresQuoting(identifier) {
			identifier = fmt.Sprintf(`"%s"`, strings.ReplaceAll(identifier, `"`, `""`))
		}
		out = append(out, identifier)
	}
	return strings.Join(out, ".")
}

func requiresQuoting(identifier string) bool {
	lowered := strings.ToLower(identifier)
	if lowered != identifier {
		return true
	}
	if _, ok := postgresKeywords[lowered]; ok {
		return true
	}
	if strings.ContainsRune(lowered, '"') {
		return true
	}
	if strings.ContainsRune(lowered, '-') {
		return true
	}
	return false
}
