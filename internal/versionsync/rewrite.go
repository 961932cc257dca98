// SPDX-License-Identifier: MPL-2.0

package versionsync

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/emanate/emanate/pkg/version"
)

type (
	// Site is one rewritten version string.
	Site struct {
		// Key is the dotted TOML key of the value, e.g. "workspace.package.version".
		Key string
		Old string
		New string
	}

	// rules selects the version strings of one document that are rewritten.
	rules struct {
		next version.Version
		// packageVersion enables rewriting workspace.package.version.
		packageVersion bool
		// workspaceKeys are [workspace.dependencies] keys naming members.
		workspaceKeys map[string]bool
		// dependencyKeys are keys of member dependency tables naming members.
		dependencyKeys map[string]bool
	}

	splice struct {
		start, end int
		text       string
	}
)

var dependencySections = []string{"dependencies", "build-dependencies", "dev-dependencies"}

// rewrite returns data with every selected version string replaced. All
// bytes outside the replaced strings, including comments and layout, are
// preserved. Compound requirements are left untouched and reported through
// skipped.
func (r *rules) rewrite(data []byte) (out []byte, sites []Site, skipped []Site, err error) {
	var p unstable.Parser
	p.Reset(data)

	var splices []splice
	var table []string
	inArrayTable := false

	var visit func(path []string, value *unstable.Node)
	visit = func(path []string, value *unstable.Node) {
		switch value.Kind {
		case unstable.String:
			old := string(value.Data)
			replacement, ok := r.match(path, old)
			if !ok {
				return
			}
			site := Site{Key: strings.Join(path, "."), Old: old, New: replacement}
			if replacement == "" {
				skipped = append(skipped, site)
				return
			}
			if replacement == old {
				return
			}
			raw := p.Raw(value.Raw)
			quote := raw[:1]
			if bytes.HasPrefix(raw, []byte(`"""`)) || bytes.HasPrefix(raw, []byte(`'''`)) {
				quote = raw[:3]
			}
			start := int(value.Raw.Offset)
			splices = append(splices, splice{
				start: start,
				end:   start + len(raw),
				text:  string(quote) + replacement + string(quote),
			})
			sites = append(sites, site)
		case unstable.InlineTable:
			it := value.Children()
			for it.Next() {
				kv := it.Node()
				visit(join(path, keyParts(kv.Key())), kv.Value())
			}
		}
	}

	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table:
			table = keyParts(e.Key())
			inArrayTable = false
		case unstable.ArrayTable:
			table = keyParts(e.Key())
			inArrayTable = true
		case unstable.KeyValue:
			if inArrayTable {
				continue
			}
			visit(join(table, keyParts(e.Key())), e.Value())
		}
	}
	if err := p.Error(); err != nil {
		var perr *unstable.ParserError
		if errors.As(err, &perr) && len(perr.Highlight) > 0 {
			shape := p.Shape(p.Range(perr.Highlight))
			return nil, nil, nil, fmt.Errorf("line %d, column %d: %w", shape.Start.Line, shape.Start.Column, err)
		}
		return nil, nil, nil, err
	}

	if len(splices) == 0 {
		return data, nil, skipped, nil
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	last := 0
	for _, s := range splices {
		buf.Write(data[last:s.start])
		buf.WriteString(s.text)
		last = s.end
	}
	buf.Write(data[last:])
	return buf.Bytes(), sites, skipped, nil
}

// match reports whether the string at path is a version to rewrite and
// returns its replacement. An empty replacement with ok set means the value
// was selected but cannot be rewritten safely.
func (r *rules) match(path []string, old string) (string, bool) {
	n := len(path)
	switch {
	case r.packageVersion && slices.Equal(path, []string{"workspace", "package", "version"}):
		return r.next.String(), true
	case n >= 3 && path[0] == "workspace" && path[1] == "dependencies":
		if isVersionSlot(path[3:]) && r.workspaceKeys[path[2]] {
			return r.pin(old), true
		}
	case n >= 2 && slices.Contains(dependencySections, path[0]):
		if isVersionSlot(path[2:]) && r.dependencyKeys[path[1]] {
			return r.pin(old), true
		}
	case n >= 4 && path[0] == "target" && slices.Contains(dependencySections, path[2]):
		if isVersionSlot(path[4:]) && r.dependencyKeys[path[3]] {
			return r.pin(old), true
		}
	}
	return "", false
}

// isVersionSlot reports whether the key suffix after a dependency name
// designates its version: either nothing (bare string) or "version".
func isVersionSlot(rest []string) bool {
	return len(rest) == 0 || (len(rest) == 1 && rest[0] == "version")
}

// pin rewrites a requirement to the next version, keeping its operator.
// Only operators that admit their own base version are rewritten; upper
// bounds and strict comparisons are left for the user to adjust.
func (r *rules) pin(old string) string {
	if strings.Contains(old, ",") {
		return ""
	}
	op, rest := version.SplitOperator(old)
	if rest == "" || isWildcard(rest) || !slices.Contains(rewritableOperators, op) {
		return ""
	}
	return op + r.next.String()
}

// rewritableOperators lists the requirement operators whose rewrite to the
// next version still admits that version as a lower bound.
var rewritableOperators = []string{"", "=", "^", "~", ">="}

func isWildcard(req string) bool {
	for part := range strings.SplitSeq(req, ".") {
		if part == "*" || part == "x" || part == "X" {
			return true
		}
	}
	return false
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

func join(prefix, suffix []string) []string {
	out := make([]string, 0, len(prefix)+len(suffix))
	out = append(out, prefix...)
	return append(out, suffix...)
}
