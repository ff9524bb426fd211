// Package input decodes attribute documents (JSON or YAML) into the
// map[string]any form accepted by attrs.
//
// JSON objects may repeat a key, in which case decoders silently keep the last
// value. Decode reports such keys as duplicate_key issues and, in strict mode,
// refuses the document. YAML documents with repeated keys are always refused
// by the YAML decoder.
package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/attrs"
	"github.com/reoring/attrs/i18n"
)

// CodeDuplicateKey marks an object key that appears more than once.
const CodeDuplicateKey = "duplicate_key"

// Format is the encoding of a document.
type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return JSON, fmt.Errorf("input: unknown format %q", s)
}

// FormatOf guesses the format from a file extension; anything that is not
// .yaml or .yml is JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Options controls Decode.
type Options struct {
	Format Format
	// Strict turns duplicate JSON keys into an error.
	Strict bool
	// MaxIssues caps the duplicate keys reported; 0 means unlimited.
	MaxIssues int
}

// Decode reads one document from r. An empty document or a top-level null
// yields an empty map. Duplicate keys found in a JSON document are returned
// as warnings unless opt.Strict is set, in which case they are the error.
func Decode(r io.Reader, opt Options) (map[string]any, attrs.Issues, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("input: read: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil, nil
	}
	if opt.Format == YAML {
		out, err := decodeYAML(data)
		return out, nil, err
	}

	dups, err := DuplicateKeys(data, opt.MaxIssues)
	if err != nil {
		return nil, nil, fmt.Errorf("input: %w", err)
	}
	if opt.Strict && len(dups) > 0 {
		return nil, dups, dups
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, dups, fmt.Errorf("input: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, dups, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

type frame struct {
	object       bool
	path         string
	keys         map[string]struct{}
	expectingKey bool
	key          string
	index        int
}

// DuplicateKeys walks a JSON document and reports every object key that
// repeats within its object. Paths use the attrs issue form, e.g.
// "people[1].name". max > 0 stops after that many issues.
func DuplicateKeys(data []byte, max int) (attrs.Issues, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var (
		iss   attrs.Issues
		stack []frame
	)
	// valuePath is the path of the value about to be read.
	valuePath := func() string {
		if len(stack) == 0 {
			return ""
		}
		top := &stack[len(stack)-1]
		if top.object {
			return join(top.path, top.key)
		}
		return top.path + "[" + strconv.Itoa(top.index) + "]"
	}
	consumed := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		if top.object {
			top.expectingKey = true
		} else {
			top.index++
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return iss, nil
		}
		if err != nil {
			return iss, err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, frame{object: true, path: valuePath(), keys: map[string]struct{}{}, expectingKey: true})
			case '[':
				stack = append(stack, frame{path: valuePath()})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				consumed()
			}
		case string:
			if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].expectingKey {
				top := &stack[n-1]
				if _, dup := top.keys[v]; dup {
					iss = attrs.AppendIssues(iss, attrs.Issue{
						Path:    join(top.path, v),
						Code:    CodeDuplicateKey,
						Message: i18n.T(CodeDuplicateKey, map[string]string{"key": v}),
						Params:  map[string]any{"key": v},
					})
					if max > 0 && len(iss) >= max {
						return iss, nil
					}
				}
				top.keys[v] = struct{}{}
				top.key = v
				top.expectingKey = false
				continue
			}
			consumed()
		default:
			consumed()
		}
	}
}

func join(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
