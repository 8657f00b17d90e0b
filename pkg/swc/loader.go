package swc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// fieldsPerRecord is the fixed field count of a point-tree line:
// id type x y z radius parent_id.
const fieldsPerRecord = 7

// Read parses point-tree records from r into a [Graph].
//
// Empty lines are skipped. Lines starting with '#' are treated as header
// lines; a header of the form "# KEY value..." is recorded as metadata when
// KEY is on the SWC allow-list, and ignored otherwise. Every other line must
// be a seven-field record.
//
// Read returns ErrMalformedRecord for lines with the wrong field count or
// non-numeric fields, ErrDuplicateNode for repeated ids, and
// ErrDanglingParent when a parent reference does not resolve. Errors are
// annotated with the 1-based line number of the offending record.
func Read(r io.Reader) (*Graph, error) {
	g := NewGraph()

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			key, value := parseHeader(line)
			if key != "" {
				g.AddMetadata(key, value)
			}
			continue
		}

		node, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := g.AddNode(node); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if err := g.ResolveParents(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadFile reads the point-tree file at path. The path is recorded as
// ORIGINAL_SOURCE metadata unless the file header already declared one.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, ok := g.metadata["ORIGINAL_SOURCE"]; !ok {
		g.AddMetadata("ORIGINAL_SOURCE", path)
	}
	return g, nil
}

// parseHeader splits a '#' comment line into a key and value.
// Returns an empty key for plain comments without a field name.
func parseHeader(line string) (key, value string) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
	if line == "" {
		return "", ""
	}
	parts := strings.SplitN(line, " ", 2)
	key = parts[0]
	if len(parts) == 2 {
		value = strings.TrimSpace(parts[1])
	}
	return key, value
}

// parseRecord parses one seven-field record line into a Node.
// The attachment fraction defaults to 1.0: the format cannot express partial
// attachment, so every link is taken to attach at the parent's distal end.
func parseRecord(line string) (*Node, error) {
	fields := strings.Fields(line)
	if len(fields) != fieldsPerRecord {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedRecord, len(fields), fieldsPerRecord)
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", ErrMalformedRecord, fields[0])
	}
	if id < 0 {
		return nil, fmt.Errorf("%w: negative id %d", ErrMalformedRecord, id)
	}
	typ, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: type %q", ErrMalformedRecord, fields[1])
	}

	var coords [4]float64 // x, y, z, radius
	for i, name := range [...]string{"x", "y", "z", "radius"} {
		v, err := strconv.ParseFloat(fields[2+i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q", ErrMalformedRecord, name, fields[2+i])
		}
		coords[i] = v
	}
	if coords[3] < 0 {
		return nil, fmt.Errorf("%w: negative radius %g", ErrMalformedRecord, coords[3])
	}

	parent, err := strconv.Atoi(fields[6])
	if err != nil {
		return nil, fmt.Errorf("%w: parent id %q", ErrMalformedRecord, fields[6])
	}

	return &Node{
		ID:            id,
		Type:          typ,
		X:             coords[0],
		Y:             coords[1],
		Z:             coords[2],
		Radius:        coords[3],
		ParentID:      parent,
		FractionAlong: 1.0,
	}, nil
}
