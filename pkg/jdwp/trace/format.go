/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format '%s' (expected one of: text, json, yaml)", s)
	}
}

// RecordWriter renders records in one of the supported formats.
// JSON output has one record per line; YAML output has one document per record.
type RecordWriter struct {
	format Format
	w      io.Writer
	json   *json.Encoder
	yaml   *yaml.Encoder
}

func NewRecordWriter(w io.Writer, format Format) (*RecordWriter, error) {
	rw := &RecordWriter{format: format, w: w}
	switch format {
	case FormatText:
	case FormatJSON:
		rw.json = json.NewEncoder(w)
	case FormatYAML:
		rw.yaml = yaml.NewEncoder(w)
		rw.yaml.SetIndent(2)
	default:
		return nil, fmt.Errorf("unknown output format '%s'", format)
	}
	return rw, nil
}

func (rw *RecordWriter) Write(rec Record) error {
	switch rw.format {
	case FormatJSON:
		return rw.json.Encode(rec)
	case FormatYAML:
		doc, err := yamlDocument(rec)
		if err != nil {
			return err
		}
		return rw.yaml.Encode(doc)
	default:
		_, err := io.WriteString(rw.w, RenderText(rec))
		return err
	}
}

// Close flushes any buffered output.
func (rw *RecordWriter) Close() error {
	if rw.yaml != nil {
		return rw.yaml.Close()
	}
	return nil
}

// RenderText renders a record as one or more lines of human-readable text.
func RenderText(rec Record) string {
	var sb strings.Builder

	marker := ">"
	if rec.Direction == FromVM {
		marker = "<"
	}
	fmt.Fprintf(&sb, "#%d %s %s", rec.Seq, marker, rec.Kind)
	if rec.Name != "" {
		fmt.Fprintf(&sb, " %s", rec.Name)
	}
	fmt.Fprintf(&sb, " id=%d len=%d", rec.Header.ID, rec.Header.Length)
	if rec.RequestSeq != 0 {
		fmt.Fprintf(&sb, " (reply to #%d)", rec.RequestSeq)
	}
	sb.WriteString("\n")

	if rec.Message != nil {
		fmt.Fprintf(&sb, "    %+v\n", rec.Message)
	}
	if rec.Error != "" {
		fmt.Fprintf(&sb, "    error: %s\n", rec.Error)
	}
	return sb.String()
}

// yamlDocument converts a record to YAML through its JSON form. Messages embed
// unexported structs whose fields only the JSON encoder promotes.
func yamlDocument(rec Record) (*yaml.Node, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	clearStyle(&doc)
	return &doc, nil
}

// clearStyle switches a node parsed from JSON to block style.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		clearStyle(child)
	}
}
