// Package analyzer finds structural problems in recette documents.
package analyzer

import (
	"strings"
	"unicode/utf8"

	"go.lsp.dev/protocol"
)

const (
	_lineSeparator     = "\n"
	_titleMarker       = '#'
	_errDuplicateTitle = "title already defined"
)

// Title is the first heading of a document.
type Title struct {
	// Range covers the heading marker.
	Range protocol.Range
	// Value is the heading text following the marker, untrimmed.
	Value string
}

// Result of a single analysis pass.
type Result struct {
	Title       *Title
	Diagnostics []protocol.Diagnostic
}

// Analyze scans text line by line. The first line starting with '#' defines the title and
// every later one is reported as an error. Analyze never fails.
func Analyze(text string) Result {
	result := Result{Diagnostics: []protocol.Diagnostic{}}

	for i, line := range strings.Split(text, _lineSeparator) {
		if line == "" {
			continue
		}

		marker, size := utf8.DecodeRuneInString(line)
		if marker != _titleMarker {
			continue
		}

		markerRange := lineStartRange(uint32(i))
		if result.Title != nil {
			result.Diagnostics = append(result.Diagnostics, protocol.Diagnostic{
				Range:    markerRange,
				Severity: protocol.DiagnosticSeverityError,
				Message:  _errDuplicateTitle,
			})
			continue
		}

		result.Title = &Title{
			Range: markerRange,
			Value: line[size:],
		}
	}

	return result
}

func lineStartRange(line uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: 0},
		End:   protocol.Position{Line: line, Character: 1},
	}
}
