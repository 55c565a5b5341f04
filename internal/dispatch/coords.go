// Package dispatch translates the fixed MCP tool catalog and per-peer
// protocol extensions into LSP requests and normalizes the polymorphic LSP
// replies back into stable JSON shapes, converting 1-based external
// coordinates to 0-based wire coordinates (and back) at this boundary only.
package dispatch

import "go.lsp.dev/protocol"

// toWire converts a 1-based external coordinate to the 0-based LSP wire
// coordinate.
func toWire(line, col int) (uint32, uint32) {
	return uint32(line - 1), uint32(col - 1)
}

// toExternal converts a 0-based wire coordinate back to 1-based.
func toExternal(line, col uint32) (int, int) {
	return int(line) + 1, int(col) + 1
}

func wirePosition(line, col int) protocol.Position {
	l, c := toWire(line, col)
	return protocol.Position{Line: l, Character: c}
}

// externalRange is the 1-based {start,end} range shape returned to callers.
type externalRange struct {
	Start externalPosition `json:"start"`
	End   externalPosition `json:"end"`
}

type externalPosition struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

func normalizeRange(r protocol.Range) externalRange {
	sl, sc := toExternal(r.Start.Line, r.Start.Character)
	el, ec := toExternal(r.End.Line, r.End.Character)
	return externalRange{
		Start: externalPosition{Line: sl, Col: sc},
		End:   externalPosition{Line: el, Col: ec},
	}
}
