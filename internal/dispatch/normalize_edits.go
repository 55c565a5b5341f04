package dispatch

import (
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/wiredcode/lsp-mcp-bridge/internal/langutil"
)

// textEditResult is one edit within a normalized workspace edit's changes.
type textEditResult struct {
	Range   externalRange `json:"range"`
	NewText string        `json:"newText"`
}

// workspaceEditResult is the {changes: {relativePath: [...]}} shape spec.md
// §4.3 requires regardless of whether the peer answered with a `changes`
// map or a `documentChanges` array.
type workspaceEditResult struct {
	Changes map[string][]textEditResult `json:"changes"`
}

// NormalizeWorkspaceEdit accepts either the `changes` map or the
// `documentChanges` array on input, preferring `documentChanges` when both
// are present, and returns the unified {changes} shape in 1-based
// coordinates relative to root.
func NormalizeWorkspaceEdit(root string, raw json.RawMessage) (*workspaceEditResult, error) {
	if isJSONNull(raw) {
		return nil, nil
	}

	var wire struct {
		Changes         map[string][]struct {
			Range   fullRawRange `json:"range"`
			NewText string       `json:"newText"`
		} `json:"changes"`
		DocumentChanges []json.RawMessage `json:"documentChanges"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode workspace edit: %w", err)
	}

	result := &workspaceEditResult{Changes: map[string][]textEditResult{}}

	if len(wire.DocumentChanges) > 0 {
		for _, entry := range wire.DocumentChanges {
			var docEdit struct {
				TextDocument struct {
					URI string `json:"uri"`
				} `json:"textDocument"`
				Edits []struct {
					Range   fullRawRange `json:"range"`
					NewText string       `json:"newText"`
				} `json:"edits"`
			}
			if err := json.Unmarshal(entry, &docEdit); err != nil {
				// Resource operations (create/rename/delete) carry no
				// textDocument/edits pair; skip rather than fail the call.
				continue
			}
			if docEdit.TextDocument.URI == "" {
				continue
			}
			relPath := langutil.ToRelative(root, langutil.URIToPath(docEdit.TextDocument.URI))
			for _, e := range docEdit.Edits {
				result.Changes[relPath] = append(result.Changes[relPath], textEditResult{
					Range:   normalizeFullRange(e.Range),
					NewText: e.NewText,
				})
			}
		}
		return result, nil
	}

	for uri, edits := range wire.Changes {
		relPath := langutil.ToRelative(root, langutil.URIToPath(uri))
		for _, e := range edits {
			result.Changes[relPath] = append(result.Changes[relPath], textEditResult{
				Range:   normalizeFullRange(e.Range),
				NewText: e.NewText,
			})
		}
	}
	return result, nil
}

// --- code actions ---

type codeActionResult struct {
	Title       string               `json:"title"`
	Command     string               `json:"command,omitempty"`
	Kind        string               `json:"kind,omitempty"`
	IsPreferred bool                 `json:"isPreferred,omitempty"`
	Edit        *workspaceEditResult `json:"edit,omitempty"`
	Diagnostics []diagnosticResult   `json:"diagnostics,omitempty"`
}

// NormalizeCodeActions distinguishes Command entries (title, command) from
// CodeAction entries (title, kind?, isPreferred?, edit?, diagnostics?) by
// the presence of the "edit"/"kind"/"diagnostics" fields.
func NormalizeCodeActions(root string, raw json.RawMessage) ([]codeActionResult, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode code actions: %w", err)
	}

	out := make([]codeActionResult, 0, len(items))
	for _, item := range items {
		var generic map[string]json.RawMessage
		if err := json.Unmarshal(item, &generic); err != nil {
			return nil, fmt.Errorf("decode code action: %w", err)
		}

		var title string
		_ = json.Unmarshal(generic["title"], &title)

		_, hasEdit := generic["edit"]
		_, hasKind := generic["kind"]
		_, hasDiagnostics := generic["diagnostics"]

		if !hasEdit && !hasKind && !hasDiagnostics {
			var cmd struct {
				Command string `json:"command"`
			}
			_ = json.Unmarshal(item, &cmd)
			out = append(out, codeActionResult{Title: title, Command: cmd.Command})
			continue
		}

		action := codeActionResult{Title: title}
		if kindRaw, ok := generic["kind"]; ok {
			_ = json.Unmarshal(kindRaw, &action.Kind)
		}
		if prefRaw, ok := generic["isPreferred"]; ok {
			_ = json.Unmarshal(prefRaw, &action.IsPreferred)
		}
		if editRaw, ok := generic["edit"]; ok {
			edit, err := NormalizeWorkspaceEdit(root, editRaw)
			if err != nil {
				return nil, err
			}
			action.Edit = edit
		}
		if diagsRaw, ok := generic["diagnostics"]; ok {
			diags, err := normalizeRawDiagnostics(diagsRaw)
			if err != nil {
				return nil, err
			}
			action.Diagnostics = diags
		}
		out = append(out, action)
	}
	return out, nil
}

// --- prepare rename ---

type prepareRenameResult struct {
	CanRename   bool           `json:"canRename"`
	Placeholder string         `json:"placeholder,omitempty"`
	Range       *externalRange `json:"range,omitempty"`
}

// NormalizePrepareRename handles all three reply shapes: a bare Range, a
// {range, placeholder} object, a {defaultBehavior} object, or null.
func NormalizePrepareRename(raw json.RawMessage) (prepareRenameResult, error) {
	if isJSONNull(raw) {
		return prepareRenameResult{CanRename: false}, nil
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return prepareRenameResult{}, fmt.Errorf("decode prepareRename: %w", err)
	}

	if _, ok := generic["defaultBehavior"]; ok {
		return prepareRenameResult{CanRename: true}, nil
	}

	if _, ok := generic["start"]; ok {
		var rng fullRawRange
		if err := json.Unmarshal(raw, &rng); err != nil {
			return prepareRenameResult{}, fmt.Errorf("decode prepareRename range: %w", err)
		}
		normalized := normalizeFullRange(rng)
		return prepareRenameResult{CanRename: true, Range: &normalized}, nil
	}

	var withPlaceholder struct {
		Range       fullRawRange `json:"range"`
		Placeholder string       `json:"placeholder"`
	}
	if err := json.Unmarshal(raw, &withPlaceholder); err != nil {
		return prepareRenameResult{}, fmt.Errorf("decode prepareRename placeholder form: %w", err)
	}
	normalized := normalizeFullRange(withPlaceholder.Range)
	return prepareRenameResult{CanRename: true, Range: &normalized, Placeholder: withPlaceholder.Placeholder}, nil
}

// --- diagnostics ---

type diagnosticResult struct {
	Message  string        `json:"message"`
	Severity string        `json:"severity,omitempty"`
	Range    externalRange `json:"range"`
	Source   string        `json:"source,omitempty"`
	Code     string        `json:"code,omitempty"`
}

var diagnosticSeverityNames = map[int]string{1: "Error", 2: "Warning", 3: "Information", 4: "Hint"}

func normalizeRawDiagnostics(raw json.RawMessage) ([]diagnosticResult, error) {
	var items []struct {
		Message  string          `json:"message"`
		Severity int             `json:"severity"`
		Range    fullRawRange    `json:"range"`
		Source   string          `json:"source"`
		Code     json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode diagnostics: %w", err)
	}
	out := make([]diagnosticResult, 0, len(items))
	for _, d := range items {
		result := diagnosticResult{
			Message: d.Message,
			Range:   normalizeFullRange(d.Range),
			Source:  d.Source,
		}
		if name, ok := diagnosticSeverityNames[d.Severity]; ok {
			result.Severity = name
		}
		if len(d.Code) > 0 {
			var asString string
			if json.Unmarshal(d.Code, &asString) == nil {
				result.Code = asString
			} else {
				result.Code = string(d.Code)
			}
		}
		out = append(out, result)
	}
	return out, nil
}

// NormalizeDiagnostics converts already-typed protocol.Diagnostic values
// (as held in the client's cache) into the same wire shape
// normalizeRawDiagnostics produces for diagnostics embedded in code actions.
func NormalizeDiagnostics(diags []protocol.Diagnostic) []diagnosticResult {
	out := make([]diagnosticResult, 0, len(diags))
	for _, d := range diags {
		result := diagnosticResult{
			Message: d.Message,
			Source:  d.Source,
			Range: externalRange{
				Start: externalPosition{},
				End:   externalPosition{},
			},
		}
		result.Range.Start.Line, result.Range.Start.Col = toExternal(d.Range.Start.Line, d.Range.Start.Character)
		result.Range.End.Line, result.Range.End.Col = toExternal(d.Range.End.Line, d.Range.End.Character)
		if name, ok := diagnosticSeverityNames[int(d.Severity)]; ok {
			result.Severity = name
		}
		if d.Code != nil {
			if s, ok := any(d.Code).(string); ok {
				result.Code = s
			} else if b, err := json.Marshal(d.Code); err == nil {
				result.Code = string(b)
			}
		}
		out = append(out, result)
	}
	return out
}
