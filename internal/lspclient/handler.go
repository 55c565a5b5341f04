package lspclient

import (
	"context"
	"encoding/json"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// handleIncoming answers requests and notifications the peer sends back to
// the bridge. The bridge auto-approves workspace/applyEdit and returns
// empty/default answers for configuration and registration requests, since
// it has no user-facing editor surface to defer to (spec.md §4.1).
func (c *Client) handleIncoming(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case "textDocument/publishDiagnostics":
		var params protocol.PublishDiagnosticsParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			c.logger.Warnw("malformed publishDiagnostics", "error", err)
			return nil
		}
		c.handlePublishDiagnostics(&params)
		return nil

	case "workspace/applyEdit":
		return reply(ctx, &protocol.ApplyWorkspaceEditResult{Applied: true}, nil)

	case "workspace/configuration":
		var params struct {
			Items []json.RawMessage `json:"items"`
		}
		_ = json.Unmarshal(req.Params(), &params)
		return reply(ctx, make([]map[string]any, len(params.Items)), nil)

	case "client/registerCapability":
		var params protocol.RegistrationParams
		if err := json.Unmarshal(req.Params(), &params); err == nil {
			for _, reg := range params.Registrations {
				c.logger.Debugw("capability registered", "method", reg.Method)
			}
		}
		return reply(ctx, nil, nil)

	case "client/unregisterCapability":
		return reply(ctx, nil, nil)

	case "window/showMessage":
		var msg struct {
			Type    int    `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(req.Params(), &msg); err == nil {
			c.logger.Infow("peer message", "type", msg.Type, "message", msg.Message)
		}
		return nil

	case "window/showMessageRequest":
		return reply(ctx, nil, nil)

	case "window/logMessage":
		var msg struct {
			Type    int    `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(req.Params(), &msg); err == nil {
			c.logger.Debugw("peer log", "type", msg.Type, "message", msg.Message)
		}
		return nil

	case "window/workDoneProgress/create":
		return reply(ctx, nil, nil)

	case "$/progress":
		return nil

	default:
		c.logger.Debugw("unhandled peer method", "method", req.Method())
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}
}
