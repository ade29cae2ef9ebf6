package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mikeboe/osint-investigator/pkg/osint"
	"github.com/mikeboe/osint-investigator/pkg/progress"
)

const (
	mcpSessionHeader   = "Mcp-Session-Id"
	mcpProtocolVersion = "2024-11-05"
	jsonRPCVersion     = "2.0"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
	codeSession        = -32000
)

// MCPRequest is a JSON-RPC request sent to /mcp.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse is the JSON-RPC envelope returned from /mcp.
type MCPResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *MCPError `json:"error,omitempty"`
}

type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type mcpTool struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema toolSchema `json:"inputSchema"`
	call        func(h *Handler, args json.RawMessage) (any, *MCPError)
}

type toolSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]toolSchemaProp `json:"properties"`
	Required   []string                  `json:"required"`
}

type toolSchemaProp struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var mcpTools = []mcpTool{
	{
		Name:        "start_osint_search",
		Description: "Start a background OSINT search about a named person.",
		InputSchema: toolSchema{
			Type: "object",
			Properties: map[string]toolSchemaProp{
				"name":       {"string", "Full name of the person."},
				"city":       {"string", "City or region to narrow the search."},
				"extraTerms": {"string", "Comma separated additional keywords."},
			},
			Required: []string{"name"},
		},
		call: (*Handler).toolStartSearch,
	},
	{
		Name:        "get_search_progress",
		Description: "Get the progress, and the report once completed, of a search.",
		InputSchema: toolSchema{
			Type: "object",
			Properties: map[string]toolSchemaProp{
				"searchId": {"string", "The id returned by start_osint_search."},
			},
			Required: []string{"searchId"},
		},
		call: (*Handler).toolGetProgress,
	},
}

// mcp serves the JSON-RPC tool surface. Every method except initialize
// requires a session id issued by initialize.
func (h *Handler) mcp(c *gin.Context) {
	var req MCPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rpcError(c, http.StatusBadRequest, nil, codeParseError, "Parse error")
		return
	}

	sessionID := c.GetHeader(mcpSessionHeader)
	if req.Method == "initialize" {
		if sessionID == "" {
			sessionID = h.openSession()
			c.Header(mcpSessionHeader, sessionID)
		}
		rpcResult(c, req.ID, gin.H{
			"protocolVersion": mcpProtocolVersion,
			"serverInfo":      gin.H{"name": "osint-investigator-mcp", "version": "1.0.0"},
			"capabilities":    gin.H{"tools": gin.H{}},
		})
		return
	}

	if sessionID == "" {
		rpcError(c, http.StatusBadRequest, req.ID, codeSession, "Bad Request: No valid session ID provided")
		return
	}
	if !h.hasSession(sessionID) {
		rpcError(c, http.StatusBadRequest, req.ID, codeSession, "Invalid session ID")
		return
	}

	switch req.Method {
	case "tools/list":
		rpcResult(c, req.ID, gin.H{"tools": mcpTools})
	case "tools/call":
		h.callTool(c, req)
	case "ping":
		rpcResult(c, req.ID, gin.H{})
	default:
		rpcError(c, http.StatusOK, req.ID, codeMethodNotFound, "Method not found")
	}
}

func (h *Handler) openSession() string {
	id := uuid.NewString()
	h.sessionMu.Lock()
	h.mcpSessions[id] = time.Now()
	h.sessionMu.Unlock()
	return id
}

func (h *Handler) hasSession(id string) bool {
	h.sessionMu.RLock()
	defer h.sessionMu.RUnlock()
	_, ok := h.mcpSessions[id]
	return ok
}

func (h *Handler) callTool(c *gin.Context, req MCPRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		rpcError(c, http.StatusOK, req.ID, codeInvalidParams, "Invalid params")
		return
	}

	for _, tool := range mcpTools {
		if tool.Name != params.Name {
			continue
		}
		out, rpcErr := tool.call(h, params.Arguments)
		if rpcErr != nil {
			rpcError(c, http.StatusOK, req.ID, rpcErr.Code, rpcErr.Message)
			return
		}
		text, err := json.Marshal(out)
		if err != nil {
			rpcError(c, http.StatusOK, req.ID, codeInternal, err.Error())
			return
		}
		rpcResult(c, req.ID, gin.H{"content": []textContent{{Type: "text", Text: string(text)}}})
		return
	}
	rpcError(c, http.StatusOK, req.ID, codeMethodNotFound, fmt.Sprintf("Tool not found: %s", params.Name))
}

func (h *Handler) toolStartSearch(args json.RawMessage) (any, *MCPError) {
	var in StartSearchRequest
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, &MCPError{codeInvalidParams, "Invalid arguments"}
	}
	searchID, err := h.Service.StartSearch(in)
	if err != nil {
		code := codeInternal
		if errors.Is(err, osint.ErrInvalidRequest) {
			code = codeInvalidParams
		}
		return nil, &MCPError{code, err.Error()}
	}
	return gin.H{"searchId": searchID}, nil
}

func (h *Handler) toolGetProgress(args json.RawMessage) (any, *MCPError) {
	var in struct {
		SearchID string `json:"searchId"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, &MCPError{codeInvalidParams, "Invalid arguments"}
	}
	resp, err := h.Service.GetProgress(in.SearchID)
	if errors.Is(err, progress.ErrNotFound) {
		return nil, &MCPError{codeInvalidParams, "Search ID not found. It may have expired."}
	}
	if err != nil {
		return nil, &MCPError{codeInternal, err.Error()}
	}
	return resp, nil
}

func rpcResult(c *gin.Context, id any, result any) {
	c.JSON(http.StatusOK, MCPResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func rpcError(c *gin.Context, status int, id any, code int, msg string) {
	c.JSON(status, MCPResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &MCPError{Code: code, Message: msg}})
}
