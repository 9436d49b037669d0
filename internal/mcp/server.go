package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/doc-intake/internal/config"
	"github.com/a3tai/doc-intake/internal/descriptions"
	"github.com/a3tai/doc-intake/internal/fsaccess"
	"github.com/a3tai/doc-intake/internal/intake"
	"github.com/a3tai/doc-intake/internal/verify"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	controller *intake.Controller
	loader     *fsaccess.Loader
	verifier   *verify.Verifier
	mcpServer  *server.MCPServer
	logger     *log.Logger
}

// NewServer creates a new MCP server instance around a running intake controller
func NewServer(cfg *config.Config, controller *intake.Controller, loader *fsaccess.Loader,
	verifier *verify.Verifier, logger *log.Logger,
) (*Server, error) {
	if controller == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	if loader == nil {
		return nil, fmt.Errorf("loader cannot be nil")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier cannot be nil")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		controller: controller,
		loader:     loader,
		verifier:   verifier,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	describe := func(name string) mcp.ToolOption {
		return mcp.WithDescription(descriptions.GetToolDescription(name))
	}

	// Session tools
	s.mcpServer.AddTool(mcp.NewTool("intake_info", describe("intake_info")), s.handleInfo)
	s.mcpServer.AddTool(mcp.NewTool("intake_state", describe("intake_state")), s.handleState)
	s.mcpServer.AddTool(mcp.NewTool("intake_options", describe("intake_options")), s.handleOptions)

	// Requirement tools
	s.mcpServer.AddTool(mcp.NewTool(
		"intake_select_requirement",
		describe("intake_select_requirement"),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Option key, e.g. payslip"),
		),
	), s.handleSelectRequirement)

	s.mcpServer.AddTool(mcp.NewTool(
		"intake_set_employment_status",
		describe("intake_set_employment_status"),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("Employment status, e.g. Employed - Private"),
		),
	), s.handleSetEmploymentStatus)

	// File tools
	s.mcpServer.AddTool(mcp.NewTool(
		"intake_add_files",
		describe("intake_add_files"),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("File paths, relative to the upload directory or absolute inside it"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.handleAddFiles)

	s.mcpServer.AddTool(mcp.NewTool(
		"intake_remove_file",
		describe("intake_remove_file"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the uploaded file"),
		),
	), s.handleRemoveFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"intake_set_password",
		describe("intake_set_password"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the encrypted PDF"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Password that opens the PDF"),
		),
	), s.handleSetPassword)

	// Verification tools
	s.mcpServer.AddTool(mcp.NewTool(
		"intake_apply_results",
		describe("intake_apply_results"),
		mcp.WithString("results",
			mcp.Required(),
			mcp.Description(`JSON array of {"ordinal"?, "code", "message"} objects`),
		),
	), s.handleApplyResults)

	s.mcpServer.AddTool(mcp.NewTool("intake_verify", describe("intake_verify")), s.handleVerify)
	s.mcpServer.AddTool(mcp.NewTool("intake_submission", describe("intake_submission")), s.handleSubmission)
}

// Handler functions
func (s *Server) handleInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.controller.State(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	available, err := s.loader.List(s.config.AllowedTypes)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Session summary
	text := fmt.Sprintf("%s v%s - Document Intake\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Upload directory: %s\n", s.loader.Directory())
	text += fmt.Sprintf("Accepted: %s\n", st.FileTypeInfo)
	text += fmt.Sprintf("Slots: %d of %d used\n", st.SlotCount, st.MaxSlots)
	text += fmt.Sprintf("Verifier backend: %s\n", s.verifier.Backend().Type())

	// Directory contents
	if len(available) > 0 {
		text += fmt.Sprintf("\nFiles available (%d):\n", len(available))
		for i, name := range available {
			if i >= 20 {
				text += fmt.Sprintf("   ... and %d more files\n", len(available)-20)
				break
			}
			// flag PDFs that will need a password; unreadable files are listed plainly
			if encrypted, err := s.loader.Encrypted(name); err == nil && encrypted {
				text += fmt.Sprintf("   %d. %s (password protected)\n", i+1, name)
				continue
			}
			text += fmt.Sprintf("   %d. %s\n", i+1, name)
		}
	} else {
		text += "\nFiles available: none in upload directory\n"
	}

	// Available tools
	text += "\nTools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		text += fmt.Sprintf("  • %s\n", name)
	}

	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.stateResult(ctx, "")
}

func (s *Server) handleOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := s.controller.Options(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(table) == 0 {
		return mcp.NewToolResultText("No document types configured"), nil
	}

	text := fmt.Sprintf("Document types (%d):\n", len(table))
	for i, o := range table {
		text += fmt.Sprintf("%d. %s - %s (up to %d file(s))\n", i+1, o.Key, o.Label, o.Limit)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSelectRequirement(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req, err := s.controller.SelectRequirement(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.stateResult(ctx, fmt.Sprintf("Selected %s (up to %d file(s))", req.Label, req.SlotLimit))
}

func (s *Server) handleSetEmploymentStatus(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	status, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.controller.SetEmploymentStatus(ctx, status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.handleOptions(ctx, request)
}

func (s *Server) handleAddFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths, err := stringList(request.GetArguments()["paths"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files, err := s.loader.LoadAll(paths)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// A rejected selection reports its single validation message
	batch, err := s.controller.SelectFiles(ctx, files)
	if err != nil {
		return mcp.NewToolResultError(intake.UserMessage(err)), nil
	}

	// Wait for normalization and the encryption scan before reporting state
	var note string
	if err := batch.Wait(ctx); err != nil {
		s.logger.Printf("add files: %v", err)
		note = "Some files could not be added:\n" + userMessages(err)
	} else {
		note = fmt.Sprintf("Added %d file(s)", len(batch.Files()))
	}
	return s.stateResult(ctx, note)
}

func (s *Server) handleRemoveFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.RemoveFile(ctx, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.stateResult(ctx, fmt.Sprintf("Removed %s", name))
}

func (s *Server) handleSetPassword(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	password, err := request.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.SetPassword(ctx, name, password); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.stateResult(ctx, fmt.Sprintf("Password set for %s", name))
}

func (s *Server) handleApplyResults(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	raw, err := request.RequireString("results")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var results []intake.ValidationResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid results: %v", err)), nil
	}

	if err := s.controller.ApplyResults(ctx, results); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.stateResult(ctx, fmt.Sprintf("Applied %d result(s)", len(results)))
}

func (s *Server) handleVerify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slots, err := s.controller.Slots(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(slots) == 0 {
		return mcp.NewToolResultError("no files to verify"), nil
	}

	results, err := s.verifier.Verify(ctx, verify.DocumentsFromSlots(slots))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Local results replace any earlier set, exactly like service results
	if err := s.controller.ApplyResults(ctx, results); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.stateResult(ctx, fmt.Sprintf("Verified %d file(s), %d problem(s) found", len(slots), len(results)))
}

func (s *Server) handleSubmission(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	ok, err := s.controller.Submittable(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("form is not submittable; check intake_state"), nil
	}

	// Build the payload before marking, so it reflects what was handed over
	sub, err := s.controller.Submission(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.controller.MarkSubmitted(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) stateResult(ctx context.Context, note string) (*mcp.CallToolResult, error) {
	st, err := s.controller.State(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := formatState(st)
	if note != "" {
		text = note + "\n\n" + text
	}
	return mcp.NewToolResultText(text), nil
}

// Formatting methods
func formatState(st intake.AggregateState) string {
	var b strings.Builder

	if st.HeaderText != "" {
		fmt.Fprintf(&b, "Requirement: %s (%s)\n", st.HeaderText, st.Requirement)
	}
	if st.Endpoint != "" {
		fmt.Fprintf(&b, "Endpoint: %s\n", st.Endpoint)
	}
	fmt.Fprintf(&b, "Accepted: %s\n", st.FileTypeInfo)
	fmt.Fprintf(&b, "Files: %d of %d\n", st.SlotCount, st.MaxSlots)

	for _, v := range st.Slots {
		fmt.Fprintf(&b, "  %d. %s (%s, %s) [%s]", v.Ordinal, v.Name, v.MimeType, v.DisplaySize, v.Status.Status)
		if v.IsEncrypted {
			if v.HasPassword {
				b.WriteString(" encrypted, password set")
			} else {
				b.WriteString(" encrypted, password required")
			}
		}
		if v.Status.Message != "" {
			fmt.Fprintf(&b, " - %s", v.Status.Message)
		}
		b.WriteString("\n")
	}

	if st.Warning != "" {
		fmt.Fprintf(&b, "Warning: %s\n", st.Warning)
	}
	fmt.Fprintf(&b, "Submittable: %t\n", st.Submittable)
	return b.String()
}

func userMessages(err error) string {
	var lines []string
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			lines = append(lines, "  - "+intake.UserMessage(e))
		}
	} else {
		lines = append(lines, "  - "+intake.UserMessage(err))
	}
	return strings.Join(lines, "\n")
}

// stringList accepts a JSON array of strings or a single comma separated string
func stringList(v any) ([]string, error) {
	var out []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("paths must be strings")
			}
			out = append(out, str)
		}
	case []string:
		out = val
	case string:
		for _, p := range strings.Split(val, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	default:
		return nil, fmt.Errorf("required argument \"paths\" not found")
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("required argument \"paths\" is empty")
	}
	return out, nil
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Printf("Starting document intake MCP server in stdio mode")
	s.logger.Printf("Upload directory: %s", s.loader.Directory())

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// mcp-go only serves this tool set over stdio here
	s.logger.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	s.logger.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
