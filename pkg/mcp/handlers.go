package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sriram-PR/guidegen/pkg/generate"
	"github.com/Sriram-PR/guidegen/pkg/guide"
	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// handleListGuides handles the list_guides tool
func (s *Server) handleListGuides(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfgCopy := *s.cfg.AppConfig
	cfgCopy.Only = request.GetString("only", cfgCopy.Only)

	targets, err := generate.NewOrchestrator(&cfgCopy, generate.Options{}, s.log).Targets()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list guides: %v", err)), nil
	}

	guides := make([]map[string]interface{}, 0, len(targets))
	for _, t := range targets {
		if t.Special {
			continue
		}
		info := map[string]interface{}{
			"source":   t.Source,
			"guide":    t.Guide,
			"slide":    t.Slide,
			"template": t.Template,
		}
		if !t.Template {
			if raw, err := os.ReadFile(t.SourcePath); err == nil {
				info["outline"] = guide.ExtractOutline(raw)
			}
		}
		if s.cfg.Store != nil {
			if status, entry, err := s.cfg.Store.CheckTarget(models.VariantGuide, t.Guide); err == nil && entry != nil {
				info["last_status"] = status.String()
				info["last_built"] = entry.BuiltAt.Format(time.RFC3339)
				if len(entry.BrokenLinks) > 0 {
					info["broken_links"] = entry.BrokenLinks
				}
			}
		}
		guides = append(guides, info)
	}

	result := map[string]interface{}{
		"guides":       guides,
		"source_dir":   cfgCopy.SourcePath(),
		"config_path":  s.cfg.ConfigPath,
		"total_guides": len(guides),
	}
	if s.jobManager.IsRunning(cfgCopy.Only) {
		result["build_running"] = true
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchGuides handles the search_guides tool
func (s *Server) handleSearchGuides(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	maxResults := request.GetInt("max_results", 10)
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	targets, err := s.previewer.Targets()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list guides: %v", err)), nil
	}

	results := make([]map[string]interface{}, 0)
	queryLower := strings.ToLower(query)
	for _, t := range targets {
		if len(results) >= maxResults {
			break
		}
		if t.Template {
			continue
		}
		raw, err := os.ReadFile(t.SourcePath)
		if err != nil {
			continue
		}
		content := string(raw)

		matchLocation := ""
		for _, h := range guide.ExtractOutline(raw) {
			if strings.Contains(strings.ToLower(h.Text), queryLower) {
				matchLocation = "headings"
				break
			}
		}
		if matchLocation == "" && strings.Contains(strings.ToLower(content), queryLower) {
			matchLocation = "content"
		}
		if matchLocation == "" {
			continue
		}
		results = append(results, map[string]interface{}{
			"source":         t.Source,
			"guide":          t.Guide,
			"snippet":        extractSnippet(content, query, 150),
			"match_location": matchLocation,
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_matches": len(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCheckLinks handles the check_links tool
func (s *Server) handleCheckLinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("guide", "")
	if name == "" {
		return mcp.NewToolResultError("guide parameter is required"), nil
	}

	preview, err := s.previewer.Preview(name)
	if err != nil {
		return mcp.NewToolResultError(previewError(name, err)), nil
	}

	broken := make([]map[string]interface{}, 0)
	var duplicates []string
	var other []string
	for _, d := range preview.Diagnostics {
		switch d.Kind {
		case models.DiagnosticBrokenLink:
			entry := map[string]interface{}{"fragment": "#" + d.Fragment}
			if d.Suggestion != "" {
				entry["suggestion"] = "#" + d.Suggestion
			}
			broken = append(broken, entry)
		case models.DiagnosticDuplicateAnchor:
			duplicates = append(duplicates, d.Fragment)
		default:
			other = append(other, d.Message)
		}
	}

	result := map[string]interface{}{
		"guide":        preview.Target.Source,
		"output":       preview.Target.Guide,
		"anchors":      len(preview.Document.Anchors()),
		"broken_links": broken,
		"total_broken": len(broken),
	}
	if len(duplicates) > 0 {
		result["duplicate_ids"] = duplicates
	}
	if len(other) > 0 {
		result["warnings"] = other
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetSection handles the get_section tool
func (s *Server) handleGetSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("guide", "")
	if name == "" {
		return mcp.NewToolResultError("guide parameter is required"), nil
	}
	ref := strings.TrimPrefix(request.GetString("section", ""), "#")
	if ref == "" {
		return mcp.NewToolResultError("section parameter is required"), nil
	}

	preview, err := s.previewer.Preview(name)
	if err != nil {
		return mcp.NewToolResultError(previewError(name, err)), nil
	}

	heading, ok := preview.Document.Section(ref)
	if !ok {
		available := make([]string, 0, len(preview.Document.Headings))
		for _, h := range preview.Document.Headings {
			available = append(available, h.NumberString()+" "+h.ID)
		}
		return mcp.NewToolResultError(fmt.Sprintf("section '%s' not found in %s. Available sections: %v", ref, preview.Target.Source, available)), nil
	}

	sectionHTML, err := heading.SectionHTML()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to extract section HTML: %v", err)), nil
	}
	converter := md.NewConverter("", true, nil)
	content, err := converter.ConvertString(sectionHTML)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to convert to markdown: %v", err)), nil
	}
	content = strings.TrimSpace(content)

	result := map[string]interface{}{
		"guide":          preview.Target.Source,
		"section":        heading.NumberString(),
		"id":             heading.ID,
		"title":          heading.Text,
		"content":        content,
		"content_length": len(content),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleBuildGuides handles the build_guides tool
func (s *Server) handleBuildGuides(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	only := strings.TrimSpace(request.GetString("only", ""))
	all := request.GetBool("all", false)

	job, created := s.jobManager.CreateJob(only, all)
	if !created {
		result := map[string]interface{}{
			"status":  "already_running",
			"message": "A build is already in progress for this scope",
			"job_id":  job.ID,
			"only":    only,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	go s.runBuildJob(job.ID, only, all)

	result := map[string]interface{}{
		"status":  "started",
		"message": "Build started successfully",
		"job_id":  job.ID,
		"only":    only,
		"all":     all,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":     job.ID,
		"only":       job.Scope,
		"all":        job.All,
		"status":     job.Status,
		"started_at": job.StartedAt.Format(time.RFC3339),
		"generated":  job.Generated,
		"failures":   job.Failures,
	}
	if job.BuildID != "" {
		result["build_id"] = job.BuildID
	}
	if len(job.Warnings) > 0 {
		result["warnings"] = job.Warnings
	}
	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}
	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// runBuildJob runs a generation job in the background
func (s *Server) runBuildJob(jobID, only string, all bool) {
	s.jobManager.UpdateStatus(jobID, JobStatusRunning, "")
	jobCtx := s.jobManager.GetContext(jobID)

	cfgCopy := *s.cfg.AppConfig
	cfgCopy.Only = only
	cfgCopy.All = all
	cfgCopy.Lint = false

	opts := generate.Options{}
	if s.cfg.Store != nil {
		opts.Store = s.cfg.Store
	}
	result, err := generate.NewOrchestrator(&cfgCopy, opts, s.log.WithField("job_id", jobID)).Run(jobCtx)
	if result != nil {
		s.jobManager.SetResult(jobID, result.BuildID, result.Generated(), len(result.Failures()), result.Warnings)
	}

	switch {
	case errors.Is(err, context.Canceled):
		s.jobManager.UpdateStatus(jobID, JobStatusCancelled, "")
	case err != nil:
		s.jobManager.UpdateStatus(jobID, JobStatusFailed, err.Error())
	case len(result.Failures()) > 0:
		s.jobManager.UpdateStatus(jobID, JobStatusFailed, fmt.Sprintf("%d targets failed to generate", len(result.Failures())))
	default:
		s.jobManager.UpdateStatus(jobID, JobStatusCompleted, "")
	}
}

// previewError turns a lookup or render error into a tool error message
func previewError(name string, err error) string {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return fmt.Sprintf("guide '%s' not found", name)
	case errors.Is(err, utils.ErrTemplateOnly):
		return fmt.Sprintf("'%s' is a template page, not a markdown guide", name)
	}
	return fmt.Sprintf("failed to render '%s': %v", name, err)
}

// extractSnippet extracts a snippet around the query match, slicing on rune
// boundaries so multi-byte UTF-8 characters are never split.
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	queryRunes := []rune(strings.ToLower(query))
	contentLowerRunes := []rune(strings.ToLower(content))

	idx := -1
	for i := 0; i <= len(contentLowerRunes)-len(queryRunes); i++ {
		if string(contentLowerRunes[i:i+len(queryRunes)]) == string(queryRunes) {
			idx = i
			break
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	start := idx - maxLen/2
	if start < 0 {
		start = 0
	}
	end := idx + len(queryRunes) + maxLen/2
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}
	return snippet
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
