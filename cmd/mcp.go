package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"gober/internal/knowledge"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing document retrieval tools",
	Long: `Starts a stdio MCP server with the retrieval tools the conversational
agent consumes: semantic search over the official documents, a low-latency
context lookup for live turns, and corpus statistics.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	s := mcpserver.NewMCPServer("gober", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchDocumentsTool(), makeSearchHandler(svc))
	s.AddTool(getContextTool(), makeContextHandler(svc))
	s.AddTool(getStatsTool(), makeStatsHandler(svc))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Semantically search the official development plan documents. Returns ranked chunks with source citations (filename plus page or sheet) and relevance percentages."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query, typically in Spanish"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of chunks to return (default 5)"),
		),
		mcp.WithString("document_type",
			mcp.Description("Optional filter: informe_gestion, informe_ejecutivo, tablero_control, datos_complementarios or documento_general"),
		),
	)
}

func getContextTool() mcp.Tool {
	return mcp.NewTool("get_document_context",
		mcp.WithDescription("Low-latency context lookup for a live conversation turn. Returns FUENTE-cited raw text, or an empty result when nothing matches — in that case say you don't have the figure instead of guessing."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The citizen's question"),
		),
	)
}

func getStatsTool() mcp.Tool {
	return mcp.NewTool("get_document_stats",
		mcp.WithDescription("Statistics about the indexed corpus: chunk totals, document types and source files."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(svc *knowledge.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", 5)
		if k <= 0 {
			k = 5
		}
		docType := req.GetString("document_type", "")

		results, err := svc.SearchDocuments(ctx, query, k, docType)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(knowledge.FormatDigest(query, results)), nil
	}
}

func makeContextHandler(svc *knowledge.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		text, err := svc.ContextForQuery(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("context lookup failed: %v", err)), nil
		}
		if text == "" {
			return mcp.NewToolResultText("No se encontró información en los documentos oficiales para esta consulta."), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func makeStatsHandler(svc *knowledge.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := svc.Stats()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Corpus (%d chunks, %d sources)\n\n", stats.TotalChunks, stats.UniqueSources)

		types := make([]string, 0, len(stats.DocumentTypes))
		for t := range stats.DocumentTypes {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(&sb, "- **%s**: %d chunks\n", t, stats.DocumentTypes[t])
		}

		if len(stats.Sources) > 0 {
			sb.WriteString("\nSources:\n")
			for _, src := range stats.Sources {
				fmt.Fprintf(&sb, "- %s\n", src)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
