package tools

import (
	"context"
	"fmt"
	"sort"

	"nutricoach"
)

// SummaryBuilder produces the daily summary of a user.
type SummaryBuilder interface {
	BuildSummary(ctx context.Context, userID uint, date nutricoach.Date) (nutricoach.DailySummary, error)
}

// RecordLister lists a user's records newest first.
type RecordLister interface {
	ListRecords(ctx context.Context, userID uint, offset, limit int) ([]nutricoach.DailyRecord, error)
}

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry holding every nutrition tool.
func NewRegistry(summaries SummaryBuilder, records RecordLister) *Registry {
	all := []Tool{
		NewDailySummaryGet(summaries),
		NewDailyRecordsList(records),
	}

	registry := Registry{}
	for _, t := range all {
		registry[t.Name()] = t
	}
	return &registry
}

// GetTools returns all tools in the registry sorted by name.
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}

// Execute runs the tool named by call.
func (r Registry) Execute(ctx context.Context, call Call) (map[string]any, error) {
	tool, err := r.GetTool(call.Name)
	if err != nil {
		return nil, err
	}
	if call.Input == nil {
		call.Input = map[string]any{}
	}
	return tool.Run(ctx, call.Input)
}
