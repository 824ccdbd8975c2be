package attribution

import (
	"context"
	"fmt"

	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

// Blame returns every attribution range covering [startLine, endLine]
// and a BlameSummary aggregating them, per spec.md §4.10. A single-line
// query is modelled as startLine == endLine. Overlapping ranges are
// resolved last-writer-wins by checkpoint creation order, the same rule
// ListAttributionsForRange's ordering is built to support.
func Blame(ctx context.Context, store *sqlite.Store, filePath string, startLine, endLine int) ([]*types.Attribution, *types.BlameSummary, error) {
	ranges, err := store.ListAttributionsForRange(ctx, filePath, startLine, endLine)
	if err != nil {
		return nil, nil, fmt.Errorf("list attributions: %w", err)
	}

	resolved := make(map[int]*types.Attribution, endLine-startLine+1)
	for _, a := range ranges {
		lo, hi := a.StartLine, a.EndLine
		if lo < startLine {
			lo = startLine
		}
		if hi > endLine {
			hi = endLine
		}
		for line := lo; line <= hi; line++ {
			resolved[line] = a // later entries in `ranges` overwrite earlier ones
		}
	}

	summary := &types.BlameSummary{
		TotalLines: endLine - startLine + 1,
		Agents:     map[string]int{},
	}
	agentNames := make(map[string]string) // agent_id -> display name, cached across lines

	for line := startLine; line <= endLine; line++ {
		a, ok := resolved[line]
		if !ok {
			continue
		}
		switch a.Kind {
		case types.AttributionHuman:
			summary.HumanLines++
		case types.AttributionAgent:
			summary.AgentLines++
			name, ok := agentNames[a.AgentID]
			if !ok {
				name = a.AgentID
				if agent, err := store.GetAgent(ctx, a.AgentID); err == nil && agent != nil {
					name = agent.DisplayName
				}
				agentNames[a.AgentID] = name
			}
			summary.Agents[name]++
		}
	}

	if summary.TotalLines > 0 {
		summary.HumanPct = float64(summary.HumanLines) / float64(summary.TotalLines) * 100
		summary.AgentPct = float64(summary.AgentLines) / float64(summary.TotalLines) * 100
	}

	return ranges, summary, nil
}
