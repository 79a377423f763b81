package diagnostics

import (
	"context"
	"strings"

	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

const diagnosticPrefix = "diagnostic."

func (e *Engine) lint(ctx context.Context, in Input) (*Report, error) {
	report := &Report{}

	q, err := e.cache.Get(in.Language, queries.Lint)
	if err != nil {
		if err := e.degrade(report, err, "lint", in); err != nil {
			return nil, err
		}
	} else {
		type key struct {
			rule       string
			start, end uint32
		}
		seen := make(map[key]bool)
		for _, m := range q.Matches(in.Root, in.Source) {
			for _, c := range m.Captures {
				rule, ok := strings.CutPrefix(c.Name, diagnosticPrefix)
				if !ok || rule == "" {
					continue
				}
				k := key{rule, c.Node.StartByte(), c.Node.EndByte()}
				if seen[k] {
					continue
				}
				seen[k] = true
				report.Diagnostics = append(report.Diagnostics, model.Diagnostic{
					Kind:     model.DiagnosticLint,
					Severity: DefaultSeverity(rule),
					Rule:     rule,
					Message:  Message(rule),
					Range:    model.RangeOf(c.Node),
				})
			}
		}
	}

	if e.scripts != nil {
		diags, err := e.scripts.Run(ctx, in)
		if err != nil {
			e.logger.Warn("rule scripts failed", "path", in.Path, "err", err)
			report.Warnings = append(report.Warnings, err)
		}
		for _, d := range diags {
			d.Kind = model.DiagnosticLint
			if d.Rule == "" {
				d.Rule = "script"
			}
			if d.Message == "" {
				d.Message = Message(d.Rule)
			}
			report.Diagnostics = append(report.Diagnostics, d)
		}
	}
	return report, nil
}
