package outwriter

import (
	"io"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
)

// PrintActivationResult outputs an activation. The csv format falls back to JSON
// since an activation is a single nested document.
func PrintActivationResult(a *schema.Activation, cfg *contract.Config, maxConnections int) error {
	if cfg.Output == schema.JSONOut || cfg.Output == schema.CSVOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, a)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeActivationText(w, a, cfg, maxConnections)
	}, "Wrote summary")
}

func writeActivationText(w io.Writer, a *schema.Activation, cfg *contract.Config, maxConnections int) error {
	p := newPalette(cfg.UseColors)
	lw := &lineWriter{w: w}

	lw.printf("%s", p.title("=== Activating nuxt_"+a.Kernel+" ==="))
	lw.printf("Kernel stats:")
	lw.printf("  Size: %.1fKB", float64(a.Stats.Size)/1024)
	lw.printf("  Sections: %d", a.Stats.Sections)
	lw.printf("  Concepts: %d", a.Stats.Concepts)

	if len(a.KeyPatterns) > 0 {
		lw.printf("")
		lw.printf("Activating concepts:")
		for _, kp := range a.KeyPatterns {
			lw.printf("  %s %s", p.ok("✓"), kp)
		}
	}

	if len(a.Connections) > 0 {
		lw.printf("")
		lw.printf("Pattern graph connections:")
		shown := a.Connections
		if maxConnections > 0 && len(shown) > maxConnections {
			shown = shown[:maxConnections]
		}
		for _, c := range shown {
			lw.printf("  %s", c)
		}
	}

	lw.printf("")
	lw.printf("%s", p.title("=== Activation Summary ==="))
	lw.printf("Kernel: nuxt_%s", a.Kernel)
	lw.printf("Status: %s", p.ok("ACTIVE"))
	lw.printf("Description: %s", a.Description)
	lw.printf("Concepts loaded: %d", a.Stats.Concepts)
	lw.printf("Token efficiency: %.1f%% (%d vs %d)", a.Savings.EfficiencyGained, a.Savings.KernelTokens, a.Savings.BaselineTokens)
	lw.printf("Ready for: Nuxt.js development with %s context", a.Kernel)

	if len(a.NextSteps) > 0 {
		lw.printf("")
		lw.printf("Recommended next steps:")
		for i, step := range a.NextSteps {
			lw.printf("  %d. %s", i+1, step)
		}
	}
	lw.printf("")
	lw.printf("%s", p.ok("Kernel "+a.Kernel+" successfully activated"))
	return lw.err
}
