package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// readTemplate loads a template file and resolves its format, either from the
// --format flag or from the file extension.
func readTemplate(cmd *cobra.Command, path string) (source, format string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read template from '%s': %w", path, err)
	}

	format = lo.Must(cmd.Flags().GetString("format"))
	if format == "" {
		switch filepath.Ext(path) {
		case ".hcl":
			format = "hcl"
		case ".yaml", ".yml":
			format = "yaml"
		default:
			return "", "", fmt.Errorf("cannot infer template format from '%s', use --format", path)
		}
	}

	return string(raw), format, nil
}

// parseParams turns repeated key=value flags into a parameter map.
func parseParams(items []string) map[string]string {
	return lo.SliceToMap(items, func(item string) (key, value string) {
		key, value, _ = strings.Cut(item, "=")
		return
	})
}

func statusColor(status string) *color.Color {
	switch {
	case strings.HasSuffix(status, "_IN_PROGRESS"):
		return color.New(color.FgHiYellow)
	case strings.HasSuffix(status, "_FAILED"):
		return color.New(color.FgHiRed)
	case strings.HasPrefix(status, "ROLLBACK"), strings.HasSuffix(status, "_SKIPPED"):
		return color.New(color.FgYellow)
	case strings.HasSuffix(status, "_COMPLETE"):
		return color.New(color.FgHiGreen)
	default:
		return color.New(color.FgWhite)
	}
}

// terminalStatus reports whether a stack status marks the end of an
// operation.
func terminalStatus(status string) bool {
	return strings.HasSuffix(status, "_COMPLETE") || strings.HasSuffix(status, "_FAILED")
}

// formatAge renders a duration since t in a single coarse unit, docker-style.
func formatAge(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// stripTemplateNoise removes comment lines and collapses consecutive blank
// lines from a template source, producing a cleaner display output.
func stripTemplateNoise(source string) string {
	lines := strings.Split(source, "\n")
	var result []string
	lastBlank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == "" {
			if lastBlank {
				continue
			}
			lastBlank = true
		} else {
			lastBlank = false
		}
		result = append(result, line)
	}
	// Trim leading/trailing blank lines
	for len(result) > 0 && strings.TrimSpace(result[0]) == "" {
		result = result[1:]
	}
	for len(result) > 0 && strings.TrimSpace(result[len(result)-1]) == "" {
		result = result[:len(result)-1]
	}
	if len(result) == 0 {
		return ""
	}
	return strings.Join(result, "\n") + "\n"
}
