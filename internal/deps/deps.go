package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tool is an external binary the renderer shells out to.
type Tool struct {
	Name    string
	Command string
	Purpose string
}

// Status is the outcome of one doctor check.
type Status struct {
	Name      string
	Command   string
	Path      string
	Version   string
	Available bool
	Detail    string
}

// CheckTools resolves each tool on PATH and reads the first line of
// `<tool> -version`. A binary that is found but fails -version is reported
// unavailable.
func CheckTools(ctx context.Context, tools []Tool) []Status {
	results := make([]Status, 0, len(tools))
	for _, tool := range tools {
		results = append(results, checkTool(ctx, tool))
	}
	return results
}

func checkTool(ctx context.Context, tool Tool) Status {
	status := Status{Name: tool.Name, Command: strings.TrimSpace(tool.Command)}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Path = path

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("%s -version: %v", status.Command, err)
		return status
	}
	status.Version = firstLine(output)
	status.Available = true
	return status
}

func firstLine(output []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
