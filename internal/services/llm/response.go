package llm

import (
	"fmt"
	"strings"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// ParseWorkflowFiles extracts generated workflow files from a model
// response in the FILENAME: + fenced-YAML format:
//
//	FILENAME: ci.yml
//	```yaml
//	name: CI
//	...
//	```
//
// Content outside a code block is ignored; a FILENAME line with no
// following block produces no file.
func ParseWorkflowFiles(response string) (models.WorkflowFiles, error) {
	workflows := make(models.WorkflowFiles)

	var (
		currentFile    string
		currentContent []string
		inCodeBlock    bool
	)

	flush := func() {
		if currentFile != "" && len(currentContent) > 0 {
			workflows[currentFile] = strings.Join(currentContent, "\n")
		}
		currentContent = nil
	}

	for _, line := range strings.Split(response, "\n") {
		switch {
		case strings.HasPrefix(line, "FILENAME:"):
			flush()
			currentFile = strings.TrimSpace(strings.TrimPrefix(line, "FILENAME:"))
			inCodeBlock = false
		case strings.HasPrefix(line, "```yaml"), strings.HasPrefix(line, "```yml"):
			inCodeBlock = true
		case strings.HasPrefix(line, "```") && inCodeBlock:
			inCodeBlock = false
		case inCodeBlock && currentFile != "":
			currentContent = append(currentContent, line)
		}
	}
	flush()

	if len(workflows) == 0 {
		return nil, fmt.Errorf("response contained no workflow files")
	}
	return workflows, nil
}
