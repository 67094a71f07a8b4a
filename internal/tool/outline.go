package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// signaturePatterns maps file extensions to the regexes that pick out
// top-level declarations worth showing in an outline.
var signaturePatterns = map[string][]*regexp.Regexp{
	".py": {
		regexp.MustCompile(`^\s*(class\s+\w+|async\s+def\s+\w+|def\s+\w+)`),
	},
	".go": {
		regexp.MustCompile(`^(func\s+(\(\s*\w+\s+\*?[\w\[\]]+\s*\)\s*)?\w+|type\s+\w+\s+(struct|interface)|const\s+\w+|var\s+\w+)`),
	},
	".js": {
		regexp.MustCompile(`^\s*(export\s+)?(async\s+)?(function\s+\w+|class\s+\w+|const\s+\w+\s*=\s*(async\s*)?\()`),
	},
	".rs": {
		regexp.MustCompile(`^\s*(pub\s+)?(async\s+)?(fn\s+\w+|struct\s+\w+|enum\s+\w+|trait\s+\w+|impl\b)`),
	},
	".java": {
		regexp.MustCompile(`^\s*(public|protected|private)?\s*(static\s+)?(final\s+)?(class|interface|enum|\w+(<.*>)?\s+\w+\s*\()`),
	},
	".c": {
		regexp.MustCompile(`^\w[\w\s\*]*\s+\**\w+\s*\([^;]*$|^\w[\w\s\*]*\s+\**\w+\s*\([^;]*\)\s*\{?\s*$`),
	},
	".php": {
		regexp.MustCompile(`^\s*(abstract\s+|final\s+)?(class\s+\w+|interface\s+\w+|trait\s+\w+|(public|protected|private)?\s*(static\s+)?function\s+\w+)`),
	},
}

func init() {
	signaturePatterns[".ts"] = signaturePatterns[".js"]
	signaturePatterns[".jsx"] = signaturePatterns[".js"]
	signaturePatterns[".tsx"] = signaturePatterns[".js"]
	signaturePatterns[".h"] = signaturePatterns[".c"]
	signaturePatterns[".cpp"] = signaturePatterns[".c"]
	signaturePatterns[".cc"] = signaturePatterns[".c"]
}

// OutlineTool extracts high-level signatures from a source file so an agent
// can skim it without loading the whole content into context.
type OutlineTool struct {
	rootDir string
}

// NewOutlineTool creates the outliner rooted at rootDir.
func NewOutlineTool(rootDir string) *OutlineTool {
	return &OutlineTool{rootDir: rootDir}
}

func (t *OutlineTool) ID() string { return "get_file_outline" }

func (t *OutlineTool) Description() string {
	return "Extracts class and function signatures from a source file (Python, Go, JS/TS, Rust, Java, C/C++, PHP) with their line numbers."
}

func (t *OutlineTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "File path relative to the project root"}
		},
		"required": ["path"]
	}`)
}

func (t *OutlineTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	patterns, ok := signaturePatterns[strings.ToLower(filepath.Ext(in.Path))]
	if !ok {
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(in.Path))
	}

	fullPath, err := resolvePath(t.rootDir, in.Path)
	if err != nil {
		return "", err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", in.Path, err)
	}
	defer f.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, p := range patterns {
			if p.MatchString(line) {
				fmt.Fprintf(&b, "%d: %s\n", lineNo, strings.TrimSpace(line))
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", in.Path, err)
	}

	if b.Len() == 0 {
		return "No signatures found.", nil
	}
	return b.String(), nil
}
