package tool

// DeveloperTools returns the codebase navigation and editing toolset rooted
// at workDir.
func DeveloperTools(workDir string) []Tool {
	return []Tool{
		NewStructureTool(workDir),
		NewOutlineTool(workDir),
		NewFragmentTool(workDir),
		NewFindTool(workDir),
		NewCodeSearchTool(workDir),
		NewEditTool(workDir),
		NewWebFetchTool(),
	}
}
