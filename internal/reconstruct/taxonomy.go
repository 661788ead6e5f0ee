package reconstruct

// ToolCategory is a normalized tool-use bucket shared by the usage
// histogram and the similarity engine's Jaccard comparison, so that
// equivalent tools from different raw names land in the same bucket.
type ToolCategory string

const (
	CategoryRead  ToolCategory = "Read"
	CategoryEdit  ToolCategory = "Edit"
	CategoryWrite ToolCategory = "Write"
	CategoryBash  ToolCategory = "Bash"
	CategoryGrep  ToolCategory = "Grep"
	CategoryGlob  ToolCategory = "Glob"
	CategoryTask  ToolCategory = "Task"
	CategoryOther ToolCategory = "Other"
)

// NormalizeToolCategory maps a raw tool name — as it appears in a
// tool_use block's Name field — to a ToolCategory. Unrecognized names
// fall into CategoryOther rather than erroring, since new tool names
// appear routinely and the taxonomy must stay total.
func NormalizeToolCategory(rawName string) ToolCategory {
	switch rawName {
	case "Read":
		return CategoryRead
	case "Edit", "MultiEdit":
		return CategoryEdit
	case "Write", "NotebookEdit":
		return CategoryWrite
	case "Bash", "BashOutput":
		return CategoryBash
	case "Grep":
		return CategoryGrep
	case "Glob":
		return CategoryGlob
	case "Task":
		return CategoryTask
	default:
		return CategoryOther
	}
}
