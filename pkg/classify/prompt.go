package classify

import (
	"fmt"
	"strings"

	"github.com/sdejongh/filenorris/pkg/models"
)

// plainTextExtensions can be embedded in a prompt as-is
var plainTextExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".log":  true,
	".csv":  true,
}

const responseInstructions = `Respond with a single JSON object and nothing else:
{"category": "<one or two word folder name>", "description": "<one sentence summary>", "filename": "<three to five word file name, no extension>"}
Use plain words. Do not use dates, file extensions or the words "file", "document" or "image" in the category.`

func textPrompt(entry models.FileEntry, excerpt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You organize files into folders. The file is named %q.\n", entry.Name())
	if excerpt != "" {
		b.WriteString("Its content starts with:\n---\n")
		b.WriteString(excerpt)
		b.WriteString("\n---\n")
	} else {
		fmt.Fprintf(&b, "Its content is not available; infer what you can from the name and the %s type.\n",
			strings.ToLower(models.TypeGroup(entry.Ext())))
	}
	b.WriteString(responseInstructions)
	return b.String()
}

func imagePrompt(entry models.FileEntry) string {
	return fmt.Sprintf("You organize pictures into folders. Describe the attached image named %q.\n%s",
		entry.Name(), responseInstructions)
}
