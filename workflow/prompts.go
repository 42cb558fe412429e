package workflow

import (
	"fmt"
	"strings"

	"github.com/lexcodex/uigen/catalog"
)

const selectionSystem = "You are a highly experienced front-end TypeScript developer specializing in React. " +
	"You are familiar with complex component libraries and can quickly understand new components from their descriptions. " +
	"Your goal is to accurately match user requests with appropriate components from the design system catalog."

func selectionPrompt(query, components string) string {
	return fmt.Sprintf(`User's request: %s

You must choose components only from the list below:
<components title:description>
%s
</components title:description>

Respond with strictly formatted JSON:
{"needed_components": [{"title": "Component title from the list", "reason": "Which user requirement this component covers"}]}

Return only the JSON object, without markdown fences or commentary.`, query, components)
}

const iterSelectionSystem = "You are a highly experienced front-end TypeScript developer with a deep understanding of " +
	"complex React component libraries. Your task is to plan modifications to an existing interface based on the user's " +
	"new request, using only components from the design system catalog."

func iterSelectionPrompt(previousQuery, newQuery, existingCode, components string) string {
	return fmt.Sprintf(`User's previous request: %s
User's new request: %s
Existing interface code:
%s

Component catalog:
<components title:description>
%s
</components title:description>

Analyze both requests and the current code, then respond with strictly formatted JSON:
{"instructions": "A detailed, step-by-step instruction string describing what to add, modify or remove", "components_to_modify": [{"title": "Component title", "reason": "Which requirement this covers"}]}

Return only the JSON object, without markdown fences or commentary.`, previousQuery, newQuery, existingCode, components)
}

func coderSystem(uiLibrary string) string {
	return fmt.Sprintf("You are a highly skilled front-end developer specializing in React and TypeScript. "+
		"Generate TSX code for a user interface based on the request and the provided component documentation. "+
		"Use only props and components described in the documentation, import exclusively from '%s', and make the "+
		"result fully type-safe and compile-ready.", uiLibrary)
}

func coderPrompt(query, docs, sample string) string {
	return fmt.Sprintf(`User's request and selected components:
%s

Strictly follow the component documentation below. Do not invent props, initialize every required prop
(props without a question mark in their type), and keep each prop on its own line.

<component documentation>
%s
</component documentation>

Structure the layout with the Box component (display, flexDirection, justifyContent, gap).
Follow this skeleton for the final code:
%s

Return only the TSX code, without comments.`, query, docs, sample)
}

func coderIterPrompt(previousQuery, newQuery, existingCode, instructions, docs string) string {
	return fmt.Sprintf(`Previous user request: %s
New user request: %s

Current interface code to modify:
%s

Modification instructions:
%s

<component documentation>
%s
</component documentation>

Modify the existing code according to the instructions and the new request, keeping TypeScript
annotations correct and the code compile-ready. Return only the TSX code, without comments.`,
		previousQuery, newQuery, existingCode, instructions, docs)
}

const repairSystem = "You are a highly skilled front-end developer specializing in React and TypeScript. " +
	"Correct every line marked with an inline error comment of the form `// ERROR TS***: description`. " +
	"Use only props and types defined in the provided documentation and output only the corrected code."

func repairPrompt(annotatedCode, usefulInfo string) string {
	return fmt.Sprintf(`Here is the current code with errors marked at the end of the offending lines:
%s

<source documentation that can help fix the errors>
%s
</source documentation that can help fix the errors>

Correct every marked line: fix props and types to match the documentation, include all required props,
and repair missing or wrong imports. Return only the fixed TSX code, without explanations or comments.`,
		annotatedCode, usefulInfo)
}

// componentDocQuery is the retrieval query issued per selected component
// before generation.
func componentDocQuery(title string) string {
	return fmt.Sprintf("Detailed prop types of component %s and code examples of using %s", title, title)
}

// describeRefs renders selected refs for embedding into the generation prompt.
func describeRefs(refs []catalog.Ref) string {
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		parts = append(parts, fmt.Sprintf("%s (%s)", ref.Title, ref.Reason))
	}
	return strings.Join(parts, ", ")
}
