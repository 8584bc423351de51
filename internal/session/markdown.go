package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sriinnu/chitragupta/internal/errkind"
	"gopkg.in/yaml.v3"
)

// frontMatter mirrors the scalar/list fields stored in a session's YAML
// front-matter block. It exists separately from Session so yaml.Marshal
// controls field order and quoting without leaking into the domain type.
type frontMatter struct {
	ID          string   `yaml:"id"`
	Project     string   `yaml:"project"`
	Title       string   `yaml:"title"`
	Agent       string   `yaml:"agent,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	ParentID    string   `yaml:"parent,omitempty"`
	BranchName  string   `yaml:"branch,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	CreatedAt   string   `yaml:"created_at"`
	UpdatedAt   string   `yaml:"updated_at"`
	TotalCost   float64  `yaml:"total_cost"`
	TotalTokens int64    `yaml:"total_tokens"`
}

const turnHeadingPrefix = "## Turn "
const toolHeadingPrefix = "### Tool: "
const escapePrefix = "\\"

// turnHeadingRe-equivalent boundary markers recognised by the parser.
var headingPrefixes = []string{turnHeadingPrefix, toolHeadingPrefix}

// escapeContent prefixes any line that would otherwise be parsed as a turn
// or tool-call boundary with a backslash, so arbitrary turn content -
// including text that itself contains "## Turn" - round-trips exactly.
func escapeContent(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		for _, prefix := range headingPrefixes {
			if strings.HasPrefix(line, prefix) {
				lines[i] = escapePrefix + line
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// unescapeContent reverses escapeContent.
func unescapeContent(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		for _, prefix := range headingPrefixes {
			if line == escapePrefix+prefix || strings.HasPrefix(line, escapePrefix+prefix) {
				lines[i] = strings.TrimPrefix(line, escapePrefix)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// WriteMarkdown renders a Session as the canonical markdown document: a
// YAML front-matter block, one section per turn, and a totals footer.
func WriteMarkdown(s Session) string {
	var b strings.Builder

	fm := frontMatter{
		ID:          s.ID,
		Project:     s.Project,
		Title:       s.Title,
		Agent:       s.Agent,
		Model:       s.Model,
		ParentID:    s.ParentID,
		BranchName:  s.BranchName,
		Tags:        s.Tags,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   s.UpdatedAt.UTC().Format(time.RFC3339Nano),
		TotalCost:   s.TotalCost,
		TotalTokens: s.TotalTokens,
	}
	data, _ := yaml.Marshal(fm)
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")

	for _, turn := range s.Turns {
		b.WriteString(turnHeadingPrefix)
		b.WriteString(strconv.Itoa(turn.Ordinal))
		b.WriteString(" — ")
		b.WriteString(turn.Role)
		if turn.Agent != "" || turn.Model != "" {
			b.WriteString(fmt.Sprintf(" (agent: %s, model: %s)", turn.Agent, turn.Model))
		}
		b.WriteString("\n\n")
		b.WriteString(escapeContent(turn.Content))
		b.WriteString("\n\n")

		for _, tc := range turn.ToolCalls {
			b.WriteString(toolHeadingPrefix)
			b.WriteString(tc.Name)
			b.WriteString("\n\n**Input**\n```json\n")
			b.WriteString(tc.Input)
			b.WriteString("\n```\n\n")
			label := "Result"
			if tc.IsError {
				label = "Error"
			}
			b.WriteString(fmt.Sprintf("<details><summary>%s</summary>\n\n%s\n\n</details>\n\n", label, escapeContent(tc.Result)))
		}
	}

	b.WriteString("---\n")
	b.WriteString(fmt.Sprintf("Total turns: %d | Total cost: $%.4f | Total tokens: %d\n", len(s.Turns), s.TotalCost, s.TotalTokens))
	return b.String()
}

// ParseMarkdown parses a document produced by WriteMarkdown back into a
// Session. Parsing the output of WriteMarkdown for a value yields the same
// session except that turn CreatedAt is not stored in the markdown (it comes
// back zero) and turn content and tool results come back with surrounding
// whitespace trimmed.
func ParseMarkdown(doc string) (Session, error) {
	const delim = "---\n"
	if !strings.HasPrefix(doc, delim) {
		return Session{}, errkind.Wrap("parse session markdown", fmt.Errorf("missing front-matter"))
	}
	rest := doc[len(delim):]
	end := strings.Index(rest, "\n"+delim)
	if end < 0 {
		return Session{}, errkind.Wrap("parse session markdown", fmt.Errorf("unterminated front-matter"))
	}
	fmBlock := rest[:end]
	body := rest[end+len("\n"+delim):]

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(fmBlock), &fm); err != nil {
		return Session{}, errkind.Wrap("parse session front-matter", err)
	}

	s := Session{
		ID:          fm.ID,
		Project:     fm.Project,
		Title:       fm.Title,
		Agent:       fm.Agent,
		Model:       fm.Model,
		ParentID:    fm.ParentID,
		BranchName:  fm.BranchName,
		Tags:        fm.Tags,
		TotalCost:   fm.TotalCost,
		TotalTokens: fm.TotalTokens,
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, fm.CreatedAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fm.UpdatedAt)

	turns, err := parseTurns(body)
	if err != nil {
		return Session{}, err
	}
	s.Turns = turns
	return s, nil
}

func parseTurns(body string) ([]Turn, error) {
	lines := strings.Split(body, "\n")
	var turns []Turn
	var cur *Turn
	var curTool *ToolCall
	var contentLines []string
	var toolLines []string
	inToolInput := false
	inToolResult := false

	flushContent := func() {
		if cur != nil {
			cur.Content = strings.TrimSpace(unescapeContent(strings.Join(contentLines, "\n")))
		}
		contentLines = nil
	}
	flushTool := func() {
		if curTool != nil && cur != nil {
			cur.ToolCalls = append(cur.ToolCalls, *curTool)
		}
		curTool = nil
		toolLines = nil
	}
	flushTurn := func() {
		flushTool()
		flushContent()
		if cur != nil {
			turns = append(turns, *cur)
		}
		cur = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.HasPrefix(line, turnHeadingPrefix) && !strings.HasPrefix(line, escapePrefix+turnHeadingPrefix) {
			flushTurn()
			ordinal, role, agent, model := parseTurnHeading(line)
			cur = &Turn{Ordinal: ordinal, Role: role, Agent: agent, Model: model}
			continue
		}

		if line == "---" && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "Total turns: ") {
			break // footer
		}

		if strings.HasPrefix(line, toolHeadingPrefix) && !strings.HasPrefix(line, escapePrefix+toolHeadingPrefix) {
			flushTool()
			flushContent()
			name := strings.TrimPrefix(line, toolHeadingPrefix)
			curTool = &ToolCall{Name: name}
			inToolInput = false
			inToolResult = false
			continue
		}

		if curTool != nil {
			switch {
			case strings.HasPrefix(line, "```json"):
				inToolInput = true
				toolLines = nil
				continue
			case inToolInput && line == "```":
				inToolInput = false
				curTool.Input = strings.Join(toolLines, "\n")
				toolLines = nil
				continue
			case inToolInput:
				toolLines = append(toolLines, line)
				continue
			case strings.HasPrefix(line, "<details><summary>"):
				curTool.IsError = strings.Contains(line, "Error")
				inToolResult = true
				toolLines = nil
				continue
			case inToolResult && strings.HasPrefix(line, "</details>"):
				inToolResult = false
				curTool.Result = strings.TrimSpace(unescapeContent(strings.Join(toolLines, "\n")))
				toolLines = nil
				continue
			case inToolResult:
				toolLines = append(toolLines, line)
				continue
			}
			continue
		}

		if cur != nil {
			contentLines = append(contentLines, line)
		}
	}
	flushTurn()

	return turns, nil
}

func parseTurnHeading(line string) (ordinal int, role, agent, model string) {
	rest := strings.TrimPrefix(line, turnHeadingPrefix)
	parts := strings.SplitN(rest, " — ", 2)
	if len(parts) != 2 {
		return 0, "", "", ""
	}
	ordinal, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	roleAndMeta := parts[1]

	if idx := strings.Index(roleAndMeta, " ("); idx >= 0 {
		role = roleAndMeta[:idx]
		meta := strings.TrimSuffix(roleAndMeta[idx+2:], ")")
		for _, kv := range strings.Split(meta, ", ") {
			kvParts := strings.SplitN(kv, ": ", 2)
			if len(kvParts) != 2 {
				continue
			}
			switch kvParts[0] {
			case "agent":
				agent = kvParts[1]
			case "model":
				model = kvParts[1]
			}
		}
	} else {
		role = roleAndMeta
	}
	return ordinal, role, agent, model
}
