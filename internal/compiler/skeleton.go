package compiler

import (
	"fmt"
	"strings"
)

// skeletonize produces a degraded version of content that fits in remaining
// cost units while preserving the content's shape: a leading frontmatter
// block is kept verbatim, header lines form a table of contents, and the
// rest of the budget is filled with the tail of the content (recency beats
// the middle of a section). A one-line omission marker closes the skeleton.
//
// Pure function of (name, content, remaining); never returns output costing
// more than remaining.
func (c *Compiler) skeletonize(name, content string, remaining int) string {
	if remaining <= 0 {
		return ""
	}

	fullCost := c.cost.Cost(content)
	omitted := fullCost - remaining
	if omitted < 0 {
		omitted = 0
	}
	marker := omissionMarker(name, omitted)

	front, body := frontmatterBlock(content)

	pieces := make([]string, 0, 4)
	sep := c.cost.Cost(sectionSeparator)
	budget := remaining - c.cost.Cost(marker) - sep

	// The metadata block is cheap and carries classification metadata:
	// always retain it when it fits at all.
	if front != "" && c.cost.Cost(front)+sep <= budget {
		pieces = append(pieces, front)
		budget -= c.cost.Cost(front) + sep
	}

	// Header lines as a table of contents, capped to a share of the budget.
	headerBudget := int(float64(remaining) * c.config.HeaderShare)
	if headers := headerLines(body); len(headers) > 0 {
		toc := strings.Join(headers, "\n")
		if tocCost := c.cost.Cost(toc); tocCost < headerBudget && tocCost+sep <= budget {
			pieces = append(pieces, toc)
			budget -= tocCost + sep
		}
	}

	// Fill what is left with the tail of the body.
	if budget > 0 {
		if tail := tailFill(c.cost, body, budget); tail != "" {
			pieces = append(pieces, tail)
		}
	}

	pieces = append(pieces, marker)
	out := strings.Join(pieces, "\n\n")

	// Joining can push the total past the budget; shed pieces from the
	// tail end (keeping the marker) until the bound holds.
	for c.cost.Cost(out) > remaining && len(pieces) > 1 {
		pieces = append(pieces[:len(pieces)-2], marker)
		out = strings.Join(pieces, "\n\n")
	}
	if c.cost.Cost(out) > remaining {
		out = clipToCost(c.cost, out, remaining)
	}
	return out
}

// omissionMarker is the one-line trailer recording what skeletonization cut.
func omissionMarker(name string, omittedUnits int) string {
	return fmt.Sprintf("[%s: %d cost units omitted]", name, omittedUnits)
}

// omissionFooter is the minimal stand-in emitted when the remaining budget
// allows no skeleton at all.
func omissionFooter(name string, fullCost int) string {
	return fmt.Sprintf("[%s omitted: %d cost units]", name, fullCost)
}

// frontmatterBlock detects a leading delimited metadata block (a line of
// "---", arbitrary lines, a line of "---") and returns it verbatim along
// with the rest of the content. The detection is a delimiter scan, not a
// parser: the block's contents are opaque here.
func frontmatterBlock(content string) (front, body string) {
	const delimiter = "---"

	if !strings.HasPrefix(content, delimiter) {
		return "", content
	}
	rest := content[len(delimiter):]
	if len(rest) == 0 || rest[0] != '\n' {
		return "", content
	}
	rest = rest[1:]

	idx := strings.Index(rest, "\n"+delimiter)
	if idx < 0 {
		return "", content
	}

	end := len(delimiter) + 1 + idx + 1 + len(delimiter)
	return content[:end], content[end:]
}

// headerLines collects the structural header lines of text, preserving order.
func headerLines(text string) []string {
	var headers []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "#") {
			headers = append(headers, line)
		}
	}
	return headers
}

// tailFill returns the largest suffix of text that fits in the given cost
// budget, aligned to a line boundary so the tail never starts mid-line.
func tailFill(model CostModel, text string, budget int) string {
	text = strings.TrimSpace(text)
	if text == "" || budget <= 0 {
		return ""
	}
	if model.Cost(text) <= budget {
		return text
	}

	// Walk the suffix start forward until the tail fits, starting from a
	// proportional guess to keep this linear in practice.
	start := len(text) - len(text)*budget/model.Cost(text)
	if start < 0 {
		start = 0
	}
	for start < len(text) && model.Cost(text[start:]) > budget {
		start++
	}
	tail := text[start:]

	// Drop the partial first line unless that would empty the tail.
	if idx := strings.IndexByte(tail, '\n'); idx >= 0 && idx+1 < len(tail) {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}
