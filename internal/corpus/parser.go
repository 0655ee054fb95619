package corpus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var emailRe = regexp.MustCompile(`<[^>]+>`)

// Date layouts seen in the corpus. The historical "14-Aug-2001" form
// dominates; ISO dates appear in newer documents.
var createdLayouts = []string{"02-Jan-2006", "2006-01-02"}

// ParseDocument parses one raw proposal document. It fails only when the
// document carries no usable "PEP:" header; every other header is optional
// and parsed best-effort.
func ParseDocument(data []byte) (*Proposal, error) {
	content := string(data)

	id, err := parseID(content)
	if err != nil {
		return nil, err
	}

	p := &Proposal{
		ID:       id,
		Title:    HeaderField(content, "Title"),
		Status:   HeaderField(content, "Status"),
		Type:     HeaderField(content, "Type"),
		Created:  parseCreated(HeaderField(content, "Created")),
		Authors:  parseAuthors(HeaderField(content, "Author")),
		Body:     content,
		Requires: ParseIDList(HeaderField(content, "Requires")),
		Replaces: ParseIDList(HeaderField(content, "Replaces")),
	}
	return p, nil
}

func parseID(content string) (int, error) {
	raw := HeaderField(content, "PEP")
	if raw == "" {
		return 0, fmt.Errorf("corpus: missing PEP header field")
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("corpus: invalid PEP header value %q", raw)
	}
	return id, nil
}

// HeaderField extracts a header field value from RST content. Field names
// match case-insensitively at the start of a line; values may continue on
// following lines indented with whitespace.
func HeaderField(content, name string) string {
	var parts []string
	inField := false
	lowerName := strings.ToLower(name) + ":"

	for _, line := range strings.Split(content, "\n") {
		if !inField {
			if len(line) < len(lowerName) || !strings.EqualFold(line[:len(lowerName)], lowerName) {
				continue
			}
			inField = true
			if v := strings.TrimSpace(line[len(lowerName):]); v != "" {
				parts = append(parts, v)
			}
			continue
		}
		// Continuation lines are indented.
		if line != "" && (line[0] == ' ' || line[0] == '\t') {
			parts = append(parts, strings.TrimSpace(line))
			continue
		}
		break
	}
	return strings.Join(parts, " ")
}

// ParseIDList parses a comma/space separated list of integer IDs, as found
// in Requires and Replaces headers. Non-numeric tokens are skipped.
func ParseIDList(raw string) []int {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	var out []int
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil || id < 0 {
			continue
		}
		out = append(out, id)
	}
	return out
}

// parseAuthors splits an Author header into names, dropping email addresses.
func parseAuthors(raw string) []string {
	if raw == "" {
		return nil
	}
	raw = emailRe.ReplaceAllString(raw, "")
	var out []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func parseCreated(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
