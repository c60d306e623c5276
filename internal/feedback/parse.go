package feedback

import "strings"

// parseRubricLine extracts the status glyph and trailing comment from one
// rubric line such as "- Delivery: ✓ - paced well".
func parseRubricLine(line string) RubricResult {
	var status Status
	switch {
	case strings.Contains(line, "✓"):
		status = StatusMet
	case strings.Contains(line, "✗"):
		status = StatusNotMet
	case strings.Contains(line, "N/A"):
		status = StatusNotApplicable
	default:
		status = StatusUnknown
	}

	comment := ""
	if idx := strings.Index(line, " - "); idx != -1 {
		comment = strings.TrimSpace(line[idx+3:])
	}
	return RubricResult{Status: status, Comment: comment}
}

// ParseSlideFeedback parses one slide's fixed-format feedback block into the
// four rubric dimensions. Lines without a known rubric prefix are ignored. A
// block in which no rubric line parses at all yields four error statuses so
// assembly can proceed with an explicit annotation.
func ParseSlideFeedback(text string) SlideRubric {
	rubric := SlideRubric{
		ContentStructuring: RubricResult{Status: StatusUnknown},
		Delivery:           RubricResult{Status: StatusUnknown},
		ImpromptuResponse:  RubricResult{Status: StatusUnknown},
		Composure:          RubricResult{Status: StatusUnknown},
	}

	matched := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "- Content structuring:"):
			rubric.ContentStructuring = parseRubricLine(line)
			matched = true
		case strings.HasPrefix(line, "- Delivery:"):
			rubric.Delivery = parseRubricLine(line)
			matched = true
		case strings.HasPrefix(line, "- Impromptu response:"):
			rubric.ImpromptuResponse = parseRubricLine(line)
			matched = true
		case strings.HasPrefix(line, "- Composure:"):
			rubric.Composure = parseRubricLine(line)
			matched = true
		}
	}

	if !matched {
		errored := RubricResult{Status: StatusError, Comment: "Error parsing feedback"}
		return SlideRubric{
			ContentStructuring: errored,
			Delivery:           errored,
			ImpromptuResponse:  errored,
			Composure:          errored,
		}
	}
	return rubric
}

// ParseQAFeedback parses the Q&A feedback block into its two rubric
// dimensions. An unparseable block yields error statuses.
func ParseQAFeedback(text string) QAResult {
	result := QAResult{
		ImpromptuResponse: RubricResult{Status: StatusUnknown},
		Composure:         RubricResult{Status: StatusUnknown},
	}

	matched := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "- Impromptu response:"):
			result.ImpromptuResponse = parseRubricLine(line)
			matched = true
		case strings.HasPrefix(line, "- Composure:"):
			result.Composure = parseRubricLine(line)
			matched = true
		}
	}

	if !matched {
		errored := RubricResult{Status: StatusError, Comment: "Error parsing feedback"}
		return QAResult{ImpromptuResponse: errored, Composure: errored}
	}
	return result
}
