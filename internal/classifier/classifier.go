// Package classifier extracts Apps Script identifiers from README text and
// decides whether a repository publishes a library or a web application.
//
// Extraction is a pattern-priority engine: the ordered pattern list is
// walked most-specific first and the first match that survives the
// exclusion pass wins. Pattern priority beats text position - a labeled ID
// late in the document wins over a bare token near the top.
package classifier

import (
	"path"
	"regexp"
	"strings"

	"github.com/gaslibhub/crawler/internal/domain"
)

// Classification is the outcome of classifying a README.
type Classification struct {
	ScriptID   string
	ScriptType domain.ScriptType
}

type span struct{ start, end int }

func (s span) overlaps(start, end int) bool {
	return start < s.end && end > s.start
}

// excludedSpans collects every region of the text matching one of the known
// false-positive shapes.
func excludedSpans(text string) []span {
	var spans []span
	for _, re := range exclusionRes {
		for _, m := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{m[0], m[1]})
		}
	}
	return spans
}

func anyOverlap(spans []span, start, end int) bool {
	for _, s := range spans {
		if s.overlaps(start, end) {
			return true
		}
	}
	return false
}

// ExtractScriptID runs the patterns in priority order against text and
// returns the first candidate that is not part of an excluded span.
// A nil patterns slice selects DefaultIDPatterns.
func ExtractScriptID(text string, patterns []Pattern) (string, bool) {
	if text == "" {
		return "", false
	}
	if patterns == nil {
		patterns = DefaultIDPatterns()
	}
	excluded := excludedSpans(text)
	for _, p := range patterns {
		for _, m := range p.Re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2*p.Group], m[2*p.Group+1]
			if start < 0 {
				continue
			}
			if anyOverlap(excluded, start, end) {
				continue
			}
			return text[start:end], true
		}
	}
	return "", false
}

// findExecID returns the ID embedded in the first web-app execution URL in
// the text, whatever its shape.
func findExecID(text string) (string, bool) {
	m := execURLRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HasSourceFileEvidence reports whether the text names web-app source files
// (.gs/.html). Matches inside fenced code blocks and inline code spans are
// ignored, as are generic documentation file names; those regions are where
// ordinary project tooling gets misread as Website source files.
func HasSourceFileEvidence(text string, filePatterns []*regexp.Regexp) bool {
	if text == "" {
		return false
	}
	if filePatterns == nil {
		filePatterns = DefaultSourceFilePatterns()
	}
	var ignore []span
	for _, m := range fencedBlockRe.FindAllStringIndex(text, -1) {
		ignore = append(ignore, span{m[0], m[1]})
	}
	for _, m := range inlineCodeRe.FindAllStringIndex(text, -1) {
		if !anyOverlap(ignore, m[0], m[1]) {
			ignore = append(ignore, span{m[0], m[1]})
		}
	}
	for _, re := range filePatterns {
		for _, m := range re.FindAllStringIndex(text, -1) {
			if anyOverlap(ignore, m[0], m[1]) {
				continue
			}
			name := text[m[0]:m[1]]
			base := strings.TrimSuffix(path.Base(name), path.Ext(name))
			if docFileNames[strings.ToLower(base)] {
				continue
			}
			return true
		}
	}
	return false
}

// Classify extracts and classifies the script identifier for one
// repository. owner and repo are used to synthesize an identifier when a
// web app documents its source files but never states an ID. The second
// return value is false when the repository is not ingestible.
func Classify(text, owner, repo string, idPatterns []Pattern, filePatterns []*regexp.Regexp) (Classification, bool) {
	id, found := ExtractScriptID(text, idPatterns)
	execID, execFound := findExecID(text)
	evidence := HasSourceFileEvidence(text, filePatterns)

	if execFound {
		if strings.HasPrefix(execID, "1") {
			// libraries are sometimes also exposed as demo web apps
			if !found {
				id, found = execID, true
			}
			return Classification{ScriptID: id, ScriptType: domain.ScriptTypeLibrary}, true
		}
		if strings.HasPrefix(execID, WebAppIDPrefix) && evidence {
			if found {
				return Classification{ScriptID: id, ScriptType: domain.ScriptTypeWebApp}, true
			}
			return synthesized(owner, repo)
		}
		// a deployment URL without source evidence is a published library;
		// its deployment ID serves as the identifier when nothing better
		// was extracted
		if !found {
			id, found = execID, true
		}
		return Classification{ScriptID: id, ScriptType: domain.ScriptTypeLibrary}, true
	}

	if found {
		return Classification{ScriptID: id, ScriptType: domain.ScriptTypeLibrary}, true
	}
	if evidence {
		return synthesized(owner, repo)
	}
	return Classification{}, false
}

func synthesized(owner, repo string) (Classification, bool) {
	if owner == "" || repo == "" {
		return Classification{}, false
	}
	return Classification{
		ScriptID:   owner + "/" + repo,
		ScriptType: domain.ScriptTypeWebApp,
	}, true
}
