package classifier

import "regexp"

// scriptIDBody matches the body of an Apps Script ID: the leading digit 1
// followed by 24-69 more characters, 25-70 in total.
const scriptIDBody = `1[A-Za-z0-9_-]{24,69}`

// WebAppIDPrefix is the prefix of a web-app deployment ID, as opposed to a
// library script ID which always starts with "1".
const WebAppIDPrefix = "AKfycb"

// Pattern pairs an identifier regexp with its priority position. Group is
// the submatch index holding the candidate ID.
type Pattern struct {
	Name  string
	Re    *regexp.Regexp
	Group int
}

// DefaultIDPatterns returns the identifier extraction patterns in priority
// order, most specific first. The order matters: a labeled occurrence must
// win over a bare token found earlier in the text.
func DefaultIDPatterns() []Pattern {
	return []Pattern{
		{
			// "Script ID: 1xxx", "Library ID = 1xxx", "スクリプトID：1xxx"
			Name:  "labeled",
			Re:    regexp.MustCompile("(?i)(?:script|library|スクリプト|ライブラリー?)\\s*ID\\s*[:：=＝]?\\s*[`\"'「【]?(" + scriptIDBody + ")"),
			Group: 1,
		},
		{
			Name:  "quoted",
			Re:    regexp.MustCompile("[`\"'](" + scriptIDBody + ")[`\"']"),
			Group: 1,
		},
		{
			// a fenced fragment holding only an ID, shortly after a
			// "project key" phrase; no explicit label token required
			Name:  "project-key-fence",
			Re:    regexp.MustCompile("(?is)(?:project\\s*key|プロジェクト\\s*キー).{0,160}?```[a-zA-Z]*\\s*(" + scriptIDBody + ")\\s*```"),
			Group: 1,
		},
		{
			// script editor URL: script.google.com/d/<id>/edit or home/projects/<id>
			Name:  "editor-url",
			Re:    regexp.MustCompile(`script\.google\.com/(?:d/|home/projects/)(` + scriptIDBody + `)`),
			Group: 1,
		},
		{
			// execution URL carrying a library script ID rather than a deployment ID
			Name:  "exec-url",
			Re:    regexp.MustCompile(`script\.google\.com/macros/(?:a/[^/\s]+/)?s/(` + scriptIDBody + `)/exec`),
			Group: 1,
		},
		{
			Name:  "bare",
			Re:    regexp.MustCompile(`\b(` + scriptIDBody + `)\b`),
			Group: 1,
		},
	}
}

// execURLRe finds any execution URL regardless of ID shape; used for
// library/web-app classification rather than extraction.
var execURLRe = regexp.MustCompile(`script\.google\.com/macros/(?:a/[^/\s]+/)?s/([A-Za-z0-9_-]{10,120})/exec`)

// exclusionRes mark spans of text that produce false-positive ID matches.
// A candidate overlapping any of these spans is rejected. The three shapes
// are the known offenders: commit-hash URLs, UUIDs, and filenames inside
// image-hosting URLs.
var exclusionRes = []*regexp.Regexp{
	regexp.MustCompile(`https?://[^\s)"'<>]*/commits?/[0-9a-fA-F]{7,40}[^\s)"'<>]*`),
	regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`),
	regexp.MustCompile(`https?://[^\s)"'<>]*\.(?:png|jpe?g|gif|svg|webp)`),
}

// DefaultSourceFilePatterns returns the file-name patterns used as evidence
// that a repository holds web-app source files.
func DefaultSourceFilePatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b[\w./-]*\w\.gs\b`),
		regexp.MustCompile(`(?i)\b[\w./-]*\w\.html\b`),
	}
}

// fencedBlockRe and inlineCodeRe delimit README regions where file names
// are usage examples rather than evidence of actual source files.
var (
	fencedBlockRe = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe  = regexp.MustCompile("`[^`\n]+`")
)

// docFileNames are generic documentation files whose names must never count
// as web-app source evidence.
var docFileNames = map[string]bool{
	"readme":          true,
	"license":         true,
	"changelog":       true,
	"contributing":    true,
	"code_of_conduct": true,
}
