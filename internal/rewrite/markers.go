package rewrite

import (
	"regexp"
	"strings"
)

// rewriteSentinel is inserted into rewritten files to prevent double-rewriting.
const rewriteSentinel = "/* @tskeys-rewritten */"

// RewriteCalls replaces marker calls in emitted JS with the given literals.
//
// Type arguments are erased by the emitter, so calls are matched by
// occurrence order: the Nth marker call in the JS receives literals[N].
// Calls past the end of literals are left as they are. The marker's
// import or require line is removed once every call has been replaced.
//
// It returns the rewritten text and the number of calls replaced.
func RewriteCalls(text string, target Target, b Bindings, literals []string) (string, int) {
	if len(literals) == 0 || b.Empty() {
		return text, 0
	}
	if strings.Contains(text, rewriteSentinel) {
		return text, 0
	}

	pattern := callPattern(target.Function, b, requireBindings(text, target.Module))
	matches := pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, 0
	}

	var sb strings.Builder
	last, n := 0, 0
	for _, m := range matches {
		if n >= len(literals) {
			break
		}
		// m[2:4] is the leading boundary character, kept as is.
		start := m[3]
		sb.WriteString(text[last:start])
		sb.WriteString(literals[n])
		last = m[1]
		n++
	}
	sb.WriteString(text[last:])
	out := sb.String()

	if n == len(matches) {
		out = removeImportLine(out, target.Module)
	}
	return withSentinel(out), n
}

// withSentinel marks text as rewritten, below a leading shebang line.
func withSentinel(text string) string {
	if strings.HasPrefix(text, "#!") {
		line, rest, _ := strings.Cut(text, "\n")
		return line + "\n" + rewriteSentinel + "\n" + rest
	}
	return rewriteSentinel + "\n" + text
}

// callPattern matches, after a non-identifier boundary:
//
//	k()                  ESM named import, possibly renamed
//	tk.keys()            namespace import
//	(0, mod_1.keys)()    CommonJS named import, mod_1 one of required
func callPattern(function string, b Bindings, required []string) *regexp.Regexp {
	fn := regexp.QuoteMeta(function)
	var alts []string
	for _, l := range b.Locals {
		alts = append(alts, regexp.QuoteMeta(l))
	}
	for _, ns := range b.Namespaces {
		alts = append(alts, regexp.QuoteMeta(ns)+`\.`+fn)
	}
	for _, v := range required {
		alts = append(alts, `\(0,\s*`+regexp.QuoteMeta(v)+`\.`+fn+`\)`)
	}
	return regexp.MustCompile(`(?m)(^|[^\w$.])(?:` + strings.Join(alts, "|") + `)\(\s*\)`)
}

// requireBindings returns the variables CommonJS output assigns from
// require(module), directly or through an interop helper such as
// __importStar(require(module)).
func requireBindings(text, module string) []string {
	m := regexp.QuoteMeta(module)
	re := regexp.MustCompile(`(?m)^\s*(?:const|var|let)\s+([\w$]+)\s*=\s*(?:[\w$.]+\()?require\(\s*(?:"` + m + `"|'` + m + `')\s*\)`)
	var vars []string
	for _, match := range re.FindAllStringSubmatch(text, -1) {
		vars = append(vars, match[1])
	}
	return vars
}

// removeImportLine drops the first ESM import or CJS require line of module.
func removeImportLine(text, module string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if isImportLine(line, module) {
			return strings.Join(append(lines[:i], lines[i+1:]...), "\n")
		}
	}
	return text
}

// isImportLine detects ESM or CJS import lines for module.
func isImportLine(line, module string) bool {
	trimmed := strings.TrimSpace(line)
	dq, sq := `"`+module+`"`, `'`+module+`'`
	// ESM: import { ... } from "module";
	if strings.HasPrefix(trimmed, "import ") &&
		(strings.Contains(trimmed, "from "+dq) || strings.Contains(trimmed, "from "+sq)) {
		return true
	}
	// CJS: const x = require("module");
	if (strings.HasPrefix(trimmed, "const ") || strings.HasPrefix(trimmed, "var ") || strings.HasPrefix(trimmed, "let ")) &&
		(strings.Contains(trimmed, "require("+dq+")") || strings.Contains(trimmed, "require("+sq+")")) {
		return true
	}
	return false
}
