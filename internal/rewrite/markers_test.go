package rewrite

import (
	"strings"
	"testing"
)

var defaultTarget = Target{Module: "ts-transformer-keys", Function: "keys"}

func TestRewriteCalls_ESM(t *testing.T) {
	input := `import { keys } from "ts-transformer-keys";
const a = keys();
const b = keys();
console.log(a, b);`

	result, n := RewriteCalls(input, defaultTarget, Bindings{Locals: []string{"keys"}}, []string{`["x"]`, `["y"]`})

	want := rewriteSentinel + `
const a = ["x"];
const b = ["y"];
console.log(a, b);`
	if result != want {
		t.Errorf("unexpected output:\n%s", result)
	}
	if n != 2 {
		t.Errorf("replaced = %d, want 2", n)
	}
}

func TestRewriteCalls_CJS(t *testing.T) {
	input := `"use strict";
Object.defineProperty(exports, "__esModule", { value: true });
const ts_transformer_keys_1 = require("ts-transformer-keys");
const a = (0, ts_transformer_keys_1.keys)();
module.exports = (0, ts_transformer_keys_1.keys)( );`

	result, n := RewriteCalls(input, defaultTarget, Bindings{Locals: []string{"keys"}}, []string{`[1]`, `[2]`})

	if n != 2 {
		t.Fatalf("replaced = %d, want 2", n)
	}
	if !strings.Contains(result, "const a = [1];") {
		t.Errorf("expected first literal, got:\n%s", result)
	}
	if !strings.Contains(result, "module.exports = [2];") {
		t.Errorf("expected second literal, got:\n%s", result)
	}
	if strings.Contains(result, `require("ts-transformer-keys")`) {
		t.Error("require line should have been removed")
	}
}

func TestRewriteCalls_CJSIgnoresForeignKeys(t *testing.T) {
	input := `"use strict";
const util_1 = require("./util");
const ts_transformer_keys_1 = require("ts-transformer-keys");
(0, util_1.keys)();
const k = (0, ts_transformer_keys_1.keys)();`

	result, n := RewriteCalls(input, defaultTarget, Bindings{Locals: []string{"keys"}}, []string{`["a"]`})

	if n != 1 {
		t.Fatalf("replaced = %d, want 1", n)
	}
	if !strings.Contains(result, "(0, util_1.keys)();") {
		t.Errorf("foreign keys() call must stay, got:\n%s", result)
	}
	if !strings.Contains(result, `const k = ["a"];`) {
		t.Errorf("marker call not replaced, got:\n%s", result)
	}
}

func TestRewriteCalls_CJSImportStar(t *testing.T) {
	input := `"use strict";
const tk = __importStar(require("ts-transformer-keys"));
const other_1 = require("other");
const a = (0, other_1.keys)();
const b = tk.keys();`

	result, n := RewriteCalls(input, defaultTarget, Bindings{Namespaces: []string{"tk"}}, []string{`[]`})

	if n != 1 {
		t.Fatalf("replaced = %d, want 1", n)
	}
	if !strings.Contains(result, "const a = (0, other_1.keys)();") || !strings.Contains(result, "const b = [];") {
		t.Errorf("unexpected output:\n%s", result)
	}
	if strings.Contains(result, "__importStar(require(\"ts-transformer-keys\"))") {
		t.Error("require line should have been removed")
	}
}

func TestRequireBindings(t *testing.T) {
	input := `const ts_transformer_keys_1 = require("ts-transformer-keys");
var tk = __importStar(require('ts-transformer-keys'));
const d = __importDefault(require("ts-transformer-keys-extra"));
let u = require("./util");`

	got := requireBindings(input, "ts-transformer-keys")
	if strings.Join(got, ",") != "ts_transformer_keys_1,tk" {
		t.Errorf("requireBindings = %v", got)
	}
}

func TestRewriteCalls_SentinelBelowShebang(t *testing.T) {
	input := "#!/usr/bin/env node\nimport { keys } from \"ts-transformer-keys\";\nconst a = keys();\n"

	result, n := RewriteCalls(input, defaultTarget, Bindings{Locals: []string{"keys"}}, []string{`[]`})

	if n != 1 {
		t.Fatalf("replaced = %d, want 1", n)
	}
	want := "#!/usr/bin/env node\n" + rewriteSentinel + "\nconst a = [];\n"
	if result != want {
		t.Errorf("got:\n%q\nwant:\n%q", result, want)
	}
}

func TestRewriteCalls_RenamedImport(t *testing.T) {
	input := `import { keys as k } from 'ts-transformer-keys';
const a = k();
const b = obj.k();
const c = bk();
const d = [k()];`

	result, n := RewriteCalls(input, defaultTarget, Bindings{Locals: []string{"k"}}, []string{`["a"]`, `["d"]`})

	if n != 2 {
		t.Fatalf("replaced = %d, want 2", n)
	}
	for _, want := range []string{`const a = ["a"];`, `const b = obj.k();`, `const c = bk();`, `const d = [["d"]];`} {
		if !strings.Contains(result, want) {
			t.Errorf("expected %q in:\n%s", want, result)
		}
	}
	if strings.Contains(result, "from 'ts-transformer-keys'") {
		t.Error("import line should have been removed")
	}
}

func TestRewriteCalls_NamespaceImport(t *testing.T) {
	input := `import * as tk from "ts-transformer-keys";
export const fields = tk.keys();`

	result, n := RewriteCalls(input, defaultTarget, Bindings{Namespaces: []string{"tk"}}, []string{`[]`})

	if n != 1 {
		t.Fatalf("replaced = %d, want 1", n)
	}
	if !strings.Contains(result, "export const fields = [];") {
		t.Errorf("unexpected output:\n%s", result)
	}
}

func TestRewriteCalls_FewerLiteralsKeepsRest(t *testing.T) {
	input := `import { keys } from "ts-transformer-keys";
const a = keys();
const b = keys();`

	result, n := RewriteCalls(input, defaultTarget, Bindings{Locals: []string{"keys"}}, []string{`[1]`})

	if n != 1 {
		t.Fatalf("replaced = %d, want 1", n)
	}
	if !strings.Contains(result, "const a = [1];") || !strings.Contains(result, "const b = keys();") {
		t.Errorf("unexpected output:\n%s", result)
	}
	if !strings.Contains(result, `from "ts-transformer-keys"`) {
		t.Error("import must stay while calls remain")
	}
}

func TestRewriteCalls_AlreadyRewritten(t *testing.T) {
	input := rewriteSentinel + "\nconst a = keys();"
	result, n := RewriteCalls(input, defaultTarget, Bindings{Locals: []string{"keys"}}, []string{`[1]`})
	if result != input || n != 0 {
		t.Errorf("expected no change, got %d replacements:\n%s", n, result)
	}
}

func TestRewriteCalls_NothingToDo(t *testing.T) {
	input := "const a = keys();"
	if result, n := RewriteCalls(input, defaultTarget, Bindings{Locals: []string{"keys"}}, nil); result != input || n != 0 {
		t.Errorf("expected no change without literals")
	}
	if result, n := RewriteCalls(input, defaultTarget, Bindings{}, []string{"[]"}); result != input || n != 0 {
		t.Errorf("expected no change without bindings")
	}
	if result, n := RewriteCalls("const a = 1;", defaultTarget, Bindings{Locals: []string{"keys"}}, []string{"[]"}); result != "const a = 1;" || n != 0 {
		t.Errorf("expected no change without calls")
	}
}

func TestIsImportLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{`import { keys } from "ts-transformer-keys";`, true},
		{`import * as tk from 'ts-transformer-keys';`, true},
		{`const ts_transformer_keys_1 = require("ts-transformer-keys");`, true},
		{`var x = require('ts-transformer-keys');`, true},
		{`const tk = __importStar(require("ts-transformer-keys"));`, true},
		{`import { keys } from "ts-transformer-keys-extra";`, false},
		{`import { keys } from "./keys";`, false},
		{`// require("ts-transformer-keys")`, false},
	}
	for _, tt := range tests {
		if got := isImportLine(tt.line, "ts-transformer-keys"); got != tt.want {
			t.Errorf("isImportLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
