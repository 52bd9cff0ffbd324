package docs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

type operation struct {
	Summary    string   `json:"summary"`
	Consumes   []string `json:"consumes"`
	Produces   []string `json:"produces"`
	Parameters []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"parameters"`
	Responses map[string]json.RawMessage `json:"responses"`
}

var annotation = regexp.MustCompile(`^//\s+@(\w+)\s*(.*)$`)

// TestDocMatchesAnnotations checks every annotated handler against the
// registered document.
func TestDocMatchesAnnotations(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]operation `json:"paths"`
	}
	if err := json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("doc is not valid JSON: %v", err)
	}

	files, err := filepath.Glob(filepath.Join("..", "internal", "api", "handler", "*.go"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no handler sources: %v", err)
	}

	seen := 0
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		src, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}

		var block [][2]string
		for _, line := range strings.Split(string(src), "\n") {
			if m := annotation.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				block = append(block, [2]string{m[1], strings.TrimSpace(m[2])})
				continue
			}
			if len(block) > 0 {
				checkOperation(t, doc.Paths, block)
				seen++
				block = nil
			}
		}
	}
	if seen != len(allOperations(doc.Paths)) {
		t.Fatalf("annotated %d operations, doc has %d", seen, len(allOperations(doc.Paths)))
	}
}

func checkOperation(t *testing.T, paths map[string]map[string]operation, block [][2]string) {
	t.Helper()

	var (
		route, method, summary string
		accept, produce        bool
		params                 = map[string]string{}
		codes                  []string
	)
	for _, kv := range block {
		switch kv[0] {
		case "Router":
			fields := strings.Fields(kv[1])
			route, method = fields[0], strings.Trim(fields[1], "[]")
		case "Summary":
			summary = kv[1]
		case "Accept":
			accept = true
		case "Produce":
			produce = true
		case "Param":
			name := strings.Fields(kv[1])[0]
			desc := kv[1][strings.Index(kv[1], `"`)+1 : strings.LastIndex(kv[1], `"`)]
			params[name] = desc
		case "Success", "Failure":
			codes = append(codes, strings.Fields(kv[1])[0])
		}
	}

	op, ok := paths[route][method]
	if !ok {
		t.Errorf("%s %s missing from doc", method, route)
		return
	}
	if op.Summary != summary {
		t.Errorf("%s %s: summary %q, annotated %q", method, route, op.Summary, summary)
	}
	if accept != (len(op.Consumes) > 0) || produce != (len(op.Produces) > 0) {
		t.Errorf("%s %s: consumes/produces do not match annotations", method, route)
	}
	if len(op.Parameters) != len(params) {
		t.Errorf("%s %s: %d parameters, annotated %d", method, route, len(op.Parameters), len(params))
	}
	for _, p := range op.Parameters {
		if params[p.Name] != p.Description {
			t.Errorf("%s %s: param %s described %q, annotated %q", method, route, p.Name, p.Description, params[p.Name])
		}
	}
	if len(op.Responses) != len(codes) {
		t.Errorf("%s %s: %d responses, annotated %d", method, route, len(op.Responses), len(codes))
	}
	for _, c := range codes {
		if _, ok := op.Responses[c]; !ok {
			t.Errorf("%s %s: response %s missing", method, route, c)
		}
	}
}

func allOperations(paths map[string]map[string]operation) []string {
	var out []string
	for p, methods := range paths {
		for m := range methods {
			out = append(out, m+" "+p)
		}
	}
	return out
}
