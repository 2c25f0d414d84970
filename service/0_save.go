package service

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fulldump/apitest"
)

const (
	docsHost = "slotdb.local:8080"
	docsDate = "Thu, 01 Oct 2026 10:00:00 GMT"

	// binary bodies are cut to this many bytes in the examples
	dumpLimit = 64
)

// Save writes a markdown example of the exchange into API_EXAMPLES_PATH, if
// set.
func Save(response *apitest.Response, title, description string) {
	examplesPath := os.Getenv("API_EXAMPLES_PATH")
	if examplesPath == "" {
		return
	}

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := filepath.Join(examplesPath, filepath.Clean(filename))
	err := os.WriteFile(p, []byte(renderExample(response, title, description)), 0666)
	if err != nil {
		fmt.Println("save example:", err)
	}
}

func renderExample(response *apitest.Response, title, description string) string {
	request := response.Request

	target := request.URL.Path
	if request.URL.RawQuery != "" {
		target += "?" + request.URL.RawQuery
	}
	requestBody := renderBody(request.Header, response.BodyRequestBytes())

	md := &strings.Builder{}
	fmt.Fprintf(md, "# %s\n%s\n", title, trimIndent(description))

	md.WriteString("Curl example:\n\n```sh\ncurl")
	if request.Method != http.MethodGet {
		md.WriteString(" -X " + request.Method)
	}
	fmt.Fprintf(md, " \"http://%s%s\"", docsHost, target)
	for _, line := range headerLines(request.Header) {
		fmt.Fprintf(md, " \\\n  -H \"%s\"", line)
	}
	if requestBody != "" {
		fmt.Fprintf(md, " \\\n  -d '%s'", requestBody)
	}
	md.WriteString("\n```\n\n")

	md.WriteString("HTTP request/response example:\n\n```http\n")
	fmt.Fprintf(md, "%s %s %s\nHost: %s\n", request.Method, target, request.Proto, docsHost)
	for _, line := range headerLines(request.Header) {
		md.WriteString(line + "\n")
	}
	md.WriteString("\n")
	if requestBody != "" {
		md.WriteString(requestBody + "\n\n")
	}

	fmt.Fprintf(md, "%s %s\n", response.Proto, response.Status)
	for _, line := range headerLines(response.Header) {
		md.WriteString(line + "\n")
	}
	md.WriteString("\n")
	md.WriteString(renderBody(response.Header, response.BodyBytes()) + "\n")
	md.WriteString("```\n")

	return md.String()
}

// headerLines returns sorted "Key: value" lines. Date is pinned so examples
// do not change between runs.
func headerLines(header http.Header) []string {
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{}
	for _, k := range keys {
		if k == "Date" {
			lines = append(lines, "Date: "+docsDate)
			continue
		}
		for _, v := range header[k] {
			lines = append(lines, k+": "+v)
		}
	}
	return lines
}

// renderBody pretty prints JSON and NDJSON bodies. Export frames and any other
// octet-stream are shown as a hex dump.
func renderBody(header http.Header, body []byte) string {
	if len(body) == 0 {
		return ""
	}

	if strings.HasPrefix(header.Get("Content-Type"), "application/octet-stream") {
		dump := body
		if len(dump) > dumpLimit {
			dump = dump[:dumpLimit]
		}
		s := fmt.Sprintf("<%d bytes", len(body))
		if size := header.Get("X-Element-Size"); size != "" {
			s += ", element size " + size
		}
		if count := header.Get("X-Count"); count != "" {
			s += ", " + count + " records"
		}
		if c := header.Get("X-Compression"); c != "" {
			s += ", " + c
		}
		s += ">\n" + strings.TrimRight(hex.Dump(dump), "\n")
		if len(body) > dumpLimit {
			s += "\n..."
		}
		return s
	}

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) > 1 {
		// one document per line stays compact
		return strings.Join(lines, "\n")
	}

	indented, err := indentJSON(body)
	if err != nil {
		return string(body)
	}
	return indented
}

func indentJSON(body []byte) (string, error) {
	var v any
	d := json.NewDecoder(strings.NewReader(string(body)))
	d.UseNumber()
	err := d.Decode(&v)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(v, "", "    ")
	return string(b), err
}

// trimIndent removes the common leading tabs of a description written inline
// in a test, along with its first and last lines when they are blank.
func trimIndent(d string) string {
	lines := strings.Split(d, "\n")
	if len(lines) > 2 {
		lines = lines[1 : len(lines)-1]
	}

	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, "\t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent > 0 {
		for i, line := range lines {
			lines[i] = strings.TrimPrefix(line, strings.Repeat("\t", indent))
		}
	}

	return strings.ReplaceAll(strings.Join(lines, "\n"), "´´´", "```")
}
