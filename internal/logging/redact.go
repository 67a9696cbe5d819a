package logging

import (
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// defaultSensitiveFields are JSON field names whose values are replaced
// before a request/response body is written to the log, regardless of how
// deeply nested they are.
var defaultSensitiveFields = []string{
	"access_token", "refresh_token", "token", "password", "secret", "api_key", "apiKey",
}

// RedactJSON returns body with the value of every sensitive field (see
// defaultSensitiveFields, plus any extra names) replaced with
// "***redacted***". A body that is not valid JSON is returned unchanged:
// logging exists to help debugging, not to silently corrupt the payload
// under inspection.
func RedactJSON(body []byte, extra ...string) []byte {
	if !gjson.ValidBytes(body) {
		return body
	}

	fields := make(map[string]bool, len(defaultSensitiveFields)+len(extra))
	for _, f := range defaultSensitiveFields {
		fields[f] = true
	}
	for _, f := range extra {
		fields[f] = true
	}

	redacted := body
	for _, path := range sensitivePaths(gjson.ParseBytes(body), "", fields) {
		next, err := sjson.SetBytes(redacted, path, "***redacted***")
		if err != nil {
			continue
		}
		redacted = next
	}
	return redacted
}

// sensitivePaths walks value depth-first, returning the gjson/sjson path of
// every object key in fields.
func sensitivePaths(value gjson.Result, prefix string, fields map[string]bool) []string {
	var out []string
	if !value.IsObject() && !value.IsArray() {
		return out
	}

	index := 0
	value.ForEach(func(key, v gjson.Result) bool {
		var path string
		if value.IsArray() {
			path = joinPath(prefix, strconv.Itoa(index))
			index++
		} else {
			path = joinPath(prefix, key.String())
			if fields[key.String()] {
				out = append(out, path)
			}
		}
		out = append(out, sensitivePaths(v, path, fields)...)
		return true
	})
	return out
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
