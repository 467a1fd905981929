package parts

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotJSON is returned by Decode when the payload is not a JSON object
var ErrNotJSON = errors.New("part payload is not a JSON object")

// Decode reads a part from the transport's JSON shape. Fields may be absent,
// null or of the wrong type at any point while a part is streaming; those
// are defaulted instead of reported. Only a payload that is not a JSON
// object at all is an error.
func Decode(raw []byte) (*Part, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrNotJSON
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, ErrNotJSON
	}

	p := &Part{
		ID:       str(doc, "id"),
		ThreadID: str(doc, "thread_id"),
		IsDone:   doc.Get("is_done").Type == gjson.True,
		Status:   Status(strings.ToLower(str(doc, "status"))),
	}
	p.CreatedAt, _ = ParseTimestamp(str(doc, "created_at"))
	p.FinishedAt, _ = ParseTimestamp(str(doc, "finished_at"))

	switch Variant(strings.ToLower(str(doc, "type"))) {
	case VariantTool:
		p.Body = decodeTool(doc)
	case VariantThinking:
		p.Body = decodeThinking(doc)
	case VariantError:
		p.Body = decodeError(doc)
	default:
		p.Body = decodeText(doc)
	}
	return p, nil
}

func decodeText(doc gjson.Result) *TextBody {
	body := &TextBody{Text: str(doc, "text")}
	annotations := doc.Get("meta_data.annotations")
	if !annotations.IsArray() {
		return body
	}
	annotations.ForEach(func(_, a gjson.Result) bool {
		if !a.IsObject() {
			return true
		}
		body.Annotations = append(body.Annotations, Citation{
			Type:       str(a, "type"),
			URL:        str(a, "url"),
			Title:      str(a, "title"),
			StartIndex: int(a.Get("start_index").Int()),
			EndIndex:   int(a.Get("end_index").Int()),
		})
		return true
	})
	return body
}

func decodeTool(doc gjson.Result) *ToolBody {
	body := &ToolBody{
		Name:   str(doc, "name"),
		Result: rawField(doc, "result"),
		Error:  rawField(doc, "error"),
		Input:  rawField(doc, "input"),
	}
	switch args := doc.Get("arguments"); args.Type {
	case gjson.String:
		s := args.String()
		body.Arguments = &s
	case gjson.JSON:
		s := args.Raw
		body.Arguments = &s
	}
	body.WebSearch = doc.Get("web_search").Type == gjson.True ||
		strings.EqualFold(str(doc, "provider_tool"), "web_search")
	return body
}

func decodeThinking(doc gjson.Result) *ThinkingBody {
	body := &ThinkingBody{Text: str(doc, "text")}
	if summary := doc.Get("summary"); summary.IsArray() {
		for _, s := range summary.Array() {
			if s.Type == gjson.String {
				body.Summary = append(body.Summary, s.String())
			}
		}
	}
	return body
}

func decodeError(doc gjson.Result) *ErrorBody {
	body := &ErrorBody{
		Code:          str(doc, "error_code"),
		Message:       str(doc, "error_message"),
		Type:          str(doc, "error_type"),
		FailedIn:      str(doc, "failed_in"),
		TotalAttempts: int(doc.Get("total_attempts").Int()),
	}
	switch doc.Get("retryable").Type {
	case gjson.True:
		v := true
		body.Retryable = &v
	case gjson.False:
		v := false
		body.Retryable = &v
	}
	return body
}

// str reads a string field, ignoring values of any other JSON type
func str(doc gjson.Result, path string) string {
	v := doc.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}

func rawField(doc gjson.Result, path string) json.RawMessage {
	v := doc.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	return json.RawMessage(v.Raw)
}
