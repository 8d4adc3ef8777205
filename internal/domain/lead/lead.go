// Package lead models a prospective-client form submission.
//
// Only name and email are enforced. Every other submitted key is kept in
// Extra and re-emitted verbatim when the lead is encoded for a downstream
// system.
package lead

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Recognized field names.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldCompany     = "company"
	FieldProjectType = "project_type"
	FieldBudget      = "budget"
	FieldTimeline    = "timeline"
	FieldDescription = "description"
	FieldPlan        = "plan"
)

// ErrMissingNameOrEmail is returned by Validate; its text is the client-facing message.
var ErrMissingNameOrEmail = errors.New("Missing name or email") //nolint:staticcheck // wire message

// Lead is a submission with two required fields and an opaque remainder.
//
// Name and Email are display strings. When the submitted value was not a
// JSON string it is kept as-is and returned by NameValue and EmailValue.
type Lead struct {
	Name  string
	Email string
	// Extra holds every submitted key other than name and email.
	Extra map[string]any

	rawName, rawEmail any
}

// ErrMalformed is returned by Decode for bodies that are not a single JSON object.
var ErrMalformed = errors.New("malformed lead body")

// Parse decodes body leniently. Malformed JSON, or JSON that is not an
// object, yields an empty Lead so the caller falls through to Validate.
func Parse(body []byte) Lead {
	l, err := Decode(body)
	if err != nil {
		return Lead{}
	}
	return l
}

// Decode is the strict form of Parse.
func Decode(body []byte) (Lead, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Lead{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if fields == nil {
		return Lead{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Lead{}, fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	return FromFields(fields), nil
}

// FromFields splits a decoded object into the required fields and Extra.
// Non-string name or email values are kept verbatim alongside a display string.
func FromFields(fields map[string]any) Lead {
	l := Lead{Extra: make(map[string]any, len(fields))}
	for k, v := range fields {
		switch k {
		case FieldName:
			l.Name, l.rawName = split(v)
		case FieldEmail:
			l.Email, l.rawEmail = split(v)
		default:
			l.Extra[k] = v
		}
	}
	return l
}

// split returns the display form of v and, unless v is a string, v itself.
func split(v any) (string, any) {
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", nil
	case json.Number:
		return t.String(), t
	case bool:
		return strconv.FormatBool(t), t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", t
		}
		return string(b), t
	}
}

// NameValue returns the submitted name as decoded, or Name when it was a string.
func (l Lead) NameValue() any { return value(l.Name, l.rawName) }

// EmailValue returns the submitted email as decoded, or Email when it was a string.
func (l Lead) EmailValue() any { return value(l.Email, l.rawEmail) }

func value(s string, raw any) any {
	if raw != nil {
		return raw
	}
	return s
}

// Validate reports ErrMissingNameOrEmail when either required field is falsy:
// absent, null, "", false or a numeric zero. Any other value is accepted.
func (l Lead) Validate() error {
	if !truthy(l.NameValue()) || !truthy(l.EmailValue()) {
		return ErrMissingNameOrEmail
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

// MarshalJSON emits Extra plus the required fields as one flat object.
func (l Lead) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.Extra)+2)
	for k, v := range l.Extra {
		out[k] = v
	}
	if v := l.NameValue(); v != "" {
		out[FieldName] = v
	}
	if v := l.EmailValue(); v != "" {
		out[FieldEmail] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes strictly; use Parse for untrusted request bodies.
func (l *Lead) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	*l = FromFields(fields)
	return nil
}

// Company returns the company field or "".
func (l Lead) Company() string { return l.str(FieldCompany) }

// ProjectType returns the project_type field or "".
func (l Lead) ProjectType() string { return l.str(FieldProjectType) }

// Budget returns the free-text budget or "".
func (l Lead) Budget() string { return l.str(FieldBudget) }

// Timeline returns the timeline field or "".
func (l Lead) Timeline() string { return l.str(FieldTimeline) }

// Description returns the description field or "".
func (l Lead) Description() string { return l.str(FieldDescription) }

// Plan returns the plan field or "".
func (l Lead) Plan() string { return l.str(FieldPlan) }

func (l Lead) str(key string) string {
	s, _ := l.Extra[key].(string)
	return s
}

// BudgetAmount coerces the budget to a number: every character other than
// digits and '.' is dropped, then the longest numeric prefix is parsed.
// "$5,000 - $10,000" becomes 500010000; anything unparsable becomes 0.
// Numeric JSON budgets are returned as-is.
func (l Lead) BudgetAmount() float64 {
	if n, ok := l.Extra[FieldBudget].(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	}

	var b strings.Builder
	for _, r := range l.Budget() {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return parseNumericPrefix(b.String())
}

func parseNumericPrefix(s string) float64 {
	end := 0
	seenDot := false
	for end < len(s) {
		if s[end] == '.' {
			if seenDot {
				break
			}
			seenDot = true
		}
		end++
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}
