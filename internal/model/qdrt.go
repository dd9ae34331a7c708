package model

import "fmt"

// Field names one attribute of a question's answer.
type Field string

const (
	FieldOriginalFinding  Field = "original_finding"
	FieldFinalFinding     Field = "final_finding"
	FieldItemizedConcerns Field = "itemized_concerns"
	FieldOriginalRisk     Field = "original_risk"
	FieldFinalRisk        Field = "final_risk"
	FieldComments         Field = "comments"
)

// AnswerFields lists the six answer fields in column order.
var AnswerFields = []Field{
	FieldOriginalFinding,
	FieldFinalFinding,
	FieldItemizedConcerns,
	FieldOriginalRisk,
	FieldFinalRisk,
	FieldComments,
}

// EnumeratedFields are restricted to the option sets declared by the checklist.
var EnumeratedFields = []Field{
	FieldOriginalFinding,
	FieldFinalFinding,
	FieldOriginalRisk,
	FieldFinalRisk,
}

func (f Field) IsEnumerated() bool {
	for _, e := range EnumeratedFields {
		if e == f {
			return true
		}
	}
	return false
}

func ParseField(name string) (Field, error) {
	for _, f := range AnswerFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown answer field %q", name)
}

// Question is one checklist item. Questions are compiled in and never change at runtime.
type Question struct {
	ID       int          `json:"id"`
	Prompt   string       `json:"prompt"`
	Defaults AnswerRecord `json:"defaults"`
}

// AnswerRecord is a partial answer. A nil field is absent and falls back to the question default.
type AnswerRecord struct {
	OriginalFinding  *string `json:"original_finding,omitempty"`
	FinalFinding     *string `json:"final_finding,omitempty"`
	ItemizedConcerns *string `json:"itemized_concerns,omitempty"`
	OriginalRisk     *string `json:"original_risk,omitempty"`
	FinalRisk        *string `json:"final_risk,omitempty"`
	Comments         *string `json:"comments,omitempty"`
}

func (r *AnswerRecord) slot(f Field) **string {
	switch f {
	case FieldOriginalFinding:
		return &r.OriginalFinding
	case FieldFinalFinding:
		return &r.FinalFinding
	case FieldItemizedConcerns:
		return &r.ItemizedConcerns
	case FieldOriginalRisk:
		return &r.OriginalRisk
	case FieldFinalRisk:
		return &r.FinalRisk
	case FieldComments:
		return &r.Comments
	}
	return nil
}

// Value returns the stored value for f and whether it is present.
func (r AnswerRecord) Value(f Field) (string, bool) {
	p := r.slot(f)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// With returns a copy of r with f set to value.
func (r AnswerRecord) With(f Field, value string) AnswerRecord {
	if p := r.slot(f); p != nil {
		v := value
		*p = &v
	}
	return r
}

// Merge returns a copy of r with every present field of patch applied on top.
func (r AnswerRecord) Merge(patch AnswerRecord) AnswerRecord {
	out := r.Clone()
	for _, f := range AnswerFields {
		if v, ok := patch.Value(f); ok {
			out = out.With(f, v)
		}
	}
	return out
}

// Clone copies the record so that callers never share string pointers with the repository.
func (r AnswerRecord) Clone() AnswerRecord {
	var out AnswerRecord
	for _, f := range AnswerFields {
		if v, ok := r.Value(f); ok {
			out = out.With(f, v)
		}
	}
	return out
}

func (r AnswerRecord) IsEmpty() bool {
	for _, f := range AnswerFields {
		if _, ok := r.Value(f); ok {
			return false
		}
	}
	return true
}

// Resolve returns the value of f from r, then from defaults, then the empty string.
func (r AnswerRecord) Resolve(f Field, defaults AnswerRecord) string {
	if v, ok := r.Value(f); ok {
		return v
	}
	if v, ok := defaults.Value(f); ok {
		return v
	}
	return ""
}

// Answers maps question id to its stored partial answer.
type Answers map[int]AnswerRecord

func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for id, rec := range a {
		out[id] = rec.Clone()
	}
	return out
}

// ResolvedAnswer is an answer with defaults applied, as shown to the reviewer.
type ResolvedAnswer struct {
	OriginalFinding  string `json:"original_finding"`
	FinalFinding     string `json:"final_finding"`
	ItemizedConcerns string `json:"itemized_concerns"`
	OriginalRisk     string `json:"original_risk"`
	FinalRisk        string `json:"final_risk"`
	Comments         string `json:"comments"`
}

func ResolveAnswer(q Question, rec AnswerRecord) ResolvedAnswer {
	return ResolvedAnswer{
		OriginalFinding:  rec.Resolve(FieldOriginalFinding, q.Defaults),
		FinalFinding:     rec.Resolve(FieldFinalFinding, q.Defaults),
		ItemizedConcerns: rec.Resolve(FieldItemizedConcerns, q.Defaults),
		OriginalRisk:     rec.Resolve(FieldOriginalRisk, q.Defaults),
		FinalRisk:        rec.Resolve(FieldFinalRisk, q.Defaults),
		Comments:         rec.Resolve(FieldComments, q.Defaults),
	}
}

// Values lists the resolved values in column order.
func (r ResolvedAnswer) Values() []string {
	return []string{
		r.OriginalFinding,
		r.FinalFinding,
		r.ItemizedConcerns,
		r.OriginalRisk,
		r.FinalRisk,
		r.Comments,
	}
}
