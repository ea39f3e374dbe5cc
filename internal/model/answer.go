package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AnswerKind discriminates the shape of a recorded answer value.
type AnswerKind int

const (
	AnswerKindNone AnswerKind = iota
	AnswerKindSingle
	AnswerKindMulti
	AnswerKindMatrix
	AnswerKindText
)

// ErrAnswerShape is returned when an answer payload does not match the
// question type it was recorded against.
var ErrAnswerShape = errors.New("answer value does not match question type")

// AnswerValue is the tagged variant holding a student's answer for one
// question: a single option index, a set of option indices, or an ordered
// list of column choices aligned to the question's matrix rows.
//
// Values are parsed and validated once, at the boundary where the client
// records an answer; correctness is judged only at scoring time.
type AnswerValue struct {
	Kind   AnswerKind
	Single int
	Multi  []int
	Matrix []string
	Text   string
}

// ParseAnswerValue decodes a raw answer payload against the question type.
// Any well-formed value of the right shape is accepted as-is, including
// out-of-range indices — wrong answers are still answers.
func ParseAnswerValue(t QuestionType, raw json.RawMessage) (AnswerValue, error) {
	if len(raw) == 0 {
		return AnswerValue{}, ErrAnswerShape
	}

	switch t {
	case QuestionTypeSingleChoice:
		var idx int
		if err := json.Unmarshal(raw, &idx); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: %v", ErrAnswerShape, err)
		}
		return AnswerValue{Kind: AnswerKindSingle, Single: idx}, nil

	case QuestionTypeMultiSelect:
		var indices []int
		if err := json.Unmarshal(raw, &indices); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: %v", ErrAnswerShape, err)
		}
		return AnswerValue{Kind: AnswerKindMulti, Multi: indices}, nil

	case QuestionTypeMatrixTrueFalse:
		var choices []string
		if err := json.Unmarshal(raw, &choices); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: %v", ErrAnswerShape, err)
		}
		return AnswerValue{Kind: AnswerKindMatrix, Matrix: choices}, nil

	default:
		// Essay and matching answers are stored verbatim as a string value.
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: %v", ErrAnswerShape, err)
		}
		return AnswerValue{Kind: AnswerKindText, Text: text}, nil
	}
}

// UnmarshalJSON recovers the variant from its natural wire shape. The shape
// alone identifies the kind: a number is a single index, a number array is an
// index set, a string array is a column-choice list, a bare string is text.
func (v *AnswerValue) UnmarshalJSON(raw []byte) error {
	*v = AnswerValue{}
	if string(raw) == "null" {
		return nil
	}

	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		*v = AnswerValue{Kind: AnswerKindSingle, Single: idx}
		return nil
	}
	var indices []int
	if err := json.Unmarshal(raw, &indices); err == nil {
		*v = AnswerValue{Kind: AnswerKindMulti, Multi: indices}
		return nil
	}
	var choices []string
	if err := json.Unmarshal(raw, &choices); err == nil {
		*v = AnswerValue{Kind: AnswerKindMatrix, Matrix: choices}
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		*v = AnswerValue{Kind: AnswerKindText, Text: text}
		return nil
	}
	return ErrAnswerShape
}

// MarshalJSON emits the natural wire shape of the value: a bare index,
// an index array, or a column-choice array.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerKindSingle:
		return json.Marshal(v.Single)
	case AnswerKindMulti:
		return json.Marshal(v.Multi)
	case AnswerKindMatrix:
		return json.Marshal(v.Matrix)
	case AnswerKindText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}
