package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Answer is a participant's response to one question: a single value
// (option id or typed text) or a set of option ids.
type Answer struct {
	Values []string
	Multi  bool
}

func SingleAnswer(value string) Answer {
	return Answer{Values: []string{value}}
}

func MultiAnswer(values ...string) Answer {
	if values == nil {
		values = []string{}
	}
	return Answer{Values: values, Multi: true}
}

// Single returns the single value, or "" for an empty answer.
func (a Answer) Single() string {
	if len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

func (a Answer) IsEmpty() bool {
	for _, v := range a.Values {
		if v != "" {
			return false
		}
	}
	return true
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Multi {
		values := a.Values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	return json.Marshal(a.Single())
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = Answer{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*a = MultiAnswer(values...)
		return nil
	case len(data) > 0 && data[0] == '"':
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*a = SingleAnswer(value)
		return nil
	default:
		return fmt.Errorf("answer must be a string or an array of strings, got %s", data)
	}
}

// AnswerMap maps question ids to the participant's latest answer.
type AnswerMap map[string]Answer

// Clone returns an independent copy of the map.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for id, a := range m {
		values := make([]string, len(a.Values))
		copy(values, a.Values)
		out[id] = Answer{Values: values, Multi: a.Multi}
	}
	return out
}
