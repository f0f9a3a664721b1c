package state

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/gofhir/profiletree/walker"
)

// ErrUnknownEvent is returned by DecodeEvent for an unrecognized type.
var ErrUnknownEvent = errors.New("unknown event type")

// EncodeExpanded serializes the expanded set as a JSON array of paths in
// lexical order.
func EncodeExpanded(paths walker.PathSet) []byte {
	data, err := json.Marshal(paths.Sorted())
	if err != nil {
		return []byte("[]")
	}
	return data
}

// DecodeExpanded parses persisted expanded state. Malformed data, a value
// that is not an array, and non-string entries all decode to nothing; it
// never fails.
func DecodeExpanded(data []byte) walker.PathSet {
	set := make(walker.PathSet)
	if len(data) == 0 {
		return set
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return set
	}
	for _, item := range items {
		if p, ok := item.(string); ok {
			set.Add(p)
		}
	}
	return set
}

type envelope struct {
	Type string `json:"type"`
}

// DecodeEvent decodes one event from its JSON envelope:
//
//	{"type": "select-by-path", "path": "Patient.name.family"}
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	var (
		e   Event
		err error
	)
	switch env.Type {
	case TypeTogglePath:
		e, err = decodeInto[TogglePath](data)
	case TypeSelect:
		e, err = decodeInto[Select](data)
	case TypeSelectByPath:
		e, err = decodeInto[SelectByPath](data)
	case TypeSetFilter:
		e, err = decodeInto[SetFilter](data)
	case TypeSetSearch:
		e, err = decodeInto[SetSearch](data)
	case TypeExpandAll:
		e = ExpandAll{}
	case TypeCollapseAll:
		e = CollapseAll{}
	case TypeSetSliceView:
		e, err = decodeInto[SetSliceView](data)
	case TypeExpandPath:
		e, err = decodeInto[ExpandPath](data)
	case TypeCollapsePath:
		e, err = decodeInto[CollapsePath](data)
	case TypePatchSelected:
		e, err = decodeInto[PatchSelected](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
	}
	return e, nil
}

// DecodeEvents decodes either a single event object or an array of them.
func DecodeEvents(data []byte) ([]Event, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		e, err := DecodeEvent(data)
		if err != nil {
			return nil, err
		}
		return []Event{e}, nil
	}
	events := make([]Event, 0, len(raws))
	for i, raw := range raws {
		e, err := DecodeEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func decodeInto[E Event](data []byte) (Event, error) {
	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}
