package model

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

type PageKind uint8

const (
	Unpaginated PageKind = iota
	Paginated
)

// Page is a list response, either a bare array or a {results, next, previous} envelope.
type Page[T any] struct {
	Kind     PageKind
	Items    []T
	Count    int
	Next     string
	Previous string
}

type envelope struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

var errNotAList = errors.New("response is neither a list nor a paginated envelope")

func DecodePage[T any](data []byte) (Page[T], error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Page[T]{}, errNotAList
	}
	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return Page[T]{}, errors.Wrap(err, "decode list")
		}
		return Page[T]{Kind: Unpaginated, Items: nonNil(items), Count: len(items)}, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return Page[T]{}, errors.Wrap(err, "decode envelope")
		}
		if env.Results == nil {
			return Page[T]{}, errNotAList
		}
		var items []T
		if err := json.Unmarshal(env.Results, &items); err != nil {
			return Page[T]{}, errors.Wrap(err, "decode results")
		}
		p := Page[T]{Kind: Paginated, Items: nonNil(items), Count: env.Count}
		if env.Next != nil {
			p.Next = *env.Next
		}
		if env.Previous != nil {
			p.Previous = *env.Previous
		}
		return p, nil
	default:
		return Page[T]{}, errNotAList
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
