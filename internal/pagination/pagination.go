// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pagination splits ordered listings into numbered pages.
// Out-of-range page requests are clamped instead of rejected: anything
// that isn't a positive integer shows the first page, and numbers past the
// end show the last one.
package pagination

import (
	"math"
	"strconv"
)

// Page is one slice of a listing plus the numbers needed to navigate it.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Number      int  `json:"page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	NumPages    int  `json:"num_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// New builds a Page for items at the given (already clamped) number.
func New[T any](items []T, number, perPage, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	n := NumPages(total, perPage)
	return &Page[T]{
		Items:       items,
		Number:      number,
		PerPage:     perPage,
		Total:       total,
		NumPages:    n,
		HasNext:     number < n,
		HasPrevious: number > 1,
	}
}

// NumPages returns how many pages total items fill. An empty listing still
// has one (empty) page.
func NumPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// ParseNumber reads a ?page= value. Missing or non-numeric input yields 1.
func ParseNumber(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Clamp limits number to [1, NumPages(total, perPage)].
func Clamp(number, perPage, total int) int {
	if number < 1 {
		return 1
	}
	if last := NumPages(total, perPage); number > last {
		return last
	}
	return number
}

// ListFunc loads one window of a listing and reports the listing's total size.
type ListFunc[T any] func(limit, offset int) ([]T, int, error)

// Fetch loads page number of a listing. When number lies past the last page
// the listing is read again at the last page.
func Fetch[T any](number, perPage int, list ListFunc[T]) (*Page[T], error) {
	if number < 1 {
		number = 1
	}
	if last := maxNumber(perPage); number > last {
		number = last
	}
	items, total, err := list(perPage, Offset(number, perPage))
	if err != nil {
		return nil, err
	}
	if clamped := Clamp(number, perPage, total); clamped != number {
		number = clamped
		items, total, err = list(perPage, Offset(number, perPage))
		if err != nil {
			return nil, err
		}
	}
	return New(items, number, perPage, total), nil
}

// Offset returns the row offset of page number. Numbers too large for the
// offset to fit in an int are treated as the largest one that does.
func Offset(number, perPage int) int {
	if number < 1 {
		return 0
	}
	if last := maxNumber(perPage); number > last {
		number = last
	}
	return (number - 1) * perPage
}

// maxNumber is the largest page number whose offset cannot overflow.
func maxNumber(perPage int) int {
	if perPage <= 0 {
		return math.MaxInt
	}
	return math.MaxInt / perPage
}

// Map converts the items of p with f, keeping the page metadata.
func Map[T, U any](p *Page[T], f func(T) U) *Page[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = f(it)
	}
	return &Page[U]{
		Items:       items,
		Number:      p.Number,
		PerPage:     p.PerPage,
		Total:       p.Total,
		NumPages:    p.NumPages,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrevious,
	}
}
