// Package shelf normalizes the "Top Shelves" tags scraped from a book page
// and derives the category/genre pair written to the spreadsheet.
package shelf

import (
	"fmt"
	"strings"
)

// FiveStarShelf is appended whenever the rating is 5.
const FiveStarShelf = "5-star-books"

// List is an ordered, deduplicated set of shelf names.
type List []string

// Build filters raw shelf labels into a List. Labels carrying a user-count
// annotation (e.g. "12,345 users") are dropped, duplicates are kept once in
// first-seen order, and a rating of 5 appends FiveStarShelf.
func Build(raw []string, rating int) List {
	seen := make(map[string]struct{}, len(raw))
	shelves := make(List, 0, len(raw))

	for _, label := range raw {
		label = strings.TrimSpace(label)
		if label == "" || strings.Contains(label, " users") {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		shelves = append(shelves, label)
	}

	if rating == 5 {
		if _, ok := seen[FiveStarShelf]; !ok {
			shelves = append(shelves, FiveStarShelf)
		}
	}

	return shelves
}

// CategoryAndGenre derives the spreadsheet category and genre. Category is
// "Nonfiction" when that shelf is present, "Fiction" otherwise; genre is the
// first shelf that is not the category.
func CategoryAndGenre(shelves List) (category, genre string, err error) {
	category = "Fiction"
	for _, s := range shelves {
		if s == "Nonfiction" {
			category = "Nonfiction"
			break
		}
	}

	for _, s := range shelves {
		if s != category {
			return category, s, nil
		}
	}
	return "", "", fmt.Errorf("no genre shelf found besides category %q", category)
}
