package menu

import (
	"regexp"
	"strings"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/money"
)

type Category struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type MenuItem struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Price    money.Amount `json:"price"`
	Featured bool         `json:"featured"`
	Category Category     `json:"category"`
}

// CategoryInput is both the create body and the partial update patch.
type CategoryInput struct {
	Slug  *string `json:"slug"`
	Title *string `json:"title"`
}

// ItemInput is both the create body and the partial update patch; nil
// fields are left untouched on update.
type ItemInput struct {
	Title      *string       `json:"title"`
	Price      *money.Amount `json:"price"`
	Featured   *bool         `json:"featured"`
	CategoryID *int64        `json:"category_id"`
}

const maxTitleLen = 255

// Prices are NUMERIC(6,2): at most 9999.99.
var maxPrice = money.MustParse("9999.99")

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

func (in CategoryInput) validate(create bool) error {
	v := &apperr.ValidationError{}
	if in.Slug == nil {
		if create {
			v.Add("slug", "this field is required")
		}
	} else if !slugRe.MatchString(*in.Slug) {
		v.Add("slug", "enter a valid slug of letters, numbers, underscores or hyphens")
	}
	checkTitle(v, in.Title, create)
	return v.Err()
}

func (in ItemInput) validate(create bool) error {
	v := &apperr.ValidationError{}
	checkTitle(v, in.Title, create)
	if in.Price == nil {
		if create {
			v.Add("price", "this field is required")
		}
	} else {
		switch {
		case in.Price.IsNegative():
			v.Add("price", "must not be negative")
		case !in.Price.HasValidScale():
			v.Add("price", "ensure that there are no more than 2 decimal places")
		case in.Price.GreaterThan(maxPrice):
			v.Add("price", "ensure that there are no more than 6 digits in total")
		}
	}
	if in.CategoryID == nil && create {
		v.Add("category_id", "this field is required")
	}
	return v.Err()
}

func checkTitle(v *apperr.ValidationError, title *string, create bool) {
	if title == nil {
		if create {
			v.Add("title", "this field is required")
		}
		return
	}
	t := strings.TrimSpace(*title)
	if t == "" {
		v.Add("title", "this field may not be blank")
	} else if len(t) > maxTitleLen {
		v.Add("title", "ensure this field has no more than 255 characters")
	}
}
