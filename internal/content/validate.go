package content

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// fieldMessages holds the form text for each failing field and tag.
var fieldMessages = map[string]string{
	"Rating.min":        "Please select a star rating between 1 and 5.",
	"Rating.max":        "Please select a star rating between 1 and 5.",
	"Review.required":   "Please write a few words about your experience.",
	"Review.max":        "Your review is too long.",
	"Location.required": "Please choose the home you are reviewing.",
	"Email.required":    "Please enter your email address.",
	"Email.email":       "Please enter a valid email address.",
	"Name.required":     "Please enter your name.",
	"Name.max":          "Your name is too long.",
	"Phone.max":         "Your phone number is too long.",
	"Message.required":  "Please enter a message.",
	"Message.max":       "Your message is too long.",
}

// check validates v and returns a *ValidationError for the first failing field.
func (c *Client) check(v any) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	fe := verrs[0]
	msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg = fmt.Sprintf("Please check the %s field.", fe.Field())
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}
