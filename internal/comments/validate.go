package comments

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inkgraph/internal/apperr"
)

// Field limits, counted in runes.
const (
	MaxAuthorNameLength = 40
	MaxContentLength    = 5000
	MaxPasswordLength   = 128
)

// CreateInput is the caller-supplied data for a new comment.
type CreateInput struct {
	AuthorName string `json:"authorName"`
	Password   string `json:"password"`
	Content    string `json:"content"`
}

// UpdateInput is the caller-supplied data for editing a comment.
type UpdateInput struct {
	Password string `json:"password"`
	Content  string `json:"content"`
}

// DeleteInput is the caller-supplied data for deleting a comment.
type DeleteInput struct {
	Password string `json:"password"`
}

func authorNameRules(v string) error {
	return validation.Validate(strings.TrimSpace(v),
		validation.Required.Error("author name is required"),
		validation.RuneLength(0, MaxAuthorNameLength).Error(fmt.Sprintf("author name must be at most %d characters", MaxAuthorNameLength)),
	)
}

func contentRules(v string) error {
	return validation.Validate(strings.TrimSpace(v),
		validation.Required.Error("content is required"),
		validation.RuneLength(0, MaxContentLength).Error(fmt.Sprintf("content must be at most %d characters", MaxContentLength)),
	)
}

// Passwords are never trimmed; whitespace inside them is significant. A
// password made only of whitespace is still rejected as blank.
func passwordRules(v string) error {
	return validation.Validate(v,
		validation.By(func(any) error {
			if strings.TrimSpace(v) == "" {
				return errors.New("password is required")
			}
			return nil
		}),
		validation.RuneLength(0, MaxPasswordLength).Error(fmt.Sprintf("password must be at most %d characters", MaxPasswordLength)),
	)
}

// Validate implements validation.Validatable.
func (in CreateInput) Validate() error {
	return validation.Errors{
		"authorName": authorNameRules(in.AuthorName),
		"password":   passwordRules(in.Password),
		"content":    contentRules(in.Content),
	}.Filter()
}

// Validate implements validation.Validatable.
func (in UpdateInput) Validate() error {
	return validation.Errors{
		"password": passwordRules(in.Password),
		"content":  contentRules(in.Content),
	}.Filter()
}

// Validate implements validation.Validatable.
func (in DeleteInput) Validate() error {
	return validation.Errors{
		"password": passwordRules(in.Password),
	}.Filter()
}

func validateCommentID(id int64) error {
	if id <= 0 {
		return invalid(validation.Errors{"commentId": errors.New("comment id must be a positive integer")})
	}
	return nil
}

// invalid tags a validation failure so callers can match apperr.ErrInvalidInput
// and still reach the field-level validation.Errors.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
}
