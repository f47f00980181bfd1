package query

import (
	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// Validate is the strict gate used by transports. Query itself stays total and
// treats an unknown sortBy as "keep input order".
func Validate(spec Spec) error {
	if err := validate.Struct(spec); err != nil {
		return errors.Wrap(models.ErrInvalidSpec, err.Error())
	}
	if spec.SortBy != "" && !SortFieldKnown(spec.SortBy) {
		return errors.Wrapf(models.ErrInvalidSpec, "unknown sortBy %q", spec.SortBy)
	}
	if spec.FromDate != nil && spec.ToDate != nil && spec.ToDate.Before(*spec.FromDate) {
		return errors.Wrap(models.ErrInvalidSpec, "toDate is before fromDate")
	}
	return nil
}
