package checks

import (
	"errors"
	"fmt"
)

// Check kind IDs as used in checklist files.
const (
	KindRequiredColumns = "required-columns"
	KindTextLength      = "text-length"
	KindMissingValues   = "missing-values"
	KindUniqueIntegers  = "unique-integers"
	KindLookupValues    = "lookup-values"
	KindAllowedValues   = "allowed-values"
)

var onFailOption = Option{
	Name:        "on_fail",
	Description: "error halts the run when the check fails; warn records the failure and continues.",
	Default:     "warn",
}

func columnOption(what string) Option {
	return Option{Name: "column", Description: "Column " + what + "."}
}

type requiredColumnsKind struct{}

func (requiredColumnsKind) ID() string    { return KindRequiredColumns }
func (requiredColumnsKind) Title() string { return TitleRequiredColumns }
func (requiredColumnsKind) Description() string {
	return "Verifies that every required column is present and, unless extra columns are allowed, that no other column is."
}
func (requiredColumnsKind) Options() []Option {
	return []Option{
		{Name: "columns", Description: "Required column names."},
		{Name: "allow_extra", Description: "Accept columns not listed in columns.", Default: "false"},
		onFailOption,
	}
}
func (requiredColumnsKind) Run(v *Validator, p Params) error {
	if len(p.Columns) == 0 {
		return errors.New("required-columns: columns must not be empty")
	}
	return v.CheckColumns(p.Columns, p.AllowExtra, p.OnFail)
}

type textLengthKind struct{}

func (textLengthKind) ID() string    { return KindTextLength }
func (textLengthKind) Title() string { return TitleTextLength }
func (textLengthKind) Description() string {
	return "Verifies that no non-missing value of a column is longer than a maximum number of characters."
}
func (textLengthKind) Options() []Option {
	return []Option{
		columnOption("to measure"),
		{Name: "max_length", Description: "Maximum number of characters."},
		onFailOption,
	}
}
func (textLengthKind) Run(v *Validator, p Params) error {
	if p.Column == "" {
		return errors.New("text-length: column is required")
	}
	if p.MaxLength == nil {
		return errors.New("text-length: max_length is required")
	}
	if *p.MaxLength < 0 {
		return fmt.Errorf("text-length: max_length must be >= 0, got %d", *p.MaxLength)
	}
	return v.CheckTextLength(p.Column, *p.MaxLength, p.OnFail)
}

type missingValuesKind struct{}

func (missingValuesKind) ID() string    { return KindMissingValues }
func (missingValuesKind) Title() string { return TitleMissingValues }
func (missingValuesKind) Description() string {
	return "Verifies that a column has no missing values."
}
func (missingValuesKind) Options() []Option {
	return []Option{columnOption("that must be complete"), onFailOption}
}
func (missingValuesKind) Run(v *Validator, p Params) error {
	if p.Column == "" {
		return errors.New("missing-values: column is required")
	}
	return v.CheckMissingValues(p.Column, p.OnFail)
}

type uniqueIntegersKind struct{}

func (uniqueIntegersKind) ID() string    { return KindUniqueIntegers }
func (uniqueIntegersKind) Title() string { return TitleUniqueIntegers }
func (uniqueIntegersKind) Description() string {
	return "Verifies that every value of a column is an integer and that no value repeats."
}
func (uniqueIntegersKind) Options() []Option {
	return []Option{columnOption("holding identifiers"), onFailOption}
}
func (uniqueIntegersKind) Run(v *Validator, p Params) error {
	if p.Column == "" {
		return errors.New("unique-integers: column is required")
	}
	return v.CheckUniqueIntegers(p.Column, p.OnFail)
}

type lookupValuesKind struct{}

func (lookupValuesKind) ID() string    { return KindLookupValues }
func (lookupValuesKind) Title() string { return TitleLookupValues }
func (lookupValuesKind) Description() string {
	return "Verifies that every value of a column is a code of at most four characters found in the reference scheme."
}
func (lookupValuesKind) Options() []Option {
	return []Option{columnOption("holding codes"), onFailOption}
}
func (lookupValuesKind) Run(v *Validator, p Params) error {
	if p.Column == "" {
		return errors.New("lookup-values: column is required")
	}
	if p.Codes == nil {
		return errors.New("lookup-values: a reference scheme is required")
	}
	return v.CheckLookupValues(p.Column, p.Codes, p.OnFail)
}

type allowedValuesKind struct{}

func (allowedValuesKind) ID() string    { return KindAllowedValues }
func (allowedValuesKind) Title() string { return TitleAllowedValues }
func (allowedValuesKind) Description() string {
	return "Verifies that every non-missing value of a column belongs to a fixed set."
}
func (allowedValuesKind) Options() []Option {
	return []Option{
		columnOption("to check"),
		{Name: "values", Description: "Permitted values."},
		onFailOption,
	}
}
func (allowedValuesKind) Run(v *Validator, p Params) error {
	if p.Column == "" {
		return errors.New("allowed-values: column is required")
	}
	if len(p.Values) == 0 {
		return errors.New("allowed-values: values must not be empty")
	}
	return v.CheckAllowedValues(p.Column, p.Values, p.OnFail)
}

func init() {
	Register(requiredColumnsKind{})
	Register(textLengthKind{})
	Register(missingValuesKind{})
	Register(uniqueIntegersKind{})
	Register(lookupValuesKind{})
	Register(allowedValuesKind{})
}
