package handlers

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ledgerCodePattern matches entry category and subcategory codes such as PURCHASE or RENT_2026.
var ledgerCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{1,49}$`)

func validateLedgerCode(fl validator.FieldLevel) bool {
	return ledgerCodePattern.MatchString(fl.Field().String())
}

// RegisterValidators adds the custom binding tags used by the request DTOs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("ledger_code", validateLedgerCode)
}
