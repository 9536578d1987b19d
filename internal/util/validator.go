package util

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/stridefit/backend/internal/model"
)

func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("caseinsensitiveoneof", caseInsensitiveOneOf)
	validate.RegisterValidation("resolutionchoice", resolutionChoice)
	validate.RegisterValidation("mergestrategy", mergeStrategy)
	validate.RegisterValidation("recordorigin", recordOrigin)

	return validate
}

func caseInsensitiveOneOf(fl validator.FieldLevel) bool {
	val := strings.ToLower(fl.Field().String())
	candidates := strings.Split(strings.ToLower(fl.Param()), " ")
	for _, v := range candidates {
		if val == v {
			return true
		}
	}
	return false
}

func resolutionChoice(fl validator.FieldLevel) bool {
	switch model.ResolutionChoice(fl.Field().String()) {
	case model.ChoiceKeepManual, model.ChoiceKeepSynced, model.ChoiceMerge, model.ChoiceKeepBoth:
		return true
	}
	return false
}

func mergeStrategy(fl validator.FieldLevel) bool {
	switch model.MergeStrategy(fl.Field().String()) {
	case model.MergePreferManual, model.MergePreferSynced, model.MergeCombineAll:
		return true
	}
	return false
}

func recordOrigin(fl validator.FieldLevel) bool {
	switch model.Origin(fl.Field().String()) {
	case model.OriginManual, model.OriginSynced:
		return true
	}
	return false
}
