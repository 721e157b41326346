package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name   string `validate:"required"`
	Months int    `validate:"min=1,max=24"`
	Plan   string `validate:"oneof=basic premium vip"`
}

func TestStructOK(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "x", Months: 3, Plan: "vip"}))
}

func TestStructListsEveryViolation(t *testing.T) {
	err := Struct(sample{Months: 30, Plan: "gold"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "Name is required")
		assert.Contains(t, err.Error(), "Months must be at most 24")
		assert.Contains(t, err.Error(), "Plan must be one of [basic premium vip]")
	}
}
