package dto

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"herdbook/internal/core/tagging"
)

var registerOnce sync.Once

// RegisterValidators adds the "tagprefix" binding tag to gin's validator.
// An empty prefix passes; the default is applied later.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("tagprefix", func(fl validator.FieldLevel) bool {
			p := fl.Field().String()
			return p == "" || tagging.ValidPrefix(p)
		})
	})
}
