package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"campus-hub/backend/internal/model"
)

var registerOnce sync.Once

// RegisterValidators 在 gin 的校验引擎上注册自定义规则
//
//	platform: ios | android | web
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
			return model.ValidPlatform(fl.Field().String())
		})
	})
}
